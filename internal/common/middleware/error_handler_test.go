package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	apperrors "referral-tracker-backend/internal/common/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		err          *apperrors.AppError
		legacy       int
		conventional int
	}{
		{apperrors.NewMissingFieldsError(), http.StatusNotFound, http.StatusBadRequest},
		{apperrors.NewInvalidEmailError("x"), http.StatusNotFound, http.StatusBadRequest},
		{apperrors.NewInvalidPhoneError(), http.StatusNotFound, http.StatusBadRequest},
		{apperrors.NewInvalidReferralError("x"), http.StatusNotFound, http.StatusBadRequest},
		{apperrors.NewInvalidMilestoneError("x", "y"), http.StatusNotFound, http.StatusBadRequest},
		{apperrors.NewEmailNotFoundError("x"), http.StatusNotFound, http.StatusNotFound},
		{apperrors.NewEmailTakenError("x"), http.StatusNotFound, http.StatusConflict},
		{apperrors.NewDuplicateMilestoneError(1), http.StatusNotFound, http.StatusConflict},
		{apperrors.NewDatabaseError("x", errors.New("down")), http.StatusInternalServerError, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Code), func(t *testing.T) {
			assert.Equal(t, tt.legacy, HTTPStatus(tt.err, true))
			assert.Equal(t, tt.conventional, HTTPStatus(tt.err, false))
		})
	}
}

func newRouter() *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Logger(), ErrorHandler())
	r.GET("/panic", func(c *gin.Context) { panic("boom") })
	r.GET("/fail", func(c *gin.Context) {
		RespondError(c, apperrors.NewEmailNotFoundError("x"), true, map[apperrors.ErrorCode]string{
			apperrors.ErrCodeNotFound: "Nope.",
		})
	})
	r.GET("/internal", func(c *gin.Context) {
		RespondError(c, apperrors.NewDatabaseError("select", errors.New("secret dsn")), true, nil)
	})
	return r
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	r := newRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/fail", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestRespondErrorAppliesOverrides(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fail", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Nope.", w.Body.String())
}

func TestInternalErrorsHideCause(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/internal", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error.", w.Body.String())
}

func TestPanicsBecomePlainTextErrors(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "Internal Server Error.", w.Body.String())
}
