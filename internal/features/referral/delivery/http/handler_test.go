package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"referral-tracker-backend/internal/features/referral/repository/memory"
	"referral-tracker-backend/internal/features/referral/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var fixedNow = time.Date(2024, 5, 17, 9, 30, 0, 0, time.UTC)

func sequentialCodes() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("code-%d", n)
	}
}

func newRouter(svc service.ReferralService, legacy bool) *gin.Engine {
	r := gin.New()
	NewReferralHandler(svc, legacy).RegisterRoutes(r.Group("/api"))
	return r
}

func newTestRouter(legacy bool) *gin.Engine {
	svc := service.NewReferralService(memory.NewStore(),
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithCodeGenerator(sequentialCodes()))
	return newRouter(svc, legacy)
}

func do(r http.Handler, method, path string, params url.Values) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path+"?"+params.Encode(), nil)
	r.ServeHTTP(w, req)
	return w
}

func enrollParams(email string) url.Values {
	return url.Values{
		"first_name":   {"Jane"},
		"last_name":    {"Doe"},
		"email":        {email},
		"password":     {"hunter2"},
		"phone_number": {"5551234567"},
	}
}

func emailParam(email string) url.Values {
	return url.Values{"email": {email}}
}

func milestoneParams(count, award string) url.Values {
	return url.Values{"referral_count": {count}, "award": {award}}
}

func TestLegacyStatusAndMessages(t *testing.T) {
	r := newTestRouter(true)

	tests := []struct {
		name   string
		method string
		path   string
		params url.Values
		status int
		body   string
	}{
		{"enroll", http.MethodPost, "/api/enroll", enrollParams("jane@example.com"), http.StatusCreated, "Account Added Successfully."},
		{"enroll again", http.MethodPost, "/api/enroll", enrollParams("jane@example.com"), http.StatusNotFound, "Email already Registered."},
		{"enroll bad email", http.MethodPost, "/api/enroll", enrollParams("jane"), http.StatusNotFound, "Missing/Invalid Email Address."},
		{"enroll no fields", http.MethodPost, "/api/enroll", url.Values{}, http.StatusNotFound, "Missing/Invalid Fields."},
		{"referral code", http.MethodGet, "/api/referralCode", emailParam("jane@example.com"), http.StatusCreated, "code-1"},
		{"referral code unknown", http.MethodGet, "/api/referralCode", emailParam("john@example.com"), http.StatusNotFound, "Email Not Found."},
		{"referral code bad email", http.MethodGet, "/api/referralCode", emailParam("john"), http.StatusNotFound, "Invalid Email Address."},
		{"add milestone", http.MethodPost, "/api/addMilestone", milestoneParams("5", "100"), http.StatusCreated, "Milestone Added."},
		{"add milestone again", http.MethodPost, "/api/addMilestone", milestoneParams("5", "100"), http.StatusNotFound, "Milestone Already Present."},
		{"add milestone invalid", http.MethodPost, "/api/addMilestone", milestoneParams("five", "100"), http.StatusNotFound, "Invalid Milestone Entries."},
		{"withdraw", http.MethodPost, "/api/withdraw", emailParam("jane@example.com"), http.StatusCreated, "Account successfully Withdrawn."},
		{"withdraw again", http.MethodPost, "/api/withdraw", emailParam("jane@example.com"), http.StatusNotFound, "Email Not Found."},
	}

	// cases run in order against one router
	for _, tt := range tests {
		w := do(r, tt.method, tt.path, tt.params)
		assert.Equal(t, tt.status, w.Code, tt.name)
		assert.Equal(t, tt.body, w.Body.String(), tt.name)
	}
}

func TestEnrollReadsFormBody(t *testing.T) {
	r := newTestRouter(true)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/enroll", strings.NewReader(enrollParams("jane@example.com").Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(r, http.MethodGet, "/api/referralCode", emailParam("jane@example.com"))
	assert.Equal(t, "code-1", w.Body.String())
}

func TestEnrollWithReferralCode(t *testing.T) {
	r := newTestRouter(true)

	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/enroll", enrollParams("ann@example.com")).Code)

	params := enrollParams("bob@example.com")
	params.Set("referred_by", "code-404")
	w := do(r, http.MethodPost, "/api/enroll", params)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Invalid Referral", w.Body.String())

	params.Set("referred_by", "code-1")
	w = do(r, http.MethodPost, "/api/enroll", params)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func seedReferrals(t *testing.T, r http.Handler) {
	t.Helper()

	for _, m := range [][2]string{{"1", "10"}, {"2", "100"}, {"10", "250"}} {
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/addMilestone", milestoneParams(m[0], m[1])).Code)
	}
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/enroll", enrollParams("ann@example.com")).Code)
	for _, email := range []string{"bobby@example.com", "carol@example.org"} {
		params := enrollParams(email)
		params.Set("referred_by", "code-1")
		require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/enroll", params).Code)
	}
}

func TestJSONResponses(t *testing.T) {
	g := goldie.New(t, goldie.WithFixtureDir("testdata/golden"), goldie.WithNameSuffix(".golden"))

	tests := []struct {
		name   string
		legacy bool
		path   string
		status int
	}{
		{"milestones_legacy", true, "/api/milestones", http.StatusCreated},
		{"milestones", false, "/api/milestones", http.StatusOK},
		{"history_legacy", true, "/api/referralHistory", http.StatusCreated},
		{"history", false, "/api/referralHistory", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestRouter(tt.legacy)
			seedReferrals(t, r)

			w := do(r, http.MethodGet, tt.path, emailParam("ann@example.com"))
			require.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
			g.Assert(t, tt.name, w.Body.Bytes())
		})
	}
}

func TestEmptyListsEncodeAsArrays(t *testing.T) {
	r := newTestRouter(true)
	require.Equal(t, http.StatusCreated, do(r, http.MethodPost, "/api/enroll", enrollParams("ann@example.com")).Code)

	w := do(r, http.MethodGet, "/api/milestones", emailParam("ann@example.com"))
	assert.Equal(t, "[]", w.Body.String())

	w = do(r, http.MethodGet, "/api/referralHistory", emailParam("ann@example.com"))
	assert.Equal(t, "[]", w.Body.String())

	w = do(r, http.MethodGet, "/api/referralHistory", emailParam("nobody@example.com"))
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Email Not Found.", w.Body.String())
}

func TestConventionalStatuses(t *testing.T) {
	r := newTestRouter(false)

	tests := []struct {
		name   string
		method string
		path   string
		params url.Values
		status int
	}{
		{"enroll", http.MethodPost, "/api/enroll", enrollParams("jane@example.com"), http.StatusCreated},
		{"enroll again", http.MethodPost, "/api/enroll", enrollParams("jane@example.com"), http.StatusConflict},
		{"enroll no fields", http.MethodPost, "/api/enroll", url.Values{}, http.StatusBadRequest},
		{"referral code", http.MethodGet, "/api/referralCode", emailParam("jane@example.com"), http.StatusOK},
		{"referral code unknown", http.MethodGet, "/api/referralCode", emailParam("john@example.com"), http.StatusNotFound},
		{"referral code bad email", http.MethodGet, "/api/referralCode", emailParam("john"), http.StatusBadRequest},
		{"add milestone", http.MethodPost, "/api/addMilestone", milestoneParams("5", "100"), http.StatusCreated},
		{"add milestone again", http.MethodPost, "/api/addMilestone", milestoneParams("5", "100"), http.StatusConflict},
		{"add milestone invalid", http.MethodPost, "/api/addMilestone", milestoneParams("", "100"), http.StatusBadRequest},
		{"withdraw", http.MethodPost, "/api/withdraw", emailParam("jane@example.com"), http.StatusOK},
	}

	for _, tt := range tests {
		w := do(r, tt.method, tt.path, tt.params)
		assert.Equal(t, tt.status, w.Code, tt.name)
	}
}

// brokenService fails every lookup with an error the store did not classify.
type brokenService struct {
	service.ReferralService
}

func (brokenService) GetReferralCode(ctx context.Context, email string) (string, error) {
	return "", errors.New("connection refused")
}

func TestInternalErrorsAreHidden(t *testing.T) {
	for _, legacy := range []bool{true, false} {
		r := newRouter(brokenService{}, legacy)

		w := do(r, http.MethodGet, "/api/referralCode", emailParam("jane@example.com"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal Server Error.", w.Body.String())
	}
}
