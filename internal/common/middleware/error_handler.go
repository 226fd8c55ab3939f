package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"referral-tracker-backend/internal/common/errors"
	"referral-tracker-backend/internal/common/logger"
)

const (
	RequestIDKey    = "request_id"
	RequestIDHeader = "X-Request-ID"

	internalErrorMessage = "Internal Server Error."
)

// ErrorHandler recovers panics into a plain-text 500.
func ErrorHandler() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logger.Error().
			Str("request_id", getRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Str("panic", fmt.Sprintf("%v", recovered)).
			Str("stack", string(debug.Stack())).
			Msg("Panic recovered")

		c.Abort()
		c.String(http.StatusInternalServerError, internalErrorMessage)
	})
}

func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
		}

		c.Set(RequestIDKey, requestID)
		c.Header(RequestIDHeader, requestID)
		c.Next()
	}
}

// HTTPStatus maps an error code to a status. In legacy mode every client error is 404.
func HTTPStatus(appErr *errors.AppError, legacy bool) int {
	if appErr.IsInternal() {
		return http.StatusInternalServerError
	}
	if legacy {
		return http.StatusNotFound
	}
	if appErr.IsNotFound() {
		return http.StatusNotFound
	}
	switch appErr.Code {
	case errors.ErrCodeEmailTaken, errors.ErrCodeDuplicateMilestone:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// RespondError writes err as a plain-text body. overrides replaces the message
// for specific codes, since some routes word the same failure differently.
func RespondError(c *gin.Context, err error, legacy bool, overrides map[errors.ErrorCode]string) {
	appErr := errors.FromError(err)
	appErr.WithRequestID(getRequestID(c)).
		WithContext("path", c.Request.URL.Path).
		WithContext("method", c.Request.Method)

	logError(appErr, c)

	status := HTTPStatus(appErr, legacy)
	message := appErr.Message
	if appErr.IsInternal() {
		message = internalErrorMessage
	} else if m, ok := overrides[appErr.Code]; ok {
		message = m
	}
	c.String(status, message)
}

func logError(appErr *errors.AppError, c *gin.Context) {
	var event *zerolog.Event
	if appErr.IsInternal() {
		event = logger.Error()
	} else {
		event = logger.Debug()
	}

	event = event.
		Str("request_id", getRequestID(c)).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Str("error_code", string(appErr.Code)).
		Str("error_message", appErr.Message)

	if len(appErr.Details) > 0 {
		event = event.Interface("details", appErr.Details)
	}
	if appErr.Cause != nil {
		event = event.Err(appErr.Cause)
	}
	if len(appErr.Stack) > 0 {
		event = event.Strs("stack", appErr.Stack)
	}

	if appErr.IsInternal() {
		event.Msg("Internal error occurred")
	} else {
		event.Msg("Client error")
	}
}

func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get(RequestIDKey); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return "unknown"
}
