package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode identifies the kind of failure independent of its message.
type ErrorCode string

const (
	// Client-correctable input errors
	ErrCodeMissingFields      ErrorCode = "MISSING_FIELDS"
	ErrCodeInvalidEmail       ErrorCode = "INVALID_EMAIL"
	ErrCodeInvalidPhone       ErrorCode = "INVALID_PHONE"
	ErrCodeEmailTaken         ErrorCode = "EMAIL_TAKEN"
	ErrCodeInvalidReferral    ErrorCode = "INVALID_REFERRAL"
	ErrCodeNotFound           ErrorCode = "NOT_FOUND"
	ErrCodeInvalidMilestone   ErrorCode = "INVALID_MILESTONE"
	ErrCodeDuplicateMilestone ErrorCode = "DUPLICATE_MILESTONE"

	// Server-side failures
	ErrCodeInternal      ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabaseError ErrorCode = "DATABASE_ERROR"
	ErrCodeCacheError    ErrorCode = "CACHE_ERROR"
)

// AppError is a typed application error carried from the service to the transport.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Context   map[string]string      `json:"context,omitempty"`
	Stack     []string               `json:"stack,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	RequestID string                 `json:"request_id,omitempty"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// IsClient reports whether the caller can fix the request and retry.
func (e *AppError) IsClient() bool {
	switch e.Code {
	case ErrCodeMissingFields, ErrCodeInvalidEmail, ErrCodeInvalidPhone, ErrCodeEmailTaken,
		ErrCodeInvalidReferral, ErrCodeNotFound, ErrCodeInvalidMilestone, ErrCodeDuplicateMilestone:
		return true
	}
	return false
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound
}

func (e *AppError) IsInternal() bool {
	return !e.IsClient()
}

func (e *AppError) WithContext(key, value string) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func (e *AppError) WithRequestID(requestID string) *AppError {
	e.RequestID = requestID
	return e
}

func (e *AppError) WithStack() *AppError {
	e.Stack = getStackTrace()
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Wrap attaches a cause and the call stack; used for server-side failures.
func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message).WithStack()
	appErr.Cause = err
	return appErr
}

func getStackTrace() []string {
	var stack []string
	for i := 2; ; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}
		if strings.Contains(fn.Name(), "internal/common/errors") {
			continue
		}
		stack = append(stack, fmt.Sprintf("%s:%d %s", file, line, fn.Name()))
		if len(stack) >= 10 {
			break
		}
	}
	return stack
}

func NewMissingFieldsError(fields ...string) *AppError {
	e := New(ErrCodeMissingFields, "Missing/Invalid Fields.")
	if len(fields) > 0 {
		e.WithDetail("fields", fields)
	}
	return e
}

func NewInvalidEmailError(email string) *AppError {
	return New(ErrCodeInvalidEmail, "Invalid Email Address.").
		WithDetail("email", email)
}

func NewInvalidPhoneError() *AppError {
	return New(ErrCodeInvalidPhone, "Missing/Invalid Phone Number.")
}

func NewEmailTakenError(email string) *AppError {
	return New(ErrCodeEmailTaken, "Email already Registered.").
		WithDetail("email", email)
}

func NewInvalidReferralError(code string) *AppError {
	return New(ErrCodeInvalidReferral, "Invalid Referral").
		WithDetail("referred_by", code)
}

func NewEmailNotFoundError(email string) *AppError {
	return New(ErrCodeNotFound, "Email Not Found.").
		WithDetail("email", email)
}

func NewInvalidMilestoneError(referralCount, award string) *AppError {
	return New(ErrCodeInvalidMilestone, "Invalid Milestone Entries.").
		WithDetail("referral_count", referralCount).
		WithDetail("award", award)
}

func NewDuplicateMilestoneError(referralCount int) *AppError {
	return New(ErrCodeDuplicateMilestone, "Milestone Already Present.").
		WithDetail("referral_count", referralCount)
}

func NewDatabaseError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDatabaseError, fmt.Sprintf("Database operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewCacheError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeCacheError, fmt.Sprintf("Cache operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError finds an AppError anywhere in the chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err == nil || !errors.As(err, &appErr) {
		return nil, false
	}
	return appErr, true
}

// FromError converts any error into an AppError, treating unknown errors as internal.
func FromError(err error) *AppError {
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}
	return Wrap(err, ErrCodeInternal, "Internal Server Error.")
}
