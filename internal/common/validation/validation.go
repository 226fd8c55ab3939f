package validation

import (
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	MaxNameLength     = 50
	MaxPasswordLength = 50
	PhoneNumberLength = 10

	// Number of mask characters between the kept head and tail of an email
	maskWidth = 5
)

// Whole-string match, word-boundary anchored: local@domain.tld with a TLD of at least two letters.
var emailRegex = regexp.MustCompile(`^\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b$`)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// IsValidEmail reports whether s looks like local-part@domain.tld.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// IsValidPhoneNumber reports whether s is exactly ten ASCII digits.
func IsValidPhoneNumber(s string) bool {
	return len(s) == PhoneNumberLength && IsDecimalDigits(s)
}

// IsDecimalDigits reports whether s is non-empty and made of ASCII digits only.
func IsDecimalDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// MaskEmail keeps the first character, five mask characters, then everything from
// the character before '@' onward: "abcdef@example.com" -> "a*****f@example.com".
// Input must be a validated email; anything without a local part yields only the mask.
func MaskEmail(s string) string {
	at := strings.IndexByte(s, '@')
	if at < 1 {
		return strings.Repeat("*", maskWidth)
	}
	_, firstLen := utf8.DecodeRuneInString(s)
	_, lastLen := utf8.DecodeLastRuneInString(s[:at])
	return s[:firstLen] + strings.Repeat("*", maskWidth) + s[at-lastLen:]
}

// ValidateFields checks the struct tags of the named fields only.
func ValidateFields(v interface{}, fields ...string) error {
	return structValidator().StructPartial(v, fields...)
}

// ValidateStruct checks every struct tag of v.
func ValidateStruct(v interface{}) error {
	return structValidator().Struct(v)
}

// FailedFields lists the struct fields named in a validator error.
func FailedFields(err error) []string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fe.Field())
	}
	return fields
}
