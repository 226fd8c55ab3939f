package logger

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitWithWriter(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "referral-test", false)

	Debug().Msg("hidden")
	Info().Str("referral_code", "code-1").Msg("User enrolled")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "User enrolled")
	assert.Contains(t, out, "referral_code:code-1")
	assert.Contains(t, out, "service:referral-test")
}

func TestInitWithWriterDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(&buf, "referral-test", true)

	Debug().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}
