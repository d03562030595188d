package errors

import (
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTrackerErrorMessage(t *testing.T) {
	err := NewNetwork("us", "failed to fetch page 2", io.ErrUnexpectedEOF)
	assert.Equal(t, "[network] us: failed to fetch page 2 - unexpected EOF", err.Error())

	err = NewValidation("markets", "weight must be positive")
	assert.Equal(t, "[validation] markets: weight must be positive", err.Error())

	err = NewConfiguration("unknown fetch mode", nil)
	assert.Equal(t, "[configuration] -: unknown fetch mode", err.Error())
}

func TestTrackerErrorUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := fmt.Errorf("saving: %w", NewStorage("history.json", "write failed", cause))

	assert.ErrorIs(t, err, cause)
	assert.True(t, IsType(err, ErrorTypeStorage))
	assert.False(t, IsType(err, ErrorTypeNetwork))
	assert.False(t, IsType(cause, ErrorTypeStorage))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, NewNetwork("gb", "timeout", nil).IsRetryable())
	assert.True(t, NewNotification("discord", "502", nil).IsRetryable())
	assert.False(t, NewRateLimit("jp", time.Minute).IsRetryable())
	assert.False(t, NewParsing("de", "bad html", nil).IsRetryable())
}

func TestNewRateLimit(t *testing.T) {
	assert.Equal(t, "rate limited for 1m0s", NewRateLimit("kr", time.Minute).Message)
	assert.Equal(t, "rate limited", NewRateLimit("kr", 0).Message)
}
