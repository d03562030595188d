package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents network-related errors
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
	// ErrorTypeStorage represents history store errors
	ErrorTypeStorage ErrorType = "storage"
	// ErrorTypeNotification represents webhook delivery errors
	ErrorTypeNotification ErrorType = "notification"
)

// TrackerError is the error type shared by the crawler, the history store
// and the delivery services.
type TrackerError struct {
	Type    ErrorType
	Source  string
	Message string
	Err     error
	Time    time.Time
}

// Error implements the error interface
func (e *TrackerError) Error() string {
	source := e.Source
	if source == "" {
		source = "-"
	}
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, source, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, source, e.Message)
}

// Unwrap returns the underlying error
func (e *TrackerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *TrackerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeNotification:
		return true
	default:
		return false
	}
}

// New creates a new TrackerError
func New(errType ErrorType, source, message string, err error) *TrackerError {
	return &TrackerError{
		Type:    errType,
		Source:  source,
		Message: message,
		Err:     err,
		Time:    time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(source, message string, err error) *TrackerError {
	return New(ErrorTypeNetwork, source, message, err)
}

// NewParsing creates a new parsing error
func NewParsing(source, message string, err error) *TrackerError {
	return New(ErrorTypeParsing, source, message, err)
}

// NewRateLimit creates a new rate limit error. A zero duration means the
// server did not say how long to back off.
func NewRateLimit(source string, duration time.Duration) *TrackerError {
	message := "rate limited"
	if duration > 0 {
		message = fmt.Sprintf("rate limited for %v", duration)
	}
	return New(ErrorTypeRateLimit, source, message, nil)
}

// NewCache creates a new cache error
func NewCache(source, message string, err error) *TrackerError {
	return New(ErrorTypeCache, source, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(source, message string, err error) *TrackerError {
	return New(ErrorTypePublisher, source, message, err)
}

// NewValidation creates a new validation error
func NewValidation(source, message string) *TrackerError {
	return New(ErrorTypeValidation, source, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *TrackerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// NewStorage creates a new history store error
func NewStorage(source, message string, err error) *TrackerError {
	return New(ErrorTypeStorage, source, message, err)
}

// NewNotification creates a new webhook delivery error
func NewNotification(source, message string, err error) *TrackerError {
	return New(ErrorTypeNotification, source, message, err)
}

// IsType reports whether err wraps a TrackerError of the given type.
func IsType(err error, errType ErrorType) bool {
	var te *TrackerError
	if errors.As(err, &te) {
		return te.Type == errType
	}
	return false
}
