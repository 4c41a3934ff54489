package errors

import (
	"fmt"
	"time"
)

/*
PipelineError represents a typed error raised by the rewrite pipeline.
The Code identifies the failure class so callers can decide whether the
condition is fatal or locally recoverable.
*/
type PipelineError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

/*
Error implements the error interface for PipelineError.
*/
func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error %d: %s", e.Code, e.Message)
}

// Convenience errors. Only ErrDetection ever propagates to callers of
// Pipeline.Rewrite; everything else is recovered locally by degrading to
// empty-candidate or no-change outcomes.
var (
	ErrDetection           = &PipelineError{Code: 1000, Message: "Detection failed"}
	ErrProviderUnavailable = &PipelineError{Code: 1001, Message: "Provider unavailable"}
	ErrValidation          = &PipelineError{Code: 1002, Message: "Meaning preservation check failed"}
	ErrFingerprintNotFound = &PipelineError{Code: 1003, Message: "Fingerprint not found"}
	ErrCorpusUnavailable   = &PipelineError{Code: 1004, Message: "Corpus index unavailable"}
	ErrInvalidOptions      = &PipelineError{Code: 1005, Message: "Invalid options"}
)

// WithMessagef creates a *copy* of a PipelineError with a formatted message.
// It does not modify the original error variable.
func (e *PipelineError) WithMessagef(format string, args ...any) *PipelineError {
	newErr := *e // Create a shallow copy
	newErr.Message = fmt.Sprintf(format, args...)
	return &newErr
}

// Is makes errors.Is match on the error code so wrapped copies created by
// WithMessagef still compare equal to their sentinel.
func (e *PipelineError) Is(target error) bool {
	other, ok := target.(*PipelineError)
	return ok && other.Code == e.Code
}

// RetryConfig holds configuration for retry behavior.
type RetryConfig struct {
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfig returns a sensible default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:   3,
		InitialDelay:  time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2.0,
	}
}

// RetryWithBackoff executes a function with exponential backoff retry logic.
func RetryWithBackoff(config *RetryConfig, fn func() error) error {
	var err error
	delay := config.InitialDelay

	for attempt := 0; attempt < config.MaxAttempts; attempt++ {
		err = fn()
		if err == nil {
			return nil
		}

		if attempt == config.MaxAttempts-1 {
			break
		}

		time.Sleep(delay)
		delay = time.Duration(float64(delay) * config.BackoffFactor)
		if delay > config.MaxDelay {
			delay = config.MaxDelay
		}
	}

	return fmt.Errorf("after %d attempts, last error: %w", config.MaxAttempts, err)
}
