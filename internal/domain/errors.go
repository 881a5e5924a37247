package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCompanyNotFound is returned when no company record matches a lookup
	ErrCompanyNotFound = errors.New("company not found")

	// ErrJobNotFound is returned when a job cannot be found in the database
	ErrJobNotFound = errors.New("job not found")

	// ErrJobAlreadyFinished is returned when a terminal transition targets a job that is no longer processing
	ErrJobAlreadyFinished = errors.New("job already completed or failed")

	// ErrInvalidCredentials is returned when a client_id/client_secret pair does not match
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenConflict is returned when a generated token collides with an existing one
	ErrTokenConflict = errors.New("token already exists")

	// ErrQueueFull is returned when the job queue cannot accept another submission
	ErrQueueFull = errors.New("job queue is full")

	// ErrWorkerStopped is returned when a job is submitted after shutdown began
	ErrWorkerStopped = errors.New("worker is stopped")

	// ErrMissingAPIKey is returned when no generation provider key is configured
	ErrMissingAPIKey = errors.New("gemini api key is not configured")

	// ErrEmptyCompanyName is returned when a company name is blank after trimming
	ErrEmptyCompanyName = errors.New("company name cannot be empty")
)

// GenerationError reports that the analysis provider could not produce a
// usable document, after all retry attempts were spent.
type GenerationError struct {
	CompanyName string
	Attempts    int
	Err         error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("unable to analyze company '%s' after %d attempt(s): %v", e.CompanyName, e.Attempts, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsGenerationError reports whether err is, or wraps, a GenerationError
func IsGenerationError(err error) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr)
}
