package coursejob

import "errors"

var (
	// ErrInvalidInput is returned when a submission is missing required fields.
	ErrInvalidInput = errors.New("coursejob: invalid input")
	// ErrNotFound is returned when a job id is unknown.
	ErrNotFound = errors.New("coursejob: job not found")
	// ErrNotReady is returned when a completed result is requested from a
	// job that has not finished.
	ErrNotReady = errors.New("coursejob: job not completed")
)
