// Package apierr classifies transcription API failures into a small set
// of sentinels and provides the backoff loop that retries the transient
// ones.
//
// Provider adapters wrap their own error types at the boundary, in the
// form fmt.Errorf("%s: %w", detail, sentinel), so the rest of the program
// only ever matches with errors.Is.
package apierr

import "errors"

var (
	// ErrRateLimit: too many requests right now. Transient; retry.
	ErrRateLimit = errors.New("rate limited")

	// ErrQuotaExceeded: the account is out of credit. Retrying cannot help.
	ErrQuotaExceeded = errors.New("quota exhausted")

	// ErrTimeout: the request did not complete in time.
	ErrTimeout = errors.New("request timed out")

	// ErrAuthFailed: the API key was rejected.
	ErrAuthFailed = errors.New("authentication rejected")

	// ErrBadRequest: a 4xx with no more specific classification.
	ErrBadRequest = errors.New("invalid request")

	// ErrServerError: a 5xx. Usually transient; retry.
	ErrServerError = errors.New("server error")
)
