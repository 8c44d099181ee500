package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUnavailable     = errors.New("store unavailable")
	ErrThrottled       = errors.New("throttled")
	ErrConditionFailed = errors.New("condition failed")
)

// Transient reports whether err should be retried with backoff.
func Transient(err error) bool {
	return errors.Is(err, ErrUnavailable) || errors.Is(err, ErrThrottled)
}
