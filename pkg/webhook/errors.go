package webhook

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidURL           = errors.New("invalid webhook url")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrTimeout              = errors.New("webhook request timed out")
	ErrPermanentFailure     = errors.New("webhook permanently rejected")
	ErrTemporaryFailure     = errors.New("webhook temporarily failed")
	ErrInvalidSignature     = errors.New("invalid webhook signature")
	ErrSignatureExpired     = errors.New("webhook signature expired")
	ErrMissingSignature     = errors.New("missing webhook signature headers")
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
)

// StatusError carries the HTTP status of a rejected delivery.
// It unwraps to ErrPermanentFailure for 4xx and ErrTemporaryFailure otherwise.
type StatusError struct {
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.StatusCode)
}

func (e *StatusError) Unwrap() error {
	if e.StatusCode >= 400 && e.StatusCode < 500 && e.StatusCode != 408 && e.StatusCode != 429 {
		return ErrPermanentFailure
	}
	return ErrTemporaryFailure
}
