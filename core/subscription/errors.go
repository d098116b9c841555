package subscription

import "errors"

var (
	// ErrEmptyEvent is returned when an operation receives an empty event name.
	ErrEmptyEvent = errors.New("subscription: event name is required")

	// ErrEmptySubscriber is returned when an operation receives an empty subscriber name.
	ErrEmptySubscriber = errors.New("subscription: subscriber name is required")

	// ErrEmptyCallbackURL is returned when Subscribe receives an empty callback URL.
	ErrEmptyCallbackURL = errors.New("subscription: callback url is required")
)
