package errors

import "errors"

var (
	ErrSensorNotFound    = errors.New("sensor not found")
	ErrAlreadyConfigured = errors.New("feed is already configured")
	ErrCannotConnect     = errors.New("cannot_connect")
	ErrMissingName       = errors.New("name is required")
	ErrMissingFeedURL    = errors.New("feed_url is required")
)
