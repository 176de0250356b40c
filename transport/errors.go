package transport

import "errors"

var (
	// ErrNotLive is returned by Send when the context holds no session.
	ErrNotLive = errors.New("transport: session context is not live")

	// ErrNoBaseURL is returned by New when Config.BaseURL is empty.
	ErrNoBaseURL = errors.New("transport: base url is required")

	// ErrUnexpectedResponse is returned when a verified body is neither a
	// response nor an error envelope.
	ErrUnexpectedResponse = errors.New("transport: unexpected response body")
)
