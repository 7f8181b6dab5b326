package http_client

import "errors"

var (
	// ErrInvalidURL is returned when the request URL cannot be turned into an absolute URL.
	// No request is sent.
	ErrInvalidURL = errors.New("invalid url")
	// ErrInvalidJSONObject is returned by the object operations when the body is not a JSON object
	ErrInvalidJSONObject = errors.New("invalid json object")
	// ErrInvalidJSONArray is returned by the array operations when the body is not a JSON array
	ErrInvalidJSONArray = errors.New("invalid json array")
	// ErrUnknownTransport is returned by NewDoer for an unsupported transport name
	ErrUnknownTransport = errors.New("unknown transport")
)
