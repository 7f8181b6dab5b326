package http_client

import (
	"context"

	"github.com/dungnh3/requestable/library/nap"
)

type (
	// Parameters are body or query parameters, see nap.Parameters
	Parameters = nap.Parameters
	// Encoding decides where Parameters go, see nap.Encoding
	Encoding = nap.Encoding
	// Headers are per-request headers, they override the client's default headers
	Headers = map[string]string
	// JSONObject is a decoded JSON object
	JSONObject = map[string]interface{}
	// JSONArray is a decoded JSON array
	JSONArray = []interface{}
)

// Request describes a single call. It is read once when the call starts.
type Request struct {
	// URL is absolute, or relative to the client's BaseURL
	URL string
	// Verb is the HTTP method, GET when empty
	Verb       string
	Parameters Parameters
	Headers    Headers
	Encoding   Encoding
}

// DataCompletion receives the outcome of RequestData. Exactly one of data and err is set.
type DataCompletion func(data []byte, err error)

// ObjectCompletion receives the outcome of RequestObject.
type ObjectCompletion func(object JSONObject, err error)

// ArrayCompletion receives the outcome of RequestArray.
type ArrayCompletion func(array JSONArray, err error)

// Requestable is the capability set a consumer holds to talk to HTTP endpoints.
//
// Every operation returns immediately; its completion is called exactly once,
// from another goroutine, when the call finishes. There is no ordering between
// calls. Errors are ErrInvalidURL, ErrInvalidJSONObject, ErrInvalidJSONArray, or
// whatever the transport produced (a *nap.StatusError for non-2xx responses,
// nap.ErrEmptyResponse, network errors) passed through unchanged.
type Requestable interface {
	// RequestData fetches the raw response body.
	RequestData(ctx context.Context, req Request, completion DataCompletion)
	// RequestObject fetches the body and decodes it as a JSON object.
	RequestObject(ctx context.Context, req Request, completion ObjectCompletion)
	// RequestArray fetches the body and decodes it as a JSON array.
	RequestArray(ctx context.Context, req Request, completion ArrayCompletion)
}
