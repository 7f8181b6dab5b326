package nap

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyResponse is returned by ReceiveData when a response that should carry a body has none
	ErrEmptyResponse = errors.New("nap: response body is empty")
)

// StatusError is returned by ReceiveData when the SuccessDecider rejects the response
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	msg := fmt.Sprintf("nap: unacceptable status code %d", e.StatusCode)
	if snippet := bodySnippet(e.Body); snippet != "" {
		msg += ": " + snippet
	}
	return msg
}

func bodySnippet(body []byte) string {
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
