package http_client

import (
	"context"
	"net/url"
	"time"

	"github.com/dungnh3/requestable/library/nap"
)

const (
	defaultTimeoutMs = 5000
)

// Option ..
type Option struct {
	// BaseURL scopes relative request URLs, e.g. "https://api.example.com/v1"
	BaseURL string
	// Header is sent with every request, per-request Headers win
	Header map[string]string
	// TimeoutMs is a number of time before TCP connection stop (unit: miliseconds)
	TimeoutMs int
	// Doer sends the requests, a *http.Client honoring TimeoutMs when nil
	Doer nap.Doer
}

// Client implements Requestable on top of the nap library
type Client struct {
	baseURL *url.URL
	base    *nap.Nap
}

var _ Requestable = (*Client)(nil)

// New returns a Client configured by option, a nil option means defaults
func New(option *Option) (*Client, error) {
	if option == nil {
		option = &Option{}
	}
	timeoutMs := option.TimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = defaultTimeoutMs
	}

	client := &Client{}
	if option.BaseURL != "" {
		baseURL, ok := parseURLString(option.BaseURL)
		if !ok || baseURL.Scheme == "" || baseURL.Host == "" {
			return nil, ErrInvalidURL
		}
		client.baseURL = baseURL
	}

	doer := option.Doer
	if doer == nil {
		doer = NewHTTPDoer(time.Duration(timeoutMs) * time.Millisecond)
	}
	client.base = nap.New().Doer(doer).SetHeaders(option.Header)
	return client, nil
}

// FetchData blocks until the body of req is received. See RequestData.
func (c *Client) FetchData(ctx context.Context, req Request) ([]byte, error) {
	target, err := c.resolveURL(req.URL)
	if err != nil {
		return nil, err
	}
	verb := req.Verb
	if verb == "" {
		verb = nap.MethodGet
	}

	data, _, err := c.base.New().
		SetContext(ctx).
		Method(verb, target.String()).
		SetHeaders(req.Headers).
		Parameters(req.Parameters, req.Encoding).
		ReceiveData()
	if err != nil {
		return nil, err
	}
	return data, nil
}

// FetchObject blocks until the body of req is received and decoded. See RequestObject.
func (c *Client) FetchObject(ctx context.Context, req Request) (JSONObject, error) {
	data, err := c.FetchData(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeObject(data)
}

// FetchArray blocks until the body of req is received and decoded. See RequestArray.
func (c *Client) FetchArray(ctx context.Context, req Request) (JSONArray, error) {
	data, err := c.FetchData(ctx, req)
	if err != nil {
		return nil, err
	}
	return decodeArray(data)
}

// RequestData sends req on its own goroutine and hands the body to completion.
func (c *Client) RequestData(ctx context.Context, req Request, completion DataCompletion) {
	if completion == nil {
		completion = func([]byte, error) {}
	}
	go func() {
		completion(c.FetchData(ctx, req))
	}()
}

// RequestObject layers JSON object decoding over RequestData.
func (c *Client) RequestObject(ctx context.Context, req Request, completion ObjectCompletion) {
	if completion == nil {
		completion = func(JSONObject, error) {}
	}
	c.RequestData(ctx, req, func(data []byte, err error) {
		if err != nil {
			completion(nil, err)
			return
		}
		completion(decodeObject(data))
	})
}

// RequestArray layers JSON array decoding over RequestData.
func (c *Client) RequestArray(ctx context.Context, req Request, completion ArrayCompletion) {
	if completion == nil {
		completion = func(JSONArray, error) {}
	}
	c.RequestData(ctx, req, func(data []byte, err error) {
		if err != nil {
			completion(nil, err)
			return
		}
		completion(decodeArray(data))
	})
}
