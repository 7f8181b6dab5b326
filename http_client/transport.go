package http_client

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"

	"github.com/dungnh3/requestable/library/nap"
)

// Transport names accepted by NewDoer
const (
	TransportStd   = "std"
	TransportResty = "resty"
)

// NewDoer builds the nap.Doer registered under name; an empty name is TransportStd.
func NewDoer(name string, timeout time.Duration) (nap.Doer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", TransportStd:
		return NewHTTPDoer(timeout), nil
	case TransportResty:
		return NewRestyDoer(timeout), nil
	default:
		return nil, errors.Wrapf(ErrUnknownTransport, "transport %q", name)
	}
}

// NewHTTPDoer returns a plain *http.Client with the given timeout.
func NewHTTPDoer(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// RestyDoer adapts resty.Client to nap.Doer.
type RestyDoer struct {
	client *resty.Client
}

// NewRestyDoer creates a new RestyDoer with the specified timeout.
func NewRestyDoer(timeout time.Duration) *RestyDoer {
	c := resty.New()
	c.SetTimeout(timeout)
	return &RestyDoer{client: c}
}

// Do replays req through resty. The returned response owns an in-memory copy
// of the body resty already read.
func (d *RestyDoer) Do(req *http.Request) (*http.Response, error) {
	r := d.client.R().
		SetContext(req.Context()).
		SetHeaderMultiValues(req.Header)

	if req.Body != nil && req.Body != http.NoBody {
		payload, err := io.ReadAll(req.Body)
		req.Body.Close()
		if err != nil {
			return nil, err
		}
		r.SetBody(payload)
	}

	resp, err := r.Execute(req.Method, req.URL.String())
	if err != nil {
		return nil, err
	}

	body := resp.Body()
	out := &http.Response{
		Status:        resp.Status(),
		StatusCode:    resp.StatusCode(),
		Header:        resp.Header(),
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Request:       req,
	}
	if raw := resp.RawResponse; raw != nil {
		out.Proto, out.ProtoMajor, out.ProtoMinor = raw.Proto, raw.ProtoMajor, raw.ProtoMinor
	}
	return out, nil
}
