package http_client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/goleak"

	"github.com/dungnh3/requestable/library/nap"
)

// stubDoer answers every request with the same response or error and records what it saw.
type stubDoer struct {
	status int
	body   string
	err    error

	mu    sync.Mutex
	calls int32
	last  *http.Request
}

func (d *stubDoer) Do(req *http.Request) (*http.Response, error) {
	atomic.AddInt32(&d.calls, 1)
	d.mu.Lock()
	d.last = req
	d.mu.Unlock()
	if d.err != nil {
		return nil, d.err
	}
	return &http.Response{
		StatusCode: d.status,
		Status:     http.StatusText(d.status),
		Header:     make(http.Header),
		Body:       io.NopCloser(strings.NewReader(d.body)),
		Request:    req,
	}, nil
}

func (d *stubDoer) Calls() int { return int(atomic.LoadInt32(&d.calls)) }

func (d *stubDoer) Last() *http.Request {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// outcome is one completion invocation.
type outcome struct {
	value interface{}
	err   error
}

type ClientTestSuite struct {
	suite.Suite

	ctx     context.Context
	leakOpt goleak.Option
}

func TestClientTestSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.ctx = context.Background()
	s.leakOpt = goleak.IgnoreCurrent()
}

func (s *ClientTestSuite) TearDownTest() {
	goleak.VerifyNone(s.T(), s.leakOpt)
}

func (s *ClientTestSuite) newClient(doer nap.Doer, opt *Option) *Client {
	if opt == nil {
		opt = &Option{}
	}
	opt.Doer = doer
	client, err := New(opt)
	s.Require().NoError(err)
	return client
}

// collect waits for the completion and fails when it runs more than once.
func (s *ClientTestSuite) collect(start func(done func(interface{}, error))) outcome {
	results := make(chan outcome, 2)
	start(func(v interface{}, err error) {
		results <- outcome{value: v, err: err}
	})

	var got outcome
	select {
	case got = <-results:
	case <-time.After(2 * time.Second):
		s.FailNow("completion was not called")
	}
	select {
	case extra := <-results:
		s.Failf("completion called twice", "second outcome: %+v", extra)
	case <-time.After(20 * time.Millisecond):
	}
	return got
}

func (s *ClientTestSuite) requestData(c Requestable, req Request) outcome {
	return s.collect(func(done func(interface{}, error)) {
		c.RequestData(s.ctx, req, func(data []byte, err error) { done(data, err) })
	})
}

func (s *ClientTestSuite) requestObject(c Requestable, req Request) outcome {
	return s.collect(func(done func(interface{}, error)) {
		c.RequestObject(s.ctx, req, func(object JSONObject, err error) { done(object, err) })
	})
}

func (s *ClientTestSuite) requestArray(c Requestable, req Request) outcome {
	return s.collect(func(done func(interface{}, error)) {
		c.RequestArray(s.ctx, req, func(array JSONArray, err error) { done(array, err) })
	})
}

func (s *ClientTestSuite) TestMalformedURLNeverReachesTransport() {
	doer := &stubDoer{status: http.StatusOK, body: `{}`}
	client := s.newClient(doer, nil)

	for _, raw := range []string{"", "http://exa mple.com", "http://example.com/<path>", "relative/path", "http://example.com/%zz", "http://exämple.com"} {
		req := Request{URL: raw}

		got := s.requestData(client, req)
		s.Equal(ErrInvalidURL, got.err, raw)
		s.Nil(got.value.([]byte), raw)

		got = s.requestObject(client, req)
		s.Equal(ErrInvalidURL, got.err, raw)

		got = s.requestArray(client, req)
		s.Equal(ErrInvalidURL, got.err, raw)
	}
	s.Equal(0, doer.Calls())
}

func (s *ClientTestSuite) TestRequestObjectDecodesMapping() {
	client := s.newClient(&stubDoer{status: http.StatusOK, body: `{"a": 1}`}, nil)

	got := s.requestObject(client, Request{URL: "http://example.com/obj"})
	s.NoError(got.err)
	s.Equal(JSONObject{"a": float64(1)}, got.value)
}

func (s *ClientTestSuite) TestArrayBodyIsShapeMismatchForObject() {
	doer := &stubDoer{status: http.StatusOK, body: `[1,2,3]`}
	client := s.newClient(doer, nil)
	req := Request{URL: "http://example.com/list"}

	got := s.requestObject(client, req)
	s.Equal(ErrInvalidJSONObject, got.err)
	s.Nil(got.value.(JSONObject))

	got = s.requestArray(client, req)
	s.NoError(got.err)
	s.Equal(JSONArray{float64(1), float64(2), float64(3)}, got.value)

	s.Equal(2, doer.Calls())
}

func (s *ClientTestSuite) TestInvalidJSON() {
	client := s.newClient(&stubDoer{status: http.StatusOK, body: `not json`}, nil)
	req := Request{URL: "http://example.com"}

	s.Equal(ErrInvalidJSONObject, s.requestObject(client, req).err)
	s.Equal(ErrInvalidJSONArray, s.requestArray(client, req).err)

	got := s.requestData(client, req)
	s.NoError(got.err)
	s.Equal([]byte("not json"), got.value)
}

func (s *ClientTestSuite) TestInvalidUTF8IsMalformedJSON() {
	req := Request{URL: "http://example.com"}

	client := s.newClient(&stubDoer{status: http.StatusOK, body: "{\"a\":\"\xff\"}"}, nil)
	s.Equal(ErrInvalidJSONObject, s.requestObject(client, req).err)

	client = s.newClient(&stubDoer{status: http.StatusOK, body: "[\"\xfe\"]"}, nil)
	s.Equal(ErrInvalidJSONArray, s.requestArray(client, req).err)
}

func (s *ClientTestSuite) TestTopLevelScalarIsShapeMismatch() {
	for _, body := range []string{`42`, `"text"`, `null`, `true`} {
		client := s.newClient(&stubDoer{status: http.StatusOK, body: body}, nil)
		req := Request{URL: "http://example.com"}

		s.Equal(ErrInvalidJSONObject, s.requestObject(client, req).err, body)
		s.Equal(ErrInvalidJSONArray, s.requestArray(client, req).err, body)
	}
}

func (s *ClientTestSuite) TestTransportErrorPassesThroughUnchanged() {
	failure := errors.New("network is unreachable")
	doer := &stubDoer{err: failure}
	client := s.newClient(doer, nil)
	req := Request{URL: "http://example.com"}

	s.Same(failure, s.requestData(client, req).err)
	s.Same(failure, s.requestObject(client, req).err)
	s.Same(failure, s.requestArray(client, req).err)
	s.Equal(3, doer.Calls())
}

func (s *ClientTestSuite) TestNon2xxIsStatusError() {
	client := s.newClient(&stubDoer{status: http.StatusServiceUnavailable, body: `{"error":"down"}`}, nil)

	got := s.requestObject(client, Request{URL: "http://example.com"})
	var statusErr *nap.StatusError
	s.Require().True(errors.As(got.err, &statusErr))
	s.Equal(http.StatusServiceUnavailable, statusErr.StatusCode)
}

func (s *ClientTestSuite) TestEmptyBodyPassesThroughEmptyResponseError() {
	client := s.newClient(&stubDoer{status: http.StatusOK}, nil)

	s.Equal(nap.ErrEmptyResponse, s.requestObject(client, Request{URL: "http://example.com"}).err)

	client = s.newClient(&stubDoer{status: http.StatusNoContent}, nil)
	got := s.requestData(client, Request{URL: "http://example.com"})
	s.NoError(got.err)
	s.Empty(got.value)
}

func (s *ClientTestSuite) TestRequestDescriptorReachesTransport() {
	doer := &stubDoer{status: http.StatusOK, body: `{}`}
	client := s.newClient(doer, &Option{
		BaseURL: "https://api.example.com/v1?key=k",
		Header:  map[string]string{"X-Client": "requestable", "Accept": "text/plain"},
	})

	got := s.requestObject(client, Request{
		URL:        "users?active=1",
		Verb:       "delete",
		Parameters: Parameters{"id": 7},
		Headers:    Headers{"Accept": "application/json"},
	})
	s.Require().NoError(got.err)

	last := doer.Last()
	s.Equal(http.MethodDelete, last.Method)
	s.Equal("api.example.com", last.URL.Host)
	s.Equal("/v1/users", last.URL.Path)
	s.Equal("key=k&active=1&id=7", last.URL.RawQuery)
	s.Equal("requestable", last.Header.Get("X-Client"))
	s.Equal("application/json", last.Header.Get("Accept"))
}

func (s *ClientTestSuite) TestRelativeURLKeepsEscapedSlash() {
	doer := &stubDoer{status: http.StatusOK, body: `ok`}
	client := s.newClient(doer, &Option{BaseURL: "https://api.example.com/v1"})

	_, err := client.FetchData(s.ctx, Request{URL: "files/a%2Fb"})
	s.Require().NoError(err)
	s.Equal("/v1/files/a%2Fb", doer.Last().URL.EscapedPath())

	_, err = client.FetchData(s.ctx, Request{URL: "https://api.example.com/v1/files/a%2Fb"})
	s.Require().NoError(err)
	s.Equal("/v1/files/a%2Fb", doer.Last().URL.EscapedPath())
}

func (s *ClientTestSuite) TestNilCompletionStillSendsOnce() {
	doer := &stubDoer{status: http.StatusOK, body: `[]`}
	client := s.newClient(doer, nil)

	client.RequestArray(s.ctx, Request{URL: "http://example.com"}, nil)
	s.Eventually(func() bool { return doer.Calls() == 1 }, time.Second, 5*time.Millisecond)
}

func (s *ClientTestSuite) TestConcurrentCallsCompleteIndependently() {
	doer := &stubDoer{status: http.StatusOK, body: `[1]`}
	client := s.newClient(doer, nil)

	const n = 20
	var wg sync.WaitGroup
	var completions int32
	wg.Add(n)
	for i := 0; i < n; i++ {
		client.RequestArray(s.ctx, Request{URL: "http://example.com"}, func(array JSONArray, err error) {
			defer wg.Done()
			s.NoError(err)
			s.Len(array, 1)
			atomic.AddInt32(&completions, 1)
		})
	}
	wg.Wait()
	s.Equal(int32(n), atomic.LoadInt32(&completions))
	s.Equal(n, doer.Calls())
}

func (s *ClientTestSuite) TestFetchVariants() {
	client := s.newClient(&stubDoer{status: http.StatusOK, body: `{"k":"v"}`}, nil)

	object, err := client.FetchObject(s.ctx, Request{URL: "http://example.com"})
	s.NoError(err)
	s.Equal("v", object["k"])

	_, err = client.FetchArray(s.ctx, Request{URL: "http://example.com"})
	s.Equal(ErrInvalidJSONArray, err)

	_, err = client.FetchData(s.ctx, Request{URL: ""})
	s.Equal(ErrInvalidURL, err)
}

func (s *ClientTestSuite) TestNewRejectsBadBaseURL() {
	_, err := New(&Option{BaseURL: "not a url"})
	s.Equal(ErrInvalidURL, err)

	_, err = New(&Option{BaseURL: "/only/path"})
	s.Equal(ErrInvalidURL, err)

	client, err := New(nil)
	s.NoError(err)
	s.NotNil(client)
}
