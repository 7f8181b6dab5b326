package http_client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dungnh3/requestable/library/nap"
)

func newEchoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/object":
			w.Header().Set("Content-Type", "application/json")
			body, _ := io.ReadAll(r.Body)
			w.Write([]byte(`{"method":"` + r.Method + `","query":"` + r.URL.RawQuery + `","body":"` + string(body) + `","token":"` + r.Header.Get("X-Token") + `"}`))
		case "/array":
			w.Write([]byte(`["a","b"]`))
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
			w.Write([]byte("short and stout"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDoersAgainstServer(t *testing.T) {
	srv := newEchoServer(t)

	for _, name := range []string{TransportStd, TransportResty} {
		t.Run(name, func(t *testing.T) {
			doer, err := NewDoer(name, 2*time.Second)
			require.NoError(t, err)

			client, err := New(&Option{BaseURL: srv.URL, Header: map[string]string{"X-Token": "secret"}, Doer: doer})
			require.NoError(t, err)
			ctx := context.Background()

			object, err := client.FetchObject(ctx, Request{
				URL:        "/object",
				Verb:       http.MethodPost,
				Parameters: Parameters{"name": "pen"},
			})
			require.NoError(t, err)
			assert.Equal(t, "POST", object["method"])
			assert.Equal(t, "name=pen", object["body"])
			assert.Equal(t, "secret", object["token"])

			object, err = client.FetchObject(ctx, Request{
				URL:        "/object",
				Parameters: Parameters{"page": 2},
			})
			require.NoError(t, err)
			assert.Equal(t, "GET", object["method"])
			assert.Equal(t, "page=2", object["query"])

			array, err := client.FetchArray(ctx, Request{URL: "/array"})
			require.NoError(t, err)
			assert.Equal(t, JSONArray{"a", "b"}, array)

			_, err = client.FetchData(ctx, Request{URL: "/teapot"})
			var statusErr *nap.StatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, http.StatusTeapot, statusErr.StatusCode)
			assert.Equal(t, "short and stout", string(statusErr.Body))
		})
	}
}

func TestRequestDataAgainstServerCompletesOnce(t *testing.T) {
	srv := newEchoServer(t)
	client, err := New(&Option{BaseURL: srv.URL})
	require.NoError(t, err)

	done := make(chan JSONArray, 1)
	client.RequestArray(context.Background(), Request{URL: "/array"}, func(array JSONArray, err error) {
		assert.NoError(t, err)
		done <- array
	})

	select {
	case array := <-done:
		assert.Len(t, array, 2)
	case <-time.After(2 * time.Second):
		t.Fatal("completion was not called")
	}
}

func TestCanceledContextIsTransportError(t *testing.T) {
	srv := newEchoServer(t)
	client, err := New(&Option{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = client.FetchData(ctx, Request{URL: "/array"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewDoerUnknownTransport(t *testing.T) {
	_, err := NewDoer("carrier-pigeon", time.Second)
	assert.True(t, errors.Is(err, ErrUnknownTransport))
}
