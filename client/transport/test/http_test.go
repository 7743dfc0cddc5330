package transport_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chirpmesh/chirp-go/chirperr"
	"github.com/chirpmesh/chirp-go/client/transport"
)

func TestHTTPTransportBasicRequest(t *testing.T) {
	var gotPath, gotQuery string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "text/javascript")
		_, _ = w.Write([]byte(`{"t":{"t":"10","r":1},"m":[]}`))
	}))
	defer server.Close()

	tr := transport.NewHTTP(server.URL)
	defer tr.Close()

	resp, err := tr.Send(context.Background(), transport.Request{
		Method: transport.MethodGet,
		Path:   "/v2/subscribe/sub-key/ch1/0",
		Query:  map[string]string{"tt": "0", "uuid": "user-1"},
	})
	require.NoError(t, err)

	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "/v2/subscribe/sub-key/ch1/0", gotPath)
	assert.Equal(t, "tt=0&uuid=user-1", gotQuery)
	assert.JSONEq(t, `{"t":{"t":"10","r":1},"m":[]}`, string(resp.Body))
}

func TestHTTPTransportReturnsResponseForErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "150")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"status":429,"message":"Too many requests","service":"Subscribe"}`))
	}))
	defer server.Close()

	tr := transport.NewHTTP(server.URL)
	defer tr.Close()

	// 4xx / 5xx are responses, not transport errors; retry decisions
	// happen a layer up.
	resp, err := tr.Send(context.Background(), transport.Request{
		Method: transport.MethodGet,
		Path:   "/v2/subscribe/sub-key/ch1/0",
	})
	require.NoError(t, err)

	assert.Equal(t, 429, resp.Status)
	value, ok := resp.Header("retry-after")
	require.True(t, ok)
	assert.Equal(t, "150", value)
}

func TestHTTPTransportConnectionFailure(t *testing.T) {
	tr := transport.NewHTTP("http://127.0.0.1:1")
	defer tr.Close()

	_, err := tr.Send(context.Background(), transport.Request{
		Method: transport.MethodGet,
		Path:   "/v2/subscribe/sub-key/ch1/0",
	})
	require.Error(t, err)
	assert.True(t, chirperr.IsTransport(err))
}

func TestHTTPTransportHonorsContextCancellation(t *testing.T) {
	started := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer server.Close()

	tr := transport.NewHTTP(server.URL)
	defer tr.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := tr.Send(ctx, transport.Request{
		Method: transport.MethodGet,
		Path:   "/v2/subscribe/sub-key/ch1/0",
	})
	require.Error(t, err)
}

func TestHTTPTransportDefaultTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(5 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer server.Close()

	tr := transport.NewHTTP(server.URL, transport.HTTPConfig{Timeout: 50 * time.Millisecond})
	defer tr.Close()

	start := time.Now()
	_, err := tr.Send(context.Background(), transport.Request{
		Method: transport.MethodGet,
		Path:   "/",
	})
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
