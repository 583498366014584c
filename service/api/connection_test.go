package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestSetsHostAndQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/query", r.URL.Path)
		assert.Equal(t, "AAPL", r.URL.Query().Get("symbol"))
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("{}"))
	}))
	defer server.Close()

	c, err := TestClientFactory(server.URL, "key")
	require.NoError(t, err)

	endpoint := &url.URL{Path: "/query", RawQuery: url.Values{"symbol": {"AAPL"}}.Encode()}
	response, err := c.Connection.Request(context.Background(), endpoint)
	require.NoError(t, err)
	response.Body.Close()
}

func TestRequestFailsOnNonOkStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusTooManyRequests)
	}))
	defer server.Close()

	c, err := TestClientFactory(server.URL, "key")
	require.NoError(t, err)

	_, err = c.Connection.Request(context.Background(), &url.URL{Path: "/query"})
	assert.ErrorContains(t, err, "429")
}

func TestRateLimitedRequestHonoursContext(t *testing.T) {
	c := ClientFactory("example.invalid", "key", time.Second, 1)
	host := c.Connection.(*ClientHost)

	// drain the single token so the next wait would block for a minute
	require.True(t, host.limiter.Allow())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := c.Connection.Request(ctx, &url.URL{Path: "/query"})
	assert.ErrorContains(t, err, "request budget")
}
