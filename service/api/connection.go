package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const (
	schemeHttps = "https"
)

type Connection interface {
	Request(ctx context.Context, endpoint *url.URL) (*http.Response, error)
}

type ClientHost struct {
	client  *http.Client
	scheme  string
	host    string
	limiter *rate.Limiter
}

// Client is shared by the data provider packages, they only add their own query parameters
type Client struct {
	Connection Connection
	ApiKey     string
}

// Request waits for the rate limiter, then issues a GET against the configured host
func (conn *ClientHost) Request(ctx context.Context, endpoint *url.URL) (*http.Response, error) {
	if conn.limiter != nil {
		if err := conn.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("error waiting for request budget on %s: %w", conn.host, err)
		}
	}

	endpoint.Scheme = conn.scheme
	endpoint.Host = conn.host

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("error building request for %s: %w", conn.host, err)
	}

	response, err := conn.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error requesting %s%s: %w", conn.host, endpoint.Path, err)
	}

	if response.StatusCode != http.StatusOK {
		response.Body.Close()
		return nil, fmt.Errorf("request to %s%s failed: %s", conn.host, endpoint.Path, response.Status)
	}

	return response, nil
}

// ClientFactory builds a client for host. requestsPerMinute <= 0 disables rate limiting.
func ClientFactory(host string, apiKey string, timeout time.Duration, requestsPerMinute int) *Client {
	clientHost := &ClientHost{
		client: &http.Client{Timeout: timeout},
		scheme: schemeHttps,
		host:   host,
	}

	if requestsPerMinute > 0 {
		clientHost.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
	}

	return &Client{
		Connection: clientHost,
		ApiKey:     apiKey,
	}
}

// TestClientFactory points a client at a plain http server, used with httptest
func TestClientFactory(serverUrl string, apiKey string) (*Client, error) {
	u, err := url.Parse(serverUrl)
	if err != nil {
		return nil, fmt.Errorf("error parsing test server url %s: %w", serverUrl, err)
	}

	return &Client{
		Connection: &ClientHost{
			client: http.DefaultClient,
			scheme: u.Scheme,
			host:   u.Host,
		},
		ApiKey: apiKey,
	}, nil
}
