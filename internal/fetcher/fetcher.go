// Package fetcher retrieves raw page and asset bytes over HTTP(S).
//
// The crawl engine treats fetch failures as per-target outcomes, never
// as crawl-fatal errors, so every failure mode here surfaces as an
// ordinary error return.
package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ErrStatus is returned for non-2xx responses. Use errors.Is to detect
// it; the wrapped message carries the status code.
var ErrStatus = errors.New("unexpected HTTP status")

// Response is the result of a successful fetch.
type Response struct {
	// Body is the response body, truncated to the configured limit.
	Body []byte

	// ContentType is the Content-Type header value, possibly with a
	// charset parameter.
	ContentType string

	// StatusCode is the HTTP status code (always 2xx here).
	StatusCode int
}

// Client fetches URLs with a fixed identity and body size limit.
// The zero value is not usable; construct with NewClient.
type Client struct {
	hc          *http.Client
	userAgent   string
	cookie      string
	headers     map[string]string
	maxBodySize int64
}

// Option configures a Client.
type Option func(*Client)

// WithUserAgent sets the User-Agent header for all requests.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// WithCookie sets a Cookie header sent with all requests.
func WithCookie(cookie string) Option {
	return func(c *Client) { c.cookie = cookie }
}

// WithHeaders sets extra headers sent with all requests.
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.headers = headers }
}

// WithMaxBodySize caps how many response bytes are read. Zero means
// no limit.
func WithMaxBodySize(n int64) Option {
	return func(c *Client) { c.maxBodySize = n }
}

// NewClient creates a Client with the given per-request timeout.
func NewClient(timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		hc: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// HTTPClient exposes the underlying http.Client so collaborators that
// speak the same transport (the robots gate) can share it.
func (c *Client) HTTPClient() *http.Client {
	return c.hc
}

// Fetch performs a GET and returns the body, content type, and status.
// Non-2xx responses, timeouts, and connection errors all return an
// error; a non-2xx error wraps ErrStatus.
func (c *Client) Fetch(ctx context.Context, url string) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request for %s: %w", url, err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.CopyN(io.Discard, resp.Body, 512) //nolint:errcheck // Best effort drain
		return nil, fmt.Errorf("%w: %d for %s", ErrStatus, resp.StatusCode, url)
	}

	reader := io.Reader(resp.Body)
	if c.maxBodySize > 0 {
		reader = io.LimitReader(resp.Body, c.maxBodySize)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("read body of %s: %w", url, err)
	}

	return &Response{
		Body:        body,
		ContentType: resp.Header.Get("Content-Type"),
		StatusCode:  resp.StatusCode,
	}, nil
}
