package httputil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dogeow/wikigraph/pkg/buildinfo"
	"github.com/dogeow/wikigraph/pkg/observability"
)

// DefaultTimeout bounds a single HTTP request.
const DefaultTimeout = 10 * time.Second

var (
	// ErrNotFound is returned for 404 responses.
	ErrNotFound = errors.New("resource not found")
	// ErrNetwork is returned for transport failures and unexpected statuses.
	ErrNetwork = errors.New("network error")
)

// Client sends JSON requests relative to a base URL.
type Client struct {
	http     *http.Client
	base     string
	headers  map[string]string
	attempts int
	delay    time.Duration
}

// NewClient creates a client for base. Headers are sent with every request.
func NewClient(base string, headers map[string]string) *Client {
	return &Client{
		http:     &http.Client{Timeout: DefaultTimeout},
		base:     strings.TrimRight(base, "/"),
		headers:  headers,
		attempts: 3,
		delay:    time.Second,
	}
}

// WithHTTPClient replaces the underlying http.Client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http = hc
	return c
}

// WithRetry sets the retry budget. Attempts below one mean a single try.
func (c *Client) WithRetry(attempts int, delay time.Duration) *Client {
	c.attempts, c.delay = attempts, delay
	return c
}

// Base returns the base URL without a trailing slash.
func (c *Client) Base() string { return c.base }

// URL joins path onto the base URL.
func (c *Client) URL(path string) string {
	return c.base + "/" + strings.TrimLeft(path, "/")
}

// Do sends a request with body encoded as JSON (nil for no body) and
// decodes the response into out (nil to discard it). Retryable failures
// are retried.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		payload = b
	}
	return Retry(ctx, c.attempts, c.delay, func() error {
		data, err := c.send(ctx, method, path, payload)
		if err != nil {
			return err
		}
		if out == nil || len(data) == 0 {
			return nil
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
		return nil
	})
}

// GetBytes fetches path and returns the raw body, retrying transient
// failures.
func (c *Client) GetBytes(ctx context.Context, path string) ([]byte, error) {
	var data []byte
	err := Retry(ctx, c.attempts, c.delay, func() error {
		b, err := c.send(ctx, http.MethodGet, path, nil)
		data = b
		return err
	})
	return data, err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}

	hooks := observability.HTTP()
	hooks.OnRequest(ctx, method, req.URL.Host, req.URL.Path)
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		hooks.OnError(ctx, method, req.URL.Host, req.URL.Path, err)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, Retryable(fmt.Errorf("%w: %v", ErrNetwork, err))
	}
	defer resp.Body.Close()
	hooks.OnResponse(ctx, method, req.URL.Host, req.URL.Path, resp.StatusCode, time.Since(start))

	if err := checkStatus(resp.StatusCode); err != nil {
		return nil, err
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, Retryable(fmt.Errorf("%w: read body: %v", ErrNetwork, err))
	}
	return data, nil
}

func checkStatus(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return ErrNotFound
	case code >= 500:
		return Retryable(fmt.Errorf("%w: status %d", ErrNetwork, code))
	default:
		return fmt.Errorf("%w: status %d", ErrNetwork, code)
	}
}
