// Package remote provides HTTP clients for collaborators run as separate
// services: a credential authenticator and a batch registry.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pharmaledger/pharmaledger/internal/ctxkey"
)

// maxResponseBodySize caps collaborator responses.
const maxResponseBodySize = 1024 * 1024 // 1MB

// DefaultTimeout is the per-request timeout when none is configured.
const DefaultTimeout = 10 * time.Second

// StatusError is returned when a collaborator answers with an unexpected
// HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// client holds the shared HTTP plumbing.
type client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option configures a remote client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func newClient(baseURL string, opts ...Option) *client {
	c := &client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		userAgent: "pharmaledger",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// do sends a request and decodes a JSON body into out for statuses listed
// in accept. It returns the status code.
func (c *client) do(ctx context.Context, method, path string, in, out any, accept ...int) (int, error) {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return 0, fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if id := ctxkey.RequestID(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	limited := io.LimitReader(resp.Body, maxResponseBodySize)

	for _, code := range accept {
		if resp.StatusCode != code {
			continue
		}
		if out == nil {
			_, _ = io.Copy(io.Discard, limited)
			return code, nil
		}
		err := json.NewDecoder(limited).Decode(out)
		// Error statuses may carry plain-text bodies; only 2xx must decode.
		if err != nil && err != io.EOF && code >= 200 && code < 300 {
			return code, fmt.Errorf("decode response: %w", err)
		}
		return code, nil
	}

	snippet, _ := io.ReadAll(io.LimitReader(limited, 512))
	return resp.StatusCode, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
}
