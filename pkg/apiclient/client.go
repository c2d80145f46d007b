package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-cleanhttp"

	"github.com/dmitrymomot/storefront/pkg/logger"
)

// DefaultTimeout bounds a request when no WithTimeout option is given.
const DefaultTimeout = 15 * time.Second

// maxBodySize caps how much of a response body is read.
const maxBodySize = 1 << 20

// Client issues JSON requests against the storefront API. It knows nothing
// about sessions or carts: the credential is pulled from a CredentialSource
// on every call.
type Client struct {
	base        string
	client      *http.Client
	credentials CredentialSource
	timeout     time.Duration
	headers     map[string]string
	userAgent   string
	logger      *slog.Logger
}

// New creates a Client rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidBaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: only http and https schemes are supported", ErrInvalidBaseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: host is required", ErrInvalidBaseURL)
	}

	c := &Client{
		base:      strings.TrimRight(u.String(), "/"),
		client:    cleanhttp.DefaultPooledClient(),
		timeout:   DefaultTimeout,
		headers:   make(map[string]string),
		userAgent: "storefront-client/1.0",
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request sends body (JSON-encoded, may be nil) to path and returns the raw
// JSON success payload. An empty success body yields "null".
//
// Every failure is a *Failure: Status 0 when the server was not reached or
// answered with something that is not JSON, the HTTP status otherwise.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Join(ErrInvalidBody, err)
		}
		reader = bytes.NewReader(payload)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return nil, connectivityFailure(err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if c.credentials != nil {
		if token := c.credentials.Credential(ctx); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "request failed",
			logger.Component("apiclient"),
			slog.String("method", method),
			slog.String("path", path),
			logger.Duration(time.Since(start)),
			logger.Error(err),
		)
		return nil, connectivityFailure(err)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, connectivityFailure(err)
	}

	c.logger.DebugContext(ctx, "request completed",
		logger.Component("apiclient"),
		slog.String("method", method),
		slog.String("path", path),
		logger.Status(resp.StatusCode),
		logger.Duration(time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusFailure(resp.StatusCode, data)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return json.RawMessage("null"), nil
	}
	if !json.Valid(data) {
		return nil, connectivityFailure(ErrMalformedResponse)
	}
	return json.RawMessage(data), nil
}

// Get is shorthand for Request with GET and no body.
func (c *Client) Get(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil)
}

// Post is shorthand for Request with POST.
func (c *Client) Post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body)
}

// Put is shorthand for Request with PUT.
func (c *Client) Put(ctx context.Context, path string, body any) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body)
}

// Delete is shorthand for Request with DELETE and no body.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil)
}

// Do performs Request and decodes the success payload into T.
// A payload that does not fit T is reported as a malformed response.
func Do[T any](ctx context.Context, c *Client, method, path string, body any) (T, error) {
	var out T
	raw, err := c.Request(ctx, method, path, body)
	if err != nil {
		return out, err
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, connectivityFailure(errors.Join(ErrMalformedResponse, err))
	}
	return out, nil
}

func (c *Client) url(path string) string {
	if path == "" {
		return c.base
	}
	return c.base + "/" + strings.TrimLeft(path, "/")
}
