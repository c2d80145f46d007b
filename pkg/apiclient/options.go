package apiclient

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// CredentialSource supplies the bearer credential attached to every request.
// An empty string means no Authorization header.
type CredentialSource interface {
	Credential(ctx context.Context) string
}

// CredentialFunc adapts a function to CredentialSource.
type CredentialFunc func(ctx context.Context) string

func (f CredentialFunc) Credential(ctx context.Context) string { return f(ctx) }

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client, e.g. for proxies or tests.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.client = client
		}
	}
}

// WithCredentials sets the source of the bearer credential.
func WithCredentials(src CredentialSource) Option {
	return func(c *Client) {
		c.credentials = src
	}
}

// WithTimeout bounds every request. Zero disables the client-side bound.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout >= 0 {
			c.timeout = timeout
		}
	}
}

// WithHeader adds a static header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" && value != "" {
			c.headers[key] = value
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}
