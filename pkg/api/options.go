package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Option configures a Client during construction in New. Options run in
// order, so WithHTTPClient should come before WithDebugLogging.
type Option func(*Client) error

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return errors.New("http client cannot be nil")
		}
		c.http = hc
		return nil
	}
}

// WithHTTPTimeout bounds every request. The value must be greater than zero.
func WithHTTPTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return errors.New("http timeout must be > 0")
		}
		c.http.Timeout = d
		return nil
	}
}

// WithLogger sets the logger used for response and debug logging.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) error {
		c.logger = logger
		return nil
	}
}

// WithDebugLogging wraps the transport so each request and response is
// dumped at debug level. Bodies contain diary text; keep it off in production.
func WithDebugLogging(enabled bool) Option {
	return func(c *Client) error {
		if !enabled {
			return nil
		}
		if _, ok := c.http.Transport.(*debugTransport); ok {
			return nil
		}
		c.http.Transport = &debugTransport{base: c.http.Transport, logger: &c.logger}
		return nil
	}
}
