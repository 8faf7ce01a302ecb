package client

import (
	"fmt"
	"net/http"
	"time"
)

// Option configures a Client during construction.
type Option func(*Client) error

// WithHTTPClient replaces the underlying HTTP client. Useful for custom
// transports, proxies, or test doubles.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) error {
		if hc == nil {
			return fmt.Errorf("leadtrack: http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithToken installs a bearer token at construction time. Tokens issued
// later (by Login or an external source) go through SetToken.
func WithToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithLogger installs a logger for debug and error output.
func WithLogger(l Logger) Option {
	return func(c *Client) error {
		if l == nil {
			return fmt.Errorf("leadtrack: logger must not be nil")
		}
		c.logger = l
		return nil
	}
}

// WithRetryMax sets the number of retries after the initial attempt.
// Zero disables retrying.
func WithRetryMax(n int) Option {
	return func(c *Client) error {
		if n < 0 {
			return fmt.Errorf("leadtrack: retry max must not be negative")
		}
		c.retryMax = n
		return nil
	}
}

// WithRetryWait bounds the exponential backoff between retries.
func WithRetryWait(min, max time.Duration) Option {
	return func(c *Client) error {
		if min <= 0 {
			return fmt.Errorf("leadtrack: retry wait minimum must be positive")
		}
		if max < min {
			return fmt.Errorf("leadtrack: retry wait maximum must not be below the minimum")
		}
		c.retryWaitMin = min
		c.retryWaitMax = max
		return nil
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) error {
		if ua == "" {
			return fmt.Errorf("leadtrack: user agent must not be empty")
		}
		c.userAgent = ua
		return nil
	}
}

// WithTimeout sets the per-request timeout on the default HTTP client.
// It has no effect on a client supplied through WithHTTPClient earlier
// in the option list.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) error {
		if d <= 0 {
			return fmt.Errorf("leadtrack: timeout must be positive")
		}
		c.httpClient.Timeout = d
		return nil
	}
}
