// Package wiki talks to a MediaWiki action API.
//
// Client implements storage.PageStore, storage.WriteAuthorizer and
// storage.ConfigSource. Reads work
// anonymously; writes log in with a bot password on first use.
package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"sync"
	"time"

	"blue-railroad-bot/internal/storage"
)

// DefaultURL is the wiki the bot maintains.
const DefaultURL = "https://pickipedia.xyz"

// Default configuration values.
const (
	DefaultTimeout     = 30 * time.Second
	DefaultMaxRetries  = 3
	DefaultRetryDelay  = 1 * time.Second
	DefaultMaxDelay    = 10 * time.Second
	DefaultBackoffMult = 2.0
	DefaultUserAgent   = "BlueRailroadBot/1.0 (https://pickipedia.xyz/wiki/Blue_Railroad)"
)

// ErrLoginFailed is returned when the wiki rejects the bot credentials.
var ErrLoginFailed = errors.New("wiki login failed")

// ErrNoCredentials is returned when a write is attempted without credentials.
var ErrNoCredentials = errors.New("wiki credentials required for writes")

// Client is a MediaWiki API client.
type Client struct {
	endpoint    string
	client      *http.Client
	userAgent   string
	username    string
	password    string
	maxRetries  int
	retryDelay  time.Duration
	maxDelay    time.Duration
	backoffMult float64

	mu        sync.Mutex
	loggedIn  bool
	csrfToken string
}

// ClientOption configures Client.
type ClientOption func(*Client)

// WithCredentials sets the bot username and password used for writes.
func WithCredentials(username, password string) ClientOption {
	return func(c *Client) {
		c.username = username
		c.password = password
	}
}

// WithTimeout sets HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithMaxRetries sets maximum retry attempts.
func WithMaxRetries(n int) ClientOption {
	return func(c *Client) {
		c.maxRetries = n
	}
}

// WithRetryDelay sets initial retry delay.
func WithRetryDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retryDelay = d
	}
}

// WithMaxDelay sets maximum retry delay.
func WithMaxDelay(d time.Duration) ClientOption {
	return func(c *Client) {
		c.maxDelay = d
	}
}

// WithHTTPClient sets custom http.Client. It should carry a cookie jar for writes.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient creates a client for the wiki at baseURL.
// baseURL may point at the site root or directly at api.php.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	jar, _ := cookiejar.New(nil)
	c := &Client{
		endpoint:    APIEndpoint(baseURL),
		client:      &http.Client{Timeout: DefaultTimeout, Jar: jar},
		userAgent:   DefaultUserAgent,
		maxRetries:  DefaultMaxRetries,
		retryDelay:  DefaultRetryDelay,
		maxDelay:    DefaultMaxDelay,
		backoffMult: DefaultBackoffMult,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIEndpoint returns the api.php URL for a wiki base URL.
func APIEndpoint(baseURL string) string {
	u := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if u == "" {
		u = DefaultURL
	}
	if !strings.Contains(u, "://") {
		u = "https://" + u
	}
	if strings.HasSuffix(u, "/api.php") {
		return u
	}
	return u + "/api.php"
}

// Compile-time interface checks.
var (
	_ storage.PageStore       = (*Client)(nil)
	_ storage.ConfigSource    = (*Client)(nil)
	_ storage.WriteAuthorizer = (*Client)(nil)
)

// apiError is the "error" member of an API response.
type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("API error %s: %s", e.Code, e.Info)
}

// call performs an API request with retries and exponential backoff.
// Transport failures, 429 and 5xx responses are retried; API errors are not.
func (c *Client) call(ctx context.Context, method string, params url.Values, result interface{}) error {
	params = cloneValues(params)
	params.Set("format", "json")
	params.Set("formatversion", "2")

	delay := c.retryDelay
	var lastErr error

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			// Exponential backoff
			delay = time.Duration(float64(delay) * c.backoffMult)
			if delay > c.maxDelay {
				delay = c.maxDelay
			}
		}

		req, err := c.newRequest(ctx, method, params)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}

		resp, err := c.client.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("http request: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("read response: %w", err)
			continue
		}

		// Handle rate limiting
		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limited (429)")
			continue
		}
		if resp.StatusCode >= 500 {
			lastErr = fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body))
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, truncate(body))
		}

		var envelope struct {
			Error *apiError `json:"error"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			lastErr = fmt.Errorf("unmarshal response: %w", err)
			continue
		}
		if envelope.Error != nil {
			return envelope.Error
		}

		if result != nil {
			if err := json.Unmarshal(body, result); err != nil {
				return fmt.Errorf("unmarshal result: %w", err)
			}
		}
		return nil
	}

	return fmt.Errorf("max retries exceeded: %w", lastErr)
}

func (c *Client) newRequest(ctx context.Context, method string, params url.Values) (*http.Request, error) {
	var req *http.Request
	var err error
	if method == http.MethodPost {
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(params.Encode()))
		if err == nil {
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		}
	} else {
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	}
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.userAgent)
	return req, nil
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v)+2)
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

func truncate(body []byte) string {
	const limit = 200
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
