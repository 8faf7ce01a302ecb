// Package client provides a typed Go client for the LeadTrack HTTP API.
//
// The client is self-contained: it defines its own request and response
// types mirroring the wire format and does not depend on the server's
// internal packages. A minimal session looks like:
//
//	c, err := client.New("https://leadtrack.example.com")
//	if err != nil {
//		log.Fatal(err)
//	}
//	sess, err := c.Auth().Login(ctx, "manager@example.com", "secret")
//	if err != nil {
//		log.Fatal(err)
//	}
//	profiles, err := c.Profiles().List(ctx, nil)
//
// Login stores the returned access token on the client, so subsequent
// calls authenticate automatically. A token obtained elsewhere can be
// installed with SetToken or the WithToken option.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultRetryMax     = 3
	defaultRetryWaitMin = 500 * time.Millisecond
	defaultRetryWaitMax = 5 * time.Second
	defaultUserAgent    = "leadtrack-go-client/1.0"

	apiPrefix = "/api/v1"
)

// Logger receives debug and error output from the client. The zero value
// of the client discards all output; install a logger with WithLogger.
type Logger interface {
	Debugf(format string, args ...any)
	Errorf(format string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any) {}
func (noopLogger) Errorf(string, ...any) {}

// APIError is an error response from the LeadTrack API.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	RequestID  string `json:"-"`
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("leadtrack: %s (HTTP %d): %s [request_id=%s]", e.Code, e.StatusCode, e.Message, e.RequestID)
	}
	return fmt.Sprintf("leadtrack: %s (HTTP %d): %s", e.Code, e.StatusCode, e.Message)
}

// IsNotFound reports whether the error is an HTTP 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports whether the error is an HTTP 401.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// IsForbidden reports whether the error is an HTTP 403.
func (e *APIError) IsForbidden() bool { return e.StatusCode == http.StatusForbidden }

// IsConflict reports whether the error is an HTTP 409.
func (e *APIError) IsConflict() bool { return e.StatusCode == http.StatusConflict }

// IsRateLimited reports whether the error is an HTTP 429.
func (e *APIError) IsRateLimited() bool { return e.StatusCode == http.StatusTooManyRequests }

// IsServerError reports whether the error is an HTTP 5xx.
func (e *APIError) IsServerError() bool { return e.StatusCode >= 500 }

// Client is a LeadTrack API client. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
	logger     Logger

	retryMax     int
	retryWaitMin time.Duration
	retryWaitMax time.Duration

	mu    sync.RWMutex
	token string

	authOnce        sync.Once
	auth            *AuthClient
	usersOnce       sync.Once
	users           *UsersClient
	profilesOnce    sync.Once
	profiles        *ProfilesClient
	assignmentsOnce sync.Once
	assignments     *AssignmentsClient
	targetsOnce     sync.Once
	targets         *TargetsClient
	progressOnce    sync.Once
	progress        *ProgressClient
	leadsOnce       sync.Once
	leads           *LeadsClient
	reportsOnce     sync.Once
	reports         *ReportsClient
	activityOnce    sync.Once
	activity        *ActivityClient
}

// New creates a Client for the API at baseURL. The URL must use the http
// or https scheme; a trailing slash is removed.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("leadtrack: base URL is required")
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("leadtrack: invalid base URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("leadtrack: unsupported URL scheme %q", u.Scheme)
	}

	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		httpClient:   &http.Client{Timeout: defaultTimeout},
		userAgent:    defaultUserAgent,
		logger:       noopLogger{},
		retryMax:     defaultRetryMax,
		retryWaitMin: defaultRetryWaitMin,
		retryWaitMax: defaultRetryWaitMax,
	}
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// SetToken installs the bearer token used on subsequent requests.
// Passing the empty string clears it.
func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// Token returns the bearer token currently installed on the client.
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// BaseURL returns the normalized base URL the client talks to.
func (c *Client) BaseURL() string { return c.baseURL }

// Auth returns the authentication sub-client.
func (c *Client) Auth() *AuthClient {
	c.authOnce.Do(func() { c.auth = &AuthClient{c: c} })
	return c.auth
}

// Users returns the account management sub-client.
func (c *Client) Users() *UsersClient {
	c.usersOnce.Do(func() { c.users = &UsersClient{c: c} })
	return c.users
}

// Profiles returns the candidate profile sub-client.
func (c *Client) Profiles() *ProfilesClient {
	c.profilesOnce.Do(func() { c.profiles = &ProfilesClient{c: c} })
	return c.profiles
}

// Assignments returns the assignment sub-client.
func (c *Client) Assignments() *AssignmentsClient {
	c.assignmentsOnce.Do(func() { c.assignments = &AssignmentsClient{c: c} })
	return c.assignments
}

// Targets returns the target sub-client.
func (c *Client) Targets() *TargetsClient {
	c.targetsOnce.Do(func() { c.targets = &TargetsClient{c: c} })
	return c.targets
}

// Progress returns the daily progress sub-client.
func (c *Client) Progress() *ProgressClient {
	c.progressOnce.Do(func() { c.progress = &ProgressClient{c: c} })
	return c.progress
}

// Leads returns the sales lead sub-client.
func (c *Client) Leads() *LeadsClient {
	c.leadsOnce.Do(func() { c.leads = &LeadsClient{c: c} })
	return c.leads
}

// Reports returns the reporting sub-client.
func (c *Client) Reports() *ReportsClient {
	c.reportsOnce.Do(func() { c.reports = &ReportsClient{c: c} })
	return c.reports
}

// Activity returns the activity log sub-client.
func (c *Client) Activity() *ActivityClient {
	c.activityOnce.Do(func() { c.activity = &ActivityClient{c: c} })
	return c.activity
}

// invalidArg reports a client-side argument error without issuing a request.
func invalidArg(msg string) error {
	return fmt.Errorf("leadtrack: invalid argument: %s", msg)
}

// clampPageSize keeps a caller-supplied page size inside the server's
// accepted range. Zero means "use the server default".
func clampPageSize(n int) int {
	if n < 0 {
		return 0
	}
	if n > 100 {
		return 100
	}
	return n
}

// do issues a request with retries and decodes a JSON response into out.
// The request body is marshaled once and replayed on each attempt.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	contentType := ""
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("leadtrack: encode request: %w", err)
		}
		contentType = "application/json"
	}

	resp, err := c.roundTrip(ctx, method, path, contentType, payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("leadtrack: decode response: %w", err)
	}
	return nil
}

// roundTrip runs the retry loop and returns a response with a status
// below 400. The caller owns the response body. Responses with status
// 429 honor Retry-After; network failures and 5xx responses back off
// exponentially with jitter.
func (c *Client) roundTrip(ctx context.Context, method, path, contentType string, payload []byte) (*http.Response, error) {
	fullURL := c.baseURL + apiPrefix + path

	var lastErr error
	for attempt := 0; attempt <= c.retryMax; attempt++ {
		if attempt > 0 {
			if err := c.sleep(ctx, c.backoff(attempt)); err != nil {
				return nil, err
			}
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return nil, fmt.Errorf("leadtrack: build request: %w", err)
		}
		c.setHeaders(req, contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("leadtrack: %s %s: %w", method, path, err)
			c.logger.Debugf("request failed (attempt %d/%d): %v", attempt+1, c.retryMax+1, err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := retryAfter(resp)
			drainClose(resp)
			c.logger.Debugf("rate limited on %s %s, waiting %s", method, path, wait)
			lastErr = &APIError{StatusCode: http.StatusTooManyRequests, Code: "RATE_LIMITED", Message: "too many requests"}
			if err := c.sleep(ctx, wait); err != nil {
				return nil, err
			}
			continue
		}
		if resp.StatusCode >= 500 {
			apiErr := parseAPIError(resp)
			drainClose(resp)
			lastErr = apiErr
			c.logger.Debugf("server error on %s %s (attempt %d/%d): %v", method, path, attempt+1, c.retryMax+1, apiErr)
			continue
		}
		if resp.StatusCode >= 400 {
			apiErr := parseAPIError(resp)
			drainClose(resp)
			return nil, apiErr
		}
		return resp, nil
	}

	c.logger.Errorf("%s %s exhausted %d attempts: %v", method, path, c.retryMax+1, lastErr)
	return nil, lastErr
}

func (c *Client) setHeaders(req *http.Request, contentType string) {
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", uuid.New().String())
}

// backoff returns the wait before the given attempt (1-based), doubling
// from retryWaitMin up to retryWaitMax plus up to 25% jitter.
func (c *Client) backoff(attempt int) time.Duration {
	d := c.retryWaitMin << (attempt - 1)
	if d > c.retryWaitMax || d <= 0 {
		d = c.retryWaitMax
	}
	if q := int64(d / 4); q > 0 {
		d += time.Duration(rand.Int63n(q))
	}
	return d
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func retryAfter(resp *http.Response) time.Duration {
	if v := resp.Header.Get("Retry-After"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Second
}

func parseAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{
		StatusCode: resp.StatusCode,
		Code:       "UNKNOWN",
		Message:    http.StatusText(resp.StatusCode),
		RequestID:  resp.Header.Get("X-Request-ID"),
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil || len(body) == 0 {
		return apiErr
	}
	var parsed struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Code != "" {
		apiErr.Code = parsed.Code
		apiErr.Message = parsed.Message
	}
	return apiErr
}

func drainClose(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

// Download is a binary payload returned by a download endpoint.
type Download struct {
	Data        []byte
	ContentType string
	FileName    string
}

// download fetches a binary endpoint. The file name is taken from the
// Content-Disposition header when present.
func (c *Client) download(ctx context.Context, path string) (*Download, error) {
	resp, err := c.roundTrip(ctx, http.MethodGet, path, "", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("leadtrack: read download: %w", err)
	}
	dl := &Download{
		Data:        data,
		ContentType: resp.Header.Get("Content-Type"),
	}
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			dl.FileName = params["filename"]
		}
	}
	return dl, nil
}

// upload sends raw bytes to an upload endpoint. The file name travels in
// the filename query parameter and the payload's media type in the
// Content-Type header, matching the server's raw upload path.
func (c *Client) upload(ctx context.Context, path, fileName, contentType string, data []byte, out any) error {
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if fileName != "" {
		path += "?filename=" + url.QueryEscape(fileName)
	}
	resp, err := c.roundTrip(ctx, http.MethodPost, path, contentType, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("leadtrack: decode response: %w", err)
	}
	return nil
}
