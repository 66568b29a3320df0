// Package api is the HTTP client for the workforce service. It attaches the
// bearer token and the double-submit CSRF token, and bounds every request by
// a timeout.
package api

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
)

const (
	DefaultTimeout = 10 * time.Second

	csrfCookie = "csrf_token"
	csrfHeader = "X-CSRFToken"
)

// Error is returned for non-2xx responses.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

// TokenSource supplies the CSRF token mutating requests must carry.
type TokenSource interface {
	CSRFToken(ctx context.Context) (string, error)
}

// Client talks to the workforce service on behalf of one user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	csrf       TokenSource
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client. Its Timeout applies.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// WithTokenSource overrides where CSRF tokens come from. By default the client
// fetches one from GET /csrf-token and caches it.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.csrf = ts }
}

func New(baseURL, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     slog.Default(),
	}
	c.csrf = &ServerTokenSource{client: c}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the bearer token.
func (c *Client) Token() string { return c.token }

// WebSocketURL maps path onto the ws(s) scheme of the base URL and passes the
// bearer token as a query parameter.
func (c *Client) WebSocketURL(path string) (string, error) {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	q := u.Query()
	q.Set("token", c.token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		payload = data
	}

	err := c.send(ctx, method, path, payload, result)
	var apiErr *Error
	if mutating(method) && errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusForbidden {
		if inv, ok := c.csrf.(interface{ Invalidate() }); ok && strings.Contains(apiErr.Message, "csrf") {
			inv.Invalidate()
			return c.send(ctx, method, path, payload, result)
		}
	}
	return err
}

func (c *Client) send(ctx context.Context, method, path string, payload []byte, result any) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if mutating(method) && c.csrf != nil {
		token, err := c.csrf.CSRFToken(ctx)
		if err != nil {
			return fmt.Errorf("csrf token: %w", err)
		}
		req.Header.Set(csrfHeader, token)
		req.AddCookie(&http.Cookie{Name: csrfCookie, Value: token})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{StatusCode: resp.StatusCode, Message: errorMessage(respBody, resp.Status)}
		c.logger.Debug("api request failed", "method", method, "path", path, "status", resp.StatusCode, "error", apiErr.Message)
		return apiErr
	}
	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("decoding response of %s %s: %w", method, path, err)
	}
	return nil
}

func mutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

func errorMessage(body []byte, fallback string) string {
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		return s
	}
	return fallback
}
