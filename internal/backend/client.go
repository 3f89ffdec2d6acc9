// Package backend is the typed HTTP client for the service that owns
// authentication, password storage and scraping. Outreach never verifies
// credentials itself; it forwards them here and keeps the returned bearer
// token in the session cookie.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Endpoint paths, relative to the configured base URL.
const (
	PathSignUp   = "/auth/signup"
	PathLogIn    = "/auth/login"
	PathProfile  = "/auth/profile"
	PathFullScan = "/puppet/fullscan"
)

// maxErrorBody caps how much of a failed response is kept for logging.
const maxErrorBody = 512

// ErrMissingToken is returned when an auth endpoint answers 2xx without an
// access_token.
var ErrMissingToken = errors.New("backend response has no access_token")

// StatusError is a non-2xx answer from the backend.
type StatusError struct {
	Endpoint string
	Code     int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("backend %s returned %d", e.Endpoint, e.Code)
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}

// Client talks JSON to the backend. It sets no timeout of its own: callers
// control cancellation through the context, and scans are allowed to run as
// long as the backend takes.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for baseURL. A nil httpClient uses a client
// with no timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SignUp registers a new account and returns its bearer token.
func (c *Client) SignUp(ctx context.Context, req SignUpRequest) (*TokenResponse, error) {
	return c.token(ctx, PathSignUp, req)
}

// LogIn exchanges credentials for a bearer token. A 404 means the account
// does not exist or the password is wrong.
func (c *Client) LogIn(ctx context.Context, req LogInRequest) (*TokenResponse, error) {
	return c.token(ctx, PathLogIn, req)
}

func (c *Client) token(ctx context.Context, path string, body any) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	if resp.AccessToken == "" {
		return nil, ErrMissingToken
	}
	return &resp, nil
}

// Profile fetches the profile of the token's owner.
func (c *Client) Profile(ctx context.Context, token string) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, PathProfile, token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// FullScan runs a full city scan and blocks until the backend finishes.
// No Authorization header is sent.
func (c *Client) FullScan(ctx context.Context, req ScanRequest) (*ScanResponse, error) {
	var resp ScanResponse
	if err := c.do(ctx, http.MethodPost, PathFullScan, "", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// do sends one request and decodes a 2xx JSON body into out.
func (c *Client) do(ctx context.Context, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s request: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		slog.Warn("backend request failed",
			slog.String("endpoint", path),
			slog.Any("error", err),
		)
		return fmt.Errorf("calling %s: %w", path, err)
	}
	defer resp.Body.Close()

	slog.Debug("backend request",
		slog.String("endpoint", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		slog.Warn("backend returned error status",
			slog.String("endpoint", path),
			slog.Int("status", resp.StatusCode),
		)
		return &StatusError{Endpoint: path, Code: resp.StatusCode, Body: string(snippet)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	return nil
}
