// Package transport is the HTTP client for the tenant chat API. Every call is a
// single authenticated attempt; there are no retries.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"laundrychat/internal/auth"
	"laundrychat/internal/logging"

	"github.com/sony/gobreaker"
)

const (
	pathMySessions  = "/tenant/chat/my-sessions"
	pathCreate      = "/tenant/chat/create"
	pathSendMessage = "/tenant/chat/send-message"

	maxBodyBytes = 1 << 20
	slowCall     = 2 * time.Second
)

// Client calls the four chat endpoints.
type Client struct {
	baseURL string
	auth    auth.Provider
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.client = hc }
}

// WithBreaker enables the circuit breaker.
func WithBreaker(s BreakerSettings) Option {
	return func(c *Client) { c.breaker = newBreaker(s) }
}

// New creates a client for baseURL (e.g. http://localhost:5000/api).
func New(baseURL string, provider auth.Provider, timeout time.Duration, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    provider,
		client: &http.Client{
			Timeout: timeout,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// ListRecentSessions returns the caller's most recent sessions, newest first.
func (c *Client) ListRecentSessions(ctx context.Context, limit int) ([]SessionSummary, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))

	var data sessionsData
	if err := c.do(ctx, "ListRecentSessions", http.MethodGet, pathMySessions+"?"+q.Encode(), nil, &data); err != nil {
		return nil, err
	}
	logging.TransportDebug("my-sessions returned %d sessions", len(data.Sessions))
	return data.Sessions, nil
}

// FetchHistory returns the stored messages of a session.
func (c *Client) FetchHistory(ctx context.Context, sessionID string) ([]HistoryRecord, error) {
	path := "/tenant/chat/" + url.PathEscape(sessionID) + "/history"

	var data historyData
	if err := c.do(ctx, "FetchHistory", http.MethodGet, path, nil, &data); err != nil {
		return nil, err
	}
	logging.TransportDebug("history for %s returned %d messages", sessionID, len(data.Messages))
	return data.Messages, nil
}

// CreateSession opens a new session with its first message and returns its id.
func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (string, error) {
	var data createData
	if err := c.do(ctx, "CreateSession", http.MethodPost, pathCreate, req, &data); err != nil {
		return "", err
	}
	if data.SessionID == "" {
		return "", fmt.Errorf("CreateSession: response has no sessionId: %w", ErrUnsuccessful)
	}
	logging.Transport("created session %s", data.SessionID)
	return data.SessionID.String(), nil
}

// SendMessage appends a message to an existing session.
func (c *Client) SendMessage(ctx context.Context, req SendMessageRequest) error {
	return c.do(ctx, "SendMessage", http.MethodPost, pathSendMessage, req, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, body, out interface{}) error {
	token, ok := c.auth.Token()
	if !ok {
		return fmt.Errorf("%s: %w", op, auth.ErrNoToken)
	}

	timer := logging.StartTimer(logging.CategoryTransport, op)
	defer timer.StopWithThreshold(slowCall)

	call := func() error { return c.roundTrip(ctx, method, path, token, body, out) }

	var err error
	if c.breaker != nil {
		_, err = c.breaker.Execute(func() (interface{}, error) {
			return nil, call()
		})
		err = mapBreakerError(err)
	} else {
		err = call()
	}
	if err != nil {
		logging.TransportWarn("%s %s failed: %v", method, path, err)
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	logging.TransportDebug("%s %s", method, path)
	resp, err := c.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		if env.Message != "" {
			return fmt.Errorf("%w: %s", ErrUnsuccessful, env.Message)
		}
		return ErrUnsuccessful
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("failed to parse response data: %w", err)
		}
	}
	return nil
}
