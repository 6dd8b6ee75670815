// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package letta

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/agentview/internal/model"
)

// =============================================================================
// ERROR TYPES
// =============================================================================

// ClientError represents an error from the Letta client.
type ClientError struct {
	Type    ErrorType
	Message string
	Status  int
	Cause   error
}

func (e *ClientError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ClientError) Unwrap() error {
	return e.Cause
}

// ErrorType categorizes client errors for handling.
type ErrorType int

const (
	ErrTypeUnknown ErrorType = iota
	ErrTypeConnection
	ErrTypeTimeout
	ErrTypeNotFound
	ErrTypeStatus
	ErrTypeInvalidResponse
	ErrTypeCanceled
)

// String returns the error type name.
func (t ErrorType) String() string {
	switch t {
	case ErrTypeConnection:
		return "connection"
	case ErrTypeTimeout:
		return "timeout"
	case ErrTypeNotFound:
		return "not_found"
	case ErrTypeStatus:
		return "status"
	case ErrTypeInvalidResponse:
		return "invalid_response"
	case ErrTypeCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the Letta client.
type ClientConfig struct {
	// BaseURL is the server base URL (default: http://localhost:8283)
	BaseURL string

	// Timeout for non-streaming requests (default: 30s)
	Timeout time.Duration

	// MaxRetries for transient failures of non-streaming requests (default: 3)
	MaxRetries int

	// RetryDelay before the first retry; doubles on each attempt (default: 500ms)
	RetryDelay time.Duration

	// RequestsPerSecond caps outgoing requests (default: 10)
	RequestsPerSecond float64

	// StreamSteps and StreamTokens are sent with every streaming request.
	StreamSteps  bool
	StreamTokens bool

	// Logger receives retry and error events. Nil uses log.Default().
	Logger *log.Logger
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "http://localhost:8283",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        500 * time.Millisecond,
		RequestsPerSecond: 10,
		StreamSteps:       true,
		StreamTokens:      true,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the Letta API.
//
// The Client is thread-safe for concurrent use.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewClient creates a new client with default configuration.
func NewClient() *Client {
	return NewClientWithConfig(DefaultConfig())
}

// NewClientWithConfig creates a new client with custom configuration.
func NewClientWithConfig(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}

	// Fill in defaults for any zero values
	if config.BaseURL == "" {
		config.BaseURL = "http://localhost:8283"
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 500 * time.Millisecond
	}
	if config.RequestsPerSecond <= 0 {
		config.RequestsPerSecond = 10
	}

	logger := config.Logger
	if logger == nil {
		logger = log.Default()
	}

	burst := int(config.RequestsPerSecond)
	if burst < 1 {
		burst = 1
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), burst),
		logger:     logger,
	}
}

// Config returns the client configuration.
func (c *Client) Config() *ClientConfig {
	return c.config
}

// =============================================================================
// AGENTS
// =============================================================================

// FetchAgents lists the agents known to the server.
func (c *Client) FetchAgents(ctx context.Context) ([]model.Agent, error) {
	var states []agentState
	if err := c.getJSON(ctx, "/v1/agents/", nil, &states); err != nil {
		return nil, err
	}

	agents := make([]model.Agent, 0, len(states))
	for _, s := range states {
		agents = append(agents, s.toAgent())
	}
	return agents, nil
}

// =============================================================================
// HISTORY
// =============================================================================

// FetchHistory returns up to limit past messages of an agent's conversation,
// in object form. A limit of zero uses model.HistoryPageSize.
func (c *Client) FetchHistory(ctx context.Context, agentID string, limit int) ([]model.HistoryEntry, error) {
	if limit <= 0 {
		limit = model.HistoryPageSize
	}

	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("msg_object", "true")

	var entries []model.HistoryEntry
	if err := c.getJSON(ctx, "/v1/agents/"+url.PathEscape(agentID)+"/messages", query, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// =============================================================================
// REQUEST HELPERS
// =============================================================================

func (c *Client) getJSON(ctx context.Context, path string, query url.Values, out any) error {
	target := c.config.BaseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to create request", Cause: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.doWithRetry(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return statusError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ClientError{Type: ErrTypeInvalidResponse, Message: "failed to decode response", Cause: err}
	}
	return nil
}

// doWithRetry performs a request, retrying connection failures and 5xx
// responses with exponential backoff.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request) (*http.Response, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := c.config.RetryDelay * time.Duration(1<<uint(attempt-1))
			c.logger.Printf("REQUEST_RETRY | url=%s attempt=%d delay=%s err=%v", req.URL.Path, attempt, delay, lastErr)
			select {
			case <-ctx.Done():
				return nil, wrapTransportError(ctx.Err())
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, wrapTransportError(err)
		}

		resp, err := c.httpClient.Do(req.Clone(ctx))
		if err != nil {
			if ctx.Err() != nil {
				return nil, wrapTransportError(ctx.Err())
			}
			lastErr = wrapTransportError(err)
			continue
		}

		if resp.StatusCode < 500 {
			return resp, nil
		}

		lastErr = statusError(resp)
		resp.Body.Close()
	}
	return nil, lastErr
}

// wrapTransportError classifies a failure of http.Client.Do.
func wrapTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return &ClientError{Type: ErrTypeCanceled, Message: "request canceled", Cause: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	var netErr interface{ Timeout() bool }
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &ClientError{Type: ErrTypeTimeout, Message: "request timed out", Cause: err}
	}
	return &ClientError{Type: ErrTypeConnection, Message: "server unreachable", Cause: err}
}

// statusError builds an error from a non-2xx response, reading the server's
// detail message when there is one.
func statusError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))

	msg := resp.Status
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Detail != "" {
		msg = apiErr.Detail
	}

	errType := ErrTypeStatus
	if resp.StatusCode == http.StatusNotFound {
		errType = ErrTypeNotFound
	}
	return &ClientError{
		Type:    errType,
		Status:  resp.StatusCode,
		Message: fmt.Sprintf("server returned %d: %s", resp.StatusCode, msg),
	}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound checks if an error is a not found error.
func IsNotFound(err error) bool {
	return hasType(err, ErrTypeNotFound)
}

// IsTimeout checks if an error is a timeout error.
func IsTimeout(err error) bool {
	return hasType(err, ErrTypeTimeout)
}

// IsCanceled checks if the caller's context ended the request.
func IsCanceled(err error) bool {
	return hasType(err, ErrTypeCanceled)
}

// IsConnection checks if an error means the server could not be reached.
func IsConnection(err error) bool {
	return hasType(err, ErrTypeConnection)
}

func hasType(err error, t ErrorType) bool {
	var clientErr *ClientError
	if errors.As(err, &clientErr) {
		return clientErr.Type == t
	}
	return false
}
