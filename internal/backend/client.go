// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// Config holds configuration options for the backend client.
type Config struct {
	// BaseURL is the service root (default: http://localhost:8000)
	BaseURL string

	// ChatPath is the streaming chat endpoint (default: /api/travel/chat/stream)
	ChatPath string

	// PlansPath is the plan collection (default: /api/travel/plans)
	PlansPath string

	// Timeout for non-streaming requests (default: 30s). Streams are bounded
	// by their context only.
	Timeout time.Duration

	// UserAgent sent with every request.
	UserAgent string
}

// Defaults.
const (
	DefaultBaseURL   = "http://localhost:8000"
	DefaultChatPath  = "/api/travel/chat/stream"
	DefaultPlansPath = "/api/travel/plans"
	DefaultTimeout   = 30 * time.Second
	DefaultUserAgent = "tripplan-tui"
)

// DefaultConfig returns the default client configuration.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:   DefaultBaseURL,
		ChatPath:  DefaultChatPath,
		PlansPath: DefaultPlansPath,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// ChatRequest is the body of a chat turn.
type ChatRequest struct {
	UserID  string `json:"user_id"`
	PlanID  string `json:"plan_id"`
	Message string `json:"message"`
}

// Client talks to the planning service. It is safe for concurrent use.
type Client struct {
	config       *Config
	httpClient   *http.Client
	streamClient *http.Client
	logger       *zap.Logger
}

// NewClient creates a client. A nil config uses DefaultConfig.
func NewClient(config *Config) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	c := *config
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if c.ChatPath == "" {
		c.ChatPath = DefaultChatPath
	}
	if c.PlansPath == "" {
		c.PlansPath = DefaultPlansPath
	}
	if c.Timeout == 0 {
		c.Timeout = DefaultTimeout
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}

	return &Client{
		config:       &c,
		httpClient:   &http.Client{Timeout: c.Timeout},
		streamClient: &http.Client{},
		logger:       zap.NewNop(),
	}
}

// WithLogger sets the logger.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("backend")
	}
	return c
}

// WithHTTPClient replaces both underlying HTTP clients. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	c.streamClient = hc
	return c
}

// ChatURL returns the streaming endpoint URL.
func (c *Client) ChatURL() string {
	return c.config.BaseURL + c.config.ChatPath
}

// PlanStatusURL returns the status endpoint of a plan.
func (c *Client) PlanStatusURL(planID string) string {
	return c.config.BaseURL + c.config.PlansPath + "/" + url.PathEscape(planID) + "/status"
}

// =============================================================================
// CHAT STREAM
// =============================================================================

// OpenChatStream sends one chat turn and returns the SSE response body.
// The caller must close it. Cancelling ctx aborts the stream.
func (c *Client) OpenChatStream(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to encode request", Cause: err}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ChatURL(), bytes.NewReader(body))
	if err != nil {
		return nil, &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")

	start := time.Now()
	resp, err := c.streamClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("chat stream request failed", zap.String("url", c.ChatURL()), zap.Error(err))
		return nil, transportError(ctx, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		errBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		ce := statusError(resp.StatusCode, resp.Status, errBody)
		c.logger.Warn("chat stream rejected",
			zap.Int("status", resp.StatusCode),
			zap.String("message", ce.Message))
		return nil, ce
	}

	c.logger.Debug("chat stream opened",
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)))
	return resp.Body, nil
}

// =============================================================================
// PLAN STATUS
// =============================================================================

// UpdatePlanStatus PATCHes the plan with body, the full itinerary document
// carrying its new status.
func (c *Client) UpdatePlanStatus(ctx context.Context, planID string, body []byte) error {
	if strings.TrimSpace(planID) == "" {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "plan ID is required"}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, c.PlanStatusURL(planID), bytes.NewReader(body))
	if err != nil {
		return &ClientError{Type: ErrTypeInvalidRequest, Message: "failed to create request", Cause: err}
	}
	c.setHeaders(httpReq)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.Warn("plan status request failed", zap.String("plan_id", planID), zap.Error(err))
		return transportError(ctx, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return &ClientError{Type: ErrTypeConnection, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ce := statusError(resp.StatusCode, resp.Status, respBody)
		if ce.Message == "HTTP "+resp.Status {
			ce.Message = fmt.Sprintf("failed to update plan status (HTTP %d)", resp.StatusCode)
		}
		c.logger.Warn("plan status rejected",
			zap.String("plan_id", planID),
			zap.Int("status", resp.StatusCode),
			zap.String("message", ce.Message))
		return ce
	}

	c.logger.Info("plan status updated", zap.String("plan_id", planID))
	return nil
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", c.config.UserAgent)
}
