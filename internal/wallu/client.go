// Package wallu is a client for the Wallu conversational API.
package wallu

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

	"golang.org/x/net/http/httpguts"

	"github.com/wallubot/wallu-telegram/internal/config"
	"github.com/wallubot/wallu-telegram/internal/logger"
	"github.com/wallubot/wallu-telegram/internal/resilience"
)

const (
	onMessagePath = "/on-message"
	maxErrorBody  = 512
)

var (
	// ErrInvalidAPIKey is returned when Wallu rejects the key with 401 or 403,
	// or when the key cannot be sent as a header.
	ErrInvalidAPIKey = errors.New("invalid wallu api key")

	errMalformedKey = fmt.Errorf("%w: key contains characters not allowed in a header", ErrInvalidAPIKey)
)

// APIError is a non-2xx response from the Wallu API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wallu api error: status %d: %s", e.StatusCode, e.Body)
}

// Is lets errors.Is(err, ErrInvalidAPIKey) match authentication failures.
func (e *APIError) Is(target error) bool {
	return target == ErrInvalidAPIKey && isAuthStatus(e.StatusCode)
}

// Client talks to the Wallu API.
type Client struct {
	httpClient *http.Client
	breaker    *resilience.CircuitBreaker
	baseURL    string
	cfg        config.WalluConfig
	log        *slog.Logger
}

// NewClient creates a client for the Wallu API.
func NewClient(cfg config.WalluConfig, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "wallu_client")
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			Name:        "wallu",
			MaxFailures: cfg.BreakerFailures,
			Cooldown:    cfg.BreakerCooldown,
			IsFailure:   isUpstreamFailure,
		}, log),
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		cfg:     cfg,
		log:     log,
	}
}

// OnMessage relays one chat message and returns Wallu's answer.
func (c *Client) OnMessage(ctx context.Context, apiKey string, req *OnMessageRequest) (*OnMessageResponse, error) {
	if req.Addon.Name == "" {
		req.Addon = Addon{Name: c.cfg.AddonName, Version: c.cfg.AddonVersion}
	}
	if req.Configuration.EmojiType == "" {
		req.Configuration = Configuration{EmojiType: c.cfg.EmojiType, IncludeSources: c.cfg.IncludeSources}
	}

	httpReq, err := c.buildRequest(ctx, apiKey, req)
	if err != nil {
		return nil, fmt.Errorf("failed to relay message %s: %w", req.Message.ID, err)
	}

	var resp OnMessageResponse
	err = c.breaker.Execute(ctx, func(context.Context) error {
		return c.send(httpReq, &resp)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to relay message %s: %w", req.Message.ID, err)
	}
	return &resp, nil
}

// ValidateKey probes the API with an empty body. Only 401 and 403 mean the key
// is invalid. Any other outcome, including transport failures, is treated as
// a plausible key. A key that cannot be sent at all is invalid.
func (c *Client) ValidateKey(ctx context.Context, apiKey string) error {
	req, err := c.buildRequest(ctx, apiKey, struct{}{})
	if err != nil {
		c.log.InfoContext(ctx, "Key probe request could not be built, rejecting key", "error", err)
		return ErrInvalidAPIKey
	}

	err = c.send(req, nil)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrInvalidAPIKey) {
		return ErrInvalidAPIKey
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	c.log.WarnContext(ctx, "Key probe failed with a non-auth error, accepting key", "error", err)
	return nil
}

// send performs req and decodes a 2xx answer into response.
func (c *Client) send(req *http.Request, response any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(raw))}
	}

	if response == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(response); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// buildRequest creates the POST request with the key and request id headers.
// Keys that are not valid header values are rejected here.
func (c *Client) buildRequest(ctx context.Context, apiKey string, body any) (*http.Request, error) {
	if !httpguts.ValidHeaderFieldValue(apiKey) {
		return nil, errMalformedKey
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+onMessagePath, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-Key", apiKey)
	if id := logger.RequestIDFrom(ctx); id != "" {
		req.Header.Set("X-Request-ID", id)
	}
	return req, nil
}

// isUpstreamFailure counts transport errors and 5xx answers against the
// breaker. 4xx answers depend on the caller's key and do not.
func isUpstreamFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= http.StatusInternalServerError
	}
	return true
}

func isAuthStatus(code int) bool {
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
