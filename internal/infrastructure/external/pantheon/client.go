package pantheon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pantheon-hub/underliv/internal/domain/garment"
	"github.com/pantheon-hub/underliv/internal/domain/leaderboard"
	"github.com/pantheon-hub/underliv/internal/domain/shared"
	"github.com/pantheon-hub/underliv/pkg/circuitbreaker"
	"github.com/pantheon-hub/underliv/pkg/logger"
	"github.com/pantheon-hub/underliv/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONFIGURATION
// ══════════════════════════════════════════════════════════════════════════════

// UserHeader carries the caller identity. Authentication is mocked by the backend.
const UserHeader = "X-User-ID"

// ClientConfig contains configuration for the backend client.
type ClientConfig struct {
	// BaseURL is the backend root, e.g. "http://localhost:8080".
	BaseURL string

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration

	// MaxAttempts bounds retries of idempotent requests.
	MaxAttempts int

	// RetryInitialDelay is the first backoff interval.
	RetryInitialDelay time.Duration

	// Breaker guards every request. Nil disables it.
	Breaker *circuitbreaker.CircuitBreaker

	Logger *logger.Logger
}

// DefaultClientConfig returns sensible defaults.
func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:           baseURL,
		Timeout:           10 * time.Second,
		MaxAttempts:       3,
		RetryInitialDelay: 200 * time.Millisecond,
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client talks to the garment backend. It satisfies registry.Gateway.
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	logger     *logger.Logger
	retryOpts  []retry.Option
}

// NewClient creates a new backend client.
func NewClient(config ClientConfig) *Client {
	if config.Logger == nil {
		config.Logger = logger.NewNop()
	}
	if config.MaxAttempts < 1 {
		config.MaxAttempts = 1
	}
	if config.RetryInitialDelay <= 0 {
		config.RetryInitialDelay = 200 * time.Millisecond
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     config.Logger.With(logger.Component("pantheon_client")),
		retryOpts: []retry.Option{
			retry.WithMaxAttempts(config.MaxAttempts),
			retry.WithInitialDelay(config.RetryInitialDelay),
			retry.WithMaxDelay(3 * time.Second),
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// GARMENT OPERATIONS
// ══════════════════════════════════════════════════════════════════════════════

// List fetches the owner's collection.
func (c *Client) List(ctx context.Context, owner garment.OwnerID) ([]garment.Garment, error) {
	var resp APIResponse[[]GarmentDTO]
	if err := c.do(ctx, owner, http.MethodGet, "/api/v1/garments", nil, &resp); err != nil {
		return nil, fmt.Errorf("list garments: %w", err)
	}
	items, err := GarmentsFromDTO(resp.Data)
	if err != nil {
		return nil, invalidResponse("List", err)
	}
	return items, nil
}

// Create registers a garment from the draft.
func (c *Client) Create(ctx context.Context, owner garment.OwnerID, d garment.Draft) (garment.Garment, error) {
	var resp APIResponse[GarmentDTO]
	if err := c.do(ctx, owner, http.MethodPost, "/api/v1/garments", CreateRequestFromDraft(d), &resp); err != nil {
		return garment.Garment{}, fmt.Errorf("create garment: %w", err)
	}
	g, err := GarmentFromDTO(resp.Data)
	if err != nil {
		return garment.Garment{}, invalidResponse("Create", err)
	}
	return g, nil
}

// Wash records one wash and returns the server's copy.
func (c *Client) Wash(ctx context.Context, owner garment.OwnerID, id string) (garment.Garment, error) {
	return c.patch(ctx, owner, id, ActionWash)
}

// Retire retires the garment and returns the server's copy.
func (c *Client) Retire(ctx context.Context, owner garment.OwnerID, id string) (garment.Garment, error) {
	return c.patch(ctx, owner, id, ActionRetire)
}

// Delete removes the garment.
func (c *Client) Delete(ctx context.Context, owner garment.OwnerID, id string) error {
	if err := c.do(ctx, owner, http.MethodDelete, garmentPath(id), nil, nil); err != nil {
		return fmt.Errorf("delete garment %s: %w", id, err)
	}
	return nil
}

// Leaderboard fetches the cross-user leaderboard.
func (c *Client) Leaderboard(ctx context.Context, limit int) (leaderboard.Board, error) {
	path := "/api/v1/leaderboard"
	if limit > 0 {
		path += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}

	var resp APIResponse[leaderboard.Board]
	if err := c.do(ctx, "", http.MethodGet, path, nil, &resp); err != nil {
		return leaderboard.Board{}, fmt.Errorf("get leaderboard: %w", err)
	}
	return resp.Data, nil
}

// Achievements fetches the achievement catalog.
func (c *Client) Achievements(ctx context.Context) ([]garment.Milestone, error) {
	var resp APIResponse[[]garment.Milestone]
	if err := c.do(ctx, "", http.MethodGet, "/api/v1/achievements", nil, &resp); err != nil {
		return nil, fmt.Errorf("get achievements: %w", err)
	}
	return resp.Data, nil
}

// Ping checks that the backend answers its liveness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, "", http.MethodGet, "/live", nil, nil)
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func (c *Client) patch(ctx context.Context, owner garment.OwnerID, id, action string) (garment.Garment, error) {
	var resp APIResponse[PatchResultDTO]
	if err := c.do(ctx, owner, http.MethodPatch, garmentPath(id), PatchGarmentRequest{Action: action}, &resp); err != nil {
		return garment.Garment{}, fmt.Errorf("%s garment %s: %w", action, id, err)
	}
	g, err := GarmentFromDTO(resp.Data.Garment)
	if err != nil {
		return garment.Garment{}, invalidResponse(action, err)
	}
	return g, nil
}

func garmentPath(id string) string {
	return "/api/v1/garments/" + url.PathEscape(id)
}

// ══════════════════════════════════════════════════════════════════════════════
// HTTP
// ══════════════════════════════════════════════════════════════════════════════

// do performs a request. Idempotent methods are retried on transport errors,
// 429 and 5xx; POST and PATCH are sent once.
func (c *Client) do(ctx context.Context, owner garment.OwnerID, method, path string, body, result any) error {
	idempotent := method == http.MethodGet || method == http.MethodDelete

	attempts := 1
	if idempotent {
		attempts = c.config.MaxAttempts
	}
	opts := append([]retry.Option{}, c.retryOpts...)
	opts = append(opts,
		retry.WithMaxAttempts(attempts),
		retry.WithOnRetry(func(attempt int, err error, delay time.Duration) {
			c.logger.Warn("retrying backend request",
				logger.String("method", method),
				logger.String("path", path),
				logger.Int("attempt", attempt),
				logger.Duration("delay", delay),
				logger.Err(err),
			)
		}),
	)

	call := func(ctx context.Context) error {
		return retry.Do(ctx, func(ctx context.Context) error {
			return c.doSingle(ctx, owner, method, path, body, result)
		}, opts...)
	}
	if c.config.Breaker == nil {
		return call(ctx)
	}

	err := c.config.Breaker.Execute(ctx, call)
	if circuitbreaker.IsRejected(err) {
		return shared.WrapError("remote", method, shared.ErrRemoteUnavailable, "backend marked down, try again later", err)
	}
	return err
}

// NewBreaker returns a breaker that counts only availability failures
// and logs its state changes.
func NewBreaker(log *logger.Logger) *circuitbreaker.CircuitBreaker {
	if log == nil {
		log = logger.NewNop()
	}
	return circuitbreaker.BackendBreaker(shared.IsRetryable, func(name string, from, to circuitbreaker.State) {
		log.Warn("backend circuit state changed",
			logger.String("breaker", name),
			logger.String("from", from.String()),
			logger.String("to", to.String()),
		)
	})
}

func (c *Client) doSingle(ctx context.Context, owner garment.OwnerID, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return retry.Permanent(fmt.Errorf("marshal body: %w", err))
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, bodyReader)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if owner != "" {
		req.Header.Set(UserHeader, owner.String())
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return retry.Permanent(shared.WrapError("remote", method, shared.ErrRemoteTimeout, "request cancelled", err))
		}
		return retry.Retryable(shared.WrapError("remote", method, shared.ErrRemoteUnavailable, "transport failure", err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return retry.Retryable(shared.WrapError("remote", method, shared.ErrRemoteUnavailable, "read response", err))
	}

	c.logger.Debug("backend request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Latency(time.Since(start)),
	)

	if resp.StatusCode >= 400 {
		return classify(method, resp.StatusCode, respBody)
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return retry.Permanent(invalidResponse(method, err))
		}
	}
	return nil
}

// classify maps an error status to a domain error.
func classify(op string, status int, body []byte) error {
	apiErr := &APIErrorDTO{Code: http.StatusText(status), Message: "request failed"}
	var envelope APIResponse[json.RawMessage]
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		apiErr = envelope.Error
	}
	apiErr.Status = status

	switch {
	case status == http.StatusNotFound:
		return retry.Permanent(shared.WrapError("remote", op, shared.ErrGarmentNotFound, apiErr.Message, apiErr))
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return retry.Permanent(shared.WrapError("remote", op, shared.ErrRemoteUnauthorized, apiErr.Message, apiErr))
	case status == http.StatusConflict:
		return retry.Permanent(shared.WrapError("remote", op, shared.ErrGarmentRetired, apiErr.Message, apiErr))
	case status == http.StatusTooManyRequests || status >= 500:
		return retry.Retryable(shared.WrapError("remote", op, shared.ErrRemoteUnavailable, apiErr.Message, apiErr))
	default:
		return retry.Permanent(shared.WrapError("remote", op, shared.ErrValidation, apiErr.Message, apiErr))
	}
}

func invalidResponse(op string, err error) error {
	return shared.WrapError("remote", op, shared.ErrRemoteInvalidResponse, "unexpected payload", err)
}

// IsDecodeError reports whether err carries a *DecodeError.
func IsDecodeError(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
