package lims

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/qdclab/booking-api/internal/booking"
	"github.com/qdclab/booking-api/internal/catalog"
	"github.com/qdclab/booking-api/internal/resilience"
)

// ErrOrderRejected indicates the LIMS refused the order (validation failure,
// out-of-stock reagents, unknown patient). The message carries the upstream
// rejection text for display.
var ErrOrderRejected = errors.New("lims: order rejected")

// Config describes how to reach the upstream LIMS API.
type Config struct {
	BaseURL      string
	Timeout      time.Duration
	ReadAttempts int
	Breaker      *resilience.Breaker
}

// Client talks to the upstream LIMS. Order creation is not idempotent and is
// never retried; catalog reads are safe to retry. Both share one breaker so a
// struggling upstream is shed consistently.
type Client struct {
	base   string
	orders resilience.HTTPClient
	reads  resilience.HTTPClient
}

// NewClient constructs a LIMS client with traced transport.
func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("lims: base url is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	readAttempts := cfg.ReadAttempts
	if readAttempts <= 0 {
		readAttempts = 3
	}
	inner := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
	return &Client{
		base: base,
		orders: resilience.HTTPClient{
			Client:      inner,
			Breaker:     cfg.Breaker,
			MaxAttempts: 1,
			Timeout:     timeout,
		},
		reads: resilience.HTTPClient{
			Client:      inner,
			Breaker:     cfg.Breaker,
			MaxAttempts: readAttempts,
			BaseBackoff: 200 * time.Millisecond,
			Jitter:      0.2,
			Timeout:     timeout,
		},
	}, nil
}

// CreateOrder posts the order payload and returns the created order id.
// Exactly one request is sent per call; retrying is the caller's decision.
func (c *Client) CreateOrder(ctx context.Context, req booking.OrderRequest) (int64, error) {
	if c == nil {
		return 0, errors.New("lims: client not configured")
	}
	payload, err := json.Marshal(req)
	if err != nil {
		return 0, fmt.Errorf("lims: encode order: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/api/orders", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := c.orders.Do(ctx, httpReq)
	if err != nil {
		return 0, fmt.Errorf("lims: create order: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, fmt.Errorf("lims: read response: %w", err)
	}
	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var order struct {
			ID int64 `json:"id"`
		}
		if err := json.Unmarshal(body, &order); err != nil {
			return 0, fmt.Errorf("lims: decode order: %w", err)
		}
		if order.ID == 0 {
			return 0, errors.New("lims: response missing order id")
		}
		return order.ID, nil
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		// the upstream returns the rejection reason as plain text
		return 0, fmt.Errorf("%w: %s", ErrOrderRejected, rejectionText(body))
	default:
		return 0, fmt.Errorf("lims: unexpected status %s", resp.Status)
	}
}

// ListTests fetches the orderable test catalog.
func (c *Client) ListTests(ctx context.Context) ([]catalog.TestDefinition, error) {
	if c == nil {
		return nil, errors.New("lims: client not configured")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/tests", nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Accept", "application/json")
	resp, err := c.reads.Do(ctx, httpReq)
	if err != nil {
		return nil, fmt.Errorf("lims: list tests: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lims: unexpected status %s", resp.Status)
	}
	var tests []catalog.TestDefinition
	if err := json.NewDecoder(resp.Body).Decode(&tests); err != nil {
		return nil, fmt.Errorf("lims: decode tests: %w", err)
	}
	return tests, nil
}

// Ping probes the upstream for readiness checks.
func (c *Client) Ping(ctx context.Context, timeout time.Duration) error {
	if c == nil {
		return errors.New("lims: client not configured")
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/api/tests", nil)
	if err != nil {
		return err
	}
	resp, err := c.reads.Client.Do(httpReq)
	if err != nil {
		return err
	}
	_ = resp.Body.Close()
	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("lims: unexpected status %s", resp.Status)
	}
	return nil
}

func rejectionText(body []byte) string {
	text := strings.TrimSpace(string(body))
	if text == "" {
		return "order was not accepted"
	}
	// upstream sometimes wraps the message in a JSON string
	var unquoted string
	if err := json.Unmarshal(body, &unquoted); err == nil && strings.TrimSpace(unquoted) != "" {
		return strings.TrimSpace(unquoted)
	}
	return text
}
