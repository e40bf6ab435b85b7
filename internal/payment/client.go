// Package payment talks to the Razorpay-compatible payment gateway.
package payment

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

	"github.com/fjod/go_grocery/internal/domain"
	"github.com/fjod/go_grocery/pkg/circuitbreaker"
	"github.com/fjod/go_grocery/pkg/logger"
	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const ordersPath = "/v1/orders"

// GatewayOrder is the gateway's view of an order created for collection.
type GatewayOrder struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// RejectedError is a 4xx answer from the gateway. It does not count against
// the circuit breaker.
type RejectedError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("rejected with %d %s: %s", e.StatusCode, e.Code, e.Description)
}

type ClientConfig struct {
	BaseURL         string
	KeyID           string
	KeySecret       string
	Timeout         time.Duration
	BreakerTimeout  time.Duration
	BreakerFailures uint32
}

type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	timeout   time.Duration
	http      *http.Client
	breaker   *circuitbreaker.Breaker[*createResult]
	log       *slog.Logger
}

type createResult struct {
	order    *GatewayOrder
	rejected *RejectedError
}

func NewClient(cfg ClientConfig) *Client {
	log := logger.New("payment-gateway")
	return &Client{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		keyID:     cfg.KeyID,
		keySecret: cfg.KeySecret,
		timeout:   cfg.Timeout,
		http: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   cfg.Timeout,
		},
		breaker: circuitbreaker.New[*createResult](circuitbreaker.Settings{
			Name:             "payment-gateway",
			MaxRequests:      1,
			Timeout:          cfg.BreakerTimeout,
			ConsecutiveFails: cfg.BreakerFailures,
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		log: log,
	}
}

// CreateOrder opens a gateway order for amountMinor. Every call creates a
// new gateway order. All failures are *domain.GatewayError.
func (c *Client) CreateOrder(ctx context.Context, amountMinor int64, currency, receipt string) (*GatewayOrder, error) {
	res, err := c.breaker.Execute(func() (*createResult, error) {
		return c.createOrder(ctx, createOrderRequest{Amount: amountMinor, Currency: currency, Receipt: receipt})
	})
	if err != nil {
		return nil, &domain.GatewayError{Op: "create order", Err: err}
	}
	if res.rejected != nil {
		return nil, &domain.GatewayError{Op: "create order", Err: res.rejected}
	}
	return res.order, nil
}

func (c *Client) createOrder(ctx context.Context, body createOrderRequest) (*createResult, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(c.keyID, c.keySecret)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	c.log.DebugContext(ctx, "gateway call", "status", resp.StatusCode, "duration", time.Since(start))

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("gateway returned %d", resp.StatusCode)
	}
	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.Unmarshal(data, &er)
		return &createResult{rejected: &RejectedError{
			StatusCode:  resp.StatusCode,
			Code:        er.Error.Code,
			Description: er.Error.Description,
		}}, nil
	}

	var order GatewayOrder
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if order.ID == "" {
		return nil, errors.New("gateway response without order id")
	}
	return &createResult{order: &order}, nil
}
