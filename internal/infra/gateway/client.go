// Package gateway is the REST client for the remote data API that owns
// users, clients, developments and sales. Every call goes through the
// bulkhead, the circuit breaker and retry with backoff, and is traced.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/boddenberg/comissoes-bfa/internal/domain"
	"github.com/boddenberg/comissoes-bfa/internal/infra/observability"
	"github.com/boddenberg/comissoes-bfa/internal/infra/resilience"
	"github.com/boddenberg/comissoes-bfa/internal/port"
)

var tracer = otel.Tracer("gateway")

const serviceName = "gateway"

// SessionExpiredMessage is returned to the browser when the upstream
// rejects the bearer token.
const SessionExpiredMessage = "Sessão expirada"

// Client wraps HTTP calls to the remote data API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
	bulkhead   *resilience.Bulkhead
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewClient creates a gateway client. baseURL is the API root, e.g.
// https://api.example.com/api.
func NewClient(httpClient *http.Client, baseURL string, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		cb:         resilience.NewCircuitBreaker(serviceName, IsClientError),
		cfg:        cfg,
		bulkhead:   resilience.NewBulkhead(cfg.MaxConcurrency),
		metrics:    metrics,
		logger:     logger,
	}
}

// StatusError is a non-2xx answer from the upstream.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("gateway returned status %d: %s", e.Status, e.Message)
}

// IsClientError reports whether err is a 4xx answer.
func IsClientError(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status >= 400 && se.Status < 500
}

// call describes one request. resource and id only feed error messages.
type call struct {
	op       string
	method   string
	path     string
	resource string
	id       string
	body     any
	out      any
}

// Name identifies the dependency in health reports.
func (c *Client) Name() string { return serviceName }

// Check fails while the circuit breaker is open.
func (c *Client) Check(_ context.Context) error {
	if c.cb.State() == gobreaker.StateOpen {
		return &domain.ErrCircuitOpen{Service: serviceName}
	}
	return nil
}

func (c *Client) do(ctx context.Context, rq call) error {
	ctx, span := tracer.Start(ctx, "Gateway."+rq.op)
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", rq.method),
		attribute.String("gateway.path", rq.path),
	)

	if err := c.bulkhead.Acquire(ctx); err != nil {
		return &domain.ErrTimeout{Operation: rq.op}
	}
	defer c.bulkhead.Release()

	c.metrics.IncrGatewayRequest(rq.op)

	_, err := c.cb.Execute(func() (any, error) {
		return nil, resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			return c.roundTrip(ctx, rq)
		})
	})
	if err != nil {
		span.RecordError(err)
		if !IsClientError(err) {
			c.metrics.IncrExternalError(serviceName)
		}
		return c.mapError(rq, err)
	}
	return nil
}

func (c *Client) roundTrip(ctx context.Context, rq call) error {
	var reader io.Reader
	if rq.body != nil {
		payload, err := json.Marshal(rq.body)
		if err != nil {
			return resilience.Permanent(fmt.Errorf("encoding %s body: %w", rq.op, err))
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, rq.method, c.baseURL+rq.path, reader)
	if err != nil {
		return resilience.Permanent(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if tok := port.UpstreamToken(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("gateway: request failed",
			zap.String("method", rq.method),
			zap.String("path", rq.path),
			zap.Error(err),
		)
		return err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		se := &StatusError{Status: resp.StatusCode, Message: upstreamMessage(body, resp.Status)}
		c.logger.Warn("gateway: non-2xx response",
			zap.String("method", rq.method),
			zap.String("path", rq.path),
			zap.Int("status", resp.StatusCode),
			zap.String("error", se.Message),
		)
		if resp.StatusCode < 500 {
			return resilience.Permanent(se)
		}
		return se
	}

	c.logger.Debug("gateway: request OK",
		zap.String("method", rq.method),
		zap.String("path", rq.path),
		zap.Int("status", resp.StatusCode),
	)

	if rq.out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, rq.out); err != nil {
		return resilience.Permanent(fmt.Errorf("decoding %s response: %w", rq.op, err))
	}
	return nil
}

// upstreamMessage extracts {"error": "..."} (or "message") from an error
// body, falling back to the raw body or the HTTP status text.
func upstreamMessage(body []byte, status string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if raw := strings.TrimSpace(string(body)); raw != "" && len(raw) < 256 {
		return raw
	}
	return status
}

func (c *Client) mapError(rq call, err error) error {
	var se *StatusError
	if errors.As(err, &se) {
		switch se.Status {
		case http.StatusUnauthorized:
			return &domain.ErrUnauthorized{Message: SessionExpiredMessage}
		case http.StatusForbidden:
			return &domain.ErrForbidden{Action: rq.op}
		case http.StatusNotFound:
			return &domain.ErrNotFound{Resource: rq.resource, ID: rq.id}
		case http.StatusConflict:
			return &domain.ErrConflict{Message: se.Message}
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return &domain.ErrValidation{Message: se.Message}
		}
		return &domain.ErrExternalService{Service: serviceName, Err: se}
	}

	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return &domain.ErrCircuitOpen{Service: serviceName}
	case errors.Is(err, context.DeadlineExceeded):
		return &domain.ErrTimeout{Operation: rq.op}
	}
	return &domain.ErrExternalService{Service: serviceName, Err: err}
}
