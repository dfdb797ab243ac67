// Package circuitbreaker wraps sony/gobreaker with OpenTelemetry spans and
// counters. The export relay uses it to stop hammering an unavailable broker.
package circuitbreaker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// State represents the circuit breaker state
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

// Value maps the state onto the circuit_breaker_state gauge
func (s State) Value() float64 {
	switch s {
	case StateHalfOpen:
		return 1
	case StateOpen:
		return 2
	default:
		return 0
	}
}

// Config holds circuit breaker configuration
type Config struct {
	// Name identifies the circuit breaker
	Name string
	// MaxRequests is max requests allowed in half-open state
	MaxRequests uint32
	// Interval is the cyclic period for clearing counts in closed state
	Interval time.Duration
	// Timeout is how long to wait before transitioning from open to half-open
	Timeout time.Duration
	// FailureThreshold is the number of consecutive failures before opening
	FailureThreshold uint32
	// FailureRatio opens the breaker once MinRequests have been seen
	FailureRatio float64
	MinRequests  uint32
}

// DefaultConfig returns defaults for broker publishing
func DefaultConfig(name string) Config {
	return Config{
		Name:             name,
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          15 * time.Second,
		FailureThreshold: 5,
		FailureRatio:     0.6,
		MinRequests:      10,
	}
}

// IsRejected reports whether err came from the breaker rather than the call
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// CircuitBreaker wraps gobreaker with observability
type CircuitBreaker struct {
	cb            *gobreaker.CircuitBreaker
	name          string
	logger        *zap.Logger
	tracer        trace.Tracer
	onStateChange func(name string, to State)

	requestCounter  metric.Int64Counter
	failureCounter  metric.Int64Counter
	rejectedCounter metric.Int64Counter
}

// Option configures a CircuitBreaker
type Option func(*CircuitBreaker)

// WithStateHook registers fn to run on every state transition
func WithStateHook(fn func(name string, to State)) Option {
	return func(c *CircuitBreaker) { c.onStateChange = fn }
}

// New creates a new circuit breaker
func New(cfg Config, logger *zap.Logger, opts ...Option) (*CircuitBreaker, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &CircuitBreaker{
		name:   cfg.Name,
		logger: logger,
		tracer: otel.Tracer("circuit-breaker"),
	}
	for _, opt := range opts {
		opt(c)
	}

	meter := otel.Meter("circuit-breaker")
	var err error
	c.requestCounter, err = meter.Int64Counter("circuit_breaker_requests_total",
		metric.WithDescription("Total requests through circuit breaker"))
	if err != nil {
		return nil, fmt.Errorf("create request counter: %w", err)
	}
	c.failureCounter, err = meter.Int64Counter("circuit_breaker_failures_total",
		metric.WithDescription("Total failed requests"))
	if err != nil {
		return nil, fmt.Errorf("create failure counter: %w", err)
	}
	c.rejectedCounter, err = meter.Int64Counter("circuit_breaker_rejected_total",
		metric.WithDescription("Total requests rejected while open"))
	if err != nil {
		return nil, fmt.Errorf("create rejected counter: %w", err)
	}

	c.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return counts.ConsecutiveFailures >= cfg.FailureThreshold
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(_ string, from, to gobreaker.State) {
			c.stateChanged(mapState(from), mapState(to))
		},
	})
	if c.onStateChange != nil {
		c.onStateChange(c.name, StateClosed)
	}

	return c, nil
}

// Do runs fn through the breaker. When the breaker is open fn is not called
// and the returned error satisfies IsRejected.
func (c *CircuitBreaker) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := c.tracer.Start(ctx, "circuit_breaker.do",
		trace.WithAttributes(
			attribute.String("breaker_name", c.name),
			attribute.String("state", string(c.State())),
		))
	defer span.End()

	attrs := metric.WithAttributes(attribute.String("name", c.name))
	c.requestCounter.Add(ctx, 1, attrs)

	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn(ctx)
	})
	if err != nil {
		if IsRejected(err) {
			c.rejectedCounter.Add(ctx, 1, attrs)
			span.SetAttributes(attribute.Bool("circuit_open", true))
		} else {
			c.failureCounter.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		return err
	}
	return nil
}

// State returns the current state, moving open to half-open once Timeout passed
func (c *CircuitBreaker) State() State {
	return mapState(c.cb.State())
}

func (c *CircuitBreaker) Name() string {
	return c.name
}

func (c *CircuitBreaker) stateChanged(from, to State) {
	c.logger.Warn("circuit breaker state changed",
		zap.String("breaker", c.name),
		zap.String("from", string(from)),
		zap.String("to", string(to)))
	if c.onStateChange != nil {
		c.onStateChange(c.name, to)
	}
}

func mapState(s gobreaker.State) State {
	switch s {
	case gobreaker.StateOpen:
		return StateOpen
	case gobreaker.StateHalfOpen:
		return StateHalfOpen
	default:
		return StateClosed
	}
}

// HealthStatus summarizes a breaker for health endpoints
type HealthStatus struct {
	Name     string `json:"name"`
	State    State  `json:"state"`
	Requests uint32 `json:"requests"`
	Failures uint32 `json:"failures"`
	Healthy  bool   `json:"healthy"`
}

func (c *CircuitBreaker) Health() HealthStatus {
	counts := c.cb.Counts()
	state := c.State()
	return HealthStatus{
		Name:     c.name,
		State:    state,
		Requests: counts.Requests,
		Failures: counts.TotalFailures,
		Healthy:  state == StateClosed,
	}
}
