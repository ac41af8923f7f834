package gateway

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	logx "github.com/Sampath-yadav/Sahay-Project/pkg/logger"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

var tracer = otel.Tracer("scheduler.agent.gateway")

const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 100 * time.Millisecond
)

// Config is loaded with the GATEWAY prefix. A zero Deadline disables it.
type Config struct {
	MaxAttempts int           `split_words:"true" default:"3"`
	BaseDelay   time.Duration `split_words:"true" default:"100ms"`
	Deadline    time.Duration `split_words:"true" default:"5s"`
}

func (c Config) Validate() error {
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be at least 1, got %d", c.MaxAttempts)
	}
	if c.BaseDelay < 0 || c.Deadline < 0 {
		return errors.New("base delay and deadline must not be negative")
	}
	return nil
}

func (c Config) Options() []Option {
	return []Option{
		WithMaxAttempts(c.MaxAttempts),
		WithBaseDelay(c.BaseDelay),
		WithDeadline(c.Deadline),
	}
}

// Sleeper waits d or returns early with ctx's error.
type Sleeper func(ctx context.Context, d time.Duration) error

type Option func(*Gateway)

func WithMaxAttempts(n int) Option {
	return func(g *Gateway) {
		if n > 0 {
			g.maxAttempts = n
		}
	}
}

func WithBaseDelay(d time.Duration) Option {
	return func(g *Gateway) {
		if d >= 0 {
			g.baseDelay = d
		}
	}
}

func WithDeadline(d time.Duration) Option {
	return func(g *Gateway) {
		if d >= 0 {
			g.deadline = d
		}
	}
}

func WithMetrics(m *metricsx.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(g *Gateway) {
		g.logger = l
	}
}

func WithSleeper(s Sleeper) Option {
	return func(g *Gateway) {
		if s != nil {
			g.sleep = s
		}
	}
}

// Gateway retries transient store failures with exponential backoff under
// an optional per-operation deadline.
type Gateway struct {
	maxAttempts int
	baseDelay   time.Duration
	deadline    time.Duration
	metrics     *metricsx.Metrics
	logger      zerolog.Logger
	sleep       Sleeper
}

func New(opts ...Option) *Gateway {
	g := &Gateway{
		maxAttempts: DefaultMaxAttempts,
		baseDelay:   DefaultBaseDelay,
		logger:      logx.Component("gateway"),
		sleep:       sleepContext,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Delay is the backoff that follows a failed attempt: base * 2^(attempt-1).
// Do only sleeps between attempts, so with three attempts Delay(3) (400ms) is never waited.
func (g *Gateway) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return g.baseDelay << (attempt - 1)
}

type attemptResult[T any] struct {
	val T
	err error
}

// Do runs fn under the gateway policy. Permanent failures return unchanged
// after one attempt; exhausted transient failures wrap ErrUnavailable; an
// expired deadline returns ErrTimeout.
func Do[T any](ctx context.Context, g *Gateway, op string, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	ctx, span := tracer.Start(ctx, op)
	defer span.End()
	span.SetAttributes(attribute.String("gateway.op", op))

	if g.deadline > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.deadline)
		defer cancel()
	}

	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		val, err := runAttempt(ctx, fn)
		if err == nil {
			if attempt > 1 {
				g.logger.Info().Str("op", op).Int("attempt", attempt).Msg("gateway: recovered")
			}
			g.metrics.ObserveGatewayAttempt(op, "ok")
			g.metrics.ObserveGatewayOutcome(op, "success")
			span.SetAttributes(attribute.Int("gateway.attempts", attempt))
			return val, nil
		}

		if ctx.Err() != nil {
			return zero, g.abort(ctx, span, op, attempt, err)
		}

		class := Classify(err)
		g.metrics.ObserveGatewayAttempt(op, string(class))

		if class == ClassPermanent {
			g.logger.Debug().Err(err).Str("op", op).Int("attempt", attempt).Str("class", string(class)).Msg("gateway: permanent failure")
			g.metrics.ObserveGatewayOutcome(op, "permanent")
			span.SetAttributes(attribute.Int("gateway.attempts", attempt))
			return zero, err
		}

		lastErr = err
		if attempt == g.maxAttempts {
			g.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Str("class", string(class)).Msg("gateway: attempts exhausted")
			break
		}

		delay := g.Delay(attempt)
		g.logger.Warn().Err(err).Str("op", op).Int("attempt", attempt).Dur("delay", delay).Str("class", string(class)).Msg("gateway: retrying")
		if err := g.sleep(ctx, delay); err != nil {
			return zero, g.abort(ctx, span, op, attempt, lastErr)
		}
	}

	g.metrics.ObserveGatewayOutcome(op, "exhausted")
	err := fmt.Errorf("%w: %s failed after %d attempts: %w", contractx.ErrUnavailable, op, g.maxAttempts, lastErr)
	span.RecordError(err)
	span.SetStatus(codes.Error, "exhausted")
	return zero, err
}

func (g *Gateway) abort(ctx context.Context, span trace.Span, op string, attempt int, cause error) error {
	var err error
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		g.metrics.ObserveGatewayOutcome(op, "timeout")
		err = fmt.Errorf("%w: %s did not finish in time (attempt %d)", contractx.ErrTimeout, op, attempt)
	} else {
		g.metrics.ObserveGatewayOutcome(op, "canceled")
		err = fmt.Errorf("%w: %s canceled: %w", contractx.ErrUnavailable, op, ctx.Err())
	}
	g.logger.Warn().Err(cause).Str("op", op).Int("attempt", attempt).Msg("gateway: aborted")
	span.RecordError(err)
	span.SetStatus(codes.Error, "aborted")
	return err
}

// runAttempt races fn against ctx so drivers that ignore ctx still honour the deadline.
func runAttempt[T any](ctx context.Context, fn func(context.Context) (T, error)) (T, error) {
	done := make(chan attemptResult[T], 1)
	go func() {
		v, err := fn(ctx)
		done <- attemptResult[T]{val: v, err: err}
	}()

	select {
	case res := <-done:
		return res.val, res.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
