package tool

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sampath-yadav/Sahay-Project/agent/capability"
	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	logx "github.com/Sampath-yadav/Sahay-Project/pkg/logger"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

type Invoker interface {
	Invoke(ctx context.Context, tool string, args map[string]any) capability.Result
}

type Option func(*Executor)

func WithMetrics(m *metricsx.Metrics) Option {
	return func(e *Executor) {
		e.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(e *Executor) {
		e.logger = l
	}
}

// Executor runs tool calls one after another, in the order received.
// Failures come back as unsuccessful results, never as Go errors.
type Executor struct {
	invoker Invoker
	metrics *metricsx.Metrics
	logger  zerolog.Logger
}

var _ contractx.ToolGateway = (*Executor)(nil)

func NewExecutor(invoker Invoker, opts ...Option) *Executor {
	e := &Executor{
		invoker: invoker,
		logger:  logx.Component("tool"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *Executor) Execute(ctx context.Context, calls []contractx.ToolCall) []contractx.ToolResult {
	results := make([]contractx.ToolResult, 0, len(calls))
	for _, call := range calls {
		start := time.Now()
		res := e.invoker.Invoke(ctx, call.Tool, call.Args)

		e.metrics.ObserveToolCall(call.Tool, string(res.ErrorType))
		e.logger.Info().
			Str("tool", call.Tool).
			Str("call_id", call.ID).
			Bool("success", res.Success).
			Str("error_type", string(res.ErrorType)).
			Dur("took", time.Since(start)).
			Msg("tool executed")

		results = append(results, contractx.ToolResult{
			CallID:    call.ID,
			Tool:      call.Tool,
			Success:   res.Success,
			Message:   res.Message,
			ErrorType: res.ErrorType,
			Data:      res.Data,
		})
	}
	return results
}
