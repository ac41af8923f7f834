package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	nodex "github.com/Sampath-yadav/Sahay-Project/agent/nodes/orchestrator"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidHistory = nodex.ErrInvalidHistory
)

type Option func(*Orchestrator)

func WithMetrics(m *metricsx.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		if now != nil {
			o.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// Orchestrator runs one user message through plan, tools and respond.
type Orchestrator struct {
	reasoner contractx.Reasoner
	tools    contractx.ToolGateway
	history  contractx.HistoryStore
	metrics  *metricsx.Metrics
	logger   zerolog.Logger

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

// New compiles the message graph. history may be nil, in which case the
// caller carries the conversation.
func New(
	reasoner contractx.Reasoner,
	tools contractx.ToolGateway,
	history contractx.HistoryStore,
	opts ...Option,
) (*Orchestrator, error) {
	if reasoner == nil {
		return nil, errors.New("reasoner is required")
	}
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	o := &Orchestrator{
		reasoner: reasoner,
		tools:    tools,
		history:  history,
		logger:   log.Logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(o)
		}
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// Handle is the full form used by the HTTP surface.
func (o *Orchestrator) Handle(ctx context.Context, in nodex.GraphInput) (nodex.GraphOutput, error) {
	ctx, span := otel.Tracer("orchestrator").Start(ctx, "orchestrator.handle_message")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", in.SessionID),
		attribute.Int("history.turns", len(in.History)),
	)

	start := time.Now()
	out, err := o.graphRunner.Invoke(ctx, in)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "handle message failed")
		o.logger.Error().Err(err).Str("session_id", in.SessionID).Dur("took", time.Since(start)).Msg("handle message failed")
		return nodex.GraphOutput{}, err
	}

	span.SetAttributes(attribute.Int("tool.calls", len(out.Calls)))
	o.logger.Info().
		Str("session_id", in.SessionID).
		Int("tool_calls", len(out.Calls)).
		Dur("took", time.Since(start)).
		Msg("message handled")
	return out, nil
}

func (o *Orchestrator) HandleMessage(ctx context.Context, sessionID string, text string) (string, error) {
	out, err := o.Handle(ctx, nodex.GraphInput{
		SessionID: sessionID,
		Text:      text,
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}

// HandleConversation answers the last user turn of a client-held conversation.
func (o *Orchestrator) HandleConversation(ctx context.Context, turns []contractx.Turn) (string, error) {
	if len(turns) == 0 {
		return "", ErrInvalidMessage
	}
	last := turns[len(turns)-1]
	if last.Role != contractx.RoleUser {
		return "", fmt.Errorf("%w: last turn must be from the user", contractx.ErrValidation)
	}

	out, err := o.Handle(ctx, nodex.GraphInput{
		Text:    last.Content,
		History: turns[:len(turns)-1],
	})
	if err != nil {
		return "", err
	}
	return out.Reply, nil
}
