package orchestratornode

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

// Plan is the first reasoning pass.
func Plan(ctx context.Context, in *GraphState, reasoner contractx.Reasoner, m *metricsx.Metrics) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	start := time.Now()
	decision, err := reasoner.Plan(ctx, in.Turns)
	m.ObserveReasoningPass("plan", outcome(err, decision.HasCalls()), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	in.Decision = decision
	in.Reply = decision.Text
	return in, nil
}

// ExecuteTools runs every requested call. It cannot fail; failures are results.
func ExecuteTools(ctx context.Context, in *GraphState, tools contractx.ToolGateway) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	in.Results = tools.Execute(ctx, in.Decision.Calls)
	return in, nil
}

// Respond is the second reasoning pass over the tool results.
func Respond(ctx context.Context, in *GraphState, reasoner contractx.Reasoner, m *metricsx.Metrics) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	start := time.Now()
	text, err := reasoner.Respond(ctx, in.Turns, in.Decision.Calls, in.Results)
	m.ObserveReasoningPass("respond", outcome(err, false), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	in.Reply = text
	return in, nil
}

// RouteAfterPlan picks the next node once the first pass is back.
func RouteAfterPlan(in *GraphState) (string, error) {
	if in == nil {
		return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if in.Decision.HasCalls() {
		return NodeExecuteTools, nil
	}
	return NodeFinalizeReply, nil
}

func outcome(err error, calls bool) string {
	switch {
	case err != nil:
		return "error"
	case calls:
		return "tool_calls"
	default:
		return "text"
	}
}
