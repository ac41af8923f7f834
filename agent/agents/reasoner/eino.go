package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/tool"
)

// Eino talks to an OpenAI-compatible tool-calling model through eino graphs.
type Eino struct {
	plan    compose.Runnable[map[string]any, *schema.Message]
	respond compose.Runnable[map[string]any, *schema.Message]
	opts    options
}

var _ contractx.Reasoner = (*Eino)(nil)

// NewEino binds the capability catalog to both models. respondModel may be
// nil, in which case planModel serves both passes.
func NewEino(
	ctx context.Context,
	planModel einomodel.ToolCallingChatModel,
	respondModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	opts ...Option,
) (*Eino, error) {
	if planModel == nil {
		return nil, fmt.Errorf("%w: chat model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	if respondModel == nil {
		respondModel = planModel
	}

	plan, err := compileReasoningGraph(ctx, planModel, systemPrompt, "reasoner.plan_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	respond, err := compileReasoningGraph(ctx, respondModel, systemPrompt, "reasoner.respond_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}

	return &Eino{plan: plan, respond: respond, opts: buildOptions(opts)}, nil
}

func compileReasoningGraph(
	ctx context.Context,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	toolModel, err := chatModel.WithTools(tool.Infos())
	if err != nil {
		return nil, fmt.Errorf("bind tools: %w", err)
	}

	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.MessagesPlaceholder("history", false),
	)

	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return nil, fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", toolModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return nil, fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return nil, fmt.Errorf("add edge prompt->model: %w", err)
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

func (e *Eino) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Decision, error) {
	if err := lastUserTurn(turns); err != nil {
		return contractx.Decision{}, err
	}

	msg, err := e.plan.Invoke(ctx, map[string]any{
		"today":   e.opts.today(),
		"history": toMessages(turns),
	})
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: plan invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return contractx.Decision{}, fmt.Errorf("%w: empty plan response", contractx.ErrSchemaViolation)
	}

	calls, err := toToolCalls(msg.ToolCalls)
	if err != nil {
		return contractx.Decision{}, err
	}
	return contractx.Decision{Text: strings.TrimSpace(msg.Content), Calls: calls}, nil
}

func (e *Eino) Respond(ctx context.Context, turns []contractx.Turn, calls []contractx.ToolCall, results []contractx.ToolResult) (string, error) {
	if err := lastUserTurn(turns); err != nil {
		return "", err
	}

	history := toMessages(turns)
	schemaCalls := make([]schema.ToolCall, 0, len(calls))
	for _, c := range calls {
		args, err := json.Marshal(c.Args)
		if err != nil {
			return "", fmt.Errorf("%w: marshal args for tool=%s: %v", contractx.ErrValidation, c.Tool, err)
		}
		schemaCalls = append(schemaCalls, schema.ToolCall{
			ID:   c.ID,
			Type: "function",
			Function: schema.FunctionCall{
				Name:      c.Tool,
				Arguments: string(args),
			},
		})
	}
	history = append(history, schema.AssistantMessage("", schemaCalls))
	for _, r := range results {
		payload, err := resultPayload(r)
		if err != nil {
			return "", err
		}
		history = append(history, schema.ToolMessage(payload, r.CallID))
	}

	msg, err := e.respond.Invoke(ctx, map[string]any{
		"today":   e.opts.today(),
		"history": history,
	})
	if err != nil {
		return "", fmt.Errorf("%w: respond invoke: %v", contractx.ErrModelInvoke, err)
	}
	if msg == nil {
		return "", fmt.Errorf("%w: empty respond response", contractx.ErrSchemaViolation)
	}
	return strings.TrimSpace(msg.Content), nil
}

func toMessages(turns []contractx.Turn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Content, nil))
		default:
			out = append(out, schema.UserMessage(t.Content))
		}
	}
	return out
}

func toToolCalls(calls []schema.ToolCall) ([]contractx.ToolCall, error) {
	if len(calls) == 0 {
		return nil, nil
	}
	out := make([]contractx.ToolCall, 0, len(calls))
	for i, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return nil, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}

		out = append(out, contractx.ToolCall{ID: callID(call.ID, i), Tool: name, Args: args})
	}
	return out, nil
}
