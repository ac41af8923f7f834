package reasoner

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

type fakeToolCallingModel struct {
	responses []*schema.Message
	inputs    [][]*schema.Message
	tools     []*schema.ToolInfo
	err       error
	idx       int
}

func (f *fakeToolCallingModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.inputs = append(f.inputs, input)
	if f.err != nil {
		return nil, f.err
	}
	if f.idx >= len(f.responses) {
		return nil, errors.New("no fake response left")
	}
	msg := f.responses[f.idx]
	f.idx++
	return msg, nil
}

func (f *fakeToolCallingModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeToolCallingModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	f.tools = tools
	return f, nil
}

func userTurn(text string) []contractx.Turn {
	return []contractx.Turn{{Role: contractx.RoleUser, Content: text}}
}

func TestEinoPlanReturnsToolCalls(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{
				{ID: "call_a", Function: schema.FunctionCall{Name: "find_provider", Arguments: `{"name":"aditya"}`}},
				{Function: schema.FunctionCall{Name: "list_availability", Arguments: `{"provider":"aditya","date":"tomorrow"}`}},
			}),
		},
	}

	r, err := NewEino(context.Background(), fake, nil, "Today is {today}.", WithToday(func() string { return "2025-01-15" }))
	if err != nil {
		t.Fatalf("NewEino() error = %v", err)
	}
	if len(fake.tools) != 5 {
		t.Fatalf("bound %d tools, want 5", len(fake.tools))
	}

	out, err := r.Plan(context.Background(), userTurn("is dr aditya free tomorrow?"))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if len(out.Calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(out.Calls))
	}
	if out.Calls[0].ID != "call_a" || out.Calls[1].ID != "call_1" {
		t.Fatalf("unexpected call ids: %+v", out.Calls)
	}
	if out.Calls[1].Args["date"] != "tomorrow" {
		t.Fatalf("unexpected args: %#v", out.Calls[1].Args)
	}

	sent := fake.inputs[0]
	if sent[0].Role != schema.System || sent[0].Content != "Today is 2025-01-15." {
		t.Fatalf("unexpected system message: %+v", sent[0])
	}
	if sent[1].Role != schema.User || sent[1].Content != "is dr aditya free tomorrow?" {
		t.Fatalf("unexpected user message: %+v", sent[1])
	}
}

func TestEinoPlanPlainText(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage(" Hello! How can I help? ", nil)}}
	r, err := NewEino(context.Background(), fake, nil, "prompt")
	if err != nil {
		t.Fatalf("NewEino() error = %v", err)
	}

	out, err := r.Plan(context.Background(), userTurn("hi {there}"))
	if err != nil {
		t.Fatalf("Plan() error = %v", err)
	}
	if out.HasCalls() || out.Text != "Hello! How can I help?" {
		t.Fatalf("unexpected decision: %+v", out)
	}
}

func TestEinoPlanInvalidArgumentsIsSchemaViolation(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{
		responses: []*schema.Message{
			schema.AssistantMessage("", []schema.ToolCall{{ID: "x", Function: schema.FunctionCall{Name: "cancel_booking", Arguments: `{not json`}}}),
		},
	}
	r, _ := NewEino(context.Background(), fake, nil, "prompt")

	_, err := r.Plan(context.Background(), userTurn("cancel"))
	if !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestEinoPlanModelErrorIsModelInvoke(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{err: errors.New("429 rate limited")}
	r, _ := NewEino(context.Background(), fake, nil, "prompt")

	_, err := r.Plan(context.Background(), userTurn("hi"))
	if !errors.Is(err, contractx.ErrModelInvoke) {
		t.Fatalf("expected ErrModelInvoke, got %v", err)
	}
}

func TestEinoRespondAppendsToolMessages(t *testing.T) {
	t.Parallel()

	fake := &fakeToolCallingModel{responses: []*schema.Message{schema.AssistantMessage("Dr. Aditya is free in the morning.", nil)}}
	r, _ := NewEino(context.Background(), fake, nil, "prompt")

	calls := []contractx.ToolCall{{ID: "call_0", Tool: "list_availability", Args: map[string]any{"provider": "aditya"}}}
	results := []contractx.ToolResult{{CallID: "call_0", Tool: "list_availability", Success: false, Message: "busy", ErrorType: contractx.KindUnavailable}}

	text, err := r.Respond(context.Background(), userTurn("slots?"), calls, results)
	if err != nil {
		t.Fatalf("Respond() error = %v", err)
	}
	if text != "Dr. Aditya is free in the morning." {
		t.Fatalf("unexpected text: %q", text)
	}

	sent := fake.inputs[0]
	if len(sent) != 4 {
		t.Fatalf("expected system, user, assistant, tool messages; got %d", len(sent))
	}
	if len(sent[2].ToolCalls) != 1 || sent[2].ToolCalls[0].Function.Name != "list_availability" {
		t.Fatalf("unexpected assistant message: %+v", sent[2])
	}
	if sent[3].Role != schema.Tool || sent[3].ToolCallID != "call_0" {
		t.Fatalf("unexpected tool message: %+v", sent[3])
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(sent[3].Content), &payload); err != nil {
		t.Fatalf("tool message is not JSON: %v", err)
	}
	if payload["error_type"] != "Unavailable" || payload["success"] != false {
		t.Fatalf("unexpected tool payload: %#v", payload)
	}
}

func TestEinoRejectsConversationNotEndingWithUser(t *testing.T) {
	t.Parallel()

	r, _ := NewEino(context.Background(), &fakeToolCallingModel{}, nil, "prompt")
	_, err := r.Plan(context.Background(), []contractx.Turn{{Role: contractx.RoleAssistant, Content: "hello"}})
	if !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestNewEinoRequiresPrompt(t *testing.T) {
	t.Parallel()

	if _, err := NewEino(context.Background(), &fakeToolCallingModel{}, nil, " "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}
