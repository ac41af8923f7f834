package reasoner

import (
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/tool"
)

func TestFunctionDeclarationsMirrorCatalog(t *testing.T) {
	t.Parallel()

	decls := functionDeclarations(tool.Specs())
	if len(decls) != 5 {
		t.Fatalf("expected 5 declarations, got %d", len(decls))
	}
	for _, d := range decls {
		if d.Parameters == nil || d.Parameters.Type != genai.TypeObject {
			t.Fatalf("declaration %s has no object schema", d.Name)
		}
		if d.Name == "list_availability" {
			period := d.Parameters.Properties["period"]
			if period == nil || len(period.Enum) != 3 || period.Format != "enum" {
				t.Fatalf("period schema = %+v", period)
			}
		}
	}
}

func TestParseResponseCollectsTextAndCalls(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{
				genai.Text("Let me check. "),
				genai.FunctionCall{Name: "find_provider", Args: map[string]any{"name": "meera"}},
			}},
		}},
	}

	out, err := parseResponse(resp)
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if out.Text != "Let me check." {
		t.Fatalf("unexpected text: %q", out.Text)
	}
	if len(out.Calls) != 1 || out.Calls[0].ID != "call_0" || out.Calls[0].Args["name"] != "meera" {
		t.Fatalf("unexpected calls: %+v", out.Calls)
	}
}

func TestParseResponsePointerCallsMatchValueCalls(t *testing.T) {
	t.Parallel()

	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{
				genai.FunctionCall{Name: " find_provider "},
				&genai.FunctionCall{Name: "list_availability"},
			}},
		}},
	}
	out, err := parseResponse(resp)
	if err != nil {
		t.Fatalf("parseResponse() error = %v", err)
	}
	if len(out.Calls) != 2 {
		t.Fatalf("unexpected calls: %+v", out.Calls)
	}
	for i, want := range []string{"find_provider", "list_availability"} {
		if out.Calls[i].Tool != want || out.Calls[i].Args == nil {
			t.Fatalf("call %d = %+v, want %s with empty args", i, out.Calls[i], want)
		}
	}

	for _, part := range []genai.Part{genai.FunctionCall{Name: " "}, &genai.FunctionCall{Name: ""}} {
		bad := &genai.GenerateContentResponse{
			Candidates: []*genai.Candidate{{Content: &genai.Content{Role: "model", Parts: []genai.Part{part}}}},
		}
		if _, err := parseResponse(bad); !errors.Is(err, contractx.ErrSchemaViolation) {
			t.Fatalf("parseResponse(%T) error = %v, want ErrSchemaViolation", part, err)
		}
	}
}

func TestParseResponseWithoutCandidates(t *testing.T) {
	t.Parallel()

	if _, err := parseResponse(&genai.GenerateContentResponse{}); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}

func TestToContentsMapsRoles(t *testing.T) {
	t.Parallel()

	got := toContents([]contractx.Turn{
		{Role: contractx.RoleUser, Content: "hi"},
		{Role: contractx.RoleAssistant, Content: "hello"},
	})
	if got[0].Role != "user" || got[1].Role != "model" {
		t.Fatalf("unexpected roles: %s, %s", got[0].Role, got[1].Role)
	}
}

func TestFunctionResponseCarriesErrorType(t *testing.T) {
	t.Parallel()

	fr, err := functionResponse(contractx.ToolResult{Tool: "cancel_booking", Success: false, Message: "no such appointment", ErrorType: contractx.KindNotFound})
	if err != nil {
		t.Fatalf("functionResponse() error = %v", err)
	}
	if fr.Name != "cancel_booking" || fr.Response["error_type"] != "NotFound" {
		t.Fatalf("unexpected response: %+v", fr)
	}
}
