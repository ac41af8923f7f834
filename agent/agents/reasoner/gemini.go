package reasoner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	"github.com/Sampath-yadav/Sahay-Project/agent/prompt"
	"github.com/Sampath-yadav/Sahay-Project/agent/tool"
	geminix "github.com/Sampath-yadav/Sahay-Project/pkg/gemini"
)

// Gemini reasons with Google's Gemini function calling.
type Gemini struct {
	client *genai.Client
	cfg    geminix.Config
	prompt string
	tools  []*genai.Tool
	opts   options
}

var _ contractx.Reasoner = (*Gemini)(nil)

func NewGemini(client *genai.Client, cfg geminix.Config, systemPrompt string, opts ...Option) (*Gemini, error) {
	if client == nil {
		return nil, fmt.Errorf("%w: gemini client is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, contractx.ErrPromptMissing
	}
	return &Gemini{
		client: client,
		cfg:    cfg,
		prompt: systemPrompt,
		tools:  []*genai.Tool{{FunctionDeclarations: functionDeclarations(tool.Specs())}},
		opts:   buildOptions(opts),
	}, nil
}

// model is built per call; GenerativeModel carries the system instruction and is not shared.
func (g *Gemini) model() *genai.GenerativeModel {
	m := geminix.Model(g.client, g.cfg)
	m.Tools = g.tools
	m.SystemInstruction = genai.NewUserContent(genai.Text(prompt.Render(g.prompt, g.opts.today())))
	return m
}

func (g *Gemini) Plan(ctx context.Context, turns []contractx.Turn) (contractx.Decision, error) {
	if err := lastUserTurn(turns); err != nil {
		return contractx.Decision{}, err
	}

	cs := g.model().StartChat()
	cs.History = toContents(turns[:len(turns)-1])
	resp, err := cs.SendMessage(ctx, genai.Text(turns[len(turns)-1].Content))
	if err != nil {
		return contractx.Decision{}, fmt.Errorf("%w: gemini plan: %v", contractx.ErrModelInvoke, err)
	}
	return parseResponse(resp)
}

func (g *Gemini) Respond(ctx context.Context, turns []contractx.Turn, calls []contractx.ToolCall, results []contractx.ToolResult) (string, error) {
	if err := lastUserTurn(turns); err != nil {
		return "", err
	}

	history := toContents(turns)
	callParts := make([]genai.Part, 0, len(calls))
	for _, c := range calls {
		callParts = append(callParts, genai.FunctionCall{Name: c.Tool, Args: c.Args})
	}
	history = append(history, &genai.Content{Role: "model", Parts: callParts})

	responses := make([]genai.Part, 0, len(results))
	for _, r := range results {
		payload, err := functionResponse(r)
		if err != nil {
			return "", err
		}
		responses = append(responses, payload)
	}

	cs := g.model().StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, responses...)
	if err != nil {
		return "", fmt.Errorf("%w: gemini respond: %v", contractx.ErrModelInvoke, err)
	}
	out, err := parseResponse(resp)
	if err != nil {
		return "", err
	}
	return out.Text, nil
}

func functionDeclarations(specs []tool.Spec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		props := make(map[string]*genai.Schema, len(spec.Params))
		for _, p := range spec.Params {
			prop := &genai.Schema{Type: genai.TypeString, Description: p.Desc}
			if len(p.Enum) > 0 {
				prop.Format = "enum"
				prop.Enum = p.Enum
			}
			props[p.Name] = prop
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Desc,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   spec.Required(),
			},
		})
	}
	return decls
}

func toContents(turns []contractx.Turn) []*genai.Content {
	out := make([]*genai.Content, 0, len(turns))
	for _, t := range turns {
		role := "user"
		if t.Role == contractx.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(t.Content)}})
	}
	return out
}

func functionResponse(r contractx.ToolResult) (genai.FunctionResponse, error) {
	payload, err := resultPayload(r)
	if err != nil {
		return genai.FunctionResponse{}, err
	}
	body := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &body); err != nil {
		return genai.FunctionResponse{}, fmt.Errorf("%w: result for tool=%s: %v", contractx.ErrValidation, r.Tool, err)
	}
	return genai.FunctionResponse{Name: r.Tool, Response: body}, nil
}

func parseResponse(resp *genai.GenerateContentResponse) (contractx.Decision, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return contractx.Decision{}, fmt.Errorf("%w: gemini returned no candidates", contractx.ErrSchemaViolation)
	}

	var (
		text  strings.Builder
		calls []contractx.ToolCall
	)
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			call, err := toToolCall(p, len(calls))
			if err != nil {
				return contractx.Decision{}, err
			}
			calls = append(calls, call)
		case *genai.FunctionCall:
			if p == nil {
				continue
			}
			call, err := toToolCall(*p, len(calls))
			if err != nil {
				return contractx.Decision{}, err
			}
			calls = append(calls, call)
		}
	}
	return contractx.Decision{Text: strings.TrimSpace(text.String()), Calls: calls}, nil
}

func toToolCall(fc genai.FunctionCall, idx int) (contractx.ToolCall, error) {
	name := strings.TrimSpace(fc.Name)
	if name == "" {
		return contractx.ToolCall{}, fmt.Errorf("%w: function call name is empty", contractx.ErrSchemaViolation)
	}
	args := fc.Args
	if args == nil {
		args = map[string]any{}
	}
	return contractx.ToolCall{ID: callID("", idx), Tool: name, Args: args}, nil
}
