package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

type Config struct {
	APIKey      string        `envconfig:"API_KEY" required:"true"`
	Model       string        `envconfig:"MODEL" default:"gemini-2.0-flash"`
	Temperature float32       `envconfig:"TEMPERATURE" default:"0.2"`
	MaxTokens   int32         `envconfig:"MAX_TOKENS" default:"1024"`
	Timeout     time.Duration `envconfig:"TIMEOUT" default:"30s"`
}

// NewClient returns a Gemini API client. Callers own Close.
func NewClient(ctx context.Context, cfg Config) (*genai.Client, error) {
	key := strings.TrimSpace(cfg.APIKey)
	if key == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(key))
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return client, nil
}

// Model configures a generative model with the generation settings from cfg.
func Model(client *genai.Client, cfg Config) *genai.GenerativeModel {
	m := client.GenerativeModel(strings.TrimSpace(cfg.Model))
	m.SetTemperature(cfg.Temperature)
	if cfg.MaxTokens > 0 {
		m.SetMaxOutputTokens(cfg.MaxTokens)
	}
	return m
}
