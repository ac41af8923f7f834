package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	openrouterx "github.com/Sampath-yadav/Sahay-Project/pkg/openrouter"
)

// Pass names one of the two reasoning calls made per turn.
type Pass string

const (
	PassPlan    Pass = "plan"
	PassRespond Pass = "respond"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"1024"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.2"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`

	PlanModel          string  `envconfig:"PLAN_MODEL" split_words:"true"`
	RespondModel       string  `envconfig:"RESPOND_MODEL" split_words:"true"`
	PlanTemperature    float32 `envconfig:"PLAN_TEMPERATURE" split_words:"true" default:"-1"`
	RespondTemperature float32 `envconfig:"RESPOND_TEMPERATURE" split_words:"true" default:"-1"`
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.APIKey) == "" {
		return fmt.Errorf("%w: openrouter api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

// OpenRouterFor applies per-pass model and temperature overrides.
func (c Config) OpenRouterFor(pass Pass) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature

	switch pass {
	case PassPlan:
		if v := strings.TrimSpace(c.PlanModel); v != "" {
			modelName = v
		}
		if c.PlanTemperature >= 0 {
			temp = c.PlanTemperature
		}
	case PassRespond:
		if v := strings.TrimSpace(c.RespondModel); v != "" {
			modelName = v
		}
		if c.RespondTemperature >= 0 {
			temp = c.RespondTemperature
		}
	}

	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// SplitModels reports whether the two passes need separate chat models.
func (c Config) SplitModels() bool {
	plan, respond := c.OpenRouterFor(PassPlan), c.OpenRouterFor(PassRespond)
	return plan.Model != respond.Model || plan.Temperature != respond.Temperature
}
