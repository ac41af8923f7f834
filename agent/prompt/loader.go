package prompt

import (
	_ "embed"
	"strings"
)

// TodayPlaceholder is the only template variable in the scheduler prompt.
const TodayPlaceholder = "{today}"

var (
	//go:embed template/scheduler.txt
	schedulerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Scheduler string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Scheduler: strings.TrimSpace(schedulerRaw),
	}
}

// Render fills the date into a prompt for reasoners that do not template.
func Render(template, today string) string {
	return strings.ReplaceAll(template, TodayPlaceholder, today)
}
