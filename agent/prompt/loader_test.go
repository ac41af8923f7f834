package prompt

import (
	"strings"
	"testing"
)

func TestLoadPromptSetHasTodayPlaceholder(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if set.Scheduler == "" {
		t.Fatal("scheduler prompt is empty")
	}
	if !strings.Contains(set.Scheduler, TodayPlaceholder) {
		t.Fatalf("scheduler prompt must contain %s", TodayPlaceholder)
	}
	// FString templating treats any other brace as a variable.
	if strings.Count(set.Scheduler, "{") != 1 || strings.Count(set.Scheduler, "}") != 1 {
		t.Fatal("scheduler prompt must not contain braces besides the date placeholder")
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	got := Render("Today is {today}.", "2025-01-15")
	if got != "Today is 2025-01-15." {
		t.Fatalf("Render() = %q", got)
	}
}
