package resolver

import (
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

var (
	clockPattern   = regexp.MustCompile(`^(\d{1,2})(?:[:.](\d{2}))?\s*(am|pm)?$`)
	compactPattern = regexp.MustCompile(`^(\d{2})(\d{2})$`)
)

// NormalizeTime turns "10:30", "2 pm", "2:30pm", "1430" or "noon" into HH:MM.
func NormalizeTime(input string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	s = strings.NewReplacer("a.m.", "am", "p.m.", "pm", "a.m", "am", "p.m", "pm").Replace(s)
	s = strings.Join(strings.Fields(s), " ")

	switch s {
	case "":
		return "", fmt.Errorf("%w: time is required", contractx.ErrInvalidInput)
	case "noon":
		return "12:00", nil
	case "midnight":
		return "00:00", nil
	}

	if m := compactPattern.FindStringSubmatch(s); m != nil {
		return buildClock(input, atoi(m[1]), atoi(m[2]), "")
	}
	if m := clockPattern.FindStringSubmatch(s); m != nil {
		minute := 0
		if m[2] != "" {
			minute = atoi(m[2])
		}
		return buildClock(input, atoi(m[1]), minute, m[3])
	}

	return "", fmt.Errorf("%w: unrecognised time %q", contractx.ErrInvalidInput, input)
}

func buildClock(input string, hour, minute int, meridiem string) (string, error) {
	if minute < 0 || minute > 59 {
		return "", fmt.Errorf("%w: invalid time %q", contractx.ErrInvalidInput, input)
	}

	switch meridiem {
	case "am", "pm":
		if hour < 1 || hour > 12 {
			return "", fmt.Errorf("%w: invalid time %q", contractx.ErrInvalidInput, input)
		}
		hour %= 12
		if meridiem == "pm" {
			hour += 12
		}
	default:
		if hour < 0 || hour > 23 {
			return "", fmt.Errorf("%w: invalid time %q", contractx.ErrInvalidInput, input)
		}
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}
