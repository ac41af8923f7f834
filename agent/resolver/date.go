package resolver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

var (
	bareDayPattern = regexp.MustCompile(`^(\d{1,2})$`)
	dmyPattern     = regexp.MustCompile(`^(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{2}|\d{4})$`)
	isoPattern     = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// NormalizeDate turns a free-form date expression into YYYY-MM-DD.
//
// Accepted forms are "today", "tomorrow", a bare day of the current month,
// D/M/Y or D/M/YY (two-digit years are 20YY), and ISO YYYY-MM-DD. Relative
// forms are resolved against now in now's location.
func NormalizeDate(input string, now time.Time) (string, error) {
	s := strings.ToLower(strings.TrimSpace(input))
	if s == "" {
		return "", fmt.Errorf("%w: date is required", contractx.ErrInvalidInput)
	}

	switch s {
	case "today":
		return now.Format("2006-01-02"), nil
	case "tomorrow":
		return now.AddDate(0, 0, 1).Format("2006-01-02"), nil
	}

	if m := isoPattern.FindStringSubmatch(s); m != nil {
		return buildDate(input, atoi(m[1]), atoi(m[2]), atoi(m[3]))
	}

	if m := dmyPattern.FindStringSubmatch(s); m != nil {
		year := m[3]
		if len(year) == 2 {
			year = "20" + year
		}
		return buildDate(input, atoi(year), atoi(m[2]), atoi(m[1]))
	}

	if m := bareDayPattern.FindStringSubmatch(s); m != nil {
		return buildDate(input, now.Year(), int(now.Month()), atoi(m[1]))
	}

	return "", fmt.Errorf("%w: unrecognised date %q", contractx.ErrInvalidInput, input)
}

// buildDate rejects calendar dates that time.Date would silently normalise, e.g. 31/04.
func buildDate(input string, year, month, day int) (string, error) {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", fmt.Errorf("%w: invalid date %q", contractx.ErrInvalidInput, input)
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Year() != year || int(t.Month()) != month || t.Day() != day {
		return "", fmt.Errorf("%w: invalid date %q", contractx.ErrInvalidInput, input)
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
