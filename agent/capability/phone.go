package capability

import (
	"fmt"
	"strings"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// NormalizeE164 turns a loosely formatted phone number into +<digits>.
// Local numbers without a country code get defaultCC; a leading trunk 0 is dropped.
func NormalizeE164(value, defaultCC string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: contact number is required", contractx.ErrInvalidInput)
	}

	lead := strings.TrimLeft(value, "( ")
	international := strings.HasPrefix(lead, "+") || strings.HasPrefix(lead, "00")
	digits := sanitizePhone(value)
	if strings.HasPrefix(lead, "00") {
		digits = strings.TrimPrefix(digits, "00")
	}

	if !international {
		cc := sanitizePhone(defaultCC)
		digits = strings.TrimLeft(digits, "0")
		if cc != "" && !(len(digits) > 10 && strings.HasPrefix(digits, cc)) {
			digits = cc + digits
		}
	}

	if len(digits) < 8 || len(digits) > 15 || digits[0] == '0' {
		return "", fmt.Errorf("%w: %q is not a valid phone number", contractx.ErrInvalidInput, value)
	}
	return "+" + digits, nil
}

func sanitizePhone(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
