package notify

import (
	"context"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Notifier delivers a short text message to a patient contact.
type Notifier interface {
	Notify(ctx context.Context, to, text string) error
}

// LogNotifier only logs. It is the default when no delivery channel is configured.
type LogNotifier struct {
	logger zerolog.Logger
}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{logger: log.With().Str("component", "notify.log").Logger()}
}

func (n *LogNotifier) Notify(ctx context.Context, to, text string) error {
	n.logger.Info().Str("to", MaskContact(to)).Str("text", text).Msg("notification")
	return nil
}

// MaskContact keeps the last four digits of a phone number for logs.
func MaskContact(to string) string {
	to = strings.TrimSpace(to)
	if len(to) <= 4 {
		return to
	}
	return strings.Repeat("*", len(to)-4) + to[len(to)-4:]
}
