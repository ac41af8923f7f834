package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
	qstashx "github.com/Sampath-yadav/Sahay-Project/pkg/qstash"
)

const channelQStash = "qstash"

type Publisher interface {
	Publish(ctx context.Context, destination string, payload any) (qstashx.PublishResponse, error)
}

// Message is the JSON body delivered to the webhook.
type Message struct {
	To   string `json:"to"`
	Text string `json:"text"`
}

// QStashNotifier hands messages to QStash, which owns delivery retries to
// the destination webhook.
type QStashNotifier struct {
	publisher   Publisher
	destination string
	metrics     *metricsx.Metrics
	logger      zerolog.Logger
}

func NewQStashNotifier(publisher Publisher, destination string, m *metricsx.Metrics) (*QStashNotifier, error) {
	if publisher == nil {
		return nil, errors.New("notify: qstash publisher is required")
	}
	destination = strings.TrimSpace(destination)
	if destination == "" {
		return nil, errors.New("notify: qstash destination is required")
	}
	return &QStashNotifier{
		publisher:   publisher,
		destination: destination,
		metrics:     m,
		logger:      log.With().Str("component", "notify.qstash").Logger(),
	}, nil
}

func (n *QStashNotifier) Notify(ctx context.Context, to, text string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("notify: to required")
	}

	out, err := n.publisher.Publish(ctx, n.destination, Message{To: to, Text: text})
	if err != nil {
		n.metrics.ObserveNotification(channelQStash, "failed")
		return fmt.Errorf("notify: qstash publish: %w", err)
	}

	n.metrics.ObserveNotification(channelQStash, "queued")
	n.logger.Info().Str("to", MaskContact(to)).Str("message_id", out.MessageID).Msg("notification queued")
	return nil
}
