package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	metricsx "github.com/Sampath-yadav/Sahay-Project/pkg/metrics"
)

const (
	channelTwilio      = "twilio"
	twilioMaxAttempts  = 3
	twilioDefaultAPI   = "https://api.twilio.com"
	twilioResponseSize = 4096
)

var twilioTracer = otel.Tracer("sahay.agent.notify.twilio")

type TwilioConfig struct {
	AccountSID string        `envconfig:"ACCOUNT_SID" required:"true"`
	AuthToken  string        `split_words:"true" required:"true"`
	From       string        `envconfig:"FROM" required:"true"`
	BaseURL    string        `split_words:"true" default:"https://api.twilio.com"`
	Timeout    time.Duration `split_words:"true" default:"10s"`
}

type TwilioOption func(*TwilioNotifier)

func WithHTTPClient(c *http.Client) TwilioOption {
	return func(n *TwilioNotifier) {
		if c != nil {
			n.httpClient = c
		}
	}
}

func WithMetrics(m *metricsx.Metrics) TwilioOption {
	return func(n *TwilioNotifier) { n.metrics = m }
}

// WithBackoff replaces the jittered pause between attempts.
func WithBackoff(fn func(attempt int) time.Duration) TwilioOption {
	return func(n *TwilioNotifier) {
		if fn != nil {
			n.backoff = fn
		}
	}
}

// TwilioNotifier posts SMS messages using Twilio's REST API.
type TwilioNotifier struct {
	accountSID string
	authToken  string
	from       string
	endpoint   string
	httpClient *http.Client
	metrics    *metricsx.Metrics
	backoff    func(attempt int) time.Duration
	logger     zerolog.Logger
}

func NewTwilioNotifier(cfg TwilioConfig, opts ...TwilioOption) (*TwilioNotifier, error) {
	sid := strings.TrimSpace(cfg.AccountSID)
	token := strings.TrimSpace(cfg.AuthToken)
	if sid == "" || token == "" {
		return nil, errors.New("notify: twilio credentials missing")
	}
	from := strings.TrimSpace(cfg.From)
	if from == "" {
		return nil, errors.New("notify: twilio from number required")
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = twilioDefaultAPI
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return nil, fmt.Errorf("notify: invalid twilio base url: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	n := &TwilioNotifier{
		accountSID: sid,
		authToken:  token,
		from:       from,
		endpoint:   fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", base, sid),
		httpClient: &http.Client{Timeout: timeout},
		backoff: func(int) time.Duration {
			return time.Duration(200+rand.Intn(300)) * time.Millisecond
		},
		logger: log.With().Str("component", "notify.twilio").Logger(),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n, nil
}

// Notify sends one SMS, retrying network failures, 429 and 5xx.
func (n *TwilioNotifier) Notify(ctx context.Context, to, text string) error {
	to = strings.TrimSpace(to)
	if to == "" {
		return errors.New("notify: to required")
	}
	if strings.TrimSpace(text) == "" {
		return errors.New("notify: body required")
	}

	ctx, span := twilioTracer.Start(ctx, "notify.twilio.send")
	defer span.End()
	span.SetAttributes(attribute.String("notify.to", MaskContact(to)))

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", n.from)
	payload.Set("Body", text)

	var lastErr error
attempts:
	for attempt := 1; attempt <= twilioMaxAttempts; attempt++ {
		sid, retry, err := n.send(ctx, payload)
		if err == nil {
			n.metrics.ObserveNotification(channelTwilio, "sent")
			n.logger.Info().Str("to", MaskContact(to)).Str("sid", sid).Int("attempt", attempt).Msg("twilio sms sent")
			return nil
		}
		lastErr = err
		if !retry || attempt == twilioMaxAttempts {
			break
		}

		t := time.NewTimer(n.backoff(attempt))
		select {
		case <-ctx.Done():
			t.Stop()
			lastErr = fmt.Errorf("%w (last error: %v)", ctx.Err(), lastErr)
			break attempts
		case <-t.C:
		}
	}

	n.metrics.ObserveNotification(channelTwilio, "failed")
	span.RecordError(lastErr)
	span.SetStatus(codes.Error, "twilio send failed")
	return lastErr
}

func (n *TwilioNotifier) send(ctx context.Context, payload url.Values) (string, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		return "", false, err
	}
	req.SetBasicAuth(n.accountSID, n.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", ctx.Err() == nil, fmt.Errorf("twilio send failed: %w", err)
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, twilioResponseSize))
	resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var parsed struct {
			SID string `json:"sid"`
		}
		_ = json.Unmarshal(body, &parsed)
		return parsed.SID, false, nil
	}

	err = fmt.Errorf("twilio send failed: %s", formatTwilioError(resp.StatusCode, body))
	// Don't retry non-rate-limit 4xx errors.
	if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
		return "", false, err
	}
	return "", true, err
}

type twilioAPIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func formatTwilioError(status int, body []byte) string {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return fmt.Sprintf("status %d", status)
	}
	var parsed twilioAPIError
	if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil && parsed.Message != "" {
		if parsed.Code != 0 {
			return fmt.Sprintf("status %d code %d: %s", status, parsed.Code, parsed.Message)
		}
		return fmt.Sprintf("status %d: %s", status, parsed.Message)
	}
	return fmt.Sprintf("status %d: %s", status, trimmed)
}
