package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

var ErrInvalidSession = errors.New("session id is empty")

const (
	defaultStoreKeyPrefix = "sahay:history:"
	defaultStoreTTL       = 24 * time.Hour
	defaultMaxTurns       = 40
	maxResponseSizeBytes  = 2 << 20
)

var (
	_ contractx.HistoryStore = (*UpstashHistoryStore)(nil)
	_ contractx.HistoryStore = (*RedisHistoryStore)(nil)
)

// StoreOption customizes the history stores.
type StoreOption func(*options)

type options struct {
	keyPrefix  string
	ttl        time.Duration
	maxTurns   int
	httpClient *http.Client
}

func defaultOptions() options {
	return options{
		keyPrefix: defaultStoreKeyPrefix,
		ttl:       defaultStoreTTL,
		maxTurns:  defaultMaxTurns,
	}
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *options) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

// WithTTL sets the idle expiry of a session. Zero keeps history forever.
func WithTTL(ttl time.Duration) StoreOption {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithMaxTurns caps the stored list; older turns are trimmed on append.
func WithMaxTurns(n int) StoreOption {
	return func(o *options) {
		if n > 0 {
			o.maxTurns = n
		}
	}
}

// WithHTTPClient only applies to the Upstash REST store.
func WithHTTPClient(client *http.Client) StoreOption {
	return func(o *options) {
		if client != nil {
			o.httpClient = client
		}
	}
}

func (o options) validate() error {
	if o.ttl < 0 {
		return errors.New("ttl must be >= 0")
	}
	return nil
}

func (o options) key(sessionID string) (string, error) {
	if strings.TrimSpace(sessionID) == "" {
		return "", ErrInvalidSession
	}
	return strings.TrimSpace(o.keyPrefix) + sessionID, nil
}

func encodeTurns(turns []contractx.Turn) ([]string, error) {
	out := make([]string, 0, len(turns))
	for _, t := range turns {
		if t.At.IsZero() {
			t.At = time.Now().UTC()
		} else {
			t.At = t.At.UTC()
		}
		raw, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("marshal turn: %w", err)
		}
		out = append(out, string(raw))
	}
	return out, nil
}

func decodeTurns(raw []string) ([]contractx.Turn, error) {
	out := make([]contractx.Turn, 0, len(raw))
	for i, r := range raw {
		var t contractx.Turn
		if err := json.Unmarshal([]byte(r), &t); err != nil {
			return nil, fmt.Errorf("unmarshal turn %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
