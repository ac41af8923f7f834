package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// UpstashHistoryStore keeps conversation turns in an Upstash Redis list via REST.
type UpstashHistoryStore struct {
	baseURL    string
	token      string
	httpClient *http.Client
	opts       options
}

type redisRESTResponse struct {
	Result json.RawMessage `json:"result"`
	Error  string          `json:"error"`
}

type UpstashRedisConfig struct {
	URL     string        `envconfig:"URL" split_words:"true" required:"true"`
	Token   string        `envconfig:"TOKEN" split_words:"true" required:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

func NewUpstashHistoryStore(cfg UpstashRedisConfig, opts ...StoreOption) (*UpstashHistoryStore, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("upstash redis url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("invalid redis rest url: %w", err)
	}

	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("upstash redis token is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	o := defaultOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if err := o.validate(); err != nil {
		return nil, err
	}

	store := &UpstashHistoryStore{
		baseURL:    baseURL,
		token:      token,
		httpClient: o.httpClient,
		opts:       o,
	}
	if store.httpClient == nil {
		store.httpClient = &http.Client{Timeout: timeout}
	}
	return store, nil
}

func (s *UpstashHistoryStore) Load(ctx context.Context, sessionID string) ([]contractx.Turn, error) {
	key, err := s.opts.key(sessionID)
	if err != nil {
		return nil, err
	}

	resp, err := s.exec(ctx, []any{"LRANGE", key, 0, -1})
	if err != nil {
		return nil, err
	}

	result := bytes.TrimSpace(resp.Result)
	if len(result) == 0 || bytes.Equal(result, []byte("null")) {
		return nil, nil
	}

	var raw []string
	if err := json.Unmarshal(result, &raw); err != nil {
		return nil, fmt.Errorf("decode history payload: %w", err)
	}
	return decodeTurns(raw)
}

// Append pushes turns, trims the list and refreshes the TTL in one pipeline.
func (s *UpstashHistoryStore) Append(ctx context.Context, sessionID string, turns ...contractx.Turn) error {
	if len(turns) == 0 {
		return nil
	}
	key, err := s.opts.key(sessionID)
	if err != nil {
		return err
	}

	encoded, err := encodeTurns(turns)
	if err != nil {
		return err
	}

	push := []any{"RPUSH", key}
	for _, e := range encoded {
		push = append(push, e)
	}
	commands := [][]any{
		push,
		{"LTRIM", key, -s.opts.maxTurns, -1},
	}
	if s.opts.ttl > 0 {
		commands = append(commands, []any{"EXPIRE", key, ttlSeconds(s.opts.ttl)})
	}

	return s.pipeline(ctx, commands)
}

func (s *UpstashHistoryStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.opts.key(sessionID)
	if err != nil {
		return err
	}
	_, err = s.exec(ctx, []any{"DEL", key})
	return err
}

// Ping runs PING for readiness checks.
func (s *UpstashHistoryStore) Ping(ctx context.Context) error {
	_, err := s.exec(ctx, []any{"PING"})
	return err
}

func (s *UpstashHistoryStore) exec(ctx context.Context, command []any) (*redisRESTResponse, error) {
	if len(command) == 0 {
		return nil, errors.New("empty redis command")
	}

	raw, err := s.post(ctx, s.baseURL, command)
	if err != nil {
		return nil, err
	}

	var parsed redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("decode redis response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	return &parsed, nil
}

func (s *UpstashHistoryStore) pipeline(ctx context.Context, commands [][]any) error {
	raw, err := s.post(ctx, s.baseURL+"/pipeline", commands)
	if err != nil {
		return err
	}

	var parsed []redisRESTResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return fmt.Errorf("decode redis pipeline response: %w", err)
	}
	for i, p := range parsed {
		if p.Error != "" {
			return fmt.Errorf("redis pipeline command %d: %s", i, p.Error)
		}
	}
	return nil
}

func (s *UpstashHistoryStore) post(ctx context.Context, endpoint string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal redis command: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build redis request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute redis request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSizeBytes))
	if err != nil {
		return nil, fmt.Errorf("read redis response: %w", err)
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("redis http status=%d body=%s", resp.StatusCode, string(raw))
	}
	return raw, nil
}
