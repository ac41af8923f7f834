package state

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
)

// RedisHistoryStore is the native-protocol twin of UpstashHistoryStore.
type RedisHistoryStore struct {
	client goredis.UniversalClient
	opts   options
}

func NewRedisHistoryStore(client goredis.UniversalClient, opts ...StoreOption) (*RedisHistoryStore, error) {
	if client == nil {
		return nil, errors.New("redis client is required")
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
	return &RedisHistoryStore{client: client, opts: o}, nil
}

func (s *RedisHistoryStore) Load(ctx context.Context, sessionID string) ([]contractx.Turn, error) {
	key, err := s.opts.key(sessionID)
	if err != nil {
		return nil, err
	}

	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis lrange %s: %w", key, err)
	}
	return decodeTurns(raw)
}

func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, turns ...contractx.Turn) error {
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
	values := make([]any, 0, len(encoded))
	for _, e := range encoded {
		values = append(values, e)
	}

	_, err = s.client.TxPipelined(ctx, func(p goredis.Pipeliner) error {
		p.RPush(ctx, key, values...)
		p.LTrim(ctx, key, int64(-s.opts.maxTurns), -1)
		if s.opts.ttl > 0 {
			p.Expire(ctx, key, s.opts.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis append %s: %w", key, err)
	}
	return nil
}

func (s *RedisHistoryStore) Delete(ctx context.Context, sessionID string) error {
	key, err := s.opts.key(sessionID)
	if err != nil {
		return err
	}
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

func (s *RedisHistoryStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
