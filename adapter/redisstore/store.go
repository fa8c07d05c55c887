// Package redisstore keeps snapshots as JSON strings in Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rssdigest/domain"
)

type Store struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

func New(client *redis.Client, prefix string, logger *zap.Logger) *Store {
	return &Store{client: client, prefix: prefix, logger: logger}
}

func (s *Store) Key(address string) string {
	return s.prefix + address
}

func (s *Store) Load(ctx context.Context, address string) (*domain.Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.Key(address)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("get snapshot: %w", err)
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		s.logger.Warn("snapshot corrupt, starting without history",
			zap.String("source_url", address), zap.Error(err))
		return nil, false, nil
	}
	return &snap, true, nil
}

func (s *Store) Save(ctx context.Context, address string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := s.client.Set(ctx, s.Key(address), data, 0).Err(); err != nil {
		return fmt.Errorf("set snapshot: %w", err)
	}
	return nil
}
