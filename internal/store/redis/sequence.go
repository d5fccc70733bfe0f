package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SequenceStore hands out quotation code numbers with a single INCR,
// replacing the old read-increment-write counter that raced under
// concurrent quoting.
type SequenceStore struct {
	client *redis.Client
	prefix string
}

func NewSequenceStore(addr, prefix string) *SequenceStore {
	return &SequenceStore{
		client: redis.NewClient(&redis.Options{Addr: addr}),
		prefix: prefix,
	}
}

func (s *SequenceStore) Next(ctx context.Context, name string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	val, err := s.client.Incr(ctx, s.key(name)).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment sequence %s: %w", name, err)
	}

	return val, nil
}

func (s *SequenceStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SequenceStore) Close() error {
	return s.client.Close()
}

func (s *SequenceStore) key(name string) string {
	return fmt.Sprintf("%s:sequence:%s", s.prefix, name)
}
