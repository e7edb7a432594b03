package rdx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"agromart/db"

	"github.com/redis/go-redis/v9"
)

// Store keeps client state in Redis under a namespace prefix. Keys expire
// after TTL of inactivity when TTL > 0.
type Store struct {
	Conn   *redis.Client
	prefix string
	ttl    time.Duration
}

// NewStore connects and pings the server.
func NewStore(ctx context.Context, opts *redis.Options, prefix string, ttl time.Duration) (*Store, error) {
	conn := redis.NewClient(opts)
	if err := conn.Ping(ctx).Err(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("ping redis %s: %w", opts.Addr, err)
	}
	return &Store{Conn: conn, prefix: prefix, ttl: ttl}, nil
}

func (s *Store) key(k string) string {
	return s.prefix + ":" + k
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := s.Conn.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, db.ErrNotFound
	}
	return b, err
}

func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	return s.Conn.Set(ctx, s.key(key), value, s.ttl).Err()
}

func (s *Store) Delete(ctx context.Context, key string) error {
	return s.Conn.Del(ctx, s.key(key)).Err()
}

func (s *Store) Close(context.Context) error {
	return s.Conn.Close()
}
