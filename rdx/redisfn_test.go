package rdx

import (
	"context"
	"os"
	"testing"
	"time"

	"agromart/db"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	addr := os.Getenv("AGROMART_TEST_REDIS")
	if addr == "" {
		t.Skip("AGROMART_TEST_REDIS not set")
	}
	ctx := context.Background()

	s, err := NewStore(ctx, &redis.Options{Addr: addr}, "agromart_test", time.Minute)
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = s.Get(ctx, "cart:u1")
	require.ErrorIs(t, err, db.ErrNotFound)

	require.NoError(t, s.Put(ctx, "cart:u1", []byte("v1")))
	got, err := s.Get(ctx, "cart:u1")
	require.NoError(t, err)
	assert.Equal(t, "v1", string(got))

	ttl, err := s.Conn.TTL(ctx, "agromart_test:cart:u1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, s.Delete(ctx, "cart:u1"))
	_, err = s.Get(ctx, "cart:u1")
	require.ErrorIs(t, err, db.ErrNotFound)
}
