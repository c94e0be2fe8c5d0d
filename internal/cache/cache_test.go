package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestKey(t *testing.T) {
	a := Key("routine", "u1", "profile")
	assert.Equal(t, a, Key("routine", "u1", "profile"))
	assert.NotEqual(t, a, Key("routine", "u1p", "rofile"))
	assert.NotEqual(t, a, Key("recipe", "u1", "profile"))
	assert.Regexp(t, `^routine:[0-9a-f]{64}$`, a)
}

func TestNoop(t *testing.T) {
	var c Cache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", "v", time.Minute))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Empty(t, v)
	assert.NoError(t, c.Delete(ctx, "k"))
}

// Runs against a real server when REDIS_TEST_ADDR is set.
func TestRedisCache(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	ctx := context.Background()

	c, err := NewRedisCache(ctx, RedisConfig{Address: addr}, zap.NewNop())
	require.NoError(t, err)
	defer c.Close()

	key := Key("test", t.Name())
	require.NoError(t, c.Set(ctx, key, `{"ok":true}`, time.Minute))

	v, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, `{"ok":true}`, v)

	require.NoError(t, c.Delete(ctx, key))
	v, err = c.Get(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, v)
}
