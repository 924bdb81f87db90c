package keyValue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mutex sync.Mutex
	t     time.Time
}

func (c *fakeClock) now() time.Time {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.t = c.t.Add(d)
}

func newLocalStore(t *testing.T) (*Store, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	s := newLocal(zap.NewNop().Sugar(), clock.now)
	t.Cleanup(s.Close)
	return s, clock
}

func TestLocalGetExpires(t *testing.T) {
	s, clock := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Incr(ctx, "k", time.Minute)
	require.NoError(t, err)

	got, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	clock.advance(2 * time.Minute)

	got, err = s.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "", got, "expired keys read as empty before the sweeper runs")
}

func TestLocalDel(t *testing.T) {
	s, _ := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Incr(ctx, "a", time.Minute)
	require.NoError(t, err)
	_, err = s.Incr(ctx, "b", time.Minute)
	require.NoError(t, err)

	require.NoError(t, s.Del(ctx, "a"))
	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "1", got)

	require.NoError(t, s.Del(ctx, "missing"))
}

func TestLocalIncr(t *testing.T) {
	s, clock := newLocalStore(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		count, err := s.Incr(ctx, "failures", 10*time.Minute)
		require.NoError(t, err)
		assert.Equal(t, want, count)
	}

	// increments don't push the expiry further
	clock.advance(9 * time.Minute)
	count, err := s.Incr(ctx, "failures", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count)

	clock.advance(2 * time.Minute)
	count, err = s.Incr(ctx, "failures", 10*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteExpired(t *testing.T) {
	s, clock := newLocalStore(t)
	ctx := context.Background()

	_, err := s.Incr(ctx, "short", time.Second)
	require.NoError(t, err)
	_, err = s.Incr(ctx, "long", time.Hour)
	require.NoError(t, err)

	clock.advance(time.Minute)
	s.deleteExpired()

	s.mutex.RLock()
	defer s.mutex.RUnlock()
	assert.NotContains(t, s.hashmap, "short")
	assert.Contains(t, s.hashmap, "long")
}
