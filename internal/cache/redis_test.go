package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(t *testing.T, s *miniredis.Miniredis) *Client {
	t.Helper()
	c, err := New("redis://"+s.Addr(), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{attempt: 0, want: 50 * time.Millisecond},
		{attempt: 1, want: 50 * time.Millisecond},
		{attempt: 2, want: 100 * time.Millisecond},
		{attempt: 10, want: 500 * time.Millisecond},
		{attempt: 59, want: 2950 * time.Millisecond},
		{attempt: 60, want: 3 * time.Second},
		{attempt: 1000, want: 3 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt), "attempt %d", tt.attempt)
	}
}

func TestNew_BadURL(t *testing.T) {
	_, err := New("localhost:6379", nil)
	assert.Error(t, err)
}

func TestClient_SetGetDelete(t *testing.T) {
	s := miniredis.RunT(t)
	c := newTestClient(t, s)
	ctx := context.Background()

	require.NoError(t, c.Connect(ctx))
	assert.True(t, c.Available())

	got, err := c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Nil(t, got, "missing key reads as a miss")

	require.NoError(t, c.Set(ctx, "user:1", []byte(`{"id":1}`), 0))
	got, err = c.Get(ctx, "user:1")
	require.NoError(t, err)
	assert.Equal(t, `{"id":1}`, string(got))
	assert.Zero(t, s.TTL("user:1"), "zero ttl persists until deleted")

	require.NoError(t, c.Delete(ctx, "user:1"))
	assert.False(t, s.Exists("user:1"))
	require.NoError(t, c.Delete(ctx, "user:1"), "deleting a missing key is a no-op")
}

func TestClient_TTLExpiry(t *testing.T) {
	s := miniredis.RunT(t)
	c := newTestClient(t, s)
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))

	require.NoError(t, c.Set(ctx, "expenses:7", []byte("[]"), 300*time.Second))
	assert.Equal(t, 300*time.Second, s.TTL("expenses:7"))

	s.FastForward(299 * time.Second)
	got, _ := c.Get(ctx, "expenses:7")
	assert.NotNil(t, got)

	s.FastForward(2 * time.Second)
	got, _ = c.Get(ctx, "expenses:7")
	assert.Nil(t, got)
}

func TestClient_DegradesWhenServerGoesAway(t *testing.T) {
	s := miniredis.RunT(t)
	c := newTestClient(t, s)
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))

	s.Close()

	got, err := c.Get(ctx, "k")
	assert.NoError(t, err, "an unreachable server reads as a miss")
	assert.Nil(t, got)
	assert.False(t, c.Available())

	assert.ErrorIs(t, c.Set(ctx, "k", []byte("v2"), 0), ErrUnavailable)
	assert.ErrorIs(t, c.Delete(ctx, "k"), ErrUnavailable)

	require.NoError(t, s.Restart())
	assert.Eventually(t, c.Available, 5*time.Second, 20*time.Millisecond)

	got, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestClient_ConnectFailureReconnectsInBackground(t *testing.T) {
	s := miniredis.RunT(t)
	c := newTestClient(t, s)
	s.Close()

	err := c.Connect(context.Background())
	assert.Error(t, err)
	assert.False(t, c.Available())

	got, err := c.Get(context.Background(), "anything")
	assert.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, s.Restart())
	assert.Eventually(t, c.Available, 5*time.Second, 20*time.Millisecond)
}

func TestClient_FailureDuringReconnectHandoff(t *testing.T) {
	s := miniredis.RunT(t)
	c := newTestClient(t, s)
	ctx := context.Background()
	require.NoError(t, c.Connect(ctx))

	// A loop that has just pinged successfully still holds the slot when the
	// next command fails.
	c.reconnecting.Store(true)
	c.markDown(ctx, errors.New("connection reset"))
	assert.False(t, c.Available())

	c.finishReconnect()

	assert.Eventually(t, c.Available, 5*time.Second, 20*time.Millisecond)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	got, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestClient_CloseIsIdempotent(t *testing.T) {
	s := miniredis.RunT(t)
	c, err := New("redis://"+s.Addr(), nil)
	require.NoError(t, err)
	s.Close()
	_ = c.Connect(context.Background())

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())
	assert.False(t, c.Available())
}
