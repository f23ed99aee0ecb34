package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
)

// ErrRejected is returned when the in-process store drops a write under
// contention.
var ErrRejected = errors.New("cache write rejected")

// Local is an in-process Store backed by ristretto. Every entry costs 1, so
// maxItems bounds the number of keys held.
type Local struct {
	c *ristretto.Cache
}

var _ Store = (*Local)(nil)

// NewLocal creates an in-process store holding up to maxItems keys.
func NewLocal(maxItems int64) (*Local, error) {
	if maxItems <= 0 {
		return nil, errors.New("local cache: maxItems must be positive")
	}
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxItems * 10,
		MaxCost:     maxItems,
		BufferItems: 64,
		// Count keys, not bytes.
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("local cache: %w", err)
	}
	return &Local{c: c}, nil
}

func (l *Local) Get(_ context.Context, key string) ([]byte, error) {
	v, ok := l.c.Get(key)
	if !ok {
		return nil, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		l.c.Del(key)
		return nil, nil
	}
	return append([]byte(nil), b...), nil
}

func (l *Local) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	ok := l.c.SetWithTTL(key, append([]byte(nil), value...), 1, ttl)
	// Sets are buffered; wait so the write is visible to the next Get.
	l.c.Wait()
	if !ok {
		return fmt.Errorf("%w: %s", ErrRejected, key)
	}
	return nil
}

func (l *Local) Delete(_ context.Context, key string) error {
	l.c.Del(key)
	l.c.Wait()
	return nil
}

func (l *Local) Close() error {
	l.c.Close()
	return nil
}
