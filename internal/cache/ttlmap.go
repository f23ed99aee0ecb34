package cache

import (
	"context"
	"sync"
	"time"
)

type ttlEntry struct {
	value    []byte
	expireAt time.Time // zero => no TTL
}

func (e ttlEntry) expired(now time.Time) bool {
	return !e.expireAt.IsZero() && !now.Before(e.expireAt)
}

// TTLMap is an in-process Store that never evicts a live entry. Entries go
// away only when deleted or when their TTL passes, which makes it the
// session store when redis is not configured.
type TTLMap struct {
	mu      sync.RWMutex
	entries map[string]ttlEntry
	now     func() time.Time

	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

var _ Store = (*TTLMap)(nil)

// NewTTLMap creates an empty map. When sweep is positive a background
// goroutine drops expired entries at that interval until Close.
func NewTTLMap(sweep time.Duration) *TTLMap {
	m := &TTLMap{
		entries: make(map[string]ttlEntry),
		now:     time.Now,
		done:    make(chan struct{}),
	}
	if sweep > 0 {
		m.wg.Add(1)
		go m.janitor(sweep)
	}
	return m
}

func (m *TTLMap) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	if e.expired(m.now()) {
		m.mu.Lock()
		if cur, ok := m.entries[key]; ok && cur.expired(m.now()) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, nil
	}
	return append([]byte(nil), e.value...), nil
}

func (m *TTLMap) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := ttlEntry{value: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expireAt = m.now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = e
	m.mu.Unlock()
	return nil
}

func (m *TTLMap) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}

// Len reports the number of entries held, expired ones included until
// they are swept.
func (m *TTLMap) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Close stops the janitor. It is safe to call more than once.
func (m *TTLMap) Close() error {
	m.closeOnce.Do(func() { close(m.done) })
	m.wg.Wait()
	return nil
}

func (m *TTLMap) sweep() {
	now := m.now()
	m.mu.Lock()
	for k, e := range m.entries {
		if e.expired(now) {
			delete(m.entries, k)
		}
	}
	m.mu.Unlock()
}

func (m *TTLMap) janitor(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			m.sweep()
		}
	}
}
