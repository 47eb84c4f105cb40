package ratelimit

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Incr and Mark scan for expired entries.
const sweepInterval = time.Minute

type entry struct {
	count     int64
	expiresAt time.Time
}

// MemoryBackend is a single-process Backend used when Redis is disabled.
type MemoryBackend struct {
	mu        sync.Mutex
	entries   map[string]entry
	now       func() time.Time
	nextSweep time.Time
}

var _ Backend = (*MemoryBackend)(nil)

func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (b *MemoryBackend) Count(_ context.Context, key string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.liveLocked(key)
	if !ok {
		return 0, nil
	}
	return e.count, nil
}

func (b *MemoryBackend) Incr(_ context.Context, key string, window time.Duration) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweepLocked()
	e, ok := b.liveLocked(key)
	if !ok {
		e = entry{expiresAt: b.now().Add(window)}
	}
	e.count++
	b.entries[key] = e
	return e.count, nil
}

func (b *MemoryBackend) Mark(_ context.Context, key string, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweepLocked()
	b.entries[key] = entry{count: 1, expiresAt: b.now().Add(ttl)}
	return nil
}

func (b *MemoryBackend) Marked(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.liveLocked(key)
	return ok, nil
}

// liveLocked returns the entry for key, dropping it if it has expired.
func (b *MemoryBackend) liveLocked(key string) (entry, bool) {
	e, ok := b.entries[key]
	if !ok {
		return entry{}, false
	}
	if !b.now().Before(e.expiresAt) {
		delete(b.entries, key)
		return entry{}, false
	}
	return e, true
}

// sweepLocked drops every expired entry, at most once per sweepInterval.
// Keys that are never read again would otherwise stay in the map forever.
func (b *MemoryBackend) sweepLocked() {
	now := b.now()
	if now.Before(b.nextSweep) {
		return
	}
	b.nextSweep = now.Add(sweepInterval)
	for key, e := range b.entries {
		if !now.Before(e.expiresAt) {
			delete(b.entries, key)
		}
	}
}
