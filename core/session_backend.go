package core

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrSessionNotFound is returned when a token has no live session.
var ErrSessionNotFound = errors.New("session not found")

// SessionBackend stores serialized session values keyed by token. Each
// operation is atomic for a single token.
type SessionBackend interface {
	Load(ctx context.Context, id string) ([]byte, error)
	Save(ctx context.Context, id string, data []byte, ttl time.Duration) error
	// Delete is idempotent: deleting an absent id is not an error.
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionBackend keeps sessions in process memory. Expired entries are
// hidden on Load and swept periodically until Close.
type MemorySessionBackend struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	now     func() time.Time

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewMemorySessionBackend starts a backend whose janitor runs every sweep.
func NewMemorySessionBackend(sweep time.Duration) *MemorySessionBackend {
	b := &MemorySessionBackend{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go b.janitor(sweep)
	return b
}

func (b *MemorySessionBackend) Load(_ context.Context, id string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	e, ok := b.entries[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	if !b.now().Before(e.expiresAt) {
		delete(b.entries, id)
		return nil, ErrSessionNotFound
	}
	return append([]byte(nil), e.data...), nil
}

func (b *MemorySessionBackend) Save(_ context.Context, id string, data []byte, ttl time.Duration) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[id] = memoryEntry{data: append([]byte(nil), data...), expiresAt: b.now().Add(ttl)}
	return nil
}

func (b *MemorySessionBackend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.entries, id)
	return nil
}

func (b *MemorySessionBackend) Ping(context.Context) error { return nil }

// Len returns the number of stored entries, expired ones included.
func (b *MemorySessionBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

// Close stops the janitor goroutine and waits for it to exit.
func (b *MemorySessionBackend) Close() error {
	b.stopOnce.Do(func() { close(b.stop) })
	<-b.done
	return nil
}

func (b *MemorySessionBackend) janitor(every time.Duration) {
	defer close(b.done)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-b.stop:
			return
		case <-ticker.C:
			b.sweep()
		}
	}
}

func (b *MemorySessionBackend) sweep() {
	b.mu.Lock()
	defer b.mu.Unlock()
	now := b.now()
	for id, e := range b.entries {
		if !now.Before(e.expiresAt) {
			delete(b.entries, id)
		}
	}
}
