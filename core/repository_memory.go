package core

import (
	"context"
	"sync"
)

// MemoryUserRepository keeps users in process memory. Used by tests and the
// memory development mode; data is lost on restart.
type MemoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]UserRecord
	cards map[string][]int
}

func NewMemoryUserRepository() *MemoryUserRepository {
	return &MemoryUserRepository{
		users: make(map[string]UserRecord),
		cards: make(map[string][]int),
	}
}

func (r *MemoryUserRepository) FindByUsername(_ context.Context, username string) (*UserRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[username]
	if !ok {
		return nil, ErrUserNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepository) CreateUser(_ context.Context, username, passwordHash string) (*UserRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[username]; ok {
		return nil, ErrUsernameTaken
	}
	u := UserRecord{Username: username, PasswordHash: passwordHash}
	r.users[username] = u
	r.cards[username] = []int{noCardsSentinel}
	return &u, nil
}

func (r *MemoryUserRepository) Ping(context.Context) error { return nil }

// Cards returns the card ids associated with username.
func (r *MemoryUserRepository) Cards(username string) []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int(nil), r.cards[username]...)
}
