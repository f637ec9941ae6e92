package app

import (
	"context"
	"sync"
	"time"

	"fittrack/internal/domain"
)

type registryEntry struct {
	store    *WorkoutStore
	lastUsed time.Time
}

// StoreRegistry owns one WorkoutStore per session token. Stores are created
// on first use and torn down on sign-out or after sitting idle.
type StoreRegistry struct {
	repo  domain.WorkoutRepository
	cache domain.WorkoutCache
	index DateIndex
	now   func() time.Time

	mu     sync.Mutex
	stores map[string]*registryEntry
}

// NewStoreRegistry creates a registry. cache may be nil.
func NewStoreRegistry(repo domain.WorkoutRepository, cache domain.WorkoutCache, index DateIndex) *StoreRegistry {
	return &StoreRegistry{
		repo:   repo,
		cache:  cache,
		index:  index,
		now:    time.Now,
		stores: make(map[string]*registryEntry),
	}
}

// Open returns the store for token, creating and warming it if needed.
func (r *StoreRegistry) Open(ctx context.Context, token string) *WorkoutStore {
	r.mu.Lock()
	if e, ok := r.stores[token]; ok {
		e.lastUsed = r.now()
		r.mu.Unlock()
		return e.store
	}
	var opts []StoreOption
	if r.cache != nil {
		opts = append(opts, WithCache(r.cache))
	}
	s := NewWorkoutStore(r.repo, ContextAuth{}, r.index, opts...)
	r.stores[token] = &registryEntry{store: s, lastUsed: r.now()}
	r.mu.Unlock()

	s.Warm(ctx)
	return s
}

// Get returns the store for token without creating one.
func (r *StoreRegistry) Get(token string) (*WorkoutStore, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.stores[token]
	if !ok {
		return nil, false
	}
	return e.store, true
}

// Close tears down and forgets the store for token.
func (r *StoreRegistry) Close(token string) {
	r.mu.Lock()
	e, ok := r.stores[token]
	delete(r.stores, token)
	r.mu.Unlock()
	if ok {
		e.store.Close()
	}
}

// SweepIdle closes stores unused for longer than maxIdle and returns how many
// were closed.
func (r *StoreRegistry) SweepIdle(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)
	var idle []*WorkoutStore

	r.mu.Lock()
	for token, e := range r.stores {
		if e.lastUsed.Before(cutoff) {
			idle = append(idle, e.store)
			delete(r.stores, token)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	return len(idle)
}

// Len returns the number of open stores.
func (r *StoreRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.stores)
}
