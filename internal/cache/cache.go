// Package cache implements a stale-while-revalidate cache whose contents are
// mirrored into a durable key-value slot.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"sync"
	"time"

	"gitlab.com/yelinaung/club-ledger/internal/kvstore"
	"gitlab.com/yelinaung/club-ledger/internal/logger"
)

// Default windows.
const (
	DefaultFreshFor  = 48 * time.Hour
	DefaultRetainFor = 14 * 24 * time.Hour
)

// State is the lifecycle state of a key at lookup time.
type State int

const (
	// Missing means no entry exists.
	Missing State = iota
	// Fresh entries are served without a fetch.
	Fresh
	// Stale entries are served while a refresh runs in the background.
	Stale
	// Expired entries are past retention and must be refetched.
	Expired
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Stale:
		return "stale"
	case Expired:
		return "expired"
	default:
		return "missing"
	}
}

// Entry is one cached value.
type Entry[T any] struct {
	Data      T         `json:"data"`
	Timestamp time.Time `json:"timestamp"`
	Stale     bool      `json:"stale"`
}

// Options configures a Store. Zero values select the defaults.
type Options struct {
	FreshFor  time.Duration
	RetainFor time.Duration
	// MirrorKey is the kvstore key holding the JSON-encoded entry map.
	MirrorKey string
	Now       func() time.Time
}

// Store holds entries in memory and writes the whole map to a kvstore.Store
// after every mutation.
type Store[T any] struct {
	freshFor  time.Duration
	retainFor time.Duration
	mirrorKey string
	now       func() time.Time
	kv        kvstore.Store

	mu      sync.RWMutex
	entries map[string]Entry[T]

	// persistMu orders mirror writes. Each write snapshots the map while
	// holding it, so the last write always carries the latest map.
	persistMu sync.Mutex
}

// New creates a Store and rehydrates it from kv. A missing or unreadable
// mirror starts the cache empty.
func New[T any](ctx context.Context, kv kvstore.Store, opts Options) *Store[T] {
	if opts.FreshFor <= 0 {
		opts.FreshFor = DefaultFreshFor
	}
	if opts.RetainFor < opts.FreshFor {
		opts.RetainFor = max(DefaultRetainFor, opts.FreshFor)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Store[T]{
		freshFor:  opts.FreshFor,
		retainFor: opts.RetainFor,
		mirrorKey: opts.MirrorKey,
		now:       opts.Now,
		kv:        kv,
		entries:   make(map[string]Entry[T]),
	}
	s.rehydrate(ctx)
	return s
}

func (s *Store[T]) rehydrate(ctx context.Context) {
	if s.kv == nil || s.mirrorKey == "" {
		return
	}

	raw, err := s.kv.Get(ctx, s.mirrorKey)
	if errors.Is(err, kvstore.ErrNotFound) {
		return
	}
	if err != nil {
		logger.Log.Warn().Err(err).Str("key", s.mirrorKey).Msg("Failed to read cache mirror")
		return
	}

	var entries map[string]Entry[T]
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		logger.Log.Warn().Err(err).Str("key", s.mirrorKey).Msg("Discarding unreadable cache mirror")
		return
	}
	if entries != nil {
		s.entries = entries
	}
	logger.Log.Debug().Int("entries", len(entries)).Msg("Cache rehydrated")
}

// Lookup returns the entry for key and its state. Reading a Stale entry
// flags it stale and persists the flag.
func (s *Store[T]) Lookup(ctx context.Context, key string) (Entry[T], State) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok {
		s.mu.Unlock()
		return Entry[T]{}, Missing
	}

	age := s.now().Sub(entry.Timestamp)
	switch {
	case age >= s.retainFor:
		s.mu.Unlock()
		return entry, Expired
	case age < s.freshFor && !entry.Stale:
		s.mu.Unlock()
		return entry, Fresh
	}

	changed := !entry.Stale
	entry.Stale = true
	s.entries[key] = entry
	s.mu.Unlock()

	if changed {
		s.persist(ctx)
	}
	return entry, Stale
}

// Set stores data under key, timestamped now and not stale.
func (s *Store[T]) Set(ctx context.Context, key string, data T) {
	s.mu.Lock()
	s.entries[key] = Entry[T]{Data: data, Timestamp: s.now()}
	s.mu.Unlock()

	s.persist(ctx)
}

// Invalidate flags the entry stale so the next lookup refreshes it. The data
// stays available as a fallback.
func (s *Store[T]) Invalidate(ctx context.Context, key string) {
	s.mu.Lock()
	entry, ok := s.entries[key]
	if !ok || entry.Stale {
		s.mu.Unlock()
		return
	}
	entry.Stale = true
	s.entries[key] = entry
	s.mu.Unlock()

	s.persist(ctx)
}

// Entries returns a copy of all entries.
func (s *Store[T]) Entries() map[string]Entry[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return maps.Clone(s.entries)
}

// persist writes the whole map to the mirror. Failures are logged, never
// returned.
func (s *Store[T]) persist(ctx context.Context) {
	if s.kv == nil || s.mirrorKey == "" {
		return
	}

	s.persistMu.Lock()
	defer s.persistMu.Unlock()

	s.mu.RLock()
	raw, err := json.Marshal(s.entries)
	s.mu.RUnlock()
	if err != nil {
		logger.Log.Error().Err(err).Msg("Failed to encode cache mirror")
		return
	}

	if err := s.kv.Set(context.WithoutCancel(ctx), s.mirrorKey, string(raw)); err != nil {
		logger.Log.Warn().Err(err).Str("key", s.mirrorKey).Msg("Failed to write cache mirror")
	}
}
