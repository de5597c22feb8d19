package portal

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// CorrelationStore parks a small value across the external-provider redirect,
// keyed by an opaque correlation key. Entries expire after their TTL and are
// consumed at most once.
//
// Implementations report failures honestly; deciding to proceed without the
// value (fail-open) is the caller's job.
type CorrelationStore interface {
	// Put stores value under key for at most ttl.
	Put(ctx context.Context, key, value string, ttl time.Duration) error

	// TakeOnce atomically reads and deletes the value under key. Absent or
	// expired keys yield ok=false, not an error.
	TakeOnce(ctx context.Context, key string) (value string, ok bool, err error)

	// Delete drops the key if present.
	Delete(ctx context.Context, key string) error
}

// NewCorrelationKey returns an opaque key for a single login attempt.
func NewCorrelationKey() string {
	return uuid.NewString()
}

type correlationEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryCorrelationStore is a mutex-guarded in-process CorrelationStore.
// Expiry is enforced at read time; Purge drops dead entries eagerly for
// long-lived processes.
type MemoryCorrelationStore struct {
	mu      sync.Mutex
	entries map[string]correlationEntry
	now     func() time.Time
}

// MemoryCorrelationStoreOption configures the store.
type MemoryCorrelationStoreOption func(*MemoryCorrelationStore)

// WithCorrelationClock injects the time source, mostly for tests.
func WithCorrelationClock(now func() time.Time) MemoryCorrelationStoreOption {
	return func(s *MemoryCorrelationStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryCorrelationStore creates an empty in-memory store.
func NewMemoryCorrelationStore(opts ...MemoryCorrelationStoreOption) *MemoryCorrelationStore {
	s := &MemoryCorrelationStore{
		entries: map[string]correlationEntry{},
		now:     time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

var _ CorrelationStore = (*MemoryCorrelationStore)(nil)

// Put implements CorrelationStore.
func (s *MemoryCorrelationStore) Put(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = correlationEntry{
		value:     value,
		expiresAt: s.now().Add(ttl),
	}

	return nil
}

// TakeOnce implements CorrelationStore.
func (s *MemoryCorrelationStore) TakeOnce(ctx context.Context, key string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}

	delete(s.entries, key)

	if s.now().After(entry.expiresAt) {
		return "", false, nil
	}

	return entry.value, true, nil
}

// Delete implements CorrelationStore.
func (s *MemoryCorrelationStore) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)

	return nil
}

// Purge drops expired entries and returns how many were removed.
func (s *MemoryCorrelationStore) Purge() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}

	return removed
}

// Len reports the number of live and not-yet-purged entries.
func (s *MemoryCorrelationStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
