package session

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store. Documents are kept encoded so callers
// never share a Session value with the store, the same as with Redis.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	opts  Options
}

func NewMemoryStore(opts Options) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		opts:  opts.withDefaults(),
	}
}

// lookup must be called with mu held; expired entries are dropped.
func (s *MemoryStore) lookup(callUUID string) (memoryEntry, bool) {
	e, ok := s.items[callUUID]
	if !ok {
		return memoryEntry{}, false
	}
	if !s.opts.Now().Before(e.expiresAt) {
		delete(s.items, callUUID)
		return memoryEntry{}, false
	}
	return e, true
}

func (s *MemoryStore) Create(_ context.Context, callUUID, from, to string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(callUUID); ok && s.opts.RejectDuplicates {
		return nil, ErrExists
	}

	now := s.opts.Now()
	sess := New(callUUID, from, to, s.opts.RootMenuID, now)
	data, err := encode(sess)
	if err != nil {
		return nil, err
	}
	s.items[callUUID] = memoryEntry{data: data, expiresAt: now.Add(s.opts.TTL)}
	return sess, nil
}

func (s *MemoryStore) Get(_ context.Context, callUUID string) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(callUUID)
	if !ok {
		return nil, ErrNotFound
	}
	return decode(callUUID, e.data)
}

func (s *MemoryStore) Update(_ context.Context, callUUID string, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(callUUID)
	if !ok {
		return nil, ErrNotFound
	}
	sess, err := decode(callUUID, e.data)
	if err != nil {
		return nil, err
	}
	now := s.opts.Now()
	data, err := apply(sess, now, fn)
	if err != nil {
		return nil, err
	}
	s.items[callUUID] = memoryEntry{data: data, expiresAt: now.Add(s.opts.TTL)}
	return sess, nil
}

func (s *MemoryStore) Delete(_ context.Context, callUUID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lookup(callUUID); !ok {
		return false, nil
	}
	delete(s.items, callUUID)
	return true, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// TTL reports the remaining lifetime of a session, or 0 when absent.
func (s *MemoryStore) TTL(callUUID string) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(callUUID)
	if !ok {
		return 0
	}
	return e.expiresAt.Sub(s.opts.Now())
}

// Put stores raw bytes under callUUID; used to simulate corrupted documents.
func (s *MemoryStore) Put(callUUID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[callUUID] = memoryEntry{data: raw, expiresAt: s.opts.Now().Add(s.opts.TTL)}
}
