package session

import (
	"context"
	"time"
)

// Store is the contract the call flow engine relies on. Every mutation
// resets the key's lifetime to the full TTL.
type Store interface {
	// Create positions a new session at the root menu. An existing session
	// for the same call is overwritten unless duplicates are rejected, in
	// which case ErrExists is returned.
	Create(ctx context.Context, callUUID, from, to string) (*Session, error)
	// Get returns ErrNotFound once the session expired or was deleted.
	Get(ctx context.Context, callUUID string) (*Session, error)
	// Update applies fn to the stored session and writes it back. A
	// completed session is never mutated (ErrCompleted). If fn returns an
	// error nothing is written.
	Update(ctx context.Context, callUUID string, fn func(*Session) error) (*Session, error)
	// Delete reports whether a session was removed. Missing is not an error.
	Delete(ctx context.Context, callUUID string) (bool, error)
	Ping(ctx context.Context) error
}

// Options are shared by every Store implementation.
type Options struct {
	RootMenuID       string
	TTL              time.Duration
	RejectDuplicates bool
	// Now is the clock used for timestamps; defaults to time.Now in UTC.
	Now func() time.Time
}

func (o Options) withDefaults() Options {
	if o.RootMenuID == "" {
		o.RootMenuID = "main_menu"
	}
	if o.TTL <= 0 {
		o.TTL = 30 * time.Minute
	}
	if o.Now == nil {
		o.Now = func() time.Time { return time.Now().UTC() }
	}
	return o
}

// apply runs fn against a decoded session and returns the encoded result.
func apply(s *Session, now time.Time, fn func(*Session) error) ([]byte, error) {
	if s.IsCompleted() {
		return nil, ErrCompleted
	}
	if fn != nil {
		if err := fn(s); err != nil {
			return nil, err
		}
	}
	s.LastActivity = now
	return encode(s)
}
