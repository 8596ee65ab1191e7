package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

var cacheKeys = repository.CacheKey{}

// SessionStore keeps sessions in the cache. A session is the only
// authentication state: a caller is signed in iff its session exists and
// has not expired.
type SessionStore struct {
	cache repository.Cache
	clock Clock
}

// NewSessionStore creates a SessionStore over cache.
func NewSessionStore(cache repository.Cache, clock Clock) *SessionStore {
	if clock == nil {
		clock = SystemClock{}
	}
	return &SessionStore{cache: cache, clock: clock}
}

// Save stores the session until it expires.
func (s *SessionStore) Save(ctx context.Context, sess *domain.Session) error {
	ttl := sess.TTL(s.clock.Now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", sess.ID)
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	return s.cache.Set(ctx, cacheKeys.Session(sess.ID), data, ttl)
}

// Get returns the session. Missing and expired sessions both return
// domain.ErrSessionNotFound.
func (s *SessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if id == "" {
		return nil, domain.ErrSessionNotFound
	}
	data, err := s.cache.Get(ctx, cacheKeys.Session(id))
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	if !sess.Active(s.clock.Now()) {
		_ = s.cache.Delete(ctx, cacheKeys.Session(id))
		return nil, domain.ErrSessionNotFound
	}
	return &sess, nil
}

// Delete removes the session and reports whether it existed.
func (s *SessionStore) Delete(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	key := cacheKeys.Session(id)
	exists, err := s.cache.Exists(ctx, key)
	if err != nil {
		return false, err
	}
	if !exists {
		return false, nil
	}
	return true, s.cache.Delete(ctx, key)
}

// =============================================================================
// Login attempts
// =============================================================================

// attemptRetention bounds how long a failure counter is kept without new failures.
const attemptRetention = 24 * time.Hour

// attemptRecord is the failure counter of one login identity.
type attemptRecord struct {
	Count       int       `json:"count"`
	LastAttempt time.Time `json:"lastAttempt"`
}

// attemptTracker implements the lockout state machine on top of the cache.
// Unknown emails are tracked the same way as known ones.
type attemptTracker struct {
	cache       repository.Cache
	key         func(email string) string
	maxAttempts int
	lockout     time.Duration
}

func (t *attemptTracker) load(ctx context.Context, email string) (attemptRecord, error) {
	var rec attemptRecord
	data, err := t.cache.Get(ctx, t.key(email))
	if err != nil {
		if errors.Is(err, repository.ErrCacheMiss) {
			return rec, nil
		}
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		// A corrupt counter is treated as no failures.
		return attemptRecord{}, nil
	}
	return rec, nil
}

// retryAfter returns how long the identity stays locked at now, or 0.
func (t *attemptTracker) retryAfter(rec attemptRecord, now time.Time) time.Duration {
	if rec.Count < t.maxAttempts {
		return 0
	}
	if left := t.lockout - now.Sub(rec.LastAttempt); left > 0 {
		return left
	}
	return 0
}

func (t *attemptTracker) fail(ctx context.Context, email string, now time.Time) (attemptRecord, error) {
	rec, err := t.load(ctx, email)
	if err != nil {
		return rec, err
	}
	rec.Count++
	rec.LastAttempt = now

	data, err := json.Marshal(rec)
	if err != nil {
		return rec, err
	}
	return rec, t.cache.Set(ctx, t.key(email), data, attemptRetention)
}

func (t *attemptTracker) clear(ctx context.Context, email string) error {
	return t.cache.Delete(ctx, t.key(email))
}
