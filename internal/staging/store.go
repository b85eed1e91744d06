// Package staging holds short-lived values addressed by unguessable tokens.
//
// Every entry expires a fixed duration after it is staged. Expiry is checked
// on every read, so correctness never depends on the background sweep; the
// sweep only reclaims memory.
package staging

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hal9000y/gmail-reply-mcp/internal/observability"
)

// Default durations of the draft store.
const (
	DefaultTTL           = 10 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

const (
	tokenPrefix      = "reply_"
	tokenBytes       = 32
	maxStageAttempts = 8
)

var (
	// ErrMiss is wrapped by every "token does not reference a live entry" error.
	ErrMiss = errors.New("staging: miss")
	// ErrNotFound means the token was never staged or was already removed.
	ErrNotFound = fmt.Errorf("%w: not found", ErrMiss)
	// ErrExpired means the entry outlived its TTL.
	ErrExpired = fmt.Errorf("%w: expired", ErrMiss)
	// ErrTokenExhausted means no unused token could be generated.
	ErrTokenExhausted = errors.New("staging: could not generate a unique token")
)

// Entry is one staged value together with its token and timestamps.
type Entry[V any] struct {
	Token     string
	Value     V
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Store is the contract shared by the in-memory store and any shared
// TTL-capable implementation. Take, Remove and Restore must be atomic with
// respect to each other and to concurrent callers.
type Store[V any] interface {
	Stage(v V) (Entry[V], error)
	Peek(token string) (Entry[V], error)
	Take(token string) (Entry[V], error)
	Remove(token string) bool
	Restore(e Entry[V]) bool
}

// TokenSource produces candidate tokens.
type TokenSource func() (string, error)

// RandomToken returns a prefixed, base64url encoded 256-bit random token.
func RandomToken() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read failed: %w", err)
	}
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

// Option configures a Memory store.
type Option func(*options)

type options struct {
	now    func() time.Time
	tokens TokenSource
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithTokenSource replaces RandomToken.
func WithTokenSource(src TokenSource) Option {
	return func(o *options) { o.tokens = src }
}

// Memory is a mutex-protected in-process Store.
type Memory[V any] struct {
	name   string
	ttl    time.Duration
	now    func() time.Time
	tokens TokenSource

	mu      sync.Mutex
	entries map[string]Entry[V]
}

// NewMemory creates a store whose entries live for ttl. The name labels
// metrics and logs.
func NewMemory[V any](name string, ttl time.Duration, opts ...Option) *Memory[V] {
	o := options{now: time.Now, tokens: RandomToken}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &Memory[V]{
		name:    name,
		ttl:     ttl,
		now:     o.now,
		tokens:  o.tokens,
		entries: make(map[string]Entry[V]),
	}
}

// TTL returns the lifetime of staged entries.
func (m *Memory[V]) TTL() time.Duration {
	return m.ttl
}

// Stage stores v under a fresh token. A generated token that collides with
// any entry still held by the store is discarded and regenerated.
func (m *Memory[V]) Stage(v V) (Entry[V], error) {
	for range maxStageAttempts {
		token, err := m.tokens()
		if err != nil {
			observability.RecordStagingOp(m.name, "stage", "error")
			return Entry[V]{}, fmt.Errorf("token source failed: %w", err)
		}

		m.mu.Lock()
		if _, taken := m.entries[token]; taken {
			m.mu.Unlock()
			observability.RecordStagingOp(m.name, "stage", "collision")
			continue
		}
		now := m.now()
		e := Entry[V]{
			Token:     token,
			Value:     v,
			CreatedAt: now,
			ExpiresAt: now.Add(m.ttl),
		}
		m.entries[token] = e
		m.mu.Unlock()

		observability.RecordStagingOp(m.name, "stage", "ok")
		return e, nil
	}

	observability.RecordStagingOp(m.name, "stage", "exhausted")
	return Entry[V]{}, ErrTokenExhausted
}

// Peek returns the live entry for token. An expired entry is dropped on the
// spot and reported as ErrExpired.
func (m *Memory[V]) Peek(token string) (Entry[V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		observability.RecordStagingOp(m.name, "peek", "miss")
		return Entry[V]{}, ErrNotFound
	}
	if !m.now().Before(e.ExpiresAt) {
		delete(m.entries, token)
		observability.RecordStagingOp(m.name, "peek", "expired")
		return Entry[V]{}, ErrExpired
	}

	observability.RecordStagingOp(m.name, "peek", "hit")
	return e, nil
}

// Remove deletes token and reports whether a live entry was removed.
// Removing an unknown or expired token returns false.
func (m *Memory[V]) Remove(token string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		observability.RecordStagingOp(m.name, "remove", "miss")
		return false
	}
	delete(m.entries, token)
	if !m.now().Before(e.ExpiresAt) {
		observability.RecordStagingOp(m.name, "remove", "expired")
		return false
	}

	observability.RecordStagingOp(m.name, "remove", "ok")
	return true
}

// Take removes token and returns the entry it held, as one atomic step.
func (m *Memory[V]) Take(token string) (Entry[V], error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[token]
	if !ok {
		observability.RecordStagingOp(m.name, "take", "miss")
		return Entry[V]{}, ErrNotFound
	}
	delete(m.entries, token)
	if !m.now().Before(e.ExpiresAt) {
		observability.RecordStagingOp(m.name, "take", "expired")
		return Entry[V]{}, ErrExpired
	}

	observability.RecordStagingOp(m.name, "take", "ok")
	return e, nil
}

// Restore puts e back under its own token if the token is free and e has not
// expired. Its original expiry is kept.
func (m *Memory[V]) Restore(e Entry[V]) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, taken := m.entries[e.Token]; taken || !m.now().Before(e.ExpiresAt) {
		observability.RecordStagingOp(m.name, "restore", "rejected")
		return false
	}
	m.entries[e.Token] = e

	observability.RecordStagingOp(m.name, "restore", "ok")
	return true
}

// Len returns the number of held entries, expired ones included.
func (m *Memory[V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
