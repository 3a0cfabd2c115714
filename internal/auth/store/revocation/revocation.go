// Package revocation implements the logout denylist. The session design is
// stateless, so immediate logout is only enforceable by denylisting the
// token's JTI until its natural expiry.
package revocation

import (
	"context"
	"sync"
	"time"

	dErrors "heirloom/pkg/domain-errors"
)

// List is the denylist contract consulted by the API access gate.
type List interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}

// Clock is injected for testability; defaults to time.Now.
type Clock func() time.Time

func validateTTL(ttl time.Duration) error {
	if ttl <= 0 {
		return dErrors.New(dErrors.CodeValidation, "revocation ttl must be positive")
	}
	return nil
}

// InMemory is the single-process fallback when neither Redis nor Postgres is
// configured. Entries are pruned lazily on lookup.
type InMemory struct {
	mu      sync.Mutex
	entries map[string]time.Time
	clock   Clock
}

type InMemoryOption func(*InMemory)

func WithInMemoryClock(clock Clock) InMemoryOption {
	return func(l *InMemory) {
		if clock != nil {
			l.clock = clock
		}
	}
}

func NewInMemory(opts ...InMemoryOption) *InMemory {
	l := &InMemory{
		entries: make(map[string]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

func (l *InMemory) Revoke(_ context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries[jti] = l.clock().Add(ttl)
	return nil
}

func (l *InMemory) IsRevoked(_ context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	expiresAt, ok := l.entries[jti]
	if !ok {
		return false, nil
	}
	if l.clock().After(expiresAt) {
		delete(l.entries, jti)
		return false, nil
	}
	return true, nil
}
