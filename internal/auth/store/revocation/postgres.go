package revocation

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // database/sql driver
)

// Schema is the DDL for the revocation table.
const Schema = `
CREATE TABLE IF NOT EXISTS session_revocations (
	jti        TEXT PRIMARY KEY,
	expires_at TIMESTAMPTZ NOT NULL
);
`

// Postgres persists revoked JTIs in PostgreSQL for deployments without
// Redis that still need revocation to survive restarts.
type Postgres struct {
	db    *sql.DB
	clock Clock
}

type PostgresOption func(*Postgres)

// WithPostgresClock sets the clock function for testability.
func WithPostgresClock(clock Clock) PostgresOption {
	return func(p *Postgres) {
		if clock != nil {
			p.clock = clock
		}
	}
}

func NewPostgres(db *sql.DB, opts ...PostgresOption) *Postgres {
	p := &Postgres{db: db, clock: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}
	return p
}

func (p *Postgres) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	expiresAt := p.clock().Add(ttl)
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO session_revocations (jti, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (jti) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		jti, expiresAt,
	)
	if err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (p *Postgres) IsRevoked(ctx context.Context, jti string) (bool, error) {
	if jti == "" {
		return false, nil
	}
	var expiresAt time.Time
	err := p.db.QueryRowContext(ctx,
		`SELECT expires_at FROM session_revocations WHERE jti = $1`, jti,
	).Scan(&expiresAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check session revocation: %w", err)
	}
	if p.clock().After(expiresAt) {
		return false, nil
	}
	return true, nil
}
