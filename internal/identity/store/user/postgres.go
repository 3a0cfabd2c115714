package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"heirloom/internal/identity/models"
	"heirloom/pkg/platform/sentinel"
)

// Schema is the DDL for the users table. Applied by integration tests and
// deployment tooling; the store itself never migrates.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            UUID PRIMARY KEY,
	full_name     TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	role          TEXT NOT NULL,
	status        TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL,
	updated_at    TIMESTAMPTZ NOT NULL
);
`

const uniqueViolation = "23505"

// Postgres persists users in PostgreSQL via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, full_name, email, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, u *models.User) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE users
		SET full_name = $2, email = $3, password_hash = $4, role = $5, status = $6, updated_at = $7
		WHERE id = $1`,
		u.ID, u.FullName, u.Email, u.PasswordHash, u.Role, u.Status, u.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, selectUser+` WHERE id = $1`, id))
}

func (s *Postgres) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.scanOne(s.pool.QueryRow(ctx, selectUser+` WHERE email = $1`, models.NormalizeEmail(email)))
}

func (s *Postgres) List(ctx context.Context) ([]*models.User, error) {
	rows, err := s.pool.Query(ctx, selectUser+` ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

const selectUser = `
	SELECT id, full_name, email, password_hash, role, status, created_at, updated_at
	FROM users`

type rowScanner interface {
	Scan(dest ...any) error
}

func (s *Postgres) scanOne(row rowScanner) (*models.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return u, nil
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
