package asset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"heirloom/internal/asset/models"
	"heirloom/pkg/platform/sentinel"
)

// Schema is the DDL for the assets table. The full record lives in a JSONB
// document; the scalar columns exist for filtering and the version guard.
const Schema = `
CREATE TABLE IF NOT EXISTS assets (
	id             UUID PRIMARY KEY,
	asset_type     TEXT NOT NULL,
	current_status TEXT NOT NULL,
	version        BIGINT NOT NULL,
	doc            JSONB NOT NULL,
	created_at     TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS assets_type_idx ON assets (asset_type);
CREATE INDEX IF NOT EXISTS assets_status_idx ON assets (current_status);
`

const uniqueViolation = "23505"

// Postgres persists assets in PostgreSQL via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, a *models.Asset) error {
	doc, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode asset: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO assets (id, asset_type, current_status, version, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		a.ID, a.Type, a.CurrentStatus, a.Version, doc, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert asset: %w", err)
	}
	return nil
}

// Update writes the record guarded by the version the caller read. A guard
// miss on an existing row reports a conflict so the caller can retry against
// fresh state.
func (s *Postgres) Update(ctx context.Context, a *models.Asset) error {
	next := *a
	next.Version = a.Version + 1

	doc, err := json.Marshal(&next)
	if err != nil {
		return fmt.Errorf("encode asset: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE assets
		SET asset_type = $3, current_status = $4, version = version + 1, doc = $5, updated_at = $6
		WHERE id = $1 AND version = $2`,
		a.ID, a.Version, next.Type, next.CurrentStatus, doc, next.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM assets WHERE id = $1)`, a.ID).Scan(&exists); err != nil {
			return fmt.Errorf("check asset existence: %w", err)
		}
		if exists {
			return sentinel.ErrConflict
		}
		return sentinel.ErrNotFound
	}
	a.Version = next.Version
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	a, err := scanAsset(s.pool.QueryRow(ctx, `SELECT doc, version FROM assets WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return a, nil
}

func (s *Postgres) List(ctx context.Context, filter ListFilter) ([]*models.Asset, error) {
	query := `SELECT doc, version FROM assets`
	var (
		clauses []string
		args    []any
	)
	if filter.Type != "" {
		args = append(args, filter.Type)
		clauses = append(clauses, fmt.Sprintf("asset_type = $%d", len(args)))
	}
	if filter.Status != "" {
		args = append(args, filter.Status)
		clauses = append(clauses, fmt.Sprintf("current_status = $%d", len(args)))
	}
	for i, clause := range clauses {
		if i == 0 {
			query += " WHERE " + clause
		} else {
			query += " AND " + clause
		}
	}
	query += " ORDER BY created_at"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list assets: %w", err)
	}
	defer rows.Close()

	var out []*models.Asset
	for rows.Next() {
		a, err := scanAsset(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *Postgres) Purge(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM assets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge asset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAsset(row rowScanner) (*models.Asset, error) {
	var (
		doc     []byte
		version int64
	)
	if err := row.Scan(&doc, &version); err != nil {
		return nil, err
	}
	var a models.Asset
	if err := json.Unmarshal(doc, &a); err != nil {
		return nil, fmt.Errorf("decode asset: %w", err)
	}
	// The column is authoritative: concurrent writers bump it in SQL.
	a.Version = version
	return &a, nil
}
