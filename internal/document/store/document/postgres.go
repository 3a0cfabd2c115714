package document

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"heirloom/internal/document/models"
	"heirloom/pkg/platform/sentinel"
)

// Schema is the DDL for the documents table.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id           UUID PRIMARY KEY,
	asset_id     UUID NOT NULL,
	title        TEXT NOT NULL,
	doc_type     TEXT NOT NULL,
	file_name    TEXT NOT NULL DEFAULT '',
	content_type TEXT NOT NULL DEFAULT '',
	size_bytes   BIGINT NOT NULL DEFAULT 0,
	storage_ref  TEXT NOT NULL DEFAULT '',
	notes        TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS documents_asset_idx ON documents (asset_id);
`

const uniqueViolation = "23505"

// Postgres persists document metadata in PostgreSQL via pgx.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (s *Postgres) Create(ctx context.Context, d *models.Document) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO documents (id, asset_id, title, doc_type, file_name, content_type, size_bytes, storage_ref, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		d.ID, d.AssetID, d.Title, d.Type, d.FileName, d.ContentType, d.SizeBytes, d.StorageRef, d.Notes, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (s *Postgres) Update(ctx context.Context, d *models.Document) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE documents
		SET title = $2, doc_type = $3, file_name = $4, content_type = $5, size_bytes = $6, storage_ref = $7, notes = $8, updated_at = $9
		WHERE id = $1`,
		d.ID, d.Title, d.Type, d.FileName, d.ContentType, d.SizeBytes, d.StorageRef, d.Notes, d.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	d, err := scanDocument(s.pool.QueryRow(ctx, selectDocument+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (s *Postgres) ListByAsset(ctx context.Context, assetID uuid.UUID) ([]*models.Document, error) {
	rows, err := s.pool.Query(ctx, selectDocument+` WHERE asset_id = $1 ORDER BY created_at`, assetID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *Postgres) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

const selectDocument = `
	SELECT id, asset_id, title, doc_type, file_name, content_type, size_bytes, storage_ref, notes, created_at, updated_at
	FROM documents`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var d models.Document
	err := row.Scan(&d.ID, &d.AssetID, &d.Title, &d.Type, &d.FileName, &d.ContentType, &d.SizeBytes, &d.StorageRef, &d.Notes, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
