package branch

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// PostgresStore persists branches in the branches table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, b *Branch) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO branches (id, name, city, phone, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		b.ID.String(), b.Name, b.City, b.Phone, b.Active, b.CreatedAt, b.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.BranchID) (*Branch, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, city, phone, active, created_at, updated_at
		FROM branches WHERE id = $1`, id.String())
	return scanBranch(row)
}

func (s *PostgresStore) List(ctx context.Context, activeOnly bool) ([]*Branch, error) {
	query := `
		SELECT id, name, city, phone, active, created_at, updated_at
		FROM branches`
	if activeOnly {
		query += ` WHERE active`
	}
	query += ` ORDER BY name ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	defer rows.Close()

	var out []*Branch
	for rows.Next() {
		b, err := scanBranch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, id domain.BranchID, active bool) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE branches SET active = $2, updated_at = NOW() WHERE id = $1`,
		id.String(), active,
	)
	if err != nil {
		return fmt.Errorf("update branch: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBranch(row rowScanner) (*Branch, error) {
	var (
		b     Branch
		rawID string
	)
	err := row.Scan(&rawID, &b.Name, &b.City, &b.Phone, &b.Active, &b.CreatedAt, &b.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan branch: %w", err)
	}
	id, err := domain.ParseBranchID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse branch id: %w", err)
	}
	b.ID = id
	return &b, nil
}
