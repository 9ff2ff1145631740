package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

const userColumns = `id, full_name, email, national_id, phone, role, branch_id,
	password_hash, active, created_at, updated_at`

// PostgresStore persists staff accounts in the users table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, u *User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		u.ID.String(), u.FullName, strings.ToLower(u.Email), u.NationalID, u.Phone,
		string(u.Role), nullBranchID(u.BranchID), u.PasswordHash, u.Active,
		u.CreatedAt, u.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.UserID) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`, id.String())
	return scanUser(row)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
	return scanUser(row)
}

func (s *PostgresStore) List(ctx context.Context, branchID domain.BranchID, role domain.Role) ([]*User, error) {
	query := `SELECT ` + userColumns + ` FROM users`
	var (
		where []string
		args  []any
	)
	if !branchID.IsNil() {
		args = append(args, branchID.String())
		where = append(where, fmt.Sprintf("branch_id = $%d", len(args)))
	}
	if role != "" {
		args = append(args, string(role))
		where = append(where, fmt.Sprintf("role = $%d", len(args)))
	}
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY full_name ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) SetActive(ctx context.Context, id domain.UserID, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET active = $2, updated_at = NOW() WHERE id = $1`,
		id.String(), active,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
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

func scanUser(row rowScanner) (*User, error) {
	var (
		u        User
		rawID    string
		rawRole  string
		branchID sql.NullString
	)
	err := row.Scan(&rawID, &u.FullName, &u.Email, &u.NationalID, &u.Phone,
		&rawRole, &branchID, &u.PasswordHash, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}

	id, err := domain.ParseUserID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse user id: %w", err)
	}
	u.ID = id
	role, err := domain.ParseRole(rawRole)
	if err != nil {
		return nil, fmt.Errorf("parse user role: %w", err)
	}
	u.Role = role
	if branchID.Valid {
		bid, err := domain.ParseBranchID(branchID.String)
		if err != nil {
			return nil, fmt.Errorf("parse user branch id: %w", err)
		}
		u.BranchID = bid
	}
	return &u, nil
}

func nullBranchID(id domain.BranchID) any {
	if id.IsNil() {
		return nil
	}
	return id.String()
}
