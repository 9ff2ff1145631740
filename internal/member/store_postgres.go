package member

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

const memberColumns = `id, full_name, national_id, phone, email, city,
	disability_type, employment_status, preferred_branch_id, created_at, updated_at`

// PostgresStore persists beneficiary profiles in the members table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, m *Member) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO members (`+memberColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		m.ID.String(), m.FullName, m.NationalID, m.Phone, m.Email, m.City,
		m.DisabilityType, m.EmploymentStatus, nullBranchID(m.PreferredBranchID),
		m.CreatedAt, m.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("insert member: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id domain.MemberID) (*Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE id = $1`, id.String())
	return scanMember(row)
}

func (s *PostgresStore) FindByPhone(ctx context.Context, phone string) (*Member, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE phone = $1`, phone)
	return scanMember(row)
}

func (s *PostgresStore) Update(ctx context.Context, m *Member) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE members SET
			full_name = $2, national_id = $3, email = $4, city = $5,
			disability_type = $6, employment_status = $7,
			preferred_branch_id = $8, updated_at = $9
		WHERE id = $1`,
		m.ID.String(), m.FullName, m.NationalID, m.Email, m.City,
		m.DisabilityType, m.EmploymentStatus, nullBranchID(m.PreferredBranchID),
		m.UpdatedAt,
	)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return sentinel.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("update member: %w", err)
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

func scanMember(row rowScanner) (*Member, error) {
	var (
		m        Member
		rawID    string
		branchID sql.NullString
	)
	err := row.Scan(&rawID, &m.FullName, &m.NationalID, &m.Phone, &m.Email,
		&m.City, &m.DisabilityType, &m.EmploymentStatus, &branchID,
		&m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan member: %w", err)
	}

	id, err := domain.ParseMemberID(rawID)
	if err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}
	m.ID = id
	if branchID.Valid {
		bid, err := domain.ParseBranchID(branchID.String)
		if err != nil {
			return nil, fmt.Errorf("parse member branch id: %w", err)
		}
		m.PreferredBranchID = bid
	}
	return &m, nil
}

func nullBranchID(id domain.BranchID) any {
	if id.IsNil() {
		return nil
	}
	return id.String()
}
