package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"takaful/internal/registration/models"
	"takaful/pkg/domain"
	"takaful/pkg/platform/sentinel"
)

// Postgres persists registrations in PostgreSQL. Execute runs its callbacks
// inside a transaction holding SELECT ... FOR UPDATE, and the final UPDATE
// carries a version guard, so two reviewers acting concurrently can never
// both win; the loser sees ErrConflict.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const registrationColumns = `
	id, member_id, branch_id, status,
	full_name, national_id, phone, email, city, disability_type, employment_status,
	employee_notes, manager_notes, rejection_reason,
	employee_review_date, manager_review_date,
	employee_reviewer_id, employee_reviewer_name, manager_reviewer_id, manager_reviewer_name,
	assigned_to, assigned_by, assigned_date,
	profile_completion, submitted_at, version, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, reg *models.Registration) error {
	query := `
		INSERT INTO registrations (` + registrationColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28)
	`
	_, err := s.db.ExecContext(ctx, query,
		reg.ID.String(), reg.MemberID.String(), nullID(reg.BranchID.IsNil(), reg.BranchID.String()), string(reg.Status),
		reg.FullName, reg.NationalID, reg.Phone, reg.Email, reg.City, reg.DisabilityType, reg.EmploymentStatus,
		reg.EmployeeNotes, reg.ManagerNotes, reg.RejectionReason,
		reg.EmployeeReviewDate, reg.ManagerReviewDate,
		nullID(reg.EmployeeReviewerID.IsNil(), reg.EmployeeReviewerID.String()), reg.EmployeeReviewerName,
		nullID(reg.ManagerReviewerID.IsNil(), reg.ManagerReviewerID.String()), reg.ManagerReviewerName,
		nullID(reg.AssignedTo.IsNil(), reg.AssignedTo.String()),
		nullID(reg.AssignedBy.IsNil(), reg.AssignedBy.String()), reg.AssignedDate,
		reg.ProfileCompletion, reg.SubmittedAt, reg.Version, reg.CreatedAt, reg.UpdatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code.Name() == "unique_violation" {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, id domain.RegistrationID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1`
	reg, err := scanRegistration(s.db.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration: %w", err)
	}
	return reg, nil
}

func (s *Postgres) FindByMemberID(ctx context.Context, memberID domain.MemberID) (*models.Registration, error) {
	query := `SELECT ` + registrationColumns + `
		FROM registrations WHERE member_id = $1
		ORDER BY created_at DESC LIMIT 1`
	reg, err := scanRegistration(s.db.QueryRowContext(ctx, query, memberID.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find registration by member: %w", err)
	}
	return reg, nil
}

func (s *Postgres) List(ctx context.Context, filter Filter) ([]*models.Registration, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if !filter.BranchID.IsNil() {
		conds = append(conds, "branch_id = "+arg(filter.BranchID.String()))
	}
	if !filter.AssignedTo.IsNil() {
		conds = append(conds, "assigned_to = "+arg(filter.AssignedTo.String()))
	}
	if filter.Status != "" {
		conds = append(conds, "status = "+arg(string(filter.Status)))
	}
	if needle := strings.TrimSpace(filter.Search); needle != "" {
		p := arg("%" + needle + "%")
		conds = append(conds, fmt.Sprintf("(full_name ILIKE %s OR national_id ILIKE %s OR phone ILIKE %s)", p, p, p))
	}

	query := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY COALESCE(submitted_at, created_at) ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []*models.Registration
	for rows.Next() {
		reg, err := scanRegistration(rows)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	return out, rows.Err()
}

func (s *Postgres) Execute(ctx context.Context, id domain.RegistrationID,
	validate func(*models.Registration) error,
	mutate func(*models.Registration)) (*models.Registration, error) {

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	query := `SELECT ` + registrationColumns + ` FROM registrations WHERE id = $1 FOR UPDATE`
	reg, err := scanRegistration(tx.QueryRowContext(ctx, query, id.String()))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("lock registration: %w", err)
	}

	if err := validate(reg); err != nil {
		return nil, err
	}
	prevVersion := reg.Version
	mutate(reg)

	update := `
		UPDATE registrations SET
			status = $1,
			employee_notes = $2, manager_notes = $3, rejection_reason = $4,
			employee_review_date = $5, manager_review_date = $6,
			employee_reviewer_id = $7, employee_reviewer_name = $8,
			manager_reviewer_id = $9, manager_reviewer_name = $10,
			assigned_to = $11, assigned_by = $12, assigned_date = $13,
			profile_completion = $14, submitted_at = $15,
			full_name = $16, national_id = $17, phone = $18, email = $19,
			city = $20, disability_type = $21, employment_status = $22,
			version = $23, updated_at = $24
		WHERE id = $25 AND version = $26
	`
	res, err := tx.ExecContext(ctx, update,
		string(reg.Status),
		reg.EmployeeNotes, reg.ManagerNotes, reg.RejectionReason,
		reg.EmployeeReviewDate, reg.ManagerReviewDate,
		nullID(reg.EmployeeReviewerID.IsNil(), reg.EmployeeReviewerID.String()), reg.EmployeeReviewerName,
		nullID(reg.ManagerReviewerID.IsNil(), reg.ManagerReviewerID.String()), reg.ManagerReviewerName,
		nullID(reg.AssignedTo.IsNil(), reg.AssignedTo.String()),
		nullID(reg.AssignedBy.IsNil(), reg.AssignedBy.String()), reg.AssignedDate,
		reg.ProfileCompletion, reg.SubmittedAt,
		reg.FullName, reg.NationalID, reg.Phone, reg.Email,
		reg.City, reg.DisabilityType, reg.EmploymentStatus,
		reg.Version, reg.UpdatedAt,
		reg.ID.String(), prevVersion,
	)
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update registration: %w", err)
	}
	if affected == 0 {
		// The row lock makes this unreachable in practice; the guard stays
		// as a backstop against a mutate that forgets to bump the version.
		return nil, sentinel.ErrConflict
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit registration update: %w", err)
	}
	return reg, nil
}

func (s *Postgres) CountByStatus(ctx context.Context, branchID domain.BranchID) (map[models.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM registrations`
	var args []any
	if !branchID.IsNil() {
		query += ` WHERE branch_id = $1`
		args = append(args, branchID.String())
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("count registrations: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[models.Status(status)] = n
	}
	return counts, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row rowScanner) (*models.Registration, error) {
	var (
		reg models.Registration

		id, memberID       string
		branchID           sql.NullString
		status             string
		employeeReviewerID sql.NullString
		managerReviewerID  sql.NullString
		assignedTo         sql.NullString
		assignedBy         sql.NullString
		employeeReviewDate sql.NullTime
		managerReviewDate  sql.NullTime
		assignedDate       sql.NullTime
		submittedAt        sql.NullTime
	)

	err := row.Scan(
		&id, &memberID, &branchID, &status,
		&reg.FullName, &reg.NationalID, &reg.Phone, &reg.Email, &reg.City, &reg.DisabilityType, &reg.EmploymentStatus,
		&reg.EmployeeNotes, &reg.ManagerNotes, &reg.RejectionReason,
		&employeeReviewDate, &managerReviewDate,
		&employeeReviewerID, &reg.EmployeeReviewerName, &managerReviewerID, &reg.ManagerReviewerName,
		&assignedTo, &assignedBy, &assignedDate,
		&reg.ProfileCompletion, &submittedAt, &reg.Version, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if reg.ID, err = domain.ParseRegistrationID(id); err != nil {
		return nil, fmt.Errorf("parse registration id: %w", err)
	}
	if reg.MemberID, err = domain.ParseMemberID(memberID); err != nil {
		return nil, fmt.Errorf("parse member id: %w", err)
	}
	if branchID.Valid {
		if reg.BranchID, err = domain.ParseBranchID(branchID.String); err != nil {
			return nil, fmt.Errorf("parse branch id: %w", err)
		}
	}
	if reg.EmployeeReviewerID, err = parseNullUserID(employeeReviewerID); err != nil {
		return nil, err
	}
	if reg.ManagerReviewerID, err = parseNullUserID(managerReviewerID); err != nil {
		return nil, err
	}
	if reg.AssignedTo, err = parseNullUserID(assignedTo); err != nil {
		return nil, err
	}
	if reg.AssignedBy, err = parseNullUserID(assignedBy); err != nil {
		return nil, err
	}
	reg.EmployeeReviewDate = timePtr(employeeReviewDate)
	reg.ManagerReviewDate = timePtr(managerReviewDate)
	reg.AssignedDate = timePtr(assignedDate)
	reg.SubmittedAt = timePtr(submittedAt)
	reg.Status = models.Status(status)
	return &reg, nil
}

func parseNullUserID(v sql.NullString) (domain.UserID, error) {
	if !v.Valid {
		return domain.UserID{}, nil
	}
	id, err := domain.ParseUserID(v.String)
	if err != nil {
		return domain.UserID{}, fmt.Errorf("parse user id: %w", err)
	}
	return id, nil
}

func timePtr(v sql.NullTime) *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

// nullID maps a zero-valued typed ID onto SQL NULL.
func nullID(isNil bool, s string) any {
	if isNil {
		return nil
	}
	return s
}
