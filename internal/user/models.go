// Package user manages staff accounts: admins, branch managers and
// employees. Beneficiaries are not users; they live in the member package and
// authenticate with OTP instead of a password.
package user

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"takaful/pkg/domain"
	dErrors "takaful/pkg/domain-errors"
)

// User is one staff account.
type User struct {
	ID         domain.UserID   `json:"id"`
	FullName   string          `json:"full_name"`
	Email      string          `json:"email"`
	NationalID string          `json:"national_id,omitempty"`
	Phone      string          `json:"phone,omitempty"`
	Role       domain.Role     `json:"role"`
	BranchID   domain.BranchID `json:"branch_id,omitempty"`
	Active     bool            `json:"active"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`

	// PasswordHash never serializes.
	PasswordHash string `json:"-"`
}

// SetPassword hashes and stores the password.
func (u *User) SetPassword(plain string) error {
	if len(plain) < 8 {
		return dErrors.New(dErrors.CodeBadRequest, "password must be at least 8 characters")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to hash password")
	}
	u.PasswordHash = string(hash)
	return nil
}

// CheckPassword reports whether plain matches the stored hash.
func (u *User) CheckPassword(plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Actor converts the user into the request actor carried through the system.
func (u *User) Actor() domain.Actor {
	return domain.Actor{
		ID:       u.ID,
		Role:     u.Role,
		BranchID: u.BranchID,
		Name:     u.FullName,
	}
}
