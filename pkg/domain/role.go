package domain

import "fmt"

// Role is the actor role attached to every authenticated request. Authorization
// decisions (which workflow transitions are legal, which records are visible)
// key off this value, never off ambient session state.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleBranchManager Role = "branch_manager"
	RoleEmployee      Role = "employee"
	RoleBeneficiary   Role = "beneficiary"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin:         {},
	RoleBranchManager: {},
	RoleEmployee:      {},
	RoleBeneficiary:   {},
}

// ParseRole validates and returns a Role. Unknown values are rejected.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", fmt.Errorf("unknown role: %s", s)
	}
	return r, nil
}

func (r Role) String() string { return string(r) }

// Staff reports whether the role belongs to branch personnel.
func (r Role) Staff() bool {
	return r == RoleBranchManager || r == RoleEmployee
}
