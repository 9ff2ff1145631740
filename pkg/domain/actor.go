package domain

// Actor is the authenticated caller of a workflow operation. Services receive
// it explicitly as a parameter so authorization stays testable in isolation;
// nothing reads the current user from global state.
type Actor struct {
	ID       UserID
	Role     Role
	BranchID BranchID
	// MemberID is set only for beneficiary actors and scopes them to their
	// own registration.
	MemberID MemberID
	// Name is a display snapshot denormalized onto audit fields.
	Name string
}

// IsZero reports whether the actor carries no identity at all.
func (a Actor) IsZero() bool {
	return a.ID.IsNil() && a.Role == ""
}
