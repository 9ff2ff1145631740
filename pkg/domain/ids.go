package domain

import "github.com/google/uuid"

// Typed identifiers for the core entities. Wrapping uuid.UUID keeps the
// signatures honest: a MemberID cannot be passed where a BranchID is expected.
type (
	UserID         uuid.UUID
	MemberID       uuid.UUID
	RegistrationID uuid.UUID
	BranchID       uuid.UUID
)

func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }
func (id MemberID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }
func (id RegistrationID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id BranchID) IsNil() bool       { return uuid.UUID(id) == uuid.Nil }

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id MemberID) String() string       { return uuid.UUID(id).String() }
func (id RegistrationID) String() string { return uuid.UUID(id).String() }
func (id BranchID) String() string       { return uuid.UUID(id).String() }

// Text marshalling so the typed IDs serialize as canonical UUID strings.
// Defined types do not inherit uuid.UUID's methods.
func (id UserID) MarshalText() ([]byte, error)         { return []byte(uuid.UUID(id).String()), nil }
func (id MemberID) MarshalText() ([]byte, error)       { return []byte(uuid.UUID(id).String()), nil }
func (id RegistrationID) MarshalText() ([]byte, error) { return []byte(uuid.UUID(id).String()), nil }
func (id BranchID) MarshalText() ([]byte, error)       { return []byte(uuid.UUID(id).String()), nil }

func (id *UserID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = UserID(u)
	return err
}

func (id *MemberID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = MemberID(u)
	return err
}

func (id *RegistrationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = RegistrationID(u)
	return err
}

func (id *BranchID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	*id = BranchID(u)
	return err
}

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewMemberID returns a fresh random MemberID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// NewRegistrationID returns a fresh random RegistrationID.
func NewRegistrationID() RegistrationID { return RegistrationID(uuid.New()) }

// NewBranchID returns a fresh random BranchID.
func NewBranchID() BranchID { return BranchID(uuid.New()) }

// ParseUserID parses a string form UserID. Empty or malformed input is an error.
func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	return UserID(u), err
}

// ParseMemberID parses a string form MemberID.
func ParseMemberID(s string) (MemberID, error) {
	u, err := uuid.Parse(s)
	return MemberID(u), err
}

// ParseRegistrationID parses a string form RegistrationID.
func ParseRegistrationID(s string) (RegistrationID, error) {
	u, err := uuid.Parse(s)
	return RegistrationID(u), err
}

// ParseBranchID parses a string form BranchID.
func ParseBranchID(s string) (BranchID, error) {
	u, err := uuid.Parse(s)
	return BranchID(u), err
}
