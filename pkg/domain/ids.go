// Package domain holds typed identifiers and small domain primitives shared
// across modules. Wrapping uuid.UUID in distinct types prevents accidental
// cross-assignment (e.g. passing a user ID where a unit ID is expected).
package domain

import "github.com/google/uuid"

// UserID identifies a signed-in user or a role-assignment subject.
type UserID uuid.UUID

// UnitID identifies an organizational unit in the church hierarchy.
type UnitID uuid.UUID

// MemberID identifies a church member record.
type MemberID uuid.UUID

func (u UserID) IsNil() bool { return uuid.UUID(u) == uuid.Nil }
func (u UserID) String() string { return uuid.UUID(u).String() }

func (u UnitID) IsNil() bool { return uuid.UUID(u) == uuid.Nil }
func (u UnitID) String() string { return uuid.UUID(u).String() }

func (m MemberID) IsNil() bool { return uuid.UUID(m) == uuid.Nil }
func (m MemberID) String() string { return uuid.UUID(m).String() }

// NewUserID returns a fresh random user ID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewUnitID returns a fresh random unit ID.
func NewUnitID() UnitID { return UnitID(uuid.New()) }

// NewMemberID returns a fresh random member ID.
func NewMemberID() MemberID { return MemberID(uuid.New()) }

// MarshalText renders IDs as canonical UUID strings in JSON; defined types
// over array types do not inherit uuid.UUID's marshaling.
func (u UserID) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *UserID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*u = UserID(parsed)
	return nil
}

func (u UnitID) MarshalText() ([]byte, error) { return []byte(u.String()), nil }

func (u *UnitID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*u = UnitID(parsed)
	return nil
}

func (m MemberID) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *MemberID) UnmarshalText(b []byte) error {
	parsed, err := uuid.ParseBytes(b)
	if err != nil {
		return err
	}
	*m = MemberID(parsed)
	return nil
}

// ParseUserID parses an external string into a UserID.
func ParseUserID(s string) (UserID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, err
	}
	return UserID(parsed), nil
}

// ParseUnitID parses an external string into a UnitID.
func ParseUnitID(s string) (UnitID, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return UnitID{}, err
	}
	return UnitID(parsed), nil
}
