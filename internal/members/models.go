// Package members exposes the member roster, filtered through the access
// evaluator so callers only ever see members of units they can see.
package members

import (
	"time"

	id "siscof/pkg/domain"
)

// Member is one person on a unit's roster.
type Member struct {
	ID        id.MemberID `json:"id"`
	UnitID    id.UnitID   `json:"organizational_unit_id"`
	FullName  string      `json:"full_name"`
	Email     string      `json:"email,omitempty"`
	Phone     string      `json:"phone,omitempty"`
	Active    bool        `json:"active"`
	CreatedAt time.Time   `json:"created_at"`
}
