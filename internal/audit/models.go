// Package audit records role and unit lifecycle events. The log is
// append-only: entries are never mutated or deleted, and a grant or revoke
// that cannot be audited must itself fail.
package audit

import (
	"time"

	"github.com/google/uuid"

	id "siscof/pkg/domain"
)

// Action classifies an audit entry.
type Action string

const (
	ActionGranted         Action = "granted"
	ActionRevoked         Action = "revoked"
	ActionUnitCreated     Action = "unit_created"
	ActionUnitMoved       Action = "unit_moved"
	ActionUnitDeactivated Action = "unit_deactivated"
	ActionScopeReplaced   Action = "scope_replaced"
)

// Entry is one append-only audit record. RoleName is empty for unit
// lifecycle events; AffectedUserID is empty when the action has no subject
// user (unit events).
type Entry struct {
	ID             uuid.UUID `json:"id"`
	Action         Action    `json:"action"`
	RoleName       string    `json:"role_name,omitempty"`
	AffectedUserID id.UserID `json:"affected_user_id,omitempty"`
	ActorID        id.UserID `json:"acting_user_id"`
	UnitID         id.UnitID `json:"organizational_unit_id"`
	Timestamp      time.Time `json:"timestamp"`
}

// Filter narrows audit queries. Zero-value fields are ignored.
type Filter struct {
	UnitID id.UnitID
	From   time.Time
	To     time.Time
}
