// Package roles implements the role directory: time-stamped actor-to-role
// assignments per deal. Assignments are append-only and never removed, so
// "roles as of T" is a pure filter on assignment time.
package roles

import (
	"time"

	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

// Role names a deal-scoped responsibility an actor can hold.
type Role string

const (
	// RoleGP is the general partner driving the deal.
	RoleGP Role = "GP"
	// RoleLegal is deal counsel.
	RoleLegal Role = "LEGAL"
	// RoleLender is the debt provider.
	RoleLender Role = "LENDER"
	// RoleEscrow is the escrow agent.
	RoleEscrow Role = "ESCROW"
	// RoleOperator runs the asset after closing.
	RoleOperator Role = "OPERATOR"
)

var knownRoles = map[Role]struct{}{
	RoleGP:       {},
	RoleLegal:    {},
	RoleLender:   {},
	RoleEscrow:   {},
	RoleOperator: {},
}

// Parse validates a raw role name.
func Parse(raw string) (Role, error) {
	role := Role(raw)
	if _, ok := knownRoles[role]; !ok {
		return "", dErrors.Newf(dErrors.CodeValidation, "unknown role %q", raw)
	}
	return role, nil
}

// Assignment records that an actor holds a role on a deal from AssignedAt on.
type Assignment struct {
	DealID     id.DealID
	ActorID    id.ActorID
	Role       Role
	AssignedAt time.Time
}

// HeldAsOf reports whether the assignment was in effect at instant t.
func (a Assignment) HeldAsOf(t time.Time) bool {
	return !a.AssignedAt.After(t)
}
