package roles

import (
	"context"
	"time"

	id "dealgate/pkg/domain"
)

// Store is the role directory collaborator. Assignments are append-only.
type Store interface {
	// Assign records an actor-role assignment.
	Assign(ctx context.Context, assignment Assignment) error
	// ListByDeal returns every assignment on the deal with AssignedAt <= until.
	ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Assignment, error)
}

// RolesOf collapses assignments into the role set held by each actor.
func RolesOf(assignments []Assignment) map[id.ActorID]map[Role]struct{} {
	held := make(map[id.ActorID]map[Role]struct{})
	for _, a := range assignments {
		if held[a.ActorID] == nil {
			held[a.ActorID] = make(map[Role]struct{})
		}
		held[a.ActorID][a.Role] = struct{}{}
	}
	return held
}
