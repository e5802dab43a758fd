// Package timeline builds the as-of-T view of a deal. Every evaluator
// consumes only a View, never a store: given an identical prefix of facts two
// independent evaluations at the same T see identical inputs, which is what
// makes decisions reproducible.
package timeline

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"dealgate/internal/journal"
	"dealgate/internal/material"
	"dealgate/internal/roles"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

// View is a consistent, ordered snapshot of all facts about one deal with
// createdAt <= At. It is immutable once built.
type View struct {
	DealID      id.DealID
	At          time.Time
	Events      []journal.Event
	Materials   []material.Revision
	Assignments []roles.Assignment
}

// Coordinator loads as-of views from the three fact stores.
type Coordinator struct {
	events    journal.Store
	materials material.Store
	roles     roles.Store
}

// NewCoordinator wires the coordinator to its fact stores.
func NewCoordinator(events journal.Store, materials material.Store, roleDir roles.Store) *Coordinator {
	return &Coordinator{events: events, materials: materials, roles: roleDir}
}

// Load fetches the three fact sets concurrently and assembles the view.
// Reads are pure and side-effect free, so a failed load is safely retryable
// with the same (dealID, at).
func (c *Coordinator) Load(ctx context.Context, dealID id.DealID, at time.Time) (*View, error) {
	view := &View{DealID: dealID, At: at}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		events, err := c.events.ListByDeal(ctx, dealID, at)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load events")
		}
		// Stores return canonical order; re-sorting here keeps the invariant
		// independent of any one store implementation.
		journal.SortCanonical(events)
		view.Events = events
		return nil
	})

	g.Go(func() error {
		revisions, err := c.materials.ListByDeal(ctx, dealID, at)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load materials")
		}
		view.Materials = revisions
		return nil
	})

	g.Go(func() error {
		assignments, err := c.roles.ListByDeal(ctx, dealID, at)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load role assignments")
		}
		view.Assignments = assignments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return view, nil
}

// ApprovalEvents returns, in canonical order, the approval events addressed
// to the given action name.
func (v *View) ApprovalEvents(action string) []journal.Event {
	var out []journal.Event
	for _, event := range v.Events {
		if event.Type == journal.TypeApprovalGranted && event.Payload.Action == action {
			out = append(out, event)
		}
	}
	return out
}

// LastFiring returns the most recent event of the given type, if any.
func (v *View) LastFiring(typ journal.Type) (journal.Event, bool) {
	for i := len(v.Events) - 1; i >= 0; i-- {
		if v.Events[i].Type == typ {
			return v.Events[i], true
		}
	}
	return journal.Event{}, false
}

// LatestOverride returns the most recent well-formed override attestation for
// the given action. Attestations missing a reason are invalid and skipped.
func (v *View) LatestOverride(action string) (journal.Event, bool) {
	for i := len(v.Events) - 1; i >= 0; i-- {
		event := v.Events[i]
		if event.Type != journal.TypeOverrideAttested {
			continue
		}
		if event.Payload.Action != action || event.Payload.Reason == "" {
			continue
		}
		return event, true
	}
	return journal.Event{}, false
}

// HeldRoles collapses the assignments into each actor's role set as of At.
// Assignments dated after At are excluded; stores already filter, but the
// view enforces the bound itself.
func (v *View) HeldRoles() map[id.ActorID]map[roles.Role]struct{} {
	effective := make([]roles.Assignment, 0, len(v.Assignments))
	for _, a := range v.Assignments {
		if a.HeldAsOf(v.At) {
			effective = append(effective, a)
		}
	}
	return roles.RolesOf(effective)
}

// CurrentTier returns the maximum truth class observed for a material type.
func (v *View) CurrentTier(materialType string) (material.TruthClass, bool) {
	return material.CurrentTier(v.Materials, materialType)
}
