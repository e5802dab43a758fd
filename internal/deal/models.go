// Package deal is the orchestration hub: it owns the deal registry, the
// per-deal append serialization, the projection cache, and the operations the
// transport exposes. All gate semantics live in the decision package; this
// package only sequences loads, evaluations, and appends.
package deal

import (
	"time"

	"dealgate/internal/decision"
	"dealgate/internal/journal"
	"dealgate/internal/lifecycle"
	"dealgate/internal/policy"
	id "dealgate/pkg/domain"
)

// Deal is the registry record for one deal. Rules are seeded from the default
// policy table at creation and are fixed for the deal's lifetime.
type Deal struct {
	ID        id.DealID                              `json:"id"`
	Name      string                                 `json:"name"`
	Rules     map[policy.Action]policy.AuthorityRule `json:"rules"`
	CreatedAt time.Time                              `json:"created_at"`
}

// AppendResult is the outcome of one evaluate-and-append. When the decision
// blocks, Event is nil and nothing was written.
type AppendResult struct {
	Explain *decision.Explain `json:"explain"`
	Event   *journal.Event    `json:"event,omitempty"`
}

// Appended reports whether the event was written.
func (r AppendResult) Appended() bool { return r.Event != nil }

// GateStatus is the snapshot's standing view of one gated action: quorum
// progress and material requirement states, without rendering a decision.
type GateStatus struct {
	Action       string                       `json:"action"`
	Approvals    int                          `json:"approvals"`
	Threshold    int                          `json:"threshold"`
	Requirements []decision.RequirementStatus `json:"requirements,omitempty"`
	OverrideOpen bool                         `json:"override_open"`
}

// TimelineEntry is one journal event rendered for the snapshot and timeline
// listings.
type TimelineEntry struct {
	EventID   id.EventID      `json:"event_id"`
	Type      journal.Type    `json:"type"`
	ActorID   id.ActorID      `json:"actor_id"`
	Payload   journal.Payload `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// Snapshot is the full as-of-T document for a deal: its projected state plus
// the standing of every gated action. Recomputable from history at will.
type Snapshot struct {
	DealID     id.DealID            `json:"deal_id"`
	Name       string               `json:"name"`
	At         time.Time            `json:"at"`
	Projection lifecycle.Projection `json:"projection"`
	Gates      []GateStatus         `json:"gates"`
	Timeline   []TimelineEntry      `json:"timeline"`
}
