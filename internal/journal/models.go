// Package journal defines the append-only event journal for deals.
//
// Events are immutable facts. The journal is the only source of truth for a
// deal: every projection, gate decision, and audit export must be recoverable
// by refolding it. The canonical total order is (CreatedAt, ID) ascending and
// never changes once an event is appended.
package journal

import (
	"sort"
	"time"

	id "dealgate/pkg/domain"
)

// Type identifies the kind of event.
type Type string

// Lifecycle events.
const (
	// TypeReviewOpened moves a deal from draft into review.
	TypeReviewOpened Type = "review_opened"
	// TypeDealApproved records the quorum-gated approval of a deal.
	TypeDealApproved Type = "deal_approved"
	// TypeClosingReadinessAttested records attestation that closing may begin.
	TypeClosingReadinessAttested Type = "closing_readiness_attested"
	// TypeClosingFinalized records the close of the deal.
	TypeClosingFinalized Type = "closing_finalized"
	// TypeOperationsActivated records the start of operations.
	TypeOperationsActivated Type = "operations_activated"
	// TypeMaterialChangeDetected records a material change during operations.
	TypeMaterialChangeDetected Type = "material_change_detected"
	// TypeChangeReconciled records reconciliation of a material change.
	TypeChangeReconciled Type = "change_reconciled"
)

// Stress and exception events.
const (
	// TypeDataDisputed records a dispute over deal data.
	TypeDataDisputed Type = "data_disputed"
	// TypeDistressDeclared records declared distress.
	TypeDistressDeclared Type = "distress_declared"
	// TypeDistressResolved records resolution of distress.
	TypeDistressResolved Type = "distress_resolved"
	// TypeFreezeImposed records an administrative freeze.
	TypeFreezeImposed Type = "freeze_imposed"
	// TypeFreezeLifted records the lifting of a freeze.
	TypeFreezeLifted Type = "freeze_lifted"
	// TypeExitFinalized records a forced exit. Terminal.
	TypeExitFinalized Type = "exit_finalized"
	// TypeDealTerminated records termination. Terminal.
	TypeDealTerminated Type = "deal_terminated"
)

// Reserved events consumed by the gates rather than the projector.
const (
	// TypeApprovalGranted records one unit of approval toward a gated action.
	// The payload names the action being approved.
	TypeApprovalGranted Type = "approval_granted"
	// TypeOverrideAttested records a documented evidentiary override. The
	// payload carries the target action and a reason; an attestation without
	// both is invalid.
	TypeOverrideAttested Type = "override_attested"
)

// Payload carries event-specific data. Fields are optional per type: approval
// and override events name an action, overrides carry a reason, anything may
// carry a free-form note.
type Payload struct {
	// Action names the canonical action an approval or override targets.
	Action string `json:"action,omitempty"`
	// Reason documents why an override was attested.
	Reason string `json:"reason,omitempty"`
	// Note is free-form caller commentary. Never interpreted.
	Note string `json:"note,omitempty"`
}

// Event is one immutable fact about a deal. Never mutated or deleted.
type Event struct {
	ID           id.EventID
	DealID       id.DealID
	Type         Type
	ActorID      id.ActorID
	Payload      Payload
	EvidenceRefs []id.ArtifactID
	CreatedAt    time.Time
}

// Less reports whether e precedes other in the canonical total order
// (CreatedAt, ID) ascending. The ID tiebreak makes the order total even when
// two events share a timestamp.
func (e Event) Less(other Event) bool {
	if !e.CreatedAt.Equal(other.CreatedAt) {
		return e.CreatedAt.Before(other.CreatedAt)
	}
	return e.ID.String() < other.ID.String()
}

// SortCanonical sorts events in place into the canonical total order.
func SortCanonical(events []Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Less(events[j])
	})
}
