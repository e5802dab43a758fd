// Package decision evaluates whether a candidate action on a deal may
// proceed. The two gates (authority quorum and material truth) are
// independent pure functions over an as-of view; the override window is
// consulted only when the truth gate fails. Everything here is side-effect
// free: a Decision is ephemeral and never persisted.
package decision

import (
	"time"

	"dealgate/internal/lifecycle"
	"dealgate/internal/material"
	"dealgate/internal/roles"
	id "dealgate/pkg/domain"
)

// Status is the decision outcome.
type Status string

const (
	// StatusAllowed means the action may proceed.
	StatusAllowed Status = "ALLOWED"
	// StatusBlocked means the action may not proceed; Reasons explain why.
	StatusBlocked Status = "BLOCKED"
)

// ReasonCode classifies one blocking reason.
type ReasonCode string

const (
	// ReasonAuthority marks a gate with no qualifying approvals at all.
	ReasonAuthority ReasonCode = "AUTHORITY"
	// ReasonApprovalThreshold marks a quorum that is underway but short.
	ReasonApprovalThreshold ReasonCode = "APPROVAL_THRESHOLD"
	// ReasonMissingMaterial marks a required material with no instance.
	ReasonMissingMaterial ReasonCode = "MISSING_MATERIAL"
	// ReasonInsufficientTruth marks a material present below the required tier.
	ReasonInsufficientTruth ReasonCode = "INSUFFICIENT_TRUTH"
)

// Reason is one typed blocking reason with its annotations.
type Reason struct {
	Code ReasonCode `json:"code"`

	// Quorum annotations, set for AUTHORITY and APPROVAL_THRESHOLD.
	Approvals int `json:"approvals,omitempty"`
	Threshold int `json:"threshold,omitempty"`

	// Material annotations, set for MISSING_MATERIAL and INSUFFICIENT_TRUTH.
	MaterialType  string `json:"material_type,omitempty"`
	RequiredTruth string `json:"required_truth,omitempty"`
	CurrentTruth  string `json:"current_truth,omitempty"`
}

// Remediation tells a blocked caller who can unblock the action.
type Remediation struct {
	// SatisfyRoles can directly satisfy the action's quorum.
	SatisfyRoles []roles.Role `json:"satisfy_roles"`
	// OverrideRoles can attest an evidentiary override.
	OverrideRoles []roles.Role `json:"override_roles"`
}

// Decision is the composed outcome. Never persisted; recomputable at will
// from the same as-of view.
type Decision struct {
	Status  Status   `json:"status"`
	Reasons []Reason `json:"reasons,omitempty"`
	// Remediation is populated only on BLOCKED.
	Remediation *Remediation `json:"remediation,omitempty"`
	// OverrideApplied notes the attestation that let a failed truth gate
	// pass, when that happened.
	OverrideApplied *OverrideOutcome `json:"override_applied,omitempty"`
}

// Allowed reports whether the decision permits the action.
func (d Decision) Allowed() bool { return d.Status == StatusAllowed }

// AuthorityOutcome is the quorum check result.
type AuthorityOutcome struct {
	Satisfied bool `json:"satisfied"`
	// Approvals counts qualifying approval events, not distinct actors.
	Approvals    int          `json:"approvals"`
	Threshold    int          `json:"threshold"`
	RolesAllowed []roles.Role `json:"roles_allowed"`
}

// RequirementState classifies one material requirement.
type RequirementState string

const (
	RequirementOK           RequirementState = "OK"
	RequirementMissing      RequirementState = "MISSING"
	RequirementInsufficient RequirementState = "INSUFFICIENT"
)

// RequirementStatus is the evaluated state of one material requirement.
type RequirementStatus struct {
	MaterialType  string           `json:"material_type"`
	RequiredTruth string           `json:"required_truth"`
	CurrentTruth  string           `json:"current_truth,omitempty"`
	State         RequirementState `json:"state"`

	currentTier material.TruthClass
	hasCurrent  bool
}

// TruthOutcome is the evidence sufficiency check result.
type TruthOutcome struct {
	Satisfied    bool                `json:"satisfied"`
	Requirements []RequirementStatus `json:"requirements"`
}

// OverrideOutcome is the override window check result.
type OverrideOutcome struct {
	Valid      bool       `json:"valid"`
	AttestedAt time.Time  `json:"attested_at,omitempty"`
	AttestedBy id.ActorID `json:"attested_by,omitempty"`
	Reason     string     `json:"reason,omitempty"`
}

// Explain is the full audit document for one evaluated action: the decision
// plus the exact inputs it was computed from.
type Explain struct {
	DealID     id.DealID            `json:"deal_id"`
	Action     string               `json:"action"`
	At         time.Time            `json:"at"`
	Decision   Decision             `json:"decision"`
	DealState  lifecycle.Projection `json:"deal_state"`
	Authority  AuthorityOutcome     `json:"authority"`
	Truth      TruthOutcome         `json:"truth"`
	Override   *OverrideOutcome     `json:"override,omitempty"`
	ApprovalBy []ApprovalInput      `json:"approvals"`
}

// ApprovalInput records one approval event that fed the quorum count.
type ApprovalInput struct {
	EventID   id.EventID `json:"event_id"`
	ActorID   id.ActorID `json:"actor_id"`
	Qualified bool       `json:"qualified"`
	CreatedAt time.Time  `json:"created_at"`
}
