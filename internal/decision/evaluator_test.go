package decision

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgate/internal/journal"
	"dealgate/internal/lifecycle"
	"dealgate/internal/material"
	"dealgate/internal/policy"
	"dealgate/internal/roles"
	"dealgate/internal/timeline"
	id "dealgate/pkg/domain"
)

// viewBuilder assembles as-of views directly, without stores, so gate tests
// stay pure and fast.
type viewBuilder struct {
	dealID id.DealID
	at     time.Time
	view   *timeline.View
}

func newView(at time.Time) *viewBuilder {
	dealID := id.NewDealID()
	return &viewBuilder{
		dealID: dealID,
		at:     at,
		view:   &timeline.View{DealID: dealID, At: at},
	}
}

func (b *viewBuilder) event(typ journal.Type, actorID id.ActorID, payload journal.Payload, at time.Time) *viewBuilder {
	b.view.Events = append(b.view.Events, journal.Event{
		ID:        id.NewEventID(),
		DealID:    b.dealID,
		Type:      typ,
		ActorID:   actorID,
		Payload:   payload,
		CreatedAt: at,
	})
	journal.SortCanonical(b.view.Events)
	return b
}

func (b *viewBuilder) approval(actorID id.ActorID, action policy.Action, at time.Time) *viewBuilder {
	return b.event(journal.TypeApprovalGranted, actorID, journal.Payload{Action: string(action)}, at)
}

func (b *viewBuilder) role(actorID id.ActorID, role roles.Role, at time.Time) *viewBuilder {
	b.view.Assignments = append(b.view.Assignments, roles.Assignment{
		DealID:     b.dealID,
		ActorID:    actorID,
		Role:       role,
		AssignedAt: at,
	})
	return b
}

func (b *viewBuilder) material(matType string, tier material.TruthClass, at time.Time) *viewBuilder {
	b.view.Materials = append(b.view.Materials, material.Revision{
		ID:         id.NewMaterialID(),
		DealID:     b.dealID,
		Type:       matType,
		TruthClass: tier,
		CreatedAt:  at,
	})
	return b
}

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestEvaluateAction_QuorumBoundary(t *testing.T) {
	rules := policy.DefaultAuthorityRules()
	gp := id.NewActorID()
	legal := id.NewActorID()

	t.Run("threshold met exactly is allowed", func(t *testing.T) {
		b := newView(base.Add(time.Hour)).
			event(journal.TypeReviewOpened, gp, journal.Payload{}, base).
			role(gp, roles.RoleGP, base).
			role(legal, roles.RoleLegal, base).
			material("FinalUnderwriting", material.TruthDoc, base).
			material("SourcesAndUses", material.TruthDoc, base).
			approval(gp, policy.ActionAttestReadyToClose, base.Add(time.Minute)).
			approval(legal, policy.ActionAttestReadyToClose, base.Add(2*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionAttestReadyToClose)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
		assert.Empty(t, explain.Decision.Reasons)
		assert.Equal(t, 2, explain.Authority.Approvals)
	})

	t.Run("one short of threshold blocks with APPROVAL_THRESHOLD", func(t *testing.T) {
		b := newView(base.Add(time.Hour)).
			role(gp, roles.RoleGP, base).
			material("FinalUnderwriting", material.TruthDoc, base).
			material("SourcesAndUses", material.TruthDoc, base).
			approval(gp, policy.ActionAttestReadyToClose, base.Add(time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionAttestReadyToClose)
		require.NoError(t, err)
		require.Equal(t, StatusBlocked, explain.Decision.Status)
		require.Len(t, explain.Decision.Reasons, 1)
		reason := explain.Decision.Reasons[0]
		assert.Equal(t, ReasonApprovalThreshold, reason.Code)
		assert.Equal(t, 1, reason.Approvals)
		assert.Equal(t, 2, reason.Threshold)
	})

	t.Run("no qualifying approvals blocks with AUTHORITY", func(t *testing.T) {
		outsider := id.NewActorID()
		// An approval from an actor holding no allowed role does not count.
		b := newView(base.Add(time.Hour)).
			role(outsider, roles.RoleOperator, base).
			material("UnderwritingSummary", material.TruthHuman, base).
			approval(outsider, policy.ActionApproveDeal, base.Add(time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		require.Equal(t, StatusBlocked, explain.Decision.Status)
		require.Len(t, explain.Decision.Reasons, 1)
		assert.Equal(t, ReasonAuthority, explain.Decision.Reasons[0].Code)
		require.Len(t, explain.ApprovalBy, 1)
		assert.False(t, explain.ApprovalBy[0].Qualified)
	})

	t.Run("same actor approving twice counts twice", func(t *testing.T) {
		// Threshold counting is per approval event per the seeded policy.
		b := newView(base.Add(time.Hour)).
			role(gp, roles.RoleGP, base).
			material("FinalUnderwriting", material.TruthDoc, base).
			material("SourcesAndUses", material.TruthDoc, base).
			approval(gp, policy.ActionAttestReadyToClose, base.Add(time.Minute)).
			approval(gp, policy.ActionAttestReadyToClose, base.Add(2*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionAttestReadyToClose)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
		assert.Equal(t, 2, explain.Authority.Approvals)
	})

	t.Run("roles assigned after T do not qualify", func(t *testing.T) {
		lateGP := id.NewActorID()
		b := newView(base.Add(time.Hour)).
			role(lateGP, roles.RoleGP, base.Add(2*time.Hour)).
			material("UnderwritingSummary", material.TruthHuman, base).
			approval(lateGP, policy.ActionApproveDeal, base.Add(time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, explain.Decision.Status)
		assert.Equal(t, 0, explain.Authority.Approvals)
	})
}

func TestEvaluateAction_TruthGate(t *testing.T) {
	rules := policy.DefaultAuthorityRules()
	gp := id.NewActorID()

	approveReady := func(b *viewBuilder) *viewBuilder {
		return b.role(gp, roles.RoleGP, base).
			approval(gp, policy.ActionApproveDeal, base.Add(time.Minute))
	}

	t.Run("missing material blocks", func(t *testing.T) {
		b := approveReady(newView(base.Add(time.Hour)))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		require.Equal(t, StatusBlocked, explain.Decision.Status)
		require.Len(t, explain.Decision.Reasons, 1)
		reason := explain.Decision.Reasons[0]
		assert.Equal(t, ReasonMissingMaterial, reason.Code)
		assert.Equal(t, "UnderwritingSummary", reason.MaterialType)
		assert.Equal(t, "HUMAN", reason.RequiredTruth)
	})

	t.Run("insufficient tier blocks with annotations", func(t *testing.T) {
		b := approveReady(newView(base.Add(time.Hour))).
			material("UnderwritingSummary", material.TruthAI, base)

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		require.Equal(t, StatusBlocked, explain.Decision.Status)
		reason := explain.Decision.Reasons[0]
		assert.Equal(t, ReasonInsufficientTruth, reason.Code)
		assert.Equal(t, "AI", reason.CurrentTruth)
		assert.Equal(t, "HUMAN", reason.RequiredTruth)
	})

	t.Run("DOC satisfies a HUMAN requirement", func(t *testing.T) {
		b := approveReady(newView(base.Add(time.Hour))).
			material("UnderwritingSummary", material.TruthDoc, base)

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
	})

	t.Run("remediation names satisfy and override role sets", func(t *testing.T) {
		b := approveReady(newView(base.Add(time.Hour)))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		require.NotNil(t, explain.Decision.Remediation)
		assert.Equal(t, rules[policy.ActionApproveDeal].RolesAllowed, explain.Decision.Remediation.SatisfyRoles)
		assert.Equal(t, rules[policy.ActionOverride].RolesAllowed, explain.Decision.Remediation.OverrideRoles)
	})

	t.Run("monotonic tier: later low revision does not downgrade", func(t *testing.T) {
		b := approveReady(newView(base.Add(time.Hour))).
			material("UnderwritingSummary", material.TruthHuman, base).
			material("UnderwritingSummary", material.TruthAI, base.Add(30*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
	})
}

func TestEvaluateAction_OverrideWindow(t *testing.T) {
	rules := policy.DefaultAuthorityRules()
	gp := id.NewActorID()
	legal := id.NewActorID()

	t.Run("valid override lets missing material pass", func(t *testing.T) {
		b := newView(base.Add(time.Hour)).
			role(gp, roles.RoleGP, base).
			approval(gp, policy.ActionApproveDeal, base.Add(time.Minute)).
			event(journal.TypeOverrideAttested, legal, journal.Payload{
				Action: string(policy.ActionApproveDeal),
				Reason: "underwriting summary pending counsel upload",
			}, base.Add(2*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
		require.NotNil(t, explain.Decision.OverrideApplied)
		assert.Equal(t, legal, explain.Decision.OverrideApplied.AttestedBy)
	})

	t.Run("attestation without reason is ignored", func(t *testing.T) {
		b := newView(base.Add(time.Hour)).
			role(gp, roles.RoleGP, base).
			approval(gp, policy.ActionApproveDeal, base.Add(time.Minute)).
			event(journal.TypeOverrideAttested, legal, journal.Payload{
				Action: string(policy.ActionApproveDeal),
			}, base.Add(2*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, explain.Decision.Status)
	})

	t.Run("override is one-shot: consumed by the gate firing", func(t *testing.T) {
		// Attestation, then the gate fires once. A second identical attempt
		// without a fresh attestation must be blocked: the attestation is no
		// longer strictly after the last firing.
		b := newView(base.Add(time.Hour)).
			role(gp, roles.RoleGP, base).
			approval(gp, policy.ActionApproveDeal, base.Add(time.Minute)).
			event(journal.TypeOverrideAttested, legal, journal.Payload{
				Action: string(policy.ActionApproveDeal),
				Reason: "evidence in transit",
			}, base.Add(2*time.Minute)).
			event(journal.TypeDealApproved, gp, journal.Payload{}, base.Add(3*time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusBlocked, explain.Decision.Status)

		// A fresh attestation after the firing re-opens the window.
		b.event(journal.TypeOverrideAttested, legal, journal.Payload{
			Action: string(policy.ActionApproveDeal),
			Reason: "still in transit",
		}, base.Add(4*time.Minute))
		explain, err = EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, StatusAllowed, explain.Decision.Status)
	})

	t.Run("override never fills an authority gap", func(t *testing.T) {
		b := newView(base.Add(time.Hour)).
			event(journal.TypeOverrideAttested, legal, journal.Payload{
				Action: string(policy.ActionApproveDeal),
				Reason: "no approvals yet",
			}, base.Add(time.Minute))

		explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		require.Equal(t, StatusBlocked, explain.Decision.Status)
		assert.Equal(t, ReasonAuthority, explain.Decision.Reasons[0].Code)
	})
}

func TestEvaluateAction_NonGated(t *testing.T) {
	rules := policy.DefaultAuthorityRules()

	explain, err := EvaluateAction(newView(base).view, rules, policy.ActionOpenReview)
	require.NoError(t, err)
	assert.Equal(t, StatusAllowed, explain.Decision.Status)
	assert.Empty(t, explain.Decision.Reasons)
}

func TestEvaluateAction_Deterministic(t *testing.T) {
	rules := policy.DefaultAuthorityRules()
	gp := id.NewActorID()
	b := newView(base.Add(time.Hour)).
		role(gp, roles.RoleGP, base).
		approval(gp, policy.ActionApproveDeal, base.Add(time.Minute)).
		material("UnderwritingSummary", material.TruthAI, base)

	first, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		again, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEvaluateAction_ProjectionInExplain(t *testing.T) {
	rules := policy.DefaultAuthorityRules()
	gp := id.NewActorID()
	b := newView(base.Add(time.Hour)).
		event(journal.TypeReviewOpened, gp, journal.Payload{}, base)

	explain, err := EvaluateAction(b.view, rules, policy.ActionApproveDeal)
	require.NoError(t, err)
	assert.Equal(t, lifecycle.StateUnderReview, explain.DealState.State)
	assert.Equal(t, lifecycle.SM0, explain.DealState.StressMode)
}
