package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgate/internal/journal"
	"dealgate/internal/material"
	"dealgate/internal/roles"
)

func TestActionEventRoundTrip(t *testing.T) {
	for typ, action := range actionsByEvent {
		got, ok := EventForAction(action)
		require.True(t, ok, "action %s has no event", action)
		assert.Equal(t, typ, got)
	}
}

func TestParseAction(t *testing.T) {
	action, err := ParseAction("APPROVE_DEAL")
	require.NoError(t, err)
	assert.Equal(t, ActionApproveDeal, action)

	_, err = ParseAction("LAUNCH_ROCKET")
	assert.Error(t, err)
}

func TestDefaultRulesCoverEveryAction(t *testing.T) {
	rules := DefaultAuthorityRules()
	for action := range eventsByAction {
		rule, ok := rules[action]
		require.True(t, ok, "no default rule for %s", action)
		assert.NotEmpty(t, rule.RolesAllowed)
		assert.GreaterOrEqual(t, rule.Threshold, 1)
	}
}

func TestGatedActionsHaveGatedEvents(t *testing.T) {
	for _, action := range GatedActions() {
		typ, ok := EventForAction(action)
		require.True(t, ok)
		assert.True(t, IsGated(typ), "event %s for gated action %s not marked gated", typ, action)
	}
	// Approval and override bookkeeping events are never themselves gated.
	assert.False(t, IsGated(journal.TypeApprovalGranted))
	assert.False(t, IsGated(journal.TypeOverrideAttested))
}

func TestTruthRequirements(t *testing.T) {
	reqs := TruthRequirementsFor(ActionApproveDeal)
	require.Len(t, reqs, 1)
	assert.Equal(t, "UnderwritingSummary", reqs[0].MaterialType)
	assert.Equal(t, material.TruthHuman, reqs[0].RequiredTruth)

	assert.Empty(t, TruthRequirementsFor(ActionOpenReview))
}

func TestAuthorityRuleAllows(t *testing.T) {
	rule := AuthorityRule{RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal}, Threshold: 2}

	assert.True(t, rule.Allows(map[roles.Role]struct{}{roles.RoleLegal: {}}))
	assert.False(t, rule.Allows(map[roles.Role]struct{}{roles.RoleLender: {}}))
	assert.False(t, rule.Allows(nil))
}
