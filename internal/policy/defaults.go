package policy

import (
	"dealgate/internal/material"
	"dealgate/internal/roles"
)

// AuthorityRule is the quorum requirement for one action on one deal.
// Threshold counts qualifying approval events, not distinct actors.
type AuthorityRule struct {
	RolesAllowed []roles.Role
	Threshold    int
}

// Allows reports whether any of the actor's held roles qualifies under the
// rule.
func (r AuthorityRule) Allows(held map[roles.Role]struct{}) bool {
	for _, role := range r.RolesAllowed {
		if _, ok := held[role]; ok {
			return true
		}
	}
	return false
}

// DefaultAuthorityRules is the policy table seeded into every new deal. The
// seeded copy is the deal's own: later policy changes never rewrite existing
// deals.
func DefaultAuthorityRules() map[Action]AuthorityRule {
	return map[Action]AuthorityRule{
		ActionOpenReview:         {RolesAllowed: []roles.Role{roles.RoleGP}, Threshold: 1},
		ActionApproveDeal:        {RolesAllowed: []roles.Role{roles.RoleGP}, Threshold: 1},
		ActionAttestReadyToClose: {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal}, Threshold: 2},
		ActionFinalizeClosing:    {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLender, roles.RoleEscrow}, Threshold: 3},
		ActionActivateOperations: {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleOperator}, Threshold: 2},
		ActionDeclareChange:      {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleOperator}, Threshold: 1},
		ActionReconcileChange:    {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleOperator}, Threshold: 1},
		ActionDisputeData:        {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal, roles.RoleLender, roles.RoleEscrow, roles.RoleOperator}, Threshold: 1},
		ActionDeclareDistress:    {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLender}, Threshold: 1},
		ActionResolveDistress:    {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLender}, Threshold: 2},
		ActionImposeFreeze:       {RolesAllowed: []roles.Role{roles.RoleLegal}, Threshold: 1},
		ActionLiftFreeze:         {RolesAllowed: []roles.Role{roles.RoleLegal}, Threshold: 1},
		ActionFinalizeExit:       {RolesAllowed: []roles.Role{roles.RoleGP}, Threshold: 1},
		ActionTerminateDeal:      {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal}, Threshold: 1},
		ActionGrantApproval:      {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal, roles.RoleLender, roles.RoleEscrow, roles.RoleOperator}, Threshold: 1},
		ActionOverride:           {RolesAllowed: []roles.Role{roles.RoleGP, roles.RoleLegal}, Threshold: 1},
	}
}

// TruthRequirement names a material type and the minimum evidentiary tier an
// action demands of it.
type TruthRequirement struct {
	MaterialType  string
	RequiredTruth material.TruthClass
}

// truthRequirements is the fixed action to evidence requirement table.
// Actions absent here carry no material requirements.
var truthRequirements = map[Action][]TruthRequirement{
	ActionApproveDeal: {
		{MaterialType: "UnderwritingSummary", RequiredTruth: material.TruthHuman},
	},
	ActionAttestReadyToClose: {
		{MaterialType: "FinalUnderwriting", RequiredTruth: material.TruthDoc},
		{MaterialType: "SourcesAndUses", RequiredTruth: material.TruthDoc},
	},
	ActionFinalizeClosing: {
		{MaterialType: "WireConfirmation", RequiredTruth: material.TruthDoc},
		{MaterialType: "EntityFormationDocs", RequiredTruth: material.TruthDoc},
	},
	ActionActivateOperations: {
		{MaterialType: "PropertyManagementAgreement", RequiredTruth: material.TruthDoc},
	},
}

// TruthRequirementsFor returns the material requirements of an action, in
// declaration order. The returned slice is shared; callers must not mutate it.
func TruthRequirementsFor(action Action) []TruthRequirement {
	return truthRequirements[action]
}
