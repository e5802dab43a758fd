package decision

import (
	"dealgate/internal/policy"
)

// Compose merges the gate outcomes into a single Decision. Reason order is
// stable: quorum reasons first, then material reasons in requirement table
// order, so two evaluations of the same inputs render identical documents.
func Compose(authority AuthorityOutcome, truth TruthOutcome, override OverrideOutcome, rules map[policy.Action]policy.AuthorityRule, action policy.Action) Decision {
	var reasons []Reason

	if !authority.Satisfied {
		code := ReasonApprovalThreshold
		if authority.Approvals == 0 {
			code = ReasonAuthority
		}
		reasons = append(reasons, Reason{
			Code:      code,
			Approvals: authority.Approvals,
			Threshold: authority.Threshold,
		})
	}

	truthPasses := truth.Satisfied
	var overrideApplied *OverrideOutcome
	if !truthPasses && override.Valid {
		truthPasses = true
		applied := override
		overrideApplied = &applied
	}
	if !truthPasses {
		for _, req := range truth.Requirements {
			switch req.State {
			case RequirementMissing:
				reasons = append(reasons, Reason{
					Code:          ReasonMissingMaterial,
					MaterialType:  req.MaterialType,
					RequiredTruth: req.RequiredTruth,
				})
			case RequirementInsufficient:
				reasons = append(reasons, Reason{
					Code:          ReasonInsufficientTruth,
					MaterialType:  req.MaterialType,
					RequiredTruth: req.RequiredTruth,
					CurrentTruth:  req.CurrentTruth,
				})
			}
		}
	}

	if len(reasons) == 0 {
		return Decision{Status: StatusAllowed, OverrideApplied: overrideApplied}
	}

	return Decision{
		Status:          StatusBlocked,
		Reasons:         reasons,
		Remediation:     remediationFor(rules, action),
		OverrideApplied: overrideApplied,
	}
}

// remediationFor names the role sets that can satisfy or override the action.
func remediationFor(rules map[policy.Action]policy.AuthorityRule, action policy.Action) *Remediation {
	remediation := &Remediation{}
	if rule, ok := rules[action]; ok {
		remediation.SatisfyRoles = rule.RolesAllowed
	}
	if rule, ok := rules[policy.ActionOverride]; ok {
		remediation.OverrideRoles = rule.RolesAllowed
	}
	return remediation
}
