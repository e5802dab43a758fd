package decision

import (
	"dealgate/internal/policy"
	"dealgate/internal/timeline"
)

// EvaluateTruth runs the evidence sufficiency check for an action. For each
// required (materialType, tier) pair, the current tier is the maximum rank
// among instances visible as of T; a requirement is OK when that tier
// satisfies the required one.
func EvaluateTruth(view *timeline.View, action policy.Action) TruthOutcome {
	requirements := policy.TruthRequirementsFor(action)

	outcome := TruthOutcome{Satisfied: true}
	for _, req := range requirements {
		status := RequirementStatus{
			MaterialType:  req.MaterialType,
			RequiredTruth: req.RequiredTruth.String(),
		}
		current, found := view.CurrentTier(req.MaterialType)
		switch {
		case !found:
			status.State = RequirementMissing
		case !current.Satisfies(req.RequiredTruth):
			status.State = RequirementInsufficient
			status.CurrentTruth = current.String()
			status.currentTier = current
			status.hasCurrent = true
		default:
			status.State = RequirementOK
			status.CurrentTruth = current.String()
			status.currentTier = current
			status.hasCurrent = true
		}
		if status.State != RequirementOK {
			outcome.Satisfied = false
		}
		outcome.Requirements = append(outcome.Requirements, status)
	}
	return outcome
}
