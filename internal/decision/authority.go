package decision

import (
	"dealgate/internal/policy"
	"dealgate/internal/timeline"
)

// EvaluateAuthority runs the quorum check for an action: among approval
// events addressed to it, count those whose actor held at least one allowed
// role as of the view's T, and compare against the rule's threshold.
//
// Counting is per approval event, not per distinct actor: one actor approving
// twice contributes two units. That mirrors the seeded policy as given;
// distinct-actor deduplication is a policy clarification, not an evaluator
// concern.
func EvaluateAuthority(view *timeline.View, action policy.Action, rule policy.AuthorityRule) (AuthorityOutcome, []ApprovalInput) {
	held := view.HeldRoles()

	outcome := AuthorityOutcome{
		Threshold:    rule.Threshold,
		RolesAllowed: rule.RolesAllowed,
	}

	var inputs []ApprovalInput
	for _, event := range view.ApprovalEvents(string(action)) {
		qualified := rule.Allows(held[event.ActorID])
		if qualified {
			outcome.Approvals++
		}
		inputs = append(inputs, ApprovalInput{
			EventID:   event.ID,
			ActorID:   event.ActorID,
			Qualified: qualified,
			CreatedAt: event.CreatedAt,
		})
	}

	outcome.Satisfied = outcome.Approvals >= rule.Threshold
	return outcome, inputs
}
