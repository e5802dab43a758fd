package decision

import (
	"dealgate/internal/journal"
	"dealgate/internal/lifecycle"
	"dealgate/internal/policy"
	"dealgate/internal/timeline"
	dErrors "dealgate/pkg/domain-errors"
)

// EvaluateAction runs the full pipeline for one candidate action against an
// as-of view and renders the Explain document. Pure: same view, same output.
//
// Non-gated actions bypass the evaluators entirely; their Explain reports
// ALLOWED with no gate outcomes, matching what append-event would do.
func EvaluateAction(view *timeline.View, rules map[policy.Action]policy.AuthorityRule, action policy.Action) (*Explain, error) {
	eventType, ok := policy.EventForAction(action)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "unknown action %q", action)
	}

	explain := &Explain{
		DealID:    view.DealID,
		Action:    string(action),
		At:        view.At,
		DealState: lifecycle.Project(lifecycle.Initial(), view.Events),
	}

	if !policy.IsGated(eventType) {
		explain.Decision = Decision{Status: StatusAllowed}
		return explain, nil
	}

	rule, ok := rules[action]
	if !ok {
		// Every deal is seeded with a rule per action at creation; a gated
		// action without one means corrupted deal state.
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "no authority rule for action %q", action)
	}

	authority, approvals := EvaluateAuthority(view, action, rule)
	truth := EvaluateTruth(view, action)

	// The override window is consulted only when the truth gate fails.
	var override OverrideOutcome
	if !truth.Satisfied {
		override = EvaluateOverride(view, action)
		explain.Override = &override
	}

	explain.Authority = authority
	explain.Truth = truth
	explain.ApprovalBy = approvals
	explain.Decision = Compose(authority, truth, override, rules, action)
	return explain, nil
}

// EvaluateEvent resolves an event type to its action and evaluates it.
func EvaluateEvent(view *timeline.View, rules map[policy.Action]policy.AuthorityRule, typ journal.Type) (*Explain, error) {
	action, ok := policy.ActionForEvent(typ)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", typ)
	}
	return EvaluateAction(view, rules, action)
}
