// Package policy holds the fixed action catalog and the default gating rules
// seeded into every new deal. Dispatch is table data, not control flow:
// adding an action means adding rows here.
package policy

import (
	"dealgate/internal/journal"
	dErrors "dealgate/pkg/domain-errors"
)

// Action is a canonical action name. Every appendable event type maps to
// exactly one action.
type Action string

const (
	ActionOpenReview         Action = "OPEN_REVIEW"
	ActionApproveDeal        Action = "APPROVE_DEAL"
	ActionAttestReadyToClose Action = "ATTEST_READY_TO_CLOSE"
	ActionFinalizeClosing    Action = "FINALIZE_CLOSING"
	ActionActivateOperations Action = "ACTIVATE_OPERATIONS"
	ActionDeclareChange      Action = "DECLARE_CHANGE"
	ActionReconcileChange    Action = "RECONCILE_CHANGE"
	ActionDisputeData        Action = "DISPUTE_DATA"
	ActionDeclareDistress    Action = "DECLARE_DISTRESS"
	ActionResolveDistress    Action = "RESOLVE_DISTRESS"
	ActionImposeFreeze       Action = "IMPOSE_FREEZE"
	ActionLiftFreeze         Action = "LIFT_FREEZE"
	ActionFinalizeExit       Action = "FINALIZE_EXIT"
	ActionTerminateDeal      Action = "TERMINATE_DEAL"
	ActionGrantApproval      Action = "GRANT_APPROVAL"
	ActionOverride           Action = "OVERRIDE"
)

// actionsByEvent is the static event-type to action lookup.
var actionsByEvent = map[journal.Type]Action{
	journal.TypeReviewOpened:             ActionOpenReview,
	journal.TypeDealApproved:             ActionApproveDeal,
	journal.TypeClosingReadinessAttested: ActionAttestReadyToClose,
	journal.TypeClosingFinalized:         ActionFinalizeClosing,
	journal.TypeOperationsActivated:      ActionActivateOperations,
	journal.TypeMaterialChangeDetected:   ActionDeclareChange,
	journal.TypeChangeReconciled:         ActionReconcileChange,
	journal.TypeDataDisputed:             ActionDisputeData,
	journal.TypeDistressDeclared:         ActionDeclareDistress,
	journal.TypeDistressResolved:         ActionResolveDistress,
	journal.TypeFreezeImposed:            ActionImposeFreeze,
	journal.TypeFreezeLifted:             ActionLiftFreeze,
	journal.TypeExitFinalized:            ActionFinalizeExit,
	journal.TypeDealTerminated:           ActionTerminateDeal,
	journal.TypeApprovalGranted:          ActionGrantApproval,
	journal.TypeOverrideAttested:         ActionOverride,
}

// eventsByAction is the reverse lookup, derived once at init.
var eventsByAction = func() map[Action]journal.Type {
	m := make(map[Action]journal.Type, len(actionsByEvent))
	for typ, action := range actionsByEvent {
		m[action] = typ
	}
	return m
}()

// ActionForEvent resolves the canonical action of an event type.
func ActionForEvent(typ journal.Type) (Action, bool) {
	action, ok := actionsByEvent[typ]
	return action, ok
}

// EventForAction resolves the event type whose firing represents an action.
func EventForAction(action Action) (journal.Type, bool) {
	typ, ok := eventsByAction[action]
	return typ, ok
}

// ParseAction validates a raw action name.
func ParseAction(raw string) (Action, error) {
	action := Action(raw)
	if _, ok := eventsByAction[action]; !ok {
		return "", dErrors.Newf(dErrors.CodeNotFound, "unknown action %q", raw)
	}
	return action, nil
}

// gatedEvents is the set of event types that advance past a quorum point and
// therefore invoke the authority and truth gates before append.
var gatedEvents = map[journal.Type]struct{}{
	journal.TypeDealApproved:             {},
	journal.TypeClosingReadinessAttested: {},
	journal.TypeClosingFinalized:         {},
	journal.TypeOperationsActivated:      {},
	journal.TypeDistressResolved:         {},
}

// IsGated reports whether appending this event type requires passing the
// gates.
func IsGated(typ journal.Type) bool {
	_, ok := gatedEvents[typ]
	return ok
}

// gatedActions lists the gated actions in lifecycle order. Snapshot rendering
// iterates this so documents are byte-stable across runs.
var gatedActions = []Action{
	ActionApproveDeal,
	ActionAttestReadyToClose,
	ActionFinalizeClosing,
	ActionActivateOperations,
	ActionResolveDistress,
}

// GatedActions returns the gated actions in lifecycle order. The returned
// slice is shared; callers must not mutate it.
func GatedActions() []Action {
	return gatedActions
}
