package decision

import (
	"dealgate/internal/policy"
	"dealgate/internal/timeline"
)

// EvaluateOverride checks whether a prior override attestation authorizes one
// firing of the action's gate despite unmet truth requirements.
//
// The window is a derived temporal comparison, not a consumed flag: the most
// recent well-formed attestation is valid iff it is strictly after the last
// firing of the gate's event type as of T (or unconditionally when the gate
// has never fired). Each firing therefore consumes the window, and replaying
// history at any T reproduces the same answer.
func EvaluateOverride(view *timeline.View, action policy.Action) OverrideOutcome {
	attestation, ok := view.LatestOverride(string(action))
	if !ok {
		return OverrideOutcome{}
	}

	outcome := OverrideOutcome{
		AttestedAt: attestation.CreatedAt,
		AttestedBy: attestation.ActorID,
		Reason:     attestation.Payload.Reason,
	}

	gateEvent, ok := policy.EventForAction(action)
	if !ok {
		return outcome
	}

	lastFiring, fired := view.LastFiring(gateEvent)
	if !fired {
		outcome.Valid = true
		return outcome
	}
	outcome.Valid = attestation.CreatedAt.After(lastFiring.CreatedAt)
	return outcome
}
