// Package lifecycle projects a deal's event journal into its current state.
//
// Project is a pure fold: it never rejects an event (preconditions are
// enforced by the gates before anything is appended) and it is deterministic,
// so re-running it on an identical event prefix always yields an identical
// result. That property is what makes replay-at-T exact.
package lifecycle

import (
	"encoding/json"
	"fmt"

	"dealgate/internal/journal"
)

// State is a deal's lifecycle position.
type State string

const (
	StateDraft        State = "Draft"
	StateUnderReview  State = "UnderReview"
	StateApproved     State = "Approved"
	StateReadyToClose State = "ReadyToClose"
	StateClosed       State = "Closed"
	StateOperating    State = "Operating"
	StateChanged      State = "Changed"
	StateDistressed   State = "Distressed"
	StateResolved     State = "Resolved"
	StateFrozen       State = "Frozen"
	StateExited       State = "Exited"
	StateTerminated   State = "Terminated"
)

// StressMode is the deal's stress severity, SM0 (none) through SM3 (frozen).
type StressMode int

const (
	SM0 StressMode = iota
	SM1
	SM2
	SM3
)

var stressNames = [...]string{"SM0", "SM1", "SM2", "SM3"}

func (m StressMode) String() string {
	if m < SM0 || m > SM3 {
		return "SM?"
	}
	return stressNames[m]
}

// MarshalJSON renders the symbolic name so documents read "SM1", not 1.
func (m StressMode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

func (m *StressMode) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	for i, candidate := range stressNames {
		if candidate == name {
			*m = StressMode(i)
			return nil
		}
	}
	return fmt.Errorf("unknown stress mode %q", name)
}

// Projection is the derived {state, stressMode} pair. It carries no history:
// everything else a caller needs comes from refolding the journal.
type Projection struct {
	State      State      `json:"state"`
	StressMode StressMode `json:"stress_mode"`
}

// Initial is the projection of an empty journal.
func Initial() Projection {
	return Projection{State: StateDraft, StressMode: SM0}
}

// accumulator carries fold-internal memory that the final projection does not
// expose: the state to restore after a freeze, and whether data was ever
// disputed (which decides the stress tier after distress resolution).
type accumulator struct {
	proj         Projection
	preFreeze    State
	everDisputed bool
}

// stepTransition is a guarded state move: it applies only when the deal is in
// from, otherwise the event is a no-op for state.
type stepTransition struct {
	from State
	to   State
}

// steps holds the plain guarded transitions. Events with stress or memory
// effects are handled in appliers.
var steps = map[journal.Type]stepTransition{
	journal.TypeReviewOpened:             {from: StateDraft, to: StateUnderReview},
	journal.TypeDealApproved:             {from: StateUnderReview, to: StateApproved},
	journal.TypeClosingReadinessAttested: {from: StateApproved, to: StateReadyToClose},
	journal.TypeClosingFinalized:         {from: StateReadyToClose, to: StateClosed},
	journal.TypeOperationsActivated:      {from: StateClosed, to: StateOperating},
	journal.TypeMaterialChangeDetected:   {from: StateOperating, to: StateChanged},
	journal.TypeChangeReconciled:         {from: StateChanged, to: StateOperating},
}

// appliers dispatches the events whose effect is not a plain guarded move.
// A static table keeps adding an event type a data change, not control flow.
var appliers = map[journal.Type]func(*accumulator){
	journal.TypeDataDisputed: func(a *accumulator) {
		a.everDisputed = true
		// Elevates only from SM0; higher tiers are preserved.
		if a.proj.StressMode == SM0 {
			a.proj.StressMode = SM1
		}
	},
	journal.TypeDistressDeclared: func(a *accumulator) {
		a.proj.State = StateDistressed
		a.proj.StressMode = SM2
	},
	journal.TypeDistressResolved: func(a *accumulator) {
		if a.proj.State != StateDistressed {
			return
		}
		a.proj.State = StateResolved
		if a.everDisputed {
			a.proj.StressMode = SM1
		} else {
			a.proj.StressMode = SM0
		}
	},
	journal.TypeFreezeImposed: func(a *accumulator) {
		if a.proj.State != StateFrozen {
			a.preFreeze = a.proj.State
		}
		a.proj.State = StateFrozen
		a.proj.StressMode = SM3
	},
	journal.TypeFreezeLifted: func(a *accumulator) {
		if a.proj.State != StateFrozen {
			return
		}
		a.proj.State = a.preFreeze
		a.proj.StressMode = SM0
	},
	journal.TypeExitFinalized: func(a *accumulator) {
		a.proj.State = StateExited
	},
	journal.TypeDealTerminated: func(a *accumulator) {
		a.proj.State = StateTerminated
	},
}

// terminalStates absorb every later event.
var terminalStates = map[State]struct{}{
	StateExited:     {},
	StateTerminated: {},
}

// Project folds ordered events into a projection. Unknown event types and
// events whose guard does not match the current state are no-ops; the fold is
// total by construction.
func Project(initial Projection, orderedEvents []journal.Event) Projection {
	acc := accumulator{proj: initial}
	for _, event := range orderedEvents {
		if _, terminal := terminalStates[acc.proj.State]; terminal {
			break
		}
		if apply, ok := appliers[event.Type]; ok {
			apply(&acc)
			continue
		}
		if step, ok := steps[event.Type]; ok && acc.proj.State == step.from {
			acc.proj.State = step.to
		}
	}
	return acc.proj
}
