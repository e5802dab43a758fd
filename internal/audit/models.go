// Package audit keeps an operational trail of evaluated decisions. The trail
// is observational: entries never feed back into any evaluator and are not
// part of deal history.
package audit

import (
	"time"

	id "dealgate/pkg/domain"
)

// Entry is emitted for every evaluated decision, allowed or blocked. Keep it
// transport-agnostic so stores and sinks can fan out.
type Entry struct {
	Timestamp       time.Time
	DealID          id.DealID
	ActorID         id.ActorID
	Action          string
	Status          string
	ReasonCodes     []string
	OverrideApplied bool
	EvaluatedAt     time.Time
	RequestID       string
}
