package audit

import (
	"context"
	"log/slog"
	"time"

	"dealgate/internal/decision"
	id "dealgate/pkg/domain"
	"dealgate/pkg/requestcontext"
)

// Store is an append-only sink for trail entries.
type Store interface {
	Append(ctx context.Context, entry Entry) error
	ListByDeal(ctx context.Context, dealID id.DealID) ([]Entry, error)
}

// Recorder turns Explain documents into trail entries. A nil Recorder is a
// no-op, so callers never guard.
type Recorder struct {
	store  Store
	logger *slog.Logger
}

func NewRecorder(store Store, logger *slog.Logger) *Recorder {
	return &Recorder{store: store, logger: logger}
}

// Record writes one trail entry for an evaluated decision. Failures are
// logged and swallowed: the trail must never block or fail an evaluation.
func (r *Recorder) Record(ctx context.Context, explain *decision.Explain) {
	if r == nil || explain == nil {
		return
	}

	entry := Entry{
		Timestamp:       time.Now(),
		DealID:          explain.DealID,
		ActorID:         requestcontext.ActorID(ctx),
		Action:          explain.Action,
		Status:          string(explain.Decision.Status),
		OverrideApplied: explain.Decision.OverrideApplied != nil,
		EvaluatedAt:     explain.At,
		RequestID:       requestcontext.RequestID(ctx),
	}
	for _, reason := range explain.Decision.Reasons {
		entry.ReasonCodes = append(entry.ReasonCodes, string(reason.Code))
	}

	if r.store != nil {
		if err := r.store.Append(ctx, entry); err != nil && r.logger != nil {
			r.logger.WarnContext(ctx, "audit trail append failed",
				"error", err,
				"deal_id", entry.DealID.String(),
				"action", entry.Action,
			)
		}
	}
	if r.logger != nil {
		r.logger.InfoContext(ctx, "decision evaluated",
			"deal_id", entry.DealID.String(),
			"action", entry.Action,
			"status", entry.Status,
			"override_applied", entry.OverrideApplied,
			"request_id", entry.RequestID,
		)
	}
}
