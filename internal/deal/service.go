package deal

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"dealgate/internal/artifact"
	"dealgate/internal/audit"
	"dealgate/internal/decision"
	dmetrics "dealgate/internal/decision/metrics"
	"dealgate/internal/journal"
	"dealgate/internal/lifecycle"
	"dealgate/internal/material"
	"dealgate/internal/policy"
	"dealgate/internal/roles"
	"dealgate/internal/timeline"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
	"dealgate/pkg/requestcontext"
)

// Service sequences loads, evaluations, and appends for deals. All reads are
// pure; the only mutation path is AppendEvent, serialized per deal.
type Service struct {
	deals       Store
	journal     journal.Store
	materials   material.Store
	roles       roles.Store
	artifacts   artifact.Store
	coordinator *timeline.Coordinator
	serializer  Serializer
	cache       ProjectionCache
	recorder    *audit.Recorder
	metrics     *dmetrics.Metrics
	logger      *slog.Logger
}

// NewService wires the deal service to its collaborators. cache, recorder,
// and metrics may be nil.
func NewService(
	deals Store,
	journalStore journal.Store,
	materials material.Store,
	roleDir roles.Store,
	artifacts artifact.Store,
	serializer Serializer,
	cache ProjectionCache,
	recorder *audit.Recorder,
	metrics *dmetrics.Metrics,
	logger *slog.Logger,
) *Service {
	return &Service{
		deals:       deals,
		journal:     journalStore,
		materials:   materials,
		roles:       roleDir,
		artifacts:   artifacts,
		coordinator: timeline.NewCoordinator(journalStore, materials, roleDir),
		serializer:  serializer,
		cache:       cache,
		recorder:    recorder,
		metrics:     metrics,
		logger:      logger,
	}
}

// CreateDeal registers a deal seeded with the default authority rules.
func (s *Service) CreateDeal(ctx context.Context, name string) (Deal, error) {
	deal := Deal{
		ID:        id.NewDealID(),
		Name:      name,
		Rules:     policy.DefaultAuthorityRules(),
		CreatedAt: requestcontext.Now(ctx),
	}
	if err := s.deals.Create(ctx, deal); err != nil {
		return Deal{}, dErrors.Wrap(err, dErrors.CodeInternal, "create deal")
	}
	s.logger.InfoContext(ctx, "deal created",
		"deal_id", deal.ID.String(),
		"name", deal.Name,
	)
	return deal, nil
}

// GetDeal returns the registry record plus its current projection.
func (s *Service) GetDeal(ctx context.Context, dealID id.DealID) (Deal, lifecycle.Projection, error) {
	deal, err := s.lookup(ctx, dealID)
	if err != nil {
		return Deal{}, lifecycle.Projection{}, err
	}
	proj, err := s.Projection(ctx, dealID, requestcontext.Now(ctx))
	if err != nil {
		return Deal{}, lifecycle.Projection{}, err
	}
	return deal, proj, nil
}

// AssignRole records an actor-role assignment effective from now.
func (s *Service) AssignRole(ctx context.Context, dealID id.DealID, actorID id.ActorID, role roles.Role) (roles.Assignment, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return roles.Assignment{}, err
	}
	assignment := roles.Assignment{
		DealID:     dealID,
		ActorID:    actorID,
		Role:       role,
		AssignedAt: requestcontext.Now(ctx),
	}
	if err := s.roles.Assign(ctx, assignment); err != nil {
		return roles.Assignment{}, dErrors.Wrap(err, dErrors.CodeInternal, "assign role")
	}
	s.logger.InfoContext(ctx, "role assigned",
		"deal_id", dealID.String(),
		"actor_id", actorID.String(),
		"role", string(role),
	)
	return assignment, nil
}

// RegisterMaterial appends a material revision. Every referenced artifact
// must exist and belong to the deal.
func (s *Service) RegisterMaterial(ctx context.Context, dealID id.DealID, materialType string, tier material.TruthClass, artifactRefs []id.ArtifactID) (material.Revision, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return material.Revision{}, err
	}
	if err := s.checkArtifactRefs(ctx, dealID, artifactRefs); err != nil {
		return material.Revision{}, err
	}

	revision := material.Revision{
		ID:           id.NewMaterialID(),
		DealID:       dealID,
		Type:         materialType,
		TruthClass:   tier,
		ArtifactRefs: artifactRefs,
		CreatedAt:    requestcontext.Now(ctx),
	}
	if err := s.materials.Save(ctx, revision); err != nil {
		return material.Revision{}, dErrors.Wrap(err, dErrors.CodeInternal, "save material revision")
	}
	s.logger.InfoContext(ctx, "material registered",
		"deal_id", dealID.String(),
		"material_type", materialType,
		"truth_class", tier.String(),
	)
	return revision, nil
}

// UploadArtifact stores content-addressed bytes for a deal. A same-deal
// duplicate returns the existing record; a cross-deal duplicate conflicts.
func (s *Service) UploadArtifact(ctx context.Context, dealID id.DealID, filename string, data []byte) (artifact.Record, bool, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return artifact.Record{}, false, err
	}
	record, created, err := s.artifacts.Put(ctx, dealID, filename, data, requestcontext.Now(ctx))
	if errors.Is(err, artifact.ErrDealMismatch) {
		return artifact.Record{}, false, dErrors.Wrap(err, dErrors.CodeConflict, "artifact content already owned by another deal")
	}
	if err != nil {
		return artifact.Record{}, false, dErrors.Wrap(err, dErrors.CodeInternal, "store artifact")
	}
	return record, created, nil
}

// AppendEvent is the atomic evaluate-and-append: under the deal's critical
// section it loads the as-of-now view, evaluates the event's gates, and
// appends only on ALLOWED. Nothing is ever written for a blocked attempt.
func (s *Service) AppendEvent(ctx context.Context, dealID id.DealID, typ journal.Type, payload journal.Payload, evidenceRefs []id.ArtifactID) (AppendResult, error) {
	deal, err := s.lookup(ctx, dealID)
	if err != nil {
		return AppendResult{}, err
	}
	if _, ok := policy.ActionForEvent(typ); !ok {
		return AppendResult{}, dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", typ)
	}
	if err := s.checkArtifactRefs(ctx, dealID, evidenceRefs); err != nil {
		return AppendResult{}, err
	}

	start := time.Now()
	defer func() { s.metrics.ObserveEvaluateLatency(time.Since(start)) }()

	var result AppendResult
	err = s.serializer.WithDeal(ctx, dealID, func(ctx context.Context) error {
		at := requestcontext.Now(ctx)
		view, err := s.coordinator.Load(ctx, dealID, at)
		if err != nil {
			return err
		}

		explain, err := decision.EvaluateEvent(view, deal.Rules, typ)
		if err != nil {
			return err
		}
		result.Explain = explain

		s.recorder.Record(ctx, explain)
		s.metrics.IncrementOutcome(string(explain.Decision.Status), explain.Action)
		if explain.Decision.OverrideApplied != nil {
			s.metrics.IncrementOverrideApplied(explain.Action)
		}

		if !explain.Decision.Allowed() {
			return nil
		}

		event := journal.Event{
			ID:           id.NewEventID(),
			DealID:       dealID,
			Type:         typ,
			ActorID:      requestcontext.ActorID(ctx),
			Payload:      payload,
			EvidenceRefs: evidenceRefs,
			CreatedAt:    at,
		}
		if err := s.journal.Append(ctx, event); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "append event")
		}
		result.Event = &event
		return nil
	})
	if err != nil {
		return AppendResult{}, err
	}

	s.logger.InfoContext(ctx, "append evaluated",
		"deal_id", dealID.String(),
		"event_type", string(typ),
		"status", string(result.Explain.Decision.Status),
		"appended", result.Appended(),
	)
	return result, nil
}

// Projection folds the journal at T, memoized by (deal, T).
func (s *Service) Projection(ctx context.Context, dealID id.DealID, at time.Time) (lifecycle.Projection, error) {
	if s.cache != nil {
		if proj, ok, err := s.cache.Get(ctx, dealID, at); err == nil && ok {
			return proj, nil
		} else if err != nil {
			s.logger.WarnContext(ctx, "projection cache read failed", "error", err)
		}
	}

	events, err := s.journal.ListByDeal(ctx, dealID, at)
	if err != nil {
		return lifecycle.Projection{}, dErrors.Wrap(err, dErrors.CodeInternal, "load events")
	}

	start := time.Now()
	proj := lifecycle.Project(lifecycle.Initial(), events)
	s.metrics.ObserveProjectLatency(time.Since(start))

	if s.cache != nil {
		if err := s.cache.Set(ctx, dealID, at, proj); err != nil {
			s.logger.WarnContext(ctx, "projection cache write failed", "error", err)
		}
	}
	return proj, nil
}

// Snapshot renders the full as-of-T document: projection plus the standing of
// every gated action.
func (s *Service) Snapshot(ctx context.Context, dealID id.DealID, at time.Time) (*Snapshot, error) {
	deal, err := s.lookup(ctx, dealID)
	if err != nil {
		return nil, err
	}
	view, err := s.coordinator.Load(ctx, dealID, at)
	if err != nil {
		return nil, err
	}

	snapshot := &Snapshot{
		DealID:     dealID,
		Name:       deal.Name,
		At:         at,
		Projection: lifecycle.Project(lifecycle.Initial(), view.Events),
		Timeline:   timelineEntries(view.Events),
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dealID, at, snapshot.Projection); err != nil {
			s.logger.WarnContext(ctx, "projection cache write failed", "error", err)
		}
	}

	for _, action := range policy.GatedActions() {
		rule, ok := deal.Rules[action]
		if !ok {
			return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "no authority rule for action %q", action)
		}
		authority, _ := decision.EvaluateAuthority(view, action, rule)
		truth := decision.EvaluateTruth(view, action)
		override := decision.EvaluateOverride(view, action)
		snapshot.Gates = append(snapshot.Gates, GateStatus{
			Action:       string(action),
			Approvals:    authority.Approvals,
			Threshold:    authority.Threshold,
			Requirements: truth.Requirements,
			OverrideOpen: override.Valid,
		})
	}
	return snapshot, nil
}

// ExplainAction evaluates one action at T and renders the audit document.
// A pure read: consulting a decision never changes anything.
func (s *Service) ExplainAction(ctx context.Context, dealID id.DealID, action policy.Action, at time.Time) (*decision.Explain, error) {
	deal, err := s.lookup(ctx, dealID)
	if err != nil {
		return nil, err
	}
	view, err := s.coordinator.Load(ctx, dealID, at)
	if err != nil {
		return nil, err
	}
	explain, err := decision.EvaluateAction(view, deal.Rules, action)
	if err != nil {
		return nil, err
	}
	s.recorder.Record(ctx, explain)
	s.metrics.IncrementOutcome(string(explain.Decision.Status), explain.Action)
	return explain, nil
}

// Timeline returns the deal's events at T in canonical order.
func (s *Service) Timeline(ctx context.Context, dealID id.DealID, at time.Time) ([]TimelineEntry, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return nil, err
	}
	events, err := s.journal.ListByDeal(ctx, dealID, at)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load events")
	}
	return timelineEntries(events), nil
}

// Artifacts returns the deal's artifact records uploaded at or before until.
func (s *Service) Artifacts(ctx context.Context, dealID id.DealID, until time.Time) ([]artifact.Record, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return nil, err
	}
	records, err := s.artifacts.ListByDeal(ctx, dealID, until)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list artifacts")
	}
	return records, nil
}

// ListDeals returns every registered deal, oldest first.
func (s *Service) ListDeals(ctx context.Context) ([]Deal, error) {
	deals, err := s.deals.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "list deals")
	}
	sort.Slice(deals, func(i, j int) bool {
		if deals[i].CreatedAt.Equal(deals[j].CreatedAt) {
			return deals[i].ID.String() < deals[j].ID.String()
		}
		return deals[i].CreatedAt.Before(deals[j].CreatedAt)
	})
	return deals, nil
}

// View loads the raw as-of-T view for collaborators that compose their own
// documents (the proof pack compiler).
func (s *Service) View(ctx context.Context, dealID id.DealID, at time.Time) (*timeline.View, error) {
	if _, err := s.lookup(ctx, dealID); err != nil {
		return nil, err
	}
	return s.coordinator.Load(ctx, dealID, at)
}

// Rules returns the deal's seeded authority rules.
func (s *Service) Rules(ctx context.Context, dealID id.DealID) (map[policy.Action]policy.AuthorityRule, error) {
	deal, err := s.lookup(ctx, dealID)
	if err != nil {
		return nil, err
	}
	return deal.Rules, nil
}

func (s *Service) lookup(ctx context.Context, dealID id.DealID) (Deal, error) {
	deal, err := s.deals.Get(ctx, dealID)
	if errors.Is(err, ErrNotFound) {
		return Deal{}, dErrors.Newf(dErrors.CodeNotFound, "deal %s not found", dealID.String())
	}
	if err != nil {
		return Deal{}, dErrors.Wrap(err, dErrors.CodeInternal, "load deal")
	}
	return deal, nil
}

// checkArtifactRefs verifies every referenced artifact exists and belongs to
// the deal.
func (s *Service) checkArtifactRefs(ctx context.Context, dealID id.DealID, refs []id.ArtifactID) error {
	for _, ref := range refs {
		record, _, err := s.artifacts.Get(ctx, ref)
		if errors.Is(err, artifact.ErrNotFound) {
			return dErrors.Newf(dErrors.CodeValidation, "artifact %s not found", ref.String())
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load artifact")
		}
		if record.DealID != dealID {
			return dErrors.Newf(dErrors.CodeValidation, "artifact %s belongs to another deal", ref.String())
		}
	}
	return nil
}

func timelineEntries(events []journal.Event) []TimelineEntry {
	entries := make([]TimelineEntry, 0, len(events))
	for _, event := range events {
		entries = append(entries, TimelineEntry{
			EventID:   event.ID,
			Type:      event.Type,
			ActorID:   event.ActorID,
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		})
	}
	return entries
}
