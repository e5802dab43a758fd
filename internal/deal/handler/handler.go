// Package handler exposes the deal operations over HTTP.
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"dealgate/internal/deal"
	"dealgate/internal/policy"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
	"dealgate/pkg/platform/httputil"
	"dealgate/pkg/requestcontext"
)

// Handler wires deal endpoints to the deal service.
type Handler struct {
	service *deal.Service
	logger  *slog.Logger
}

// New constructs a deal handler with its dependencies.
func New(service *deal.Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts deal endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/deals", func(r chi.Router) {
		r.Post("/", h.HandleCreateDeal)
		r.Get("/", h.HandleListDeals)
		r.Route("/{dealID}", func(r chi.Router) {
			r.Get("/", h.HandleGetDeal)
			r.Post("/events", h.HandleAppendEvent)
			r.Get("/snapshot", h.HandleSnapshot)
			r.Get("/explain", h.HandleExplain)
			r.Get("/timeline", h.HandleTimeline)
			r.Post("/roles", h.HandleAssignRole)
			r.Post("/materials", h.HandleRegisterMaterial)
			r.Post("/artifacts", h.HandleUploadArtifact)
			r.Get("/artifacts", h.HandleListArtifacts)
		})
	})
}

// HandleCreateDeal handles POST /deals requests.
func (h *Handler) HandleCreateDeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[CreateDealRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	created, err := h.service.CreateDeal(ctx, req.Name)
	if err != nil {
		h.logger.ErrorContext(ctx, "create deal failed",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromDeal(created, nil))
}

// HandleListDeals handles GET /deals requests.
func (h *Handler) HandleListDeals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	deals, err := h.service.ListDeals(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*DealResponse, 0, len(deals))
	for _, d := range deals {
		out = append(out, FromDeal(d, nil))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// HandleGetDeal handles GET /deals/{dealID} requests.
func (h *Handler) HandleGetDeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}

	record, proj, err := h.service.GetDeal(ctx, dealID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, FromDeal(record, &proj))
}

// HandleAppendEvent handles POST /deals/{dealID}/events requests. An allowed
// append returns 201 with the event; a blocked one returns 409 carrying the
// full explain document.
func (h *Handler) HandleAppendEvent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	actorID := requestcontext.ActorID(ctx)
	if actorID.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AppendEventRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.AppendEvent(ctx, dealID, req.ParsedType(), req.JournalPayload(), req.ParsedEvidenceRefs())
	if err != nil {
		h.logger.ErrorContext(ctx, "append event failed",
			"request_id", requestID,
			"deal_id", dealID.String(),
			"event_type", req.Type,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "append event handled",
		"request_id", requestID,
		"deal_id", dealID.String(),
		"event_type", req.Type,
		"appended", result.Appended(),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	status := http.StatusCreated
	if !result.Appended() {
		status = http.StatusConflict
	}
	httputil.WriteJSON(w, status, FromAppendResult(result))
}

// HandleSnapshot handles GET /deals/{dealID}/snapshot?at= requests.
func (h *Handler) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}
	at, ok := h.at(w, r)
	if !ok {
		return
	}

	snapshot, err := h.service.Snapshot(ctx, dealID, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, snapshot)
}

// HandleExplain handles GET /deals/{dealID}/explain?action=&at= requests.
func (h *Handler) HandleExplain(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}
	at, ok := h.at(w, r)
	if !ok {
		return
	}

	action, err := policy.ParseAction(r.URL.Query().Get("action"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	explain, err := h.service.ExplainAction(ctx, dealID, action, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, explain)
}

// HandleTimeline handles GET /deals/{dealID}/timeline?at= requests.
func (h *Handler) HandleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}
	at, ok := h.at(w, r)
	if !ok {
		return
	}

	entries, err := h.service.Timeline(ctx, dealID, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &TimelineResponse{
		DealID:  dealID.String(),
		At:      at,
		Entries: entries,
	})
}

// HandleAssignRole handles POST /deals/{dealID}/roles requests.
func (h *Handler) HandleAssignRole(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[AssignRoleRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	assignment, err := h.service.AssignRole(ctx, dealID, req.ParsedActorID(), req.ParsedRole())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromAssignment(assignment))
}

// HandleRegisterMaterial handles POST /deals/{dealID}/materials requests.
func (h *Handler) HandleRegisterMaterial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[RegisterMaterialRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	revision, err := h.service.RegisterMaterial(ctx, dealID, req.Type, req.ParsedTruthClass(), req.ParsedArtifactRefs())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, FromRevision(revision))
}

// HandleUploadArtifact handles POST /deals/{dealID}/artifacts requests.
func (h *Handler) HandleUploadArtifact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[UploadArtifactRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	record, created, err := h.service.UploadArtifact(ctx, dealID, req.Filename, req.Data)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	status := http.StatusCreated
	if !created {
		status = http.StatusOK
	}
	httputil.WriteJSON(w, status, FromArtifact(record, created))
}

// HandleListArtifacts handles GET /deals/{dealID}/artifacts requests.
func (h *Handler) HandleListArtifacts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	dealID, ok := h.dealID(w, r)
	if !ok {
		return
	}
	at, ok := h.at(w, r)
	if !ok {
		return
	}

	records, err := h.service.Artifacts(ctx, dealID, at)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	out := make([]*ArtifactResponse, 0, len(records))
	for _, record := range records {
		out = append(out, FromArtifact(record, false))
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

// dealID parses the {dealID} path parameter, writing the error itself.
func (h *Handler) dealID(w http.ResponseWriter, r *http.Request) (id.DealID, bool) {
	dealID, err := id.ParseDealID(chi.URLParam(r, "dealID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid deal id"))
		return id.DealID{}, false
	}
	return dealID, true
}

// at parses the optional "at" query parameter, defaulting to the request
// instant.
func (h *Handler) at(w http.ResponseWriter, r *http.Request) (time.Time, bool) {
	at, err := parseAt(r.URL.Query().Get("at"))
	if err != nil {
		httputil.WriteError(w, err)
		return time.Time{}, false
	}
	if at.IsZero() {
		at = requestcontext.Now(r.Context())
	}
	return at, true
}
