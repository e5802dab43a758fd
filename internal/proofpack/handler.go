package proofpack

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"dealgate/internal/policy"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
	"dealgate/pkg/platform/httputil"
	"dealgate/pkg/requestcontext"
)

// Handler serves compiled bundles over HTTP.
type Handler struct {
	compiler *Compiler
	logger   *slog.Logger
}

// NewHandler constructs a proof pack handler.
func NewHandler(compiler *Compiler, logger *slog.Logger) *Handler {
	return &Handler{compiler: compiler, logger: logger}
}

// Register mounts the proof pack endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/deals/{dealID}/proofpack", h.HandleProofPack)
}

// HandleProofPack handles GET /deals/{dealID}/proofpack?actions=&at= requests
// and streams the zip archive.
func (h *Handler) HandleProofPack(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	dealID, err := id.ParseDealID(chi.URLParam(r, "dealID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "invalid deal id"))
		return
	}

	at := requestcontext.Now(ctx)
	if raw := r.URL.Query().Get("at"); raw != "" {
		at, err = time.Parse(time.RFC3339, raw)
		if err != nil {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "at must be RFC3339"))
			return
		}
	}

	actions, err := parseActions(r.URL.Query().Get("actions"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	// Compile into memory first so a failure mid-way never leaks a truncated
	// archive with a 200 status.
	var buf bytes.Buffer
	if _, err := h.compiler.Compile(ctx, dealID, at, actions, &buf); err != nil {
		h.logger.ErrorContext(ctx, "proof pack compilation failed",
			"request_id", requestID,
			"deal_id", dealID.String(),
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	filename := fmt.Sprintf("proofpack-%s-%d.zip", dealID.String(), at.UTC().Unix())
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// parseActions splits and validates the comma-separated actions parameter.
func parseActions(raw string) ([]policy.Action, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "actions is required")
	}
	var actions []policy.Action
	for _, candidate := range strings.Split(raw, ",") {
		action, err := policy.ParseAction(strings.TrimSpace(candidate))
		if err != nil {
			return nil, err
		}
		actions = append(actions, action)
	}
	return actions, nil
}
