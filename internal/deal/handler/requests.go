package handler

import (
	"strings"
	"time"

	"dealgate/internal/journal"
	"dealgate/internal/material"
	"dealgate/internal/policy"
	"dealgate/internal/roles"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

const (
	maxDealNameLen     = 200
	maxMaterialTypeLen = 100
	maxFilenameLen     = 255
	maxReasonLen       = 2000
	maxEvidenceRefs    = 50
	maxArtifactBytes   = 512 * 1024
)

// CreateDealRequest is the HTTP request body for POST /deals.
type CreateDealRequest struct {
	Name string `json:"name"`
}

// Validate validates the request.
// Implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *CreateDealRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "name is required")
	}
	if len(r.Name) > maxDealNameLen {
		return dErrors.Newf(dErrors.CodeValidation, "name must be at most %d characters", maxDealNameLen)
	}
	return nil
}

// PayloadBody mirrors the journal payload on the wire.
type PayloadBody struct {
	Action string `json:"action,omitempty"`
	Reason string `json:"reason,omitempty"`
	Note   string `json:"note,omitempty"`
}

// AppendEventRequest is the HTTP request body for POST /deals/{dealID}/events.
type AppendEventRequest struct {
	Type         string      `json:"type"`
	Payload      PayloadBody `json:"payload"`
	EvidenceRefs []string    `json:"evidence_refs,omitempty"`

	// Parsed values (populated by Validate)
	parsedType journal.Type
	parsedRefs []id.ArtifactID
}

// Validate validates and parses the request.
func (r *AppendEventRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Type = strings.TrimSpace(r.Type)
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	typ := journal.Type(r.Type)
	if _, ok := policy.ActionForEvent(typ); !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unknown event type %q", r.Type)
	}
	r.parsedType = typ

	if len(r.Payload.Reason) > maxReasonLen {
		return dErrors.Newf(dErrors.CodeValidation, "payload.reason must be at most %d characters", maxReasonLen)
	}
	if r.Payload.Action != "" {
		if _, err := policy.ParseAction(r.Payload.Action); err != nil {
			return dErrors.Newf(dErrors.CodeValidation, "unknown payload action %q", r.Payload.Action)
		}
	}

	if len(r.EvidenceRefs) > maxEvidenceRefs {
		return dErrors.Newf(dErrors.CodeValidation, "at most %d evidence refs allowed", maxEvidenceRefs)
	}
	refs, err := parseArtifactRefs(r.EvidenceRefs)
	if err != nil {
		return err
	}
	r.parsedRefs = refs
	return nil
}

// ParsedType returns the validated event type.
func (r *AppendEventRequest) ParsedType() journal.Type { return r.parsedType }

// ParsedEvidenceRefs returns the validated artifact references.
func (r *AppendEventRequest) ParsedEvidenceRefs() []id.ArtifactID { return r.parsedRefs }

// JournalPayload converts the wire payload to the journal form.
func (r *AppendEventRequest) JournalPayload() journal.Payload {
	return journal.Payload{
		Action: r.Payload.Action,
		Reason: strings.TrimSpace(r.Payload.Reason),
		Note:   r.Payload.Note,
	}
}

// AssignRoleRequest is the HTTP request body for POST /deals/{dealID}/roles.
type AssignRoleRequest struct {
	ActorID string `json:"actor_id"`
	Role    string `json:"role"`

	parsedActorID id.ActorID
	parsedRole    roles.Role
}

// Validate validates and parses the request.
func (r *AssignRoleRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	actorID, err := id.ParseActorID(r.ActorID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeValidation, "invalid actor_id")
	}
	r.parsedActorID = actorID

	role, err := roles.Parse(strings.TrimSpace(r.Role))
	if err != nil {
		return err
	}
	r.parsedRole = role
	return nil
}

// ParsedActorID returns the validated actor ID.
func (r *AssignRoleRequest) ParsedActorID() id.ActorID { return r.parsedActorID }

// ParsedRole returns the validated role.
func (r *AssignRoleRequest) ParsedRole() roles.Role { return r.parsedRole }

// RegisterMaterialRequest is the HTTP request body for POST /deals/{dealID}/materials.
type RegisterMaterialRequest struct {
	Type         string   `json:"type"`
	TruthClass   string   `json:"truth_class"`
	ArtifactRefs []string `json:"artifact_refs,omitempty"`

	parsedTier material.TruthClass
	parsedRefs []id.ArtifactID
}

// Validate validates and parses the request.
func (r *RegisterMaterialRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Type = strings.TrimSpace(r.Type)
	if r.Type == "" {
		return dErrors.New(dErrors.CodeValidation, "type is required")
	}
	if len(r.Type) > maxMaterialTypeLen {
		return dErrors.Newf(dErrors.CodeValidation, "type must be at most %d characters", maxMaterialTypeLen)
	}
	tier, err := material.ParseTruthClass(strings.TrimSpace(r.TruthClass))
	if err != nil {
		return err
	}
	r.parsedTier = tier

	refs, err := parseArtifactRefs(r.ArtifactRefs)
	if err != nil {
		return err
	}
	r.parsedRefs = refs
	return nil
}

// ParsedTruthClass returns the validated truth class.
func (r *RegisterMaterialRequest) ParsedTruthClass() material.TruthClass { return r.parsedTier }

// ParsedArtifactRefs returns the validated artifact references.
func (r *RegisterMaterialRequest) ParsedArtifactRefs() []id.ArtifactID { return r.parsedRefs }

// UploadArtifactRequest is the HTTP request body for POST /deals/{dealID}/artifacts.
// Data is base64 on the wire per encoding/json's []byte convention.
type UploadArtifactRequest struct {
	Filename string `json:"filename"`
	Data     []byte `json:"data"`
}

// Validate validates the request.
func (r *UploadArtifactRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.Filename = strings.TrimSpace(r.Filename)
	if r.Filename == "" {
		return dErrors.New(dErrors.CodeValidation, "filename is required")
	}
	if len(r.Filename) > maxFilenameLen {
		return dErrors.Newf(dErrors.CodeValidation, "filename must be at most %d characters", maxFilenameLen)
	}
	if len(r.Data) == 0 {
		return dErrors.New(dErrors.CodeValidation, "data is required")
	}
	if len(r.Data) > maxArtifactBytes {
		return dErrors.Newf(dErrors.CodeValidation, "data must be at most %d bytes", maxArtifactBytes)
	}
	return nil
}

func parseArtifactRefs(raw []string) ([]id.ArtifactID, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	refs := make([]id.ArtifactID, 0, len(raw))
	for _, candidate := range raw {
		ref, err := id.ParseArtifactID(candidate)
		if err != nil {
			return nil, dErrors.Newf(dErrors.CodeValidation, "invalid artifact ref %q", candidate)
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseAt reads an optional RFC3339 "at" query value; zero time means now.
func parseAt(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	at, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Wrap(err, dErrors.CodeValidation, "at must be RFC3339")
	}
	return at, nil
}
