package handler

import (
	"time"

	"dealgate/internal/artifact"
	"dealgate/internal/deal"
	"dealgate/internal/decision"
	"dealgate/internal/journal"
	"dealgate/internal/lifecycle"
	"dealgate/internal/material"
	"dealgate/internal/roles"
	id "dealgate/pkg/domain"
)

// DealResponse is the HTTP response for deal registry reads.
type DealResponse struct {
	ID         string                `json:"id"`
	Name       string                `json:"name"`
	CreatedAt  time.Time             `json:"created_at"`
	Projection *lifecycle.Projection `json:"projection,omitempty"`
}

// FromDeal converts a deal record to an HTTP response.
func FromDeal(d deal.Deal, proj *lifecycle.Projection) *DealResponse {
	return &DealResponse{
		ID:         d.ID.String(),
		Name:       d.Name,
		CreatedAt:  d.CreatedAt,
		Projection: proj,
	}
}

// EventResponse renders one appended journal event.
type EventResponse struct {
	ID           string          `json:"id"`
	DealID       string          `json:"deal_id"`
	Type         string          `json:"type"`
	ActorID      string          `json:"actor_id"`
	Payload      journal.Payload `json:"payload"`
	EvidenceRefs []string        `json:"evidence_refs,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// FromEvent converts a journal event to an HTTP response.
func FromEvent(event journal.Event) *EventResponse {
	return &EventResponse{
		ID:           event.ID.String(),
		DealID:       event.DealID.String(),
		Type:         string(event.Type),
		ActorID:      event.ActorID.String(),
		Payload:      event.Payload,
		EvidenceRefs: artifactRefStrings(event.EvidenceRefs),
		CreatedAt:    event.CreatedAt,
	}
}

// AppendResponse is the HTTP response for POST /deals/{dealID}/events.
// Event is present only when the append was allowed.
type AppendResponse struct {
	Appended bool              `json:"appended"`
	Event    *EventResponse    `json:"event,omitempty"`
	Explain  *decision.Explain `json:"explain"`
}

// FromAppendResult converts an append outcome to an HTTP response.
func FromAppendResult(result deal.AppendResult) *AppendResponse {
	resp := &AppendResponse{
		Appended: result.Appended(),
		Explain:  result.Explain,
	}
	if result.Event != nil {
		resp.Event = FromEvent(*result.Event)
	}
	return resp
}

// AssignmentResponse is the HTTP response for POST /deals/{dealID}/roles.
type AssignmentResponse struct {
	DealID     string    `json:"deal_id"`
	ActorID    string    `json:"actor_id"`
	Role       string    `json:"role"`
	AssignedAt time.Time `json:"assigned_at"`
}

// FromAssignment converts a role assignment to an HTTP response.
func FromAssignment(a roles.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		DealID:     a.DealID.String(),
		ActorID:    a.ActorID.String(),
		Role:       string(a.Role),
		AssignedAt: a.AssignedAt,
	}
}

// RevisionResponse is the HTTP response for POST /deals/{dealID}/materials.
type RevisionResponse struct {
	ID           string    `json:"id"`
	DealID       string    `json:"deal_id"`
	Type         string    `json:"type"`
	TruthClass   string    `json:"truth_class"`
	ArtifactRefs []string  `json:"artifact_refs,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// FromRevision converts a material revision to an HTTP response.
func FromRevision(rev material.Revision) *RevisionResponse {
	return &RevisionResponse{
		ID:           rev.ID.String(),
		DealID:       rev.DealID.String(),
		Type:         rev.Type,
		TruthClass:   rev.TruthClass.String(),
		ArtifactRefs: artifactRefStrings(rev.ArtifactRefs),
		CreatedAt:    rev.CreatedAt,
	}
}

// ArtifactResponse is the HTTP response for artifact uploads and listings.
type ArtifactResponse struct {
	ID        string    `json:"id"`
	DealID    string    `json:"deal_id"`
	Hash      string    `json:"hash"`
	Filename  string    `json:"filename"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
	Created   bool      `json:"created"`
}

// FromArtifact converts an artifact record to an HTTP response.
func FromArtifact(record artifact.Record, created bool) *ArtifactResponse {
	return &ArtifactResponse{
		ID:        record.ID.String(),
		DealID:    record.DealID.String(),
		Hash:      record.Hash,
		Filename:  record.Filename,
		Size:      record.Size,
		CreatedAt: record.CreatedAt,
		Created:   created,
	}
}

// TimelineResponse is the HTTP response for GET /deals/{dealID}/timeline.
type TimelineResponse struct {
	DealID  string               `json:"deal_id"`
	At      time.Time            `json:"at"`
	Entries []deal.TimelineEntry `json:"entries"`
}

func artifactRefStrings(refs []id.ArtifactID) []string {
	if len(refs) == 0 {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, ref := range refs {
		out = append(out, ref.String())
	}
	return out
}
