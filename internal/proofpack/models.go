// Package proofpack compiles the audit bundle for a deal at an instant: a
// zip archive containing the snapshot, one explain document per requested
// action, an evidence index, a human-readable summary, and a manifest of
// content hashes. The bundle is deterministic: the same (deal, T, actions)
// always compiles to identical file contents.
package proofpack

import (
	"time"

	id "dealgate/pkg/domain"
)

// ManifestVersion identifies the bundle layout.
const ManifestVersion = "1"

// FileDigest records one bundled file's content hash.
type FileDigest struct {
	Name   string `json:"name"`
	SHA256 string `json:"sha256"`
	Size   int64  `json:"size"`
}

// ReplayInputs declares the exact fact counts the bundle was computed from,
// so a verifier can confirm it replayed the same prefix.
type ReplayInputs struct {
	EventCount      int `json:"event_count"`
	MaterialCount   int `json:"material_count"`
	AssignmentCount int `json:"assignment_count"`
}

// Manifest is the bundle's integrity document: per-file content hashes plus
// the replay inputs declaration.
type Manifest struct {
	Version      string       `json:"version"`
	DealID       id.DealID    `json:"deal_id"`
	At           time.Time    `json:"at"`
	Actions      []string     `json:"actions"`
	ReplayInputs ReplayInputs `json:"replay_inputs"`
	Files        []FileDigest `json:"files"`
}

// EvidenceRef points at one place a piece of evidence is referenced from.
type EvidenceRef struct {
	// Kind is "event" or "material".
	Kind string `json:"kind"`
	ID   string `json:"id"`
}

// EvidenceEntry maps one artifact to every location that references it.
type EvidenceEntry struct {
	ArtifactID id.ArtifactID `json:"artifact_id"`
	Hash       string        `json:"hash"`
	Filename   string        `json:"filename"`
	Size       int64         `json:"size"`
	References []EvidenceRef `json:"references,omitempty"`
}

// EvidenceIndex is the bundle's artifact catalog, ordered by artifact ID.
type EvidenceIndex struct {
	DealID    id.DealID       `json:"deal_id"`
	At        time.Time       `json:"at"`
	Artifacts []EvidenceEntry `json:"artifacts"`
}
