package proofpack

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"dealgate/internal/artifact"
	"dealgate/internal/deal"
	"dealgate/internal/decision"
	"dealgate/internal/policy"
	"dealgate/internal/timeline"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
)

// Compiler assembles proof packs from the deal service's pure reads.
type Compiler struct {
	deals  *deal.Service
	logger *slog.Logger
}

// NewCompiler constructs a proof pack compiler.
func NewCompiler(deals *deal.Service, logger *slog.Logger) *Compiler {
	return &Compiler{deals: deals, logger: logger}
}

// bundleFile is one pre-rendered archive member.
type bundleFile struct {
	name string
	data []byte
}

// Compile writes the bundle archive to w and returns its manifest. Every
// document inside is computed from the single as-of view loaded here, so the
// bundle is internally consistent even while new events arrive.
func (c *Compiler) Compile(ctx context.Context, dealID id.DealID, at time.Time, actions []policy.Action, w io.Writer) (*Manifest, error) {
	if len(actions) == 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one action is required")
	}

	view, err := c.deals.View(ctx, dealID, at)
	if err != nil {
		return nil, err
	}
	rules, err := c.deals.Rules(ctx, dealID)
	if err != nil {
		return nil, err
	}
	snapshot, err := c.deals.Snapshot(ctx, dealID, at)
	if err != nil {
		return nil, err
	}
	records, err := c.deals.Artifacts(ctx, dealID, at)
	if err != nil {
		return nil, err
	}

	explains := make([]*decision.Explain, len(actions))
	g, gctx := errgroup.WithContext(ctx)
	for i, action := range actions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			explain, err := decision.EvaluateAction(view, rules, action)
			if err != nil {
				return err
			}
			explains[i] = explain
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	index := buildEvidenceIndex(dealID, at, view, records)

	var files []bundleFile
	snapshotJSON, err := renderJSON(snapshot)
	if err != nil {
		return nil, err
	}
	files = append(files, bundleFile{name: "snapshot.json", data: snapshotJSON})

	for i, explain := range explains {
		data, err := renderJSON(explain)
		if err != nil {
			return nil, err
		}
		files = append(files, bundleFile{
			name: fmt.Sprintf("explain-%s.json", strings.ToLower(string(actions[i]))),
			data: data,
		})
	}

	indexJSON, err := renderJSON(index)
	if err != nil {
		return nil, err
	}
	files = append(files, bundleFile{name: "evidence-index.json", data: indexJSON})
	files = append(files, bundleFile{name: "summary.txt", data: renderSummary(snapshot, explains)})

	manifest := &Manifest{
		Version: ManifestVersion,
		DealID:  dealID,
		At:      at,
		ReplayInputs: ReplayInputs{
			EventCount:      len(view.Events),
			MaterialCount:   len(view.Materials),
			AssignmentCount: len(view.Assignments),
		},
	}
	for _, action := range actions {
		manifest.Actions = append(manifest.Actions, string(action))
	}
	for _, file := range files {
		sum := sha256.Sum256(file.data)
		manifest.Files = append(manifest.Files, FileDigest{
			Name:   file.name,
			SHA256: hex.EncodeToString(sum[:]),
			Size:   int64(len(file.data)),
		})
	}
	manifestJSON, err := renderJSON(manifest)
	if err != nil {
		return nil, err
	}
	files = append(files, bundleFile{name: "manifest.json", data: manifestJSON})

	if err := writeArchive(w, at, files); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "write bundle archive")
	}

	c.logger.InfoContext(ctx, "proof pack compiled",
		"deal_id", dealID.String(),
		"at", at.Format(time.RFC3339),
		"actions", len(actions),
		"files", len(files),
	)
	return manifest, nil
}

// buildEvidenceIndex maps every artifact on the deal to the events and
// material revisions that reference it, in artifact-ID order.
func buildEvidenceIndex(dealID id.DealID, at time.Time, view *timeline.View, records []artifact.Record) *EvidenceIndex {
	refs := make(map[id.ArtifactID][]EvidenceRef)
	for _, event := range view.Events {
		for _, ref := range event.EvidenceRefs {
			refs[ref] = append(refs[ref], EvidenceRef{Kind: "event", ID: event.ID.String()})
		}
	}
	for _, revision := range view.Materials {
		for _, ref := range revision.ArtifactRefs {
			refs[ref] = append(refs[ref], EvidenceRef{Kind: "material", ID: revision.ID.String()})
		}
	}

	index := &EvidenceIndex{DealID: dealID, At: at}
	for _, record := range records {
		index.Artifacts = append(index.Artifacts, EvidenceEntry{
			ArtifactID: record.ID,
			Hash:       record.Hash,
			Filename:   record.Filename,
			Size:       record.Size,
			References: refs[record.ID],
		})
	}
	sort.Slice(index.Artifacts, func(i, j int) bool {
		return index.Artifacts[i].ArtifactID.String() < index.Artifacts[j].ArtifactID.String()
	})
	return index
}

func renderJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "render bundle document")
	}
	return append(data, '\n'), nil
}

// renderSummary writes the human-readable cover page.
func renderSummary(snapshot *deal.Snapshot, explains []*decision.Explain) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "Proof pack for deal %s (%s)\n", snapshot.DealID.String(), snapshot.Name)
	fmt.Fprintf(&b, "As of %s\n\n", snapshot.At.Format(time.RFC3339))
	fmt.Fprintf(&b, "Lifecycle state: %s, stress mode %s\n", snapshot.Projection.State, snapshot.Projection.StressMode)
	fmt.Fprintf(&b, "Events in scope: %d\n\n", len(snapshot.Timeline))

	for _, explain := range explains {
		fmt.Fprintf(&b, "Action %s: %s\n", explain.Action, explain.Decision.Status)
		for _, reason := range explain.Decision.Reasons {
			switch reason.Code {
			case decision.ReasonAuthority, decision.ReasonApprovalThreshold:
				fmt.Fprintf(&b, "  - %s: %d of %d qualifying approvals\n", reason.Code, reason.Approvals, reason.Threshold)
			case decision.ReasonMissingMaterial:
				fmt.Fprintf(&b, "  - %s: %s (requires %s)\n", reason.Code, reason.MaterialType, reason.RequiredTruth)
			case decision.ReasonInsufficientTruth:
				fmt.Fprintf(&b, "  - %s: %s at %s (requires %s)\n", reason.Code, reason.MaterialType, reason.CurrentTruth, reason.RequiredTruth)
			}
		}
		if explain.Decision.OverrideApplied != nil {
			fmt.Fprintf(&b, "  - override attested by %s at %s\n",
				explain.Decision.OverrideApplied.AttestedBy.String(),
				explain.Decision.OverrideApplied.AttestedAt.Format(time.RFC3339))
		}
	}
	return []byte(b.String())
}

// writeArchive streams the files into a zip with fixed modification times so
// identical contents produce identical archives.
func writeArchive(w io.Writer, at time.Time, files []bundleFile) error {
	zw := zip.NewWriter(w)
	for _, file := range files {
		header := &zip.FileHeader{
			Name:     file.name,
			Method:   zip.Deflate,
			Modified: at.UTC(),
		}
		fw, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		if _, err := fw.Write(file.data); err != nil {
			return err
		}
	}
	return zw.Close()
}
