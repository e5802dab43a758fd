package proofpack

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dealgate/internal/artifact"
	"dealgate/internal/deal"
	"dealgate/internal/journal"
	"dealgate/internal/material"
	"dealgate/internal/policy"
	"dealgate/internal/roles"
	id "dealgate/pkg/domain"
	dErrors "dealgate/pkg/domain-errors"
	"dealgate/pkg/requestcontext"
)

var base = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	compiler *Compiler
	service  *deal.Service
	dealID   id.DealID
	gp       id.ActorID
	artifact artifact.Record
}

// newFixture seeds a deal with a GP, an artifact, a material referencing the
// artifact, and an approved review walk.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	service := deal.NewService(
		deal.NewInMemoryStore(),
		journal.NewInMemoryStore(),
		material.NewInMemoryStore(),
		roles.NewInMemoryStore(),
		artifact.NewInMemoryStore(),
		deal.NewSerializer(),
		deal.NewInMemoryProjectionCache(),
		nil,
		nil,
		slog.New(slog.DiscardHandler),
	)
	logger := slog.New(slog.DiscardHandler)

	gp := id.NewActorID()
	at := func(t time.Time) context.Context {
		return requestcontext.WithActorID(requestcontext.WithTime(context.Background(), t), gp)
	}

	created, err := service.CreateDeal(at(base), "riverbend portfolio")
	require.NoError(t, err)
	_, err = service.AssignRole(at(base), created.ID, gp, roles.RoleGP)
	require.NoError(t, err)

	record, _, err := service.UploadArtifact(at(base), created.ID, "summary.pdf", []byte("underwriting summary"))
	require.NoError(t, err)
	_, err = service.RegisterMaterial(at(base.Add(time.Minute)), created.ID,
		"UnderwritingSummary", material.TruthHuman, []id.ArtifactID{record.ID})
	require.NoError(t, err)

	for i, step := range []struct {
		typ     journal.Type
		payload journal.Payload
	}{
		{journal.TypeReviewOpened, journal.Payload{}},
		{journal.TypeApprovalGranted, journal.Payload{Action: string(policy.ActionApproveDeal)}},
		{journal.TypeDealApproved, journal.Payload{}},
	} {
		result, err := service.AppendEvent(at(base.Add(time.Duration(i+2)*time.Minute)), created.ID, step.typ, step.payload, nil)
		require.NoError(t, err)
		require.True(t, result.Appended())
	}

	return &fixture{
		compiler: NewCompiler(service, logger),
		service:  service,
		dealID:   created.ID,
		gp:       gp,
		artifact: record,
	}
}

func readArchive(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		content, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		files[f.Name] = content
	}
	return files
}

func TestCompile_BundleContents(t *testing.T) {
	f := newFixture(t)
	at := base.Add(10 * time.Minute)
	actions := []policy.Action{policy.ActionApproveDeal, policy.ActionAttestReadyToClose}

	var buf bytes.Buffer
	manifest, err := f.compiler.Compile(context.Background(), f.dealID, at, actions, &buf)
	require.NoError(t, err)

	files := readArchive(t, buf.Bytes())
	assert.Contains(t, files, "snapshot.json")
	assert.Contains(t, files, "explain-approve_deal.json")
	assert.Contains(t, files, "explain-attest_ready_to_close.json")
	assert.Contains(t, files, "evidence-index.json")
	assert.Contains(t, files, "summary.txt")
	assert.Contains(t, files, "manifest.json")

	assert.Equal(t, ManifestVersion, manifest.Version)
	assert.Equal(t, 3, manifest.ReplayInputs.EventCount)
	assert.Equal(t, 1, manifest.ReplayInputs.MaterialCount)
	assert.Equal(t, 1, manifest.ReplayInputs.AssignmentCount)

	// Manifest digests must match the actual archive members.
	require.Len(t, manifest.Files, 5)
	for _, digest := range manifest.Files {
		content, ok := files[digest.Name]
		require.True(t, ok, "manifest names missing file %s", digest.Name)
		sum := sha256.Sum256(content)
		assert.Equal(t, digest.SHA256, hex.EncodeToString(sum[:]))
		assert.Equal(t, digest.Size, int64(len(content)))
	}
}

func TestCompile_EvidenceIndex(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	_, err := f.compiler.Compile(context.Background(), f.dealID, base.Add(10*time.Minute),
		[]policy.Action{policy.ActionApproveDeal}, &buf)
	require.NoError(t, err)

	files := readArchive(t, buf.Bytes())
	var index EvidenceIndex
	require.NoError(t, json.Unmarshal(files["evidence-index.json"], &index))

	require.Len(t, index.Artifacts, 1)
	entry := index.Artifacts[0]
	assert.Equal(t, f.artifact.ID, entry.ArtifactID)
	assert.Equal(t, artifact.HashBytes([]byte("underwriting summary")), entry.Hash)
	require.Len(t, entry.References, 1)
	assert.Equal(t, "material", entry.References[0].Kind)
}

func TestCompile_ExplainMatchesHistory(t *testing.T) {
	f := newFixture(t)

	// At a T before the material existed, the bundled explain must block.
	var buf bytes.Buffer
	_, err := f.compiler.Compile(context.Background(), f.dealID, base.Add(30*time.Second),
		[]policy.Action{policy.ActionApproveDeal}, &buf)
	require.NoError(t, err)

	files := readArchive(t, buf.Bytes())
	explain := string(files["explain-approve_deal.json"])
	assert.Contains(t, explain, "BLOCKED")
	assert.Contains(t, explain, "MISSING_MATERIAL")
}

func TestCompile_Deterministic(t *testing.T) {
	f := newFixture(t)
	at := base.Add(10 * time.Minute)
	actions := []policy.Action{policy.ActionApproveDeal}

	var first bytes.Buffer
	_, err := f.compiler.Compile(context.Background(), f.dealID, at, actions, &first)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		var again bytes.Buffer
		_, err := f.compiler.Compile(context.Background(), f.dealID, at, actions, &again)
		require.NoError(t, err)
		assert.Equal(t, first.Bytes(), again.Bytes())
	}
}

func TestCompile_ReproducibleAfterLaterUpload(t *testing.T) {
	f := newFixture(t)
	at := base.Add(10 * time.Minute)
	actions := []policy.Action{policy.ActionApproveDeal}

	var first bytes.Buffer
	_, err := f.compiler.Compile(context.Background(), f.dealID, at, actions, &first)
	require.NoError(t, err)

	// An artifact uploaded after T must not change a bundle recompiled at T.
	laterCtx := requestcontext.WithActorID(requestcontext.WithTime(context.Background(), base.Add(time.Hour)), f.gp)
	_, created, err := f.service.UploadArtifact(laterCtx, f.dealID, "addendum.pdf", []byte("post-close addendum"))
	require.NoError(t, err)
	require.True(t, created)

	var again bytes.Buffer
	_, err = f.compiler.Compile(context.Background(), f.dealID, at, actions, &again)
	require.NoError(t, err)
	assert.Equal(t, first.Bytes(), again.Bytes())

	files := readArchive(t, again.Bytes())
	var index EvidenceIndex
	require.NoError(t, json.Unmarshal(files["evidence-index.json"], &index))
	require.Len(t, index.Artifacts, 1)
	assert.Equal(t, f.artifact.ID, index.Artifacts[0].ArtifactID)

	// A bundle compiled past the upload does include it.
	var after bytes.Buffer
	_, err = f.compiler.Compile(context.Background(), f.dealID, base.Add(2*time.Hour), actions, &after)
	require.NoError(t, err)

	var laterIndex EvidenceIndex
	require.NoError(t, json.Unmarshal(readArchive(t, after.Bytes())["evidence-index.json"], &laterIndex))
	assert.Len(t, laterIndex.Artifacts, 2)
}

func TestCompile_Validation(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	_, err := f.compiler.Compile(context.Background(), f.dealID, base, nil, &buf)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = f.compiler.Compile(context.Background(), id.NewDealID(), base,
		[]policy.Action{policy.ActionApproveDeal}, &buf)
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
