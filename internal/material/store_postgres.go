package material

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "dealgate/pkg/domain"
)

// PostgresStore persists material revisions in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed material store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the material revisions table.
const Schema = `
CREATE TABLE IF NOT EXISTS material_revisions (
	id UUID PRIMARY KEY,
	deal_id UUID NOT NULL,
	material_type TEXT NOT NULL,
	truth_class TEXT NOT NULL,
	artifact_refs UUID[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS material_revisions_deal
	ON material_revisions (deal_id, created_at);
`

// Save persists one revision.
func (s *PostgresStore) Save(ctx context.Context, revision Revision) error {
	refs := make([]uuid.UUID, len(revision.ArtifactRefs))
	for i, ref := range revision.ArtifactRefs {
		refs[i] = uuid.UUID(ref)
	}
	query := `
		INSERT INTO material_revisions (id, deal_id, material_type, truth_class, artifact_refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(revision.ID),
		uuid.UUID(revision.DealID),
		revision.Type,
		revision.TruthClass.String(),
		pq.Array(refs),
		revision.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save material revision: %w", err)
	}
	return nil
}

// ListByDeal returns revisions on the deal with created_at <= until.
func (s *PostgresStore) ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Revision, error) {
	query := `
		SELECT id, deal_id, material_type, truth_class, artifact_refs, created_at
		FROM material_revisions
		WHERE deal_id = $1 AND created_at <= $2
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(dealID), until)
	if err != nil {
		return nil, fmt.Errorf("list material revisions: %w", err)
	}
	defer rows.Close()

	var revisions []Revision
	for rows.Next() {
		var (
			revUUID    uuid.UUID
			dealUUID   uuid.UUID
			matType    string
			truthName  string
			refStrings pq.StringArray
			createdAt  time.Time
		)
		if err := rows.Scan(&revUUID, &dealUUID, &matType, &truthName, &refStrings, &createdAt); err != nil {
			return nil, fmt.Errorf("scan material revision: %w", err)
		}
		tier, err := ParseTruthClass(truthName)
		if err != nil {
			return nil, fmt.Errorf("material revision %s: %w", revUUID, err)
		}
		rev := Revision{
			ID:         id.MaterialID(revUUID),
			DealID:     id.DealID(dealUUID),
			Type:       matType,
			TruthClass: tier,
			CreatedAt:  createdAt,
		}
		for _, raw := range refStrings {
			refUUID, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("material revision %s: bad artifact ref: %w", revUUID, err)
			}
			rev.ArtifactRefs = append(rev.ArtifactRefs, id.ArtifactID(refUUID))
		}
		revisions = append(revisions, rev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate material revisions: %w", err)
	}
	return revisions, nil
}
