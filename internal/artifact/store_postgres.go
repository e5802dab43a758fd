package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	id "dealgate/pkg/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint failures.
const uniqueViolation = "23505"

// PostgresStore persists artifacts in PostgreSQL, content bytes included.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed artifact store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the artifacts table. The unique hash constraint enforces the
// cross-deal dedupe rule at the database level.
const Schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id UUID PRIMARY KEY,
	deal_id UUID NOT NULL,
	content_hash TEXT NOT NULL UNIQUE,
	filename TEXT NOT NULL,
	size_bytes BIGINT NOT NULL,
	content BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS artifacts_deal ON artifacts (deal_id);
`

// Put stores bytes for a deal, deduplicating by content hash.
func (s *PostgresStore) Put(ctx context.Context, dealID id.DealID, filename string, data []byte, createdAt time.Time) (Record, bool, error) {
	hash := HashBytes(data)
	record := Record{
		ID:        id.NewArtifactID(),
		DealID:    dealID,
		Hash:      hash,
		Filename:  filename,
		Size:      int64(len(data)),
		CreatedAt: createdAt,
	}
	query := `
		INSERT INTO artifacts (id, deal_id, content_hash, filename, size_bytes, content, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(record.ID),
		uuid.UUID(record.DealID),
		record.Hash,
		record.Filename,
		record.Size,
		data,
		record.CreatedAt,
	)
	if err == nil {
		return record, true, nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) || string(pqErr.Code) != uniqueViolation {
		return Record{}, false, fmt.Errorf("put artifact: %w", err)
	}

	// Hash collision with an existing record: same deal dedupes, different
	// deal is rejected.
	existing, lookupErr := s.GetByHash(ctx, hash)
	if lookupErr != nil {
		return Record{}, false, fmt.Errorf("put artifact: resolve duplicate: %w", lookupErr)
	}
	if existing.DealID != dealID {
		return Record{}, false, ErrDealMismatch
	}
	return existing, false, nil
}

// Get returns an artifact record and its bytes by ID.
func (s *PostgresStore) Get(ctx context.Context, artifactID id.ArtifactID) (Record, []byte, error) {
	query := `
		SELECT id, deal_id, content_hash, filename, size_bytes, content, created_at
		FROM artifacts WHERE id = $1
	`
	var (
		record   Record
		artUUID  uuid.UUID
		dealUUID uuid.UUID
		data     []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(artifactID)).Scan(
		&artUUID, &dealUUID, &record.Hash, &record.Filename, &record.Size, &data, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, nil, ErrNotFound
		}
		return Record{}, nil, fmt.Errorf("get artifact: %w", err)
	}
	record.ID = id.ArtifactID(artUUID)
	record.DealID = id.DealID(dealUUID)
	return record, data, nil
}

// GetByHash returns an artifact record by content hash.
func (s *PostgresStore) GetByHash(ctx context.Context, hash string) (Record, error) {
	query := `
		SELECT id, deal_id, content_hash, filename, size_bytes, created_at
		FROM artifacts WHERE content_hash = $1
	`
	var (
		record   Record
		artUUID  uuid.UUID
		dealUUID uuid.UUID
	)
	err := s.db.QueryRowContext(ctx, query, hash).Scan(
		&artUUID, &dealUUID, &record.Hash, &record.Filename, &record.Size, &record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get artifact by hash: %w", err)
	}
	record.ID = id.ArtifactID(artUUID)
	record.DealID = id.DealID(dealUUID)
	return record, nil
}

// ListByDeal returns records owned by the deal with created_at <= until.
func (s *PostgresStore) ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Record, error) {
	query := `
		SELECT id, deal_id, content_hash, filename, size_bytes, created_at
		FROM artifacts WHERE deal_id = $1 AND created_at <= $2 ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(dealID), until)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var (
			record   Record
			artUUID  uuid.UUID
			dealUUID uuid.UUID
		)
		if err := rows.Scan(&artUUID, &dealUUID, &record.Hash, &record.Filename, &record.Size, &record.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		record.ID = id.ArtifactID(artUUID)
		record.DealID = id.DealID(dealUUID)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate artifacts: %w", err)
	}
	return records, nil
}
