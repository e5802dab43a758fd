package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	id "dealgate/pkg/domain"
)

// PostgresStore persists the event journal in PostgreSQL via pgx. Each append
// is a single-statement transaction, so the all-or-nothing write contract
// falls out of the database's atomicity.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs a PostgreSQL-backed event store.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Schema creates the journal table. Applied by deploy tooling and the
// integration test harness.
const Schema = `
CREATE TABLE IF NOT EXISTS deal_events (
	id UUID PRIMARY KEY,
	deal_id UUID NOT NULL,
	event_type TEXT NOT NULL,
	actor_id UUID NOT NULL,
	payload JSONB NOT NULL DEFAULT '{}',
	evidence_refs UUID[] NOT NULL DEFAULT '{}',
	created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS deal_events_deal_order
	ON deal_events (deal_id, created_at, id);
`

// Append persists one event.
func (s *PostgresStore) Append(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}
	refs := make([]string, len(event.EvidenceRefs))
	for i, ref := range event.EvidenceRefs {
		refs[i] = ref.String()
	}
	query := `
		INSERT INTO deal_events (id, deal_id, event_type, actor_id, payload, evidence_refs, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = s.pool.Exec(ctx, query,
		uuid.UUID(event.ID),
		uuid.UUID(event.DealID),
		string(event.Type),
		uuid.UUID(event.ActorID),
		payload,
		refs,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByDeal returns all events for a deal with created_at <= until, ordered
// by (created_at, id). The UUID text ordering matches the in-memory tiebreak.
func (s *PostgresStore) ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Event, error) {
	query := `
		SELECT id, deal_id, event_type, actor_id, payload, evidence_refs, created_at
		FROM deal_events
		WHERE deal_id = $1 AND created_at <= $2
		ORDER BY created_at, id::text
	`
	rows, err := s.pool.Query(ctx, query, uuid.UUID(dealID), until)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			event     Event
			eventID   uuid.UUID
			eventDeal uuid.UUID
			eventType string
			actorID   uuid.UUID
			payload   []byte
			refs      []string
			createdAt time.Time
		)
		if err := rows.Scan(&eventID, &eventDeal, &eventType, &actorID, &payload, &refs, &createdAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		event.ID = id.EventID(eventID)
		event.DealID = id.DealID(eventDeal)
		event.Type = Type(eventType)
		event.ActorID = id.ActorID(actorID)
		event.CreatedAt = createdAt
		if err := json.Unmarshal(payload, &event.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal event payload: %w", err)
		}
		for _, raw := range refs {
			refUUID, err := uuid.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("event %s: bad evidence ref: %w", eventID, err)
			}
			event.EvidenceRefs = append(event.EvidenceRefs, id.ArtifactID(refUUID))
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}
