package roles

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	id "dealgate/pkg/domain"
)

// PostgresStore persists role assignments in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed role directory.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the role assignments table.
const Schema = `
CREATE TABLE IF NOT EXISTS role_assignments (
	deal_id UUID NOT NULL,
	actor_id UUID NOT NULL,
	role TEXT NOT NULL,
	assigned_at TIMESTAMPTZ NOT NULL,
	PRIMARY KEY (deal_id, actor_id, role, assigned_at)
);
CREATE INDEX IF NOT EXISTS role_assignments_deal
	ON role_assignments (deal_id, assigned_at);
`

// Assign records an actor-role assignment.
func (s *PostgresStore) Assign(ctx context.Context, assignment Assignment) error {
	query := `
		INSERT INTO role_assignments (deal_id, actor_id, role, assigned_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		uuid.UUID(assignment.DealID),
		uuid.UUID(assignment.ActorID),
		string(assignment.Role),
		assignment.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

// ListByDeal returns assignments on the deal with assigned_at <= until.
func (s *PostgresStore) ListByDeal(ctx context.Context, dealID id.DealID, until time.Time) ([]Assignment, error) {
	query := `
		SELECT deal_id, actor_id, role, assigned_at
		FROM role_assignments
		WHERE deal_id = $1 AND assigned_at <= $2
		ORDER BY assigned_at
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(dealID), until)
	if err != nil {
		return nil, fmt.Errorf("list role assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var (
			dealUUID  uuid.UUID
			actorUUID uuid.UUID
			role      string
			at        time.Time
		)
		if err := rows.Scan(&dealUUID, &actorUUID, &role, &at); err != nil {
			return nil, fmt.Errorf("scan role assignment: %w", err)
		}
		assignments = append(assignments, Assignment{
			DealID:     id.DealID(dealUUID),
			ActorID:    id.ActorID(actorUUID),
			Role:       Role(role),
			AssignedAt: at,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate role assignments: %w", err)
	}
	return assignments, nil
}
