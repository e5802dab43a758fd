package deal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	id "dealgate/pkg/domain"
)

// PostgresStore persists the deal registry in PostgreSQL. The seeded
// authority rules are stored with the deal so later policy changes never
// rewrite existing deals.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore constructs a PostgreSQL-backed deal registry.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Schema creates the deals table.
const Schema = `
CREATE TABLE IF NOT EXISTS deals (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	rules JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);
`

// Create records a new deal with its seeded authority rules.
func (s *PostgresStore) Create(ctx context.Context, deal Deal) error {
	rules, err := json.Marshal(deal.Rules)
	if err != nil {
		return fmt.Errorf("encode deal rules: %w", err)
	}
	query := `
		INSERT INTO deals (id, name, rules, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err = s.db.ExecContext(ctx, query,
		uuid.UUID(deal.ID),
		deal.Name,
		rules,
		deal.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create deal: %w", err)
	}
	return nil
}

// Get returns a deal by ID.
func (s *PostgresStore) Get(ctx context.Context, dealID id.DealID) (Deal, error) {
	query := `
		SELECT id, name, rules, created_at
		FROM deals WHERE id = $1
	`
	var (
		deal     Deal
		dealUUID uuid.UUID
		rules    []byte
	)
	err := s.db.QueryRowContext(ctx, query, uuid.UUID(dealID)).Scan(
		&dealUUID, &deal.Name, &rules, &deal.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Deal{}, ErrNotFound
		}
		return Deal{}, fmt.Errorf("get deal: %w", err)
	}
	deal.ID = id.DealID(dealUUID)
	if err := json.Unmarshal(rules, &deal.Rules); err != nil {
		return Deal{}, fmt.Errorf("decode deal rules: %w", err)
	}
	return deal, nil
}

// List returns every registered deal.
func (s *PostgresStore) List(ctx context.Context) ([]Deal, error) {
	query := `
		SELECT id, name, rules, created_at
		FROM deals ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list deals: %w", err)
	}
	defer rows.Close()

	var deals []Deal
	for rows.Next() {
		var (
			deal     Deal
			dealUUID uuid.UUID
			rules    []byte
		)
		if err := rows.Scan(&dealUUID, &deal.Name, &rules, &deal.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan deal: %w", err)
		}
		deal.ID = id.DealID(dealUUID)
		if err := json.Unmarshal(rules, &deal.Rules); err != nil {
			return nil, fmt.Errorf("decode deal rules: %w", err)
		}
		deals = append(deals, deal)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate deals: %w", err)
	}
	return deals, nil
}
