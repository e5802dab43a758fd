//go:build integration

package journal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"dealgate/internal/journal"
	id "dealgate/pkg/domain"
	"dealgate/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *journal.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T())
	s.Require().NoError(s.postgres.ApplySchema(context.Background(), journal.Schema))
	s.store = journal.NewPostgresStore(s.postgres.Pool)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "deal_events"))
}

func (s *PostgresStoreSuite) newEvent(dealID id.DealID, typ journal.Type, at time.Time) journal.Event {
	return journal.Event{
		ID:        id.NewEventID(),
		DealID:    dealID,
		Type:      typ,
		ActorID:   id.NewActorID(),
		Payload:   journal.Payload{Action: "APPROVE_DEAL"},
		CreatedAt: at,
	}
}

func (s *PostgresStoreSuite) TestAppendAndList() {
	ctx := context.Background()
	dealID := id.NewDealID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := s.newEvent(dealID, journal.TypeReviewOpened, base)
	second := s.newEvent(dealID, journal.TypeApprovalGranted, base.Add(time.Minute))

	// Append out of order; reads must still come back canonical.
	s.Require().NoError(s.store.Append(ctx, second))
	s.Require().NoError(s.store.Append(ctx, first))

	events, err := s.store.ListByDeal(ctx, dealID, base.Add(time.Hour))
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(first.ID, events[0].ID)
	s.Equal(second.ID, events[1].ID)
	s.Equal("APPROVE_DEAL", events[1].Payload.Action)
}

func (s *PostgresStoreSuite) TestListHonorsTimeBound() {
	ctx := context.Background()
	dealID := id.NewDealID()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, s.newEvent(dealID, journal.TypeReviewOpened, base)))
	s.Require().NoError(s.store.Append(ctx, s.newEvent(dealID, journal.TypeDealApproved, base.Add(time.Hour))))

	events, err := s.store.ListByDeal(ctx, dealID, base.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(journal.TypeReviewOpened, events[0].Type)
}

func (s *PostgresStoreSuite) TestTimestampTiebreakMatchesMemoryStore() {
	ctx := context.Background()
	dealID := id.NewDealID()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	a := s.newEvent(dealID, journal.TypeApprovalGranted, at)
	b := s.newEvent(dealID, journal.TypeApprovalGranted, at)
	s.Require().NoError(s.store.Append(ctx, a))
	s.Require().NoError(s.store.Append(ctx, b))

	events, err := s.store.ListByDeal(ctx, dealID, at.Add(time.Minute))
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	want := []journal.Event{a, b}
	journal.SortCanonical(want)
	s.Equal(want[0].ID, events[0].ID)
	s.Equal(want[1].ID, events[1].ID)
}
