package mongodb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/wms-platform/ledger-service/internal/domain"
	"github.com/wms-platform/ledger-service/pkg/cloudevents"
	wmstesting "github.com/wms-platform/ledger-service/pkg/testing"
)

type LedgerRepositoryIntegrationTestSuite struct {
	suite.Suite
	mongoContainer *wmstesting.MongoDBContainer
	client         *mongo.Client
	db             *mongo.Database
	movementLog    *MovementLogRepository
	projections    *ProjectionRepository
	eventFactory   *cloudevents.EventFactory
	ctx            context.Context
}

func (s *LedgerRepositoryIntegrationTestSuite) SetupSuite() {
	s.ctx = context.Background()

	// Transactions need a replica set; the shared container helper runs
	// a single-node one.
	container, err := wmstesting.NewMongoDBContainer(s.ctx)
	s.Require().NoError(err)
	s.mongoContainer = container

	client, err := container.GetClient(s.ctx)
	s.Require().NoError(err)
	s.client = client

	s.db = client.Database("ledger_test")
	s.eventFactory = cloudevents.NewEventFactory("ledger-service")

	s.movementLog = NewMovementLogRepository(s.db, s.eventFactory)
	s.projections = NewProjectionRepository(s.db, s.eventFactory)
}

func (s *LedgerRepositoryIntegrationTestSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Disconnect(s.ctx)
	}
	if s.mongoContainer != nil {
		s.Require().NoError(s.mongoContainer.Close(s.ctx))
	}
}

func (s *LedgerRepositoryIntegrationTestSuite) TearDownTest() {
	s.db.Collection("movement_events").DeleteMany(s.ctx, map[string]interface{}{})
	s.db.Collection("position_projections").DeleteMany(s.ctx, map[string]interface{}{})
	s.db.Collection("outbox_events").DeleteMany(s.ctx, map[string]interface{}{})
}

func TestLedgerRepositoryIntegrationTestSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}
	suite.Run(t, new(LedgerRepositoryIntegrationTestSuite))
}

// Helpers

func (s *LedgerRepositoryIntegrationTestSuite) testKey(itemID string) domain.PositionKey {
	key, err := domain.NewPositionKey(itemID, "WH-EAST")
	s.Require().NoError(err)
	return key
}

func (s *LedgerRepositoryIntegrationTestSuite) receiptEvent(key domain.PositionKey, seq int64, qty int64, costCents int64) domain.MovementEvent {
	cost, err := domain.NewMoney(costCents, "USD")
	s.Require().NoError(err)
	draft := domain.MovementDraft{
		Key:      key,
		Type:     domain.MovementReceipt,
		Quantity: qty,
		UnitCost: &cost,
		Currency: "USD",
	}
	return draft.ToEvent(key.ItemID+"-evt-"+time.Now().Format("150405.000000000"), seq, time.Now().UTC())
}

func (s *LedgerRepositoryIntegrationTestSuite) recordedFact(e domain.MovementEvent) *domain.MovementRecordedEvent {
	return &domain.MovementRecordedEvent{
		EventID:        e.EventID,
		ItemID:         e.Key.ItemID,
		WarehouseID:    e.Key.WarehouseID,
		SequenceNumber: e.SequenceNumber,
		MovementType:   e.Type.String(),
		Quantity:       e.Quantity,
		Currency:       "USD",
		RecordedAt:     e.RecordedAt,
	}
}

// MovementLogRepository

func (s *LedgerRepositoryIntegrationTestSuite) TestMovementLog_AppendAndReadBack() {
	key := s.testKey("WIDGET-001")

	e1 := s.receiptEvent(key, 1, 100, 1000)
	err := s.movementLog.Append(s.ctx, e1, 0, s.recordedFact(e1))
	s.Require().NoError(err)

	e2 := s.receiptEvent(key, 2, 50, 1600)
	err = s.movementLog.Append(s.ctx, e2, 1, s.recordedFact(e2))
	s.Require().NoError(err)

	events, err := s.movementLog.ReadAll(s.ctx, key)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(int64(1), events[0].SequenceNumber)
	s.Equal(int64(2), events[1].SequenceNumber)
	s.Require().NotNil(events[0].UnitCost)
	s.Equal(int64(1000), events[0].UnitCost.Amount())
	s.Equal("USD", events[0].UnitCost.Currency())
}

func (s *LedgerRepositoryIntegrationTestSuite) TestMovementLog_AppendConflictOnStaleTail() {
	key := s.testKey("WIDGET-002")

	e1 := s.receiptEvent(key, 1, 100, 1000)
	s.Require().NoError(s.movementLog.Append(s.ctx, e1, 0))

	// A second writer that also observed the empty stream loses.
	stale := s.receiptEvent(key, 1, 10, 500)
	err := s.movementLog.Append(s.ctx, stale, 0)
	s.Require().ErrorIs(err, domain.ErrSequenceConflict)

	events, err := s.movementLog.ReadAll(s.ctx, key)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestMovementLog_AppendWritesOutboxAtomically() {
	key := s.testKey("WIDGET-003")

	e1 := s.receiptEvent(key, 1, 100, 1000)
	s.Require().NoError(s.movementLog.Append(s.ctx, e1, 0, s.recordedFact(e1)))

	count, err := s.db.Collection("outbox_events").CountDocuments(s.ctx, map[string]interface{}{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)

	// A conflicting append must not leave an outbox event behind.
	stale := s.receiptEvent(key, 1, 10, 500)
	err = s.movementLog.Append(s.ctx, stale, 0, s.recordedFact(stale))
	s.Require().ErrorIs(err, domain.ErrSequenceConflict)

	count, err = s.db.Collection("outbox_events").CountDocuments(s.ctx, map[string]interface{}{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestMovementLog_ConcurrentAppendsSingleWinner() {
	key := s.testKey("WIDGET-004")

	const writers = 8
	var wg sync.WaitGroup
	results := make(chan error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			e := s.receiptEvent(key, 1, int64(10+n), 1000)
			results <- s.movementLog.Append(context.Background(), e, 0)
		}(i)
	}
	wg.Wait()
	close(results)

	winners := 0
	for err := range results {
		if err == nil {
			winners++
		} else {
			s.Require().ErrorIs(err, domain.ErrSequenceConflict)
		}
	}
	s.Equal(1, winners)

	events, err := s.movementLog.ReadAll(s.ctx, key)
	s.Require().NoError(err)
	s.Len(events, 1)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestMovementLog_ReadAllEmptyStream() {
	events, err := s.movementLog.ReadAll(s.ctx, s.testKey("NEVER-MOVED"))
	s.Require().NoError(err)
	s.Empty(events)
}

// ProjectionRepository

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_GetMissing() {
	_, err := s.projections.Get(s.ctx, s.testKey("NEVER-MOVED"))
	s.Require().ErrorIs(err, domain.ErrPositionNotFound)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_CASInsertAndUpdate() {
	key := s.testKey("WIDGET-010")

	p1 := domain.ZeroProjection(key, "USD")
	p1.QuantityOnHand = 100
	p1.Version = 1
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 0, p1))

	got, err := s.projections.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(100), got.QuantityOnHand)
	s.Equal(int64(1), got.Version)

	p2 := got
	p2.QuantityOnHand = 80
	p2.Version = 2
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 1, p2))

	got, err = s.projections.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(80), got.QuantityOnHand)
	s.Equal(int64(2), got.Version)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_CASConflicts() {
	key := s.testKey("WIDGET-011")

	p1 := domain.ZeroProjection(key, "USD")
	p1.QuantityOnHand = 100
	p1.Version = 1
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 0, p1))

	// Racing first-writer loses on the unique key index.
	err := s.projections.CompareAndSwap(s.ctx, key, 0, p1)
	s.Require().ErrorIs(err, domain.ErrVersionConflict)

	// Stale version loses on the filter.
	stale := p1
	stale.Version = 5
	err = s.projections.CompareAndSwap(s.ctx, key, 4, stale)
	s.Require().ErrorIs(err, domain.ErrVersionConflict)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_MoneyRoundTrip() {
	key := s.testKey("WIDGET-012")

	p := domain.ZeroProjection(key, "USD")
	p.QuantityOnHand = 150
	avg, err := domain.NewMoney(1200, "USD")
	s.Require().NoError(err)
	p.AverageCost = avg
	p.TotalValue = avg.Multiply(150)
	p.Version = 2
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 0, p))

	got, err := s.projections.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(1200), got.AverageCost.Amount())
	s.Equal("USD", got.AverageCost.Currency())
	s.Equal(int64(180000), got.TotalValue.Amount())
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_OverwriteRepairsRow() {
	key := s.testKey("WIDGET-013")

	corrupt := domain.ZeroProjection(key, "USD")
	corrupt.QuantityOnHand = 999
	corrupt.Version = 3
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 0, corrupt))

	repaired := domain.ZeroProjection(key, "USD")
	repaired.QuantityOnHand = 70
	repaired.Version = 3

	reconciled := &domain.PositionReconciledEvent{
		ItemID:        key.ItemID,
		WarehouseID:   key.WarehouseID,
		Repaired:      true,
		StoredVersion: 3,
		ReplayVersion: 3,
		CompletedAt:   time.Now().UTC(),
	}
	s.Require().NoError(s.projections.Overwrite(s.ctx, key, 3, repaired, reconciled))

	got, err := s.projections.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(70), got.QuantityOnHand)

	count, err := s.db.Collection("outbox_events").CountDocuments(s.ctx, map[string]interface{}{})
	s.Require().NoError(err)
	s.Equal(int64(1), count)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_OverwriteConflictWhenVersionMoved() {
	key := s.testKey("WIDGET-014")

	p := domain.ZeroProjection(key, "USD")
	p.QuantityOnHand = 100
	p.Version = 4
	s.Require().NoError(s.projections.CompareAndSwap(s.ctx, key, 0, p))

	next := p
	next.QuantityOnHand = 70
	err := s.projections.Overwrite(s.ctx, key, 3, next)
	s.Require().ErrorIs(err, domain.ErrVersionConflict)
}

func (s *LedgerRepositoryIntegrationTestSuite) TestProjections_OverwriteUpsertsMissingRow() {
	key := s.testKey("WIDGET-015")

	rebuilt := domain.ZeroProjection(key, "USD")
	rebuilt.QuantityOnHand = 70
	rebuilt.Version = 3
	s.Require().NoError(s.projections.Overwrite(s.ctx, key, 0, rebuilt))

	got, err := s.projections.Get(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(int64(70), got.QuantityOnHand)
	s.Equal(int64(3), got.Version)
}
