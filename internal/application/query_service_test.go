package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/ledger-service/internal/domain"
)

func newQueryTestService(log *fakeMovementLog, store *fakeProjectionStore) *LedgerQueryService {
	return NewLedgerQueryService(log, store, "USD", testLogger())
}

func TestGetPosition_NeverMovedReadsAsZero(t *testing.T) {
	svc := newQueryTestService(newFakeMovementLog(), newFakeProjectionStore())

	dto, err := svc.GetPosition(context.Background(), GetPositionQuery{
		ItemID:      "WIDGET-001",
		WarehouseID: "WH-EAST",
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), dto.QuantityOnHand)
	assert.Equal(t, int64(0), dto.QuantityAvailable)
	assert.Equal(t, int64(0), dto.Version)
	assert.Equal(t, "USD", dto.AverageCost.Currency)
}

func TestGetPosition_ReturnsStoredProjection(t *testing.T) {
	store := newFakeProjectionStore()
	key, _ := domain.NewPositionKey("WIDGET-001", "WH-EAST")
	p := domain.ZeroProjection(key, "USD")
	p.QuantityOnHand = 70
	p.QuantityReserved = 20
	p.Version = 5
	store.put(p)

	svc := newQueryTestService(newFakeMovementLog(), store)

	dto, err := svc.GetPosition(context.Background(), GetPositionQuery{
		ItemID:      "WIDGET-001",
		WarehouseID: "WH-EAST",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(70), dto.QuantityOnHand)
	assert.Equal(t, int64(50), dto.QuantityAvailable)
	assert.Equal(t, int64(5), dto.Version)
}

func TestGetPosition_InvalidKey(t *testing.T) {
	svc := newQueryTestService(newFakeMovementLog(), newFakeProjectionStore())

	_, err := svc.GetPosition(context.Background(), GetPositionQuery{WarehouseID: "WH-EAST"})
	assert.Error(t, err)
}

func TestGetMovements_LimitKeepsMostRecentAscending(t *testing.T) {
	log := newFakeMovementLog()
	key, _ := domain.NewPositionKey("WIDGET-001", "WH-EAST")

	receipt := domain.MovementDraft{Key: key, Type: domain.MovementReceipt, Quantity: 50, UnitCost: moneyArg(1000), Currency: "USD"}
	issue := domain.MovementDraft{Key: key, Type: domain.MovementIssue, Quantity: 5, Currency: "USD"}
	log.seed(
		receipt.ToEvent("evt-1", 1, timeArg()),
		issue.ToEvent("evt-2", 2, timeArg()),
		issue.ToEvent("evt-3", 3, timeArg()),
		issue.ToEvent("evt-4", 4, timeArg()),
	)

	svc := newQueryTestService(log, newFakeProjectionStore())

	movements, err := svc.GetMovements(context.Background(), GetMovementsQuery{
		ItemID:      "WIDGET-001",
		WarehouseID: "WH-EAST",
		Limit:       2,
	})
	require.NoError(t, err)
	require.Len(t, movements, 2)
	assert.Equal(t, int64(3), movements[0].SequenceNumber)
	assert.Equal(t, int64(4), movements[1].SequenceNumber)

	all, err := svc.GetMovements(context.Background(), GetMovementsQuery{
		ItemID:      "WIDGET-001",
		WarehouseID: "WH-EAST",
	})
	require.NoError(t, err)
	assert.Len(t, all, 4)
	assert.Equal(t, "RECEIPT", all[0].MovementType)
	require.NotNil(t, all[0].UnitCost)
	assert.Equal(t, int64(1000), all[0].UnitCost.Amount)
	assert.Nil(t, all[1].UnitCost)
}
