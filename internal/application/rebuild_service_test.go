package application

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/ledger-service/pkg/errors"

	"github.com/wms-platform/ledger-service/internal/domain"
)

func newRebuildTestService(log *fakeMovementLog, store *fakeProjectionStore) *RebuildService {
	return NewRebuildService(log, store, testLogger(), nil)
}

func seedStream(t *testing.T, log *fakeMovementLog) domain.PositionKey {
	t.Helper()
	key, err := domain.NewPositionKey("WIDGET-001", "WH-EAST")
	require.NoError(t, err)

	receipt := domain.MovementDraft{Key: key, Type: domain.MovementReceipt, Quantity: 100, UnitCost: moneyArg(1000), Currency: "USD"}
	reserve := domain.MovementDraft{Key: key, Type: domain.MovementReserve, Quantity: 30, Currency: "USD"}
	fulfill := domain.MovementDraft{Key: key, Type: domain.MovementFulfillReservation, Quantity: 30, Currency: "USD"}
	log.seed(
		receipt.ToEvent("evt-1", 1, timeArg()),
		reserve.ToEvent("evt-2", 2, timeArg()),
		fulfill.ToEvent("evt-3", 3, timeArg()),
	)
	return key
}

func rebuildCmd() RebuildCommand {
	return RebuildCommand{ItemID: "WIDGET-001", WarehouseID: "WH-EAST", Currency: "USD"}
}

func reconcileCmd() ReconcileCommand {
	return ReconcileCommand{ItemID: "WIDGET-001", WarehouseID: "WH-EAST", Currency: "USD"}
}

func TestRebuild_FoldsFullStream(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	seedStream(t, log)
	svc := newRebuildTestService(log, store)

	dto, err := svc.Rebuild(context.Background(), rebuildCmd())
	require.NoError(t, err)

	assert.Equal(t, int64(70), dto.QuantityOnHand)
	assert.Equal(t, int64(0), dto.QuantityReserved)
	assert.Equal(t, int64(70000), dto.TotalValue.Amount)
	assert.Equal(t, int64(3), dto.Version)
}

func TestRebuild_DoesNotWriteBack(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key := seedStream(t, log)
	svc := newRebuildTestService(log, store)

	_, err := svc.Rebuild(context.Background(), rebuildCmd())
	require.NoError(t, err)

	// The store had no row and rebuild must not create one.
	_, err = store.Get(context.Background(), key)
	assert.ErrorIs(t, err, domain.ErrPositionNotFound)
}

func TestRebuild_LeavesStaleProjectionUntouched(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key := seedStream(t, log)

	stale := domain.ZeroProjection(key, "USD")
	stale.QuantityOnHand = 100
	stale.Version = 1
	store.put(stale)

	svc := newRebuildTestService(log, store)

	dto, err := svc.Rebuild(context.Background(), rebuildCmd())
	require.NoError(t, err)
	assert.Equal(t, int64(70), dto.QuantityOnHand)
	assert.Equal(t, int64(3), dto.Version)

	stored, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.QuantityOnHand)
	assert.Equal(t, int64(1), stored.Version)
}

func TestReconcile_Matched(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key := seedStream(t, log)

	events, err := log.ReadAll(context.Background(), key)
	require.NoError(t, err)
	replayed, err := domain.Replay(key, "USD", events)
	require.NoError(t, err)
	store.put(replayed)

	svc := newRebuildTestService(log, store)

	report, err := svc.Reconcile(context.Background(), reconcileCmd())
	require.NoError(t, err)
	assert.True(t, report.Matched)
	assert.False(t, report.Repaired)
	assert.Empty(t, report.Differences)
	assert.Equal(t, int64(3), report.StoredVersion)
	assert.Equal(t, int64(3), report.ReplayVersion)
}

func TestReconcile_DivergenceIsRepairedNotErrored(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key := seedStream(t, log)

	corrupt := domain.ZeroProjection(key, "USD")
	corrupt.QuantityOnHand = 99
	corrupt.Version = 3
	store.put(corrupt)

	svc := newRebuildTestService(log, store)

	report, err := svc.Reconcile(context.Background(), reconcileCmd())
	require.NoError(t, err)
	assert.False(t, report.Matched)
	assert.True(t, report.Repaired)
	assert.NotEmpty(t, report.Differences)

	fields := make([]string, len(report.Differences))
	for i, d := range report.Differences {
		fields[i] = d.Field
	}
	assert.Contains(t, fields, "quantityOnHand")

	stored, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(70), stored.QuantityOnHand)
	assert.Equal(t, int64(3), stored.Version)

	require.Len(t, store.published, 1)
	reconciled, ok := store.published[0].(*domain.PositionReconciledEvent)
	require.True(t, ok)
	assert.Equal(t, "wms.ledger.position-reconciled", reconciled.EventType())
	assert.True(t, reconciled.Repaired)
}

func TestReconcile_RepairGivesUpWhenContended(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key := seedStream(t, log)

	corrupt := domain.ZeroProjection(key, "USD")
	corrupt.QuantityOnHand = 99
	corrupt.Version = 3
	store.put(corrupt)
	store.overwriteErr = domain.ErrVersionConflict

	svc := newRebuildTestService(log, store)

	_, err := svc.Reconcile(context.Background(), reconcileCmd())
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestReconcile_EmptyLogAndMissingProjectionMatch(t *testing.T) {
	svc := newRebuildTestService(newFakeMovementLog(), newFakeProjectionStore())

	report, err := svc.Reconcile(context.Background(), reconcileCmd())
	require.NoError(t, err)
	assert.True(t, report.Matched)
	assert.Equal(t, int64(0), report.StoredVersion)
	assert.Equal(t, int64(0), report.ReplayVersion)
}

func TestReconcile_StreamCurrencyWinsOverFallback(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	key, err := domain.NewPositionKey("WIDGET-002", "WH-WEST")
	require.NoError(t, err)

	receipt := domain.MovementDraft{Key: key, Type: domain.MovementReceipt, Quantity: 10, UnitCost: moneyArgIn(500, "EUR"), Currency: "EUR"}
	log.seed(receipt.ToEvent("evt-1", 1, timeArg()))

	replayed, err := domain.Replay(key, "EUR", []domain.MovementEvent{receipt.ToEvent("evt-1", 1, timeArg())})
	require.NoError(t, err)
	store.put(replayed)

	svc := newRebuildTestService(log, store)

	// The command carries the operational default currency, not the
	// stream's. Replay must still succeed and match.
	report, err := svc.Reconcile(context.Background(), ReconcileCommand{
		ItemID:      key.ItemID,
		WarehouseID: key.WarehouseID,
		Currency:    "USD",
	})
	require.NoError(t, err)
	assert.True(t, report.Matched)
}

func TestStreamCurrency(t *testing.T) {
	key, err := domain.NewPositionKey("WIDGET-003", "WH-EAST")
	require.NoError(t, err)

	receipt := domain.MovementDraft{Key: key, Type: domain.MovementReceipt, Quantity: 5, UnitCost: moneyArgIn(100, "GBP"), Currency: "GBP"}
	reserve := domain.MovementDraft{Key: key, Type: domain.MovementReserve, Quantity: 1, Currency: "GBP"}

	uncosted := []domain.MovementEvent{reserve.ToEvent("evt-1", 1, timeArg())}
	assert.Equal(t, "USD", domain.StreamCurrency(uncosted, "USD"))

	costed := []domain.MovementEvent{
		reserve.ToEvent("evt-1", 1, timeArg()),
		receipt.ToEvent("evt-2", 2, timeArg()),
	}
	assert.Equal(t, "GBP", domain.StreamCurrency(costed, "USD"))

	assert.Equal(t, "USD", domain.StreamCurrency(nil, "USD"))
}
