package application

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/wms-platform/ledger-service/pkg/errors"

	"github.com/wms-platform/ledger-service/internal/domain"
)

func int64Ptr(v int64) *int64 { return &v }

func newLedgerTestService(log *fakeMovementLog, store *fakeProjectionStore) *LedgerApplicationService {
	return NewLedgerApplicationService(log, store, testLogger(), nil)
}

func receiptCmd(qty int64, cost int64) ApplyMovementCommand {
	return ApplyMovementCommand{
		ItemID:       "WIDGET-001",
		WarehouseID:  "WH-EAST",
		MovementType: "RECEIPT",
		Quantity:     qty,
		UnitCost:     int64Ptr(cost),
		Currency:     "USD",
	}
}

func movementCmd(movementType string, qty int64) ApplyMovementCommand {
	return ApplyMovementCommand{
		ItemID:       "WIDGET-001",
		WarehouseID:  "WH-EAST",
		MovementType: movementType,
		Quantity:     qty,
		Currency:     "USD",
	}
}

func assertAppErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	appErr, ok := apperrors.AsAppError(err)
	require.True(t, ok, "expected AppError, got %v", err)
	assert.Equal(t, code, appErr.Code)
}

func TestApplyMovement_ReceiptIntoEmptyPosition(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	svc := newLedgerTestService(log, store)

	dto, err := svc.ApplyMovement(context.Background(), receiptCmd(100, 1000))
	require.NoError(t, err)

	assert.Equal(t, int64(100), dto.QuantityOnHand)
	assert.Equal(t, int64(100), dto.QuantityAvailable)
	assert.Equal(t, int64(1000), dto.AverageCost.Amount)
	assert.Equal(t, int64(100000), dto.TotalValue.Amount)
	assert.Equal(t, int64(1), dto.Version)

	key, _ := domain.NewPositionKey("WIDGET-001", "WH-EAST")
	events, err := log.ReadAll(context.Background(), key)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, int64(1), events[0].SequenceNumber)
	assert.NotEmpty(t, events[0].EventID)

	// The published fact carries the post-movement balances.
	require.Len(t, log.published, 1)
	recorded, ok := log.published[0].(*domain.MovementRecordedEvent)
	require.True(t, ok)
	assert.Equal(t, "wms.ledger.movement-recorded", recorded.EventType())
	assert.Equal(t, int64(100), recorded.OnHand)
	assert.Equal(t, int64(100000), recorded.TotalValue)
}

func TestApplyMovement_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		cmd  ApplyMovementCommand
	}{
		{
			name: "unknown movement type",
			cmd:  movementCmd("TELEPORT", 10),
		},
		{
			name: "zero quantity",
			cmd:  movementCmd("ISSUE", 0),
		},
		{
			name: "receipt without unit cost",
			cmd:  movementCmd("RECEIPT", 10),
		},
		{
			name: "unit cost on issue",
			cmd: ApplyMovementCommand{
				ItemID:       "WIDGET-001",
				WarehouseID:  "WH-EAST",
				MovementType: "ISSUE",
				Quantity:     10,
				UnitCost:     int64Ptr(1000),
				Currency:     "USD",
			},
		},
		{
			name: "missing item",
			cmd: ApplyMovementCommand{
				WarehouseID:  "WH-EAST",
				MovementType: "ISSUE",
				Quantity:     10,
				Currency:     "USD",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log := newFakeMovementLog()
			store := newFakeProjectionStore()
			svc := newLedgerTestService(log, store)

			_, err := svc.ApplyMovement(context.Background(), tt.cmd)
			assertAppErrorCode(t, err, apperrors.CodeValidationError)
			assert.Empty(t, log.streams["WIDGET-001/WH-EAST"])
		})
	}
}

func TestApplyMovement_InsufficientStock(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	svc := newLedgerTestService(log, store)

	_, err := svc.ApplyMovement(context.Background(), movementCmd("ISSUE", 5))
	assertAppErrorCode(t, err, apperrors.CodeInsufficientStock)

	// A rejected movement leaves no trace in the log.
	assert.Empty(t, log.streams["WIDGET-001/WH-EAST"])
	assert.Empty(t, log.published)
}

func TestApplyMovement_ReservationLifecycle(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	svc := newLedgerTestService(log, store)
	ctx := context.Background()

	_, err := svc.ApplyMovement(ctx, receiptCmd(100, 1000))
	require.NoError(t, err)

	dto, err := svc.ApplyMovement(ctx, movementCmd("RESERVE", 30))
	require.NoError(t, err)
	assert.Equal(t, int64(100), dto.QuantityOnHand)
	assert.Equal(t, int64(30), dto.QuantityReserved)
	assert.Equal(t, int64(70), dto.QuantityAvailable)

	// Issuing more than the unreserved stock is rejected.
	_, err = svc.ApplyMovement(ctx, movementCmd("ISSUE", 120))
	assertAppErrorCode(t, err, apperrors.CodeInsufficientStock)

	dto, err = svc.ApplyMovement(ctx, movementCmd("FULFILL_RESERVATION", 30))
	require.NoError(t, err)
	assert.Equal(t, int64(70), dto.QuantityOnHand)
	assert.Equal(t, int64(0), dto.QuantityReserved)
	assert.Equal(t, int64(70000), dto.TotalValue.Amount)
	assert.Equal(t, int64(3), dto.Version)
}

func TestApplyMovement_SequenceConflict(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	svc := newLedgerTestService(log, store)

	// The log already has an event the projection has not seen, as if a
	// competing writer won the race after our load.
	key, _ := domain.NewPositionKey("WIDGET-001", "WH-EAST")
	draft := domain.MovementDraft{Key: key, Type: domain.MovementReceipt, Quantity: 10, UnitCost: moneyArg(500), Currency: "USD"}
	log.seed(draft.ToEvent("evt-0", 1, timeArg()))

	_, err := svc.ApplyMovement(context.Background(), receiptCmd(100, 1000))
	assertAppErrorCode(t, err, apperrors.CodeConflict)
}

func TestApplyMovement_ConcurrentAppendsSingleWinnerPerRound(t *testing.T) {
	log := newFakeMovementLog()
	store := newFakeProjectionStore()
	svc := newLedgerTestService(log, store)

	const writers = 16
	var wg sync.WaitGroup
	var applied, conflicted atomic.Int64

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.ApplyMovement(context.Background(), receiptCmd(10, 1000))
			switch {
			case err == nil:
				applied.Add(1)
			default:
				appErr, ok := apperrors.AsAppError(err)
				require.True(t, ok)
				require.Equal(t, apperrors.CodeConflict, appErr.Code)
				conflicted.Add(1)
			}
		}()
	}
	wg.Wait()

	// Every writer either succeeded or lost a race; nothing vanished.
	assert.Equal(t, int64(writers), applied.Load()+conflicted.Load())
	assert.GreaterOrEqual(t, applied.Load(), int64(1))

	key, _ := domain.NewPositionKey("WIDGET-001", "WH-EAST")
	events, err := log.ReadAll(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, applied.Load(), int64(len(events)))

	// Sequence numbers are gapless and the projection tracked the tail.
	for i, e := range events {
		assert.Equal(t, int64(i+1), e.SequenceNumber)
	}
	final, err := store.Get(context.Background(), key)
	require.NoError(t, err)
	assert.Equal(t, int64(len(events)), final.Version)
	assert.Equal(t, int64(10)*applied.Load(), final.QuantityOnHand)
}

func moneyArg(cents int64) *domain.Money {
	return moneyArgIn(cents, "USD")
}

func moneyArgIn(cents int64, currency string) *domain.Money {
	m, _ := domain.NewMoney(cents, currency)
	return &m
}

func timeArg() time.Time {
	return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
}
