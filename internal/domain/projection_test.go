package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) PositionKey {
	t.Helper()
	key, err := NewPositionKey("WIDGET-001", "WH-EAST")
	require.NoError(t, err)
	return key
}

func testEvent(key PositionKey, seq int64, mt MovementType, qty int64, unitCost *Money) MovementEvent {
	return MovementEvent{
		EventID:        "evt-" + mt.String(),
		Key:            key,
		SequenceNumber: seq,
		Type:           mt,
		Quantity:       qty,
		UnitCost:       unitCost,
		OccurredAt:     time.Date(2025, 6, 1, 0, 0, int(seq), 0, time.UTC),
		RecordedAt:     time.Date(2025, 6, 1, 0, 0, int(seq), 0, time.UTC),
	}
}

func TestZeroProjection(t *testing.T) {
	key := testKey(t)
	p := ZeroProjection(key, "USD")

	assert.Equal(t, int64(0), p.QuantityOnHand)
	assert.Equal(t, int64(0), p.QuantityReserved)
	assert.Equal(t, int64(0), p.Version)
	assert.True(t, p.AverageCost.IsZero())
	assert.True(t, p.TotalValue.IsZero())
	assert.Equal(t, "USD", p.AverageCost.Currency())
}

func TestNextProjection_QuantityTransitions(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name             string
		movementType     MovementType
		quantity         int64
		unitCost         *Money
		expectedOnHand   int64
		expectedReserved int64
	}{
		{
			name:           "receipt adds on hand",
			movementType:   MovementReceipt,
			quantity:       50,
			unitCost:       moneyPtr(1000, "USD"),
			expectedOnHand: 150,
		},
		{
			name:           "issue removes on hand",
			movementType:   MovementIssue,
			quantity:       30,
			expectedOnHand: 70,
		},
		{
			name:           "transfer out removes on hand",
			movementType:   MovementTransferOut,
			quantity:       100,
			expectedOnHand: 0,
		},
		{
			name:           "transfer in adds on hand",
			movementType:   MovementTransferIn,
			quantity:       25,
			expectedOnHand: 125,
		},
		{
			name:           "positive adjustment",
			movementType:   MovementAdjustment,
			quantity:       7,
			expectedOnHand: 107,
		},
		{
			name:           "negative adjustment",
			movementType:   MovementAdjustment,
			quantity:       -7,
			expectedOnHand: 93,
		},
		{
			name:             "reserve earmarks without moving stock",
			movementType:     MovementReserve,
			quantity:         40,
			expectedOnHand:   100,
			expectedReserved: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := ZeroProjection(key, "USD")
			prior.QuantityOnHand = 100
			prior.AverageCost = mustNewMoney(500, "USD")
			prior.TotalValue = mustNewMoney(50000, "USD")
			prior.Version = 3

			event := testEvent(key, 4, tt.movementType, tt.quantity, tt.unitCost)
			next, err := NextProjection(prior, event)

			require.NoError(t, err)
			assert.Equal(t, tt.expectedOnHand, next.QuantityOnHand)
			assert.Equal(t, tt.expectedReserved, next.QuantityReserved)
			assert.Equal(t, int64(4), next.Version)
			assert.Equal(t, event.OccurredAt, next.LastMovementAt)

			// Input is never mutated.
			assert.Equal(t, int64(100), prior.QuantityOnHand)
			assert.Equal(t, int64(3), prior.Version)
		})
	}
}

func TestNextProjection_ReservationLifecycle(t *testing.T) {
	key := testKey(t)
	p := ZeroProjection(key, "USD")
	p.QuantityOnHand = 100
	p.QuantityReserved = 40
	p.AverageCost = mustNewMoney(500, "USD")
	p.TotalValue = mustNewMoney(50000, "USD")
	p.Version = 2

	// Release returns stock to the available pool.
	released, err := NextProjection(p, testEvent(key, 3, MovementReleaseReservation, 10, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(100), released.QuantityOnHand)
	assert.Equal(t, int64(30), released.QuantityReserved)
	assert.Equal(t, int64(70), released.QuantityAvailable())

	// Fulfill consumes both on hand and reserved.
	fulfilled, err := NextProjection(released, testEvent(key, 4, MovementFulfillReservation, 30, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(70), fulfilled.QuantityOnHand)
	assert.Equal(t, int64(0), fulfilled.QuantityReserved)
	assert.Equal(t, int64(70), fulfilled.QuantityAvailable())
}

func TestNextProjection_InvariantViolations(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name         string
		onHand       int64
		reserved     int64
		movementType MovementType
		quantity     int64
		expectError  error
	}{
		{
			name:         "issue below zero",
			onHand:       100,
			movementType: MovementIssue,
			quantity:     120,
			expectError:  ErrInsufficientStock,
		},
		{
			name:         "issue into reserved stock",
			onHand:       100,
			reserved:     40,
			movementType: MovementIssue,
			quantity:     70,
			expectError:  ErrInsufficientStock,
		},
		{
			name:         "reserve more than on hand",
			onHand:       100,
			reserved:     80,
			movementType: MovementReserve,
			quantity:     30,
			expectError:  ErrInsufficientStock,
		},
		{
			name:         "release more than reserved",
			onHand:       100,
			reserved:     10,
			movementType: MovementReleaseReservation,
			quantity:     20,
			expectError:  ErrInsufficientReservation,
		},
		{
			name:         "fulfill more than reserved",
			onHand:       100,
			reserved:     10,
			movementType: MovementFulfillReservation,
			quantity:     20,
			expectError:  ErrInsufficientReservation,
		},
		{
			name:         "negative adjustment stranding reservations",
			onHand:       100,
			reserved:     60,
			movementType: MovementAdjustment,
			quantity:     -50,
			expectError:  ErrInsufficientStock,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ZeroProjection(key, "USD")
			p.QuantityOnHand = tt.onHand
			p.QuantityReserved = tt.reserved
			p.AverageCost = mustNewMoney(500, "USD")
			p.TotalValue = p.AverageCost.Multiply(tt.onHand)
			p.Version = 1

			_, err := NextProjection(p, testEvent(key, 2, tt.movementType, tt.quantity, nil))
			assert.ErrorIs(t, err, tt.expectError)
		})
	}
}

// TestReplay_FullLifecycle walks a position through receipt, reservation
// and fulfillment and checks the final quantities, valuation and version.
func TestReplay_FullLifecycle(t *testing.T) {
	key := testKey(t)

	events := []MovementEvent{
		testEvent(key, 1, MovementReceipt, 100, moneyPtr(1000, "USD")),
		testEvent(key, 2, MovementReserve, 30, nil),
		testEvent(key, 3, MovementFulfillReservation, 30, nil),
	}

	p, err := Replay(key, "USD", events)
	require.NoError(t, err)

	assert.Equal(t, int64(70), p.QuantityOnHand)
	assert.Equal(t, int64(0), p.QuantityReserved)
	assert.Equal(t, int64(70), p.QuantityAvailable())
	assert.Equal(t, int64(1000), p.AverageCost.Amount())
	assert.Equal(t, int64(70000), p.TotalValue.Amount())
	assert.Equal(t, int64(3), p.Version)

	// An issue of 120 against the same stream would have been rejected.
	_, err = NextProjection(p, testEvent(key, 4, MovementIssue, 120, nil))
	assert.ErrorIs(t, err, ErrInsufficientStock)
}

// TestReplay_MatchesIncrementalFold verifies that rebuilding from the log
// converges on exactly the state the live path produced step by step.
func TestReplay_MatchesIncrementalFold(t *testing.T) {
	key := testKey(t)

	events := []MovementEvent{
		testEvent(key, 1, MovementReceipt, 100, moneyPtr(1000, "USD")),
		testEvent(key, 2, MovementReceipt, 50, moneyPtr(1600, "USD")),
		testEvent(key, 3, MovementReserve, 40, nil),
		testEvent(key, 4, MovementIssue, 20, nil),
		testEvent(key, 5, MovementReleaseReservation, 10, nil),
		testEvent(key, 6, MovementFulfillReservation, 30, nil),
		testEvent(key, 7, MovementAdjustment, -5, nil),
		testEvent(key, 8, MovementTransferOut, 15, nil),
	}

	incremental := ZeroProjection(key, "USD")
	for _, e := range events {
		next, err := NextProjection(incremental, e)
		require.NoError(t, err)
		incremental = next
	}

	replayed, err := Replay(key, "USD", events)
	require.NoError(t, err)

	assert.Equal(t, incremental, replayed)
	assert.Equal(t, int64(8), replayed.Version)
}

func TestReplay_EmptyStream(t *testing.T) {
	key := testKey(t)

	p, err := Replay(key, "USD", nil)
	require.NoError(t, err)
	assert.Equal(t, ZeroProjection(key, "USD"), p)
}

func TestReplay_VersionTracksSequence(t *testing.T) {
	key := testKey(t)

	events := []MovementEvent{
		testEvent(key, 1, MovementReceipt, 10, moneyPtr(100, "USD")),
		testEvent(key, 2, MovementIssue, 4, nil),
	}

	p, err := Replay(key, "USD", events)
	require.NoError(t, err)
	assert.Equal(t, events[len(events)-1].SequenceNumber, p.Version)
}
