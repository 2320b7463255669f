package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyCost_ReceiptBlendsAverage(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name          string
		priorOnHand   int64
		priorAvg      int64
		receiptQty    int64
		receiptCost   int64
		expectedAvg   int64
		expectedTotal int64
	}{
		{
			name:          "receipt into empty position sets average",
			priorOnHand:   0,
			priorAvg:      0,
			receiptQty:    100,
			receiptCost:   1000,
			expectedAvg:   1000,
			expectedTotal: 100000,
		},
		{
			name:          "receipt blends with existing stock",
			priorOnHand:   100,
			priorAvg:      1000,
			receiptQty:    50,
			receiptCost:   1600,
			expectedAvg:   1200,
			expectedTotal: 180000,
		},
		{
			name:          "inexact blend rounds half away from zero",
			priorOnHand:   1,
			priorAvg:      100,
			receiptQty:    2,
			receiptCost:   101,
			expectedAvg:   101, // (100 + 202) / 3 = 100.67
			expectedTotal: 303,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prior := ZeroProjection(key, "USD")
			prior.QuantityOnHand = tt.priorOnHand
			prior.AverageCost = Money{amount: tt.priorAvg, currency: "USD"}
			prior.TotalValue = prior.AverageCost.Multiply(tt.priorOnHand)

			event := testEvent(key, 1, MovementReceipt, tt.receiptQty, moneyPtr(tt.receiptCost, "USD"))
			newOnHand := tt.priorOnHand + tt.receiptQty

			avg, total, err := applyCost(prior, newOnHand, event)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedAvg, avg.Amount())
			assert.Equal(t, tt.expectedTotal, total.Amount())
		})
	}
}

func TestApplyCost_NonReceiptKeepsAverage(t *testing.T) {
	key := testKey(t)

	prior := ZeroProjection(key, "USD")
	prior.QuantityOnHand = 150
	prior.AverageCost = mustNewMoney(1200, "USD")
	prior.TotalValue = mustNewMoney(180000, "USD")

	for _, mt := range []MovementType{MovementIssue, MovementTransferOut, MovementFulfillReservation} {
		avg, total, err := applyCost(prior, 130, testEvent(key, 2, mt, 20, nil))
		require.NoError(t, err)
		assert.Equal(t, int64(1200), avg.Amount(), "average must not change on %s", mt)
		assert.Equal(t, int64(156000), total.Amount())
	}

	// Reservations do not touch on hand, so total value is unchanged too.
	avg, total, err := applyCost(prior, 150, testEvent(key, 2, MovementReserve, 20, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1200), avg.Amount())
	assert.Equal(t, int64(180000), total.Amount())
}

func TestApplyCost_DrainToZeroRetainsAverage(t *testing.T) {
	key := testKey(t)

	prior := ZeroProjection(key, "USD")
	prior.QuantityOnHand = 10
	prior.AverageCost = mustNewMoney(750, "USD")
	prior.TotalValue = mustNewMoney(7500, "USD")

	avg, total, err := applyCost(prior, 0, testEvent(key, 2, MovementIssue, 10, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(750), avg.Amount())
	assert.Equal(t, int64(0), total.Amount())

	// The retained average is then replaced by the next receipt, not
	// blended with it.
	prior.QuantityOnHand = 0
	prior.TotalValue = ZeroMoney("USD")
	avg, total, err = applyCost(prior, 20, testEvent(key, 3, MovementReceipt, 20, moneyPtr(900, "USD")))
	require.NoError(t, err)
	assert.Equal(t, int64(900), avg.Amount())
	assert.Equal(t, int64(18000), total.Amount())
}

func TestApplyCost_CurrencyMismatch(t *testing.T) {
	key := testKey(t)

	prior := ZeroProjection(key, "USD")
	prior.QuantityOnHand = 100
	prior.AverageCost = mustNewMoney(1000, "USD")

	_, _, err := applyCost(prior, 150, testEvent(key, 2, MovementReceipt, 50, moneyPtr(1600, "EUR")))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

// TestApplyCost_OrderSensitivity documents that weighted-average costing
// depends on event order: the same multiset of events folded in a
// different order can yield a different average.
func TestApplyCost_OrderSensitivity(t *testing.T) {
	key := testKey(t)

	receiptA := testEvent(key, 0, MovementReceipt, 100, moneyPtr(1000, "USD"))
	receiptB := testEvent(key, 0, MovementReceipt, 100, moneyPtr(2000, "USD"))
	issue := testEvent(key, 0, MovementIssue, 100, nil)

	fold := func(events []MovementEvent) Projection {
		p := ZeroProjection(key, "USD")
		for i, e := range events {
			e.SequenceNumber = int64(i + 1)
			next, err := NextProjection(p, e)
			require.NoError(t, err)
			p = next
		}
		return p
	}

	// A, B, issue: avg blends to 1500 before the issue.
	blended := fold([]MovementEvent{receiptA, receiptB, issue})
	assert.Equal(t, int64(1500), blended.AverageCost.Amount())

	// A, issue, B: the issue drains A's stock first, so B's cost stands alone.
	sequential := fold([]MovementEvent{receiptA, issue, receiptB})
	assert.Equal(t, int64(2000), sequential.AverageCost.Amount())

	assert.Equal(t, blended.QuantityOnHand, sequential.QuantityOnHand)
	assert.NotEqual(t, blended.AverageCost, sequential.AverageCost)
}
