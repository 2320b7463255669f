package domain

import (
	"time"
)

// Projection is the materialized current state of one inventory
// position, derived from its movement event stream.
//
// Version advances in lockstep with the event stream: after applying the
// event with sequence number N the projection version is exactly N. The
// zero state has version 0. This makes the version usable both as the
// optimistic-concurrency token for projection writes and as the
// expected-previous-sequence for log appends.
type Projection struct {
	Key PositionKey `bson:",inline" json:"key"`

	// QuantityOnHand is physical stock present in the warehouse.
	QuantityOnHand int64 `bson:"quantityOnHand" json:"quantityOnHand"`

	// QuantityReserved is stock earmarked against open reservations, not
	// yet physically removed.
	QuantityReserved int64 `bson:"quantityReserved" json:"quantityReserved"`

	// AverageCost is the weighted-average unit cost, updated only by
	// receipts. TotalValue is always QuantityOnHand * AverageCost.
	AverageCost Money `bson:"averageCost" json:"averageCost"`
	TotalValue  Money `bson:"totalValue" json:"totalValue"`

	LastMovementAt time.Time `bson:"lastMovementAt" json:"lastMovementAt"`
	Version        int64     `bson:"version" json:"version"`

	TenantID string `bson:"tenantId,omitempty" json:"tenantId,omitempty"`
}

// ZeroProjection is the implicit state of a position before its first
// movement. Projections are created lazily from it.
func ZeroProjection(key PositionKey, currency string) Projection {
	return Projection{
		Key:         key,
		AverageCost: ZeroMoney(currency),
		TotalValue:  ZeroMoney(currency),
	}
}

// QuantityAvailable is derived, never stored: on hand minus reserved.
func (p Projection) QuantityAvailable() int64 {
	return p.QuantityOnHand - p.QuantityReserved
}

// checkInvariants validates the quantity invariants that must hold after
// every applied event: onHand >= 0, reserved >= 0, reserved <= onHand.
func (p Projection) checkInvariants() error {
	if p.QuantityOnHand < 0 {
		return ErrInsufficientStock
	}
	if p.QuantityReserved < 0 {
		return ErrInsufficientReservation
	}
	if p.QuantityReserved > p.QuantityOnHand {
		// Either an over-reservation or a removal that would strand open
		// reservations; both are a shortage of unreserved stock.
		return ErrInsufficientStock
	}
	return nil
}

// NextProjection computes the successor state of p for one movement.
// It is the single fold step shared by the live apply path and replay:
// quantity transition, invariant checks, then costing. The input
// projection is not mutated.
func NextProjection(p Projection, e MovementEvent) (Projection, error) {
	next := p
	next.Key = e.Key

	switch e.Type {
	case MovementReceipt, MovementTransferIn:
		next.QuantityOnHand += e.Quantity
	case MovementIssue, MovementTransferOut:
		next.QuantityOnHand -= e.Quantity
	case MovementAdjustment:
		next.QuantityOnHand += e.Quantity
	case MovementReserve:
		next.QuantityReserved += e.Quantity
	case MovementReleaseReservation:
		next.QuantityReserved -= e.Quantity
	case MovementFulfillReservation:
		next.QuantityOnHand -= e.Quantity
		next.QuantityReserved -= e.Quantity
	default:
		return Projection{}, ErrInvalidMovementType
	}

	if err := next.checkInvariants(); err != nil {
		return Projection{}, err
	}

	avg, total, err := applyCost(p, next.QuantityOnHand, e)
	if err != nil {
		return Projection{}, err
	}
	next.AverageCost = avg
	next.TotalValue = total

	next.LastMovementAt = e.OccurredAt
	next.Version = p.Version + 1
	if e.TenantID != "" {
		next.TenantID = e.TenantID
	}
	return next, nil
}

// StreamCurrency returns the currency of the stream's first costed
// movement, or fallback for a stream that has never seen a receipt.
// Replay must seed the zero state with the stream's own currency or the
// first receipt would be rejected as a currency mismatch.
func StreamCurrency(events []MovementEvent, fallback string) string {
	for _, e := range events {
		if e.UnitCost != nil {
			return e.UnitCost.Currency()
		}
	}
	return fallback
}

// Replay folds an ordered event stream from the zero state. Events must
// be in ascending sequence order; costing is order-sensitive, so the
// sequence ordering is load-bearing.
func Replay(key PositionKey, currency string, events []MovementEvent) (Projection, error) {
	p := ZeroProjection(key, currency)
	for _, e := range events {
		next, err := NextProjection(p, e)
		if err != nil {
			return Projection{}, err
		}
		next.Version = e.SequenceNumber
		p = next
	}
	return p, nil
}
