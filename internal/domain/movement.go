package domain

import (
	"time"
)

// MovementType is the closed set of stock movement event types.
type MovementType string

const (
	MovementReceipt            MovementType = "RECEIPT"
	MovementIssue              MovementType = "ISSUE"
	MovementTransferOut        MovementType = "TRANSFER_OUT"
	MovementTransferIn         MovementType = "TRANSFER_IN"
	MovementAdjustment         MovementType = "ADJUSTMENT"
	MovementReserve            MovementType = "RESERVE"
	MovementReleaseReservation MovementType = "RELEASE_RESERVATION"
	MovementFulfillReservation MovementType = "FULFILL_RESERVATION"
)

// IsValid reports whether the movement type is one of the known types.
func (t MovementType) IsValid() bool {
	switch t {
	case MovementReceipt, MovementIssue, MovementTransferOut, MovementTransferIn,
		MovementAdjustment, MovementReserve, MovementReleaseReservation, MovementFulfillReservation:
		return true
	}
	return false
}

// RequiresUnitCost reports whether the type must carry a unit cost.
// Only receipts introduce cost into a position.
func (t MovementType) RequiresUnitCost() bool {
	return t == MovementReceipt
}

// AllowsSignedQuantity reports whether the quantity may be negative.
// Adjustments are signed corrections; every other type is unsigned.
func (t MovementType) AllowsSignedQuantity() bool {
	return t == MovementAdjustment
}

func (t MovementType) String() string { return string(t) }

// MovementEvent is one immutable entry in a position's event stream.
// Events are never updated or deleted; corrections are compensating
// events (e.g. a negative ADJUSTMENT).
type MovementEvent struct {
	EventID        string       `bson:"eventId" json:"eventId"`
	Key            PositionKey  `bson:",inline" json:"key"`
	SequenceNumber int64        `bson:"sequenceNumber" json:"sequenceNumber"`
	Type           MovementType `bson:"movementType" json:"movementType"`

	// Quantity is in the item's base unit. Signed only for ADJUSTMENT.
	Quantity int64 `bson:"quantity" json:"quantity"`

	// UnitCost is present only on RECEIPT.
	UnitCost *Money `bson:"unitCost,omitempty" json:"unitCost,omitempty"`

	// OccurredAt is the caller-supplied business timestamp; RecordedAt is
	// assigned at append time and never mutated.
	OccurredAt time.Time `bson:"occurredAt" json:"occurredAt"`
	RecordedAt time.Time `bson:"recordedAt" json:"recordedAt"`

	// Audit references to the originating business operation. Opaque to
	// the ledger.
	CausationID   string `bson:"causationId,omitempty" json:"causationId,omitempty"`
	CorrelationID string `bson:"correlationId,omitempty" json:"correlationId,omitempty"`
	TenantID      string `bson:"tenantId,omitempty" json:"tenantId,omitempty"`
}

// MovementDraft is a caller-submitted movement that has not yet been
// assigned an event ID or sequence number.
type MovementDraft struct {
	Key           PositionKey
	Type          MovementType
	Quantity      int64
	UnitCost      *Money
	Currency      string
	OccurredAt    time.Time
	CausationID   string
	CorrelationID string
	TenantID      string
}

// Validate rejects malformed drafts before any I/O is attempted.
func (d *MovementDraft) Validate() error {
	if d.Key.IsZero() {
		return ErrMissingItemID
	}
	if d.Key.ItemID == "" {
		return ErrMissingItemID
	}
	if d.Key.WarehouseID == "" {
		return ErrMissingWarehouseID
	}
	if !d.Type.IsValid() {
		return ErrInvalidMovementType
	}
	if d.Quantity == 0 {
		return ErrInvalidQuantity
	}
	if d.Quantity < 0 && !d.Type.AllowsSignedQuantity() {
		return ErrInvalidQuantity
	}
	if d.Type.RequiresUnitCost() {
		if d.UnitCost == nil {
			return ErrMissingUnitCost
		}
		if d.UnitCost.Amount() < 0 {
			return ErrMissingUnitCost
		}
	} else if d.UnitCost != nil {
		return ErrUnexpectedUnitCost
	}
	if len(d.Currency) != 3 {
		return ErrInvalidCurrency
	}
	return nil
}

// ToEvent materializes the draft into an immutable event with the given
// sequence number. RecordedAt is stamped here, at append time.
func (d *MovementDraft) ToEvent(eventID string, sequenceNumber int64, recordedAt time.Time) MovementEvent {
	occurredAt := d.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = recordedAt
	}
	return MovementEvent{
		EventID:        eventID,
		Key:            d.Key,
		SequenceNumber: sequenceNumber,
		Type:           d.Type,
		Quantity:       d.Quantity,
		UnitCost:       d.UnitCost,
		OccurredAt:     occurredAt,
		RecordedAt:     recordedAt,
		CausationID:    d.CausationID,
		CorrelationID:  d.CorrelationID,
		TenantID:       d.TenantID,
	}
}
