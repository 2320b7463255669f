package domain

import (
	"errors"
	"testing"
	"time"
)

func moneyPtr(amount int64, currency string) *Money {
	m := mustNewMoney(amount, currency)
	return &m
}

func TestMovementType_IsValid(t *testing.T) {
	valid := []MovementType{
		MovementReceipt, MovementIssue, MovementTransferOut, MovementTransferIn,
		MovementAdjustment, MovementReserve, MovementReleaseReservation, MovementFulfillReservation,
	}
	for _, mt := range valid {
		if !mt.IsValid() {
			t.Errorf("expected %s to be valid", mt)
		}
	}

	if MovementType("CYCLE_COUNT").IsValid() {
		t.Errorf("expected unknown type to be invalid")
	}
	if MovementType("").IsValid() {
		t.Errorf("expected empty type to be invalid")
	}
}

func TestMovementDraft_Validate(t *testing.T) {
	key, _ := NewPositionKey("WIDGET-001", "WH-EAST")

	tests := []struct {
		name        string
		draft       MovementDraft
		expectError error
	}{
		{
			name: "valid receipt",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementReceipt,
				Quantity: 100,
				UnitCost: moneyPtr(1000, "USD"),
				Currency: "USD",
			},
			expectError: nil,
		},
		{
			name: "valid issue without cost",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementIssue,
				Quantity: 10,
				Currency: "USD",
			},
			expectError: nil,
		},
		{
			name: "negative adjustment allowed",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementAdjustment,
				Quantity: -5,
				Currency: "USD",
			},
			expectError: nil,
		},
		{
			name: "missing item",
			draft: MovementDraft{
				Key:      PositionKey{WarehouseID: "WH-EAST"},
				Type:     MovementIssue,
				Quantity: 10,
				Currency: "USD",
			},
			expectError: ErrMissingItemID,
		},
		{
			name: "missing warehouse",
			draft: MovementDraft{
				Key:      PositionKey{ItemID: "WIDGET-001"},
				Type:     MovementIssue,
				Quantity: 10,
				Currency: "USD",
			},
			expectError: ErrMissingWarehouseID,
		},
		{
			name: "unknown movement type",
			draft: MovementDraft{
				Key:      key,
				Type:     "TELEPORT",
				Quantity: 10,
				Currency: "USD",
			},
			expectError: ErrInvalidMovementType,
		},
		{
			name: "zero quantity",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementIssue,
				Quantity: 0,
				Currency: "USD",
			},
			expectError: ErrInvalidQuantity,
		},
		{
			name: "negative quantity on unsigned type",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementReserve,
				Quantity: -3,
				Currency: "USD",
			},
			expectError: ErrInvalidQuantity,
		},
		{
			name: "receipt without unit cost",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementReceipt,
				Quantity: 100,
				Currency: "USD",
			},
			expectError: ErrMissingUnitCost,
		},
		{
			name: "unit cost on non-receipt",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementIssue,
				Quantity: 10,
				UnitCost: moneyPtr(1000, "USD"),
				Currency: "USD",
			},
			expectError: ErrUnexpectedUnitCost,
		},
		{
			name: "bad currency",
			draft: MovementDraft{
				Key:      key,
				Type:     MovementIssue,
				Quantity: 10,
				Currency: "DOLLARS",
			},
			expectError: ErrInvalidCurrency,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.draft.Validate()
			if tt.expectError == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			} else if !errors.Is(err, tt.expectError) {
				t.Errorf("expected %v, got %v", tt.expectError, err)
			}
		})
	}
}

func TestMovementDraft_ToEvent(t *testing.T) {
	key, _ := NewPositionKey("WIDGET-001", "WH-EAST")
	recordedAt := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	draft := MovementDraft{
		Key:           key,
		Type:          MovementReceipt,
		Quantity:      100,
		UnitCost:      moneyPtr(1000, "USD"),
		Currency:      "USD",
		CausationID:   "po-42",
		CorrelationID: "corr-1",
	}

	event := draft.ToEvent("evt-1", 1, recordedAt)

	if event.EventID != "evt-1" {
		t.Errorf("expected event ID evt-1, got %s", event.EventID)
	}
	if event.SequenceNumber != 1 {
		t.Errorf("expected sequence 1, got %d", event.SequenceNumber)
	}
	if !event.OccurredAt.Equal(recordedAt) {
		t.Errorf("expected occurredAt to default to recordedAt")
	}
	if !event.RecordedAt.Equal(recordedAt) {
		t.Errorf("expected recordedAt %v, got %v", recordedAt, event.RecordedAt)
	}
	if event.CausationID != "po-42" {
		t.Errorf("expected causation po-42, got %s", event.CausationID)
	}

	// Explicit business timestamp is preserved.
	occurred := recordedAt.Add(-time.Hour)
	draft.OccurredAt = occurred
	event = draft.ToEvent("evt-2", 2, recordedAt)
	if !event.OccurredAt.Equal(occurred) {
		t.Errorf("expected occurredAt %v, got %v", occurred, event.OccurredAt)
	}
}
