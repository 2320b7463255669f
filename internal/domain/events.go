package domain

import "time"

// DomainEvent is implemented by events published through the outbox.
type DomainEvent interface {
	EventType() string
	OccurredAt() time.Time
}

// MovementRecordedEvent is published when a movement is appended to the log
// and its projection committed.
type MovementRecordedEvent struct {
	EventID        string    `json:"eventId"`
	ItemID         string    `json:"itemId"`
	WarehouseID    string    `json:"warehouseId"`
	SequenceNumber int64     `json:"sequenceNumber"`
	MovementType   string    `json:"movementType"`
	Quantity       int64     `json:"quantity"`
	UnitCost       int64     `json:"unitCost,omitempty"` // In cents
	Currency       string    `json:"currency"`
	OnHand         int64     `json:"onHand"`
	Reserved       int64     `json:"reserved"`
	AverageCost    int64     `json:"averageCost"` // In cents
	TotalValue     int64     `json:"totalValue"`  // In cents
	RecordedAt     time.Time `json:"recordedAt"`
	TenantID       string    `json:"tenantId,omitempty"`
}

func (e *MovementRecordedEvent) EventType() string {
	return "wms.ledger.movement-recorded"
}

func (e *MovementRecordedEvent) OccurredAt() time.Time {
	return e.RecordedAt
}

// PositionReconciledEvent is published after a stored projection is compared
// against a replay of its movement log.
type PositionReconciledEvent struct {
	ItemID        string    `json:"itemId"`
	WarehouseID   string    `json:"warehouseId"`
	Matched       bool      `json:"matched"`
	Repaired      bool      `json:"repaired"`
	StoredVersion int64     `json:"storedVersion"`
	ReplayVersion int64     `json:"replayVersion"`
	CompletedAt   time.Time `json:"completedAt"`
	TenantID      string    `json:"tenantId,omitempty"`
}

func (e *PositionReconciledEvent) EventType() string {
	return "wms.ledger.position-reconciled"
}

func (e *PositionReconciledEvent) OccurredAt() time.Time {
	return e.CompletedAt
}
