package application

import "time"

// MoneyDTO represents money in API responses
type MoneyDTO struct {
	Amount   int64  `json:"amount"` // In cents
	Currency string `json:"currency"`
}

// PositionDTO represents the current state of a position for API responses
type PositionDTO struct {
	ItemID            string    `json:"itemId"`
	WarehouseID       string    `json:"warehouseId"`
	QuantityOnHand    int64     `json:"quantityOnHand"`
	QuantityReserved  int64     `json:"quantityReserved"`
	QuantityAvailable int64     `json:"quantityAvailable"`
	AverageCost       MoneyDTO  `json:"averageCost"`
	TotalValue        MoneyDTO  `json:"totalValue"`
	LastMovementAt    time.Time `json:"lastMovementAt"`
	Version           int64     `json:"version"`
}

// MovementDTO represents one movement event for API responses
type MovementDTO struct {
	EventID        string    `json:"eventId"`
	ItemID         string    `json:"itemId"`
	WarehouseID    string    `json:"warehouseId"`
	SequenceNumber int64     `json:"sequenceNumber"`
	MovementType   string    `json:"movementType"`
	Quantity       int64     `json:"quantity"`
	UnitCost       *MoneyDTO `json:"unitCost,omitempty"`
	OccurredAt     time.Time `json:"occurredAt"`
	RecordedAt     time.Time `json:"recordedAt"`
	CausationID    string    `json:"causationId,omitempty"`
	CorrelationID  string    `json:"correlationId,omitempty"`
}

// FieldDiffDTO describes one field that differs between the stored
// projection and the replayed one.
type FieldDiffDTO struct {
	Field    string `json:"field"`
	Stored   string `json:"stored"`
	Replayed string `json:"replayed"`
}

// ReconcileReportDTO represents the outcome of reconciling one position
type ReconcileReportDTO struct {
	ItemID        string         `json:"itemId"`
	WarehouseID   string         `json:"warehouseId"`
	Matched       bool           `json:"matched"`
	Repaired      bool           `json:"repaired"`
	StoredVersion int64          `json:"storedVersion"`
	ReplayVersion int64          `json:"replayVersion"`
	Differences   []FieldDiffDTO `json:"differences,omitempty"`
	CompletedAt   time.Time      `json:"completedAt"`
}
