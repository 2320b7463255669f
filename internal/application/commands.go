package application

import "time"

// ApplyMovementCommand represents the command to record one stock movement
// against a position.
type ApplyMovementCommand struct {
	ItemID        string
	WarehouseID   string
	MovementType  string
	Quantity      int64
	UnitCost      *int64 // In cents, required for RECEIPT only
	Currency      string // ISO 4217 code
	OccurredAt    time.Time
	CausationID   string
	CorrelationID string
	TenantID      string
}

// RebuildCommand represents the command to fold a projection from its
// movement log without writing it back.
type RebuildCommand struct {
	ItemID      string
	WarehouseID string
	Currency    string
}

// ReconcileCommand represents the command to compare a stored projection
// against a replay of its log, repairing any divergence.
type ReconcileCommand struct {
	ItemID      string
	WarehouseID string
	Currency    string
}

// GetPositionQuery represents the query to get the current state of one
// position.
type GetPositionQuery struct {
	ItemID      string
	WarehouseID string
}

// GetMovementsQuery represents the query to get the movement history of
// one position in sequence order.
type GetMovementsQuery struct {
	ItemID      string
	WarehouseID string
	Limit       int
}
