package domain

import "fmt"

// PositionKey uniquely identifies one inventory position: the stream of
// movement events and the projection for an item within a warehouse.
type PositionKey struct {
	ItemID      string `bson:"itemId" json:"itemId"`
	WarehouseID string `bson:"warehouseId" json:"warehouseId"`
}

// NewPositionKey creates a validated position key.
func NewPositionKey(itemID, warehouseID string) (PositionKey, error) {
	if itemID == "" {
		return PositionKey{}, ErrMissingItemID
	}
	if warehouseID == "" {
		return PositionKey{}, ErrMissingWarehouseID
	}
	return PositionKey{ItemID: itemID, WarehouseID: warehouseID}, nil
}

// IsZero reports whether the key is unset.
func (k PositionKey) IsZero() bool {
	return k.ItemID == "" && k.WarehouseID == ""
}

// String returns the canonical "itemId/warehouseId" form used in logs
// and event subjects.
func (k PositionKey) String() string {
	return fmt.Sprintf("%s/%s", k.ItemID, k.WarehouseID)
}
