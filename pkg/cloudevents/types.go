package cloudevents

import (
	"time"
)

// EventType constants for ledger domain events
const (
	// Movement events
	MovementRecorded = "wms.ledger.movement-recorded"

	// Projection events
	PositionReconciled = "wms.ledger.position-reconciled"
	ProjectionRebuilt  = "wms.ledger.projection-rebuilt"
)

// Source constants for event sources
const (
	SourceLedger = "/wms/ledger-service"
)

// WMSCloudEvent represents a CloudEvents v1.0 compliant event for WMS
type WMSCloudEvent struct {
	SpecVersion     string                 `json:"specversion"`
	Type            string                 `json:"type"`
	Source          string                 `json:"source"`
	Subject         string                 `json:"subject,omitempty"`
	ID              string                 `json:"id"`
	Time            time.Time              `json:"time"`
	DataContentType string                 `json:"datacontenttype"`
	Data            interface{}            `json:"data"`
	Extensions      map[string]interface{} `json:"-"`

	// WMS-specific extensions
	CorrelationID string `json:"wmscorrelationid,omitempty"`
	TenantID      string `json:"wmstenantid,omitempty"`
	WarehouseID   string `json:"wmswarehouseid,omitempty"`
	ItemID        string `json:"wmsitemid,omitempty"`

	// W3C Trace Context extensions
	TraceParent string `json:"traceparent,omitempty"`
	TraceState  string `json:"tracestate,omitempty"`
}

// MovementRecordedData represents the data payload for MovementRecorded
// events as seen by downstream consumers. The producer side serializes
// domain events with the same shape.
type MovementRecordedData struct {
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

// PositionReconciledData represents the data payload for PositionReconciled events
type PositionReconciledData struct {
	ItemID        string    `json:"itemId"`
	WarehouseID   string    `json:"warehouseId"`
	Matched       bool      `json:"matched"`
	Repaired      bool      `json:"repaired"`
	StoredVersion int64     `json:"storedVersion"`
	ReplayVersion int64     `json:"replayVersion"`
	CompletedAt   time.Time `json:"completedAt"`
	TenantID      string    `json:"tenantId,omitempty"`
}
