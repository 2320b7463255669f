package cloudevents

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EventFactory creates CloudEvents for ledger domain events
type EventFactory struct {
	source string
}

// NewEventFactory creates a new EventFactory for a specific source
func NewEventFactory(source string) *EventFactory {
	return &EventFactory{source: source}
}

// CreateEvent creates a new WMSCloudEvent with the given parameters
func (f *EventFactory) CreateEvent(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
) *WMSCloudEvent {
	event := &WMSCloudEvent{
		SpecVersion:     "1.0",
		Type:            eventType,
		Source:          f.source,
		Subject:         subject,
		ID:              uuid.New().String(),
		Time:            time.Now().UTC(),
		DataContentType: "application/json",
		Data:            data,
		Extensions:      make(map[string]interface{}),
	}

	return event
}

// CreateEventWithCorrelation creates an event with correlation tracking
func (f *EventFactory) CreateEventWithCorrelation(
	ctx context.Context,
	eventType string,
	subject string,
	data interface{},
	correlationID string,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, eventType, subject, data)
	event.CorrelationID = correlationID
	return event
}

// CreateMovementRecordedEvent creates a MovementRecorded event keyed by position
func (f *EventFactory) CreateMovementRecordedEvent(
	ctx context.Context,
	itemID string,
	warehouseID string,
	data MovementRecordedData,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, MovementRecorded, "position/"+itemID+"/"+warehouseID, data)
	event.ItemID = itemID
	event.WarehouseID = warehouseID
	return event
}

// CreatePositionReconciledEvent creates a PositionReconciled event keyed by position
func (f *EventFactory) CreatePositionReconciledEvent(
	ctx context.Context,
	itemID string,
	warehouseID string,
	data PositionReconciledData,
) *WMSCloudEvent {
	event := f.CreateEvent(ctx, PositionReconciled, "position/"+itemID+"/"+warehouseID, data)
	event.ItemID = itemID
	event.WarehouseID = warehouseID
	return event
}
