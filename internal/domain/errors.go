package domain

import "errors"

// Validation errors, rejected before any I/O.
var (
	// ErrMissingItemID is returned when a position key has no item ID
	ErrMissingItemID = errors.New("itemId is required")

	// ErrMissingWarehouseID is returned when a position key has no warehouse ID
	ErrMissingWarehouseID = errors.New("warehouseId is required")

	// ErrInvalidMovementType is returned for a movement type outside the closed set
	ErrInvalidMovementType = errors.New("invalid movement type")

	// ErrInvalidQuantity is returned for a zero quantity, or a negative
	// quantity on a movement type that is unsigned
	ErrInvalidQuantity = errors.New("invalid quantity for movement type")

	// ErrMissingUnitCost is returned when a receipt carries no unit cost
	ErrMissingUnitCost = errors.New("unit cost is required on receipt")

	// ErrUnexpectedUnitCost is returned when a non-receipt carries a unit cost
	ErrUnexpectedUnitCost = errors.New("unit cost is only valid on receipt")
)

// Business-rule violations. No event is appended and no projection write
// occurs when these are returned.
var (
	// ErrInsufficientStock is returned when a removal would drive
	// on-hand below zero, or below the reserved quantity
	ErrInsufficientStock = errors.New("insufficient stock on hand")

	// ErrInsufficientReservation is returned when a release or fulfillment
	// exceeds the open reserved quantity
	ErrInsufficientReservation = errors.New("insufficient reserved quantity")
)

// Concurrency and storage errors.
var (
	// ErrVersionConflict is returned by the projection store when the
	// stored version does not match the expected value. Safe to retry
	// after a fresh read.
	ErrVersionConflict = errors.New("projection version conflict")

	// ErrSequenceConflict is returned by the movement log when the
	// expected previous sequence number does not match the stream tail.
	// Safe to retry after a fresh read.
	ErrSequenceConflict = errors.New("concurrent append conflict")

	// ErrPositionNotFound is returned when no projection row exists for a
	// key. Callers applying movements treat this as the lazy zero state.
	ErrPositionNotFound = errors.New("position not found")

	// ErrStorageUnavailable wraps underlying store I/O failures. Not
	// retried internally; surfaced to the caller as fatal.
	ErrStorageUnavailable = errors.New("ledger storage unavailable")
)
