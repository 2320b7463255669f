package domain

import "context"

// MovementLog is the port for the append-only movement event store.
// Implementations never reorder or mutate events once appended.
type MovementLog interface {
	// Append durably stores the event, whose sequence number must be
	// expectedPrevSequence + 1. It fails with ErrSequenceConflict when
	// the stream tail has moved past expectedPrevSequence. Any publish
	// events are written to the outbox in the same transaction.
	Append(ctx context.Context, event MovementEvent, expectedPrevSequence int64, publish ...DomainEvent) error

	// ReadAll returns every event for the key in ascending sequence
	// order. Used by replay and the movement history query.
	ReadAll(ctx context.Context, key PositionKey) ([]MovementEvent, error)
}

// ProjectionStore is the port for keyed current-state snapshots, one row
// per position, guarded by an optimistic version counter.
type ProjectionStore interface {
	// Get returns the stored projection for the key, or
	// ErrPositionNotFound when no row exists (implicit zero state).
	Get(ctx context.Context, key PositionKey) (Projection, error)

	// CompareAndSwap persists next only if the stored version equals
	// expectedVersion (0 means "no row yet"). On mismatch it fails with
	// ErrVersionConflict and has no side effects.
	CompareAndSwap(ctx context.Context, key PositionKey, expectedVersion int64, next Projection) error

	// Overwrite replaces the stored row wholesale with next, conditional
	// only on the stored version still being observedVersion. This is
	// the explicit repair path used by reconcile; it does not follow the
	// increment-by-one rule of CompareAndSwap. Publish events go to the
	// outbox in the same transaction.
	Overwrite(ctx context.Context, key PositionKey, observedVersion int64, next Projection, publish ...DomainEvent) error
}
