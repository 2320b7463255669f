package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/wms-platform/ledger-service/pkg/errors"
	"github.com/wms-platform/ledger-service/pkg/logging"
	"github.com/wms-platform/ledger-service/pkg/metrics"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// LedgerApplicationService handles the movement write path: validate,
// fold, append, commit.
type LedgerApplicationService struct {
	log     domain.MovementLog
	store   domain.ProjectionStore
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewLedgerApplicationService creates a new LedgerApplicationService
func NewLedgerApplicationService(
	log domain.MovementLog,
	store domain.ProjectionStore,
	logger *logging.Logger,
	m *metrics.Metrics,
) *LedgerApplicationService {
	return &LedgerApplicationService{
		log:     log,
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// ApplyMovement validates one movement, folds it onto the current
// projection and commits both the event and the new projection.
//
// Concurrency conflicts are surfaced to the caller, never retried here:
// the caller must re-read the position and decide whether its movement
// still makes sense against the new state.
func (s *LedgerApplicationService) ApplyMovement(ctx context.Context, cmd ApplyMovementCommand) (*PositionDTO, error) {
	key, err := domain.NewPositionKey(cmd.ItemID, cmd.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}

	var unitCost *domain.Money
	if cmd.UnitCost != nil {
		cost, err := domain.NewMoney(*cmd.UnitCost, cmd.Currency)
		if err != nil {
			return nil, apperrors.ErrValidation(fmt.Sprintf("invalid unit cost: %v", err))
		}
		unitCost = &cost
	}

	draft := domain.MovementDraft{
		Key:           key,
		Type:          domain.MovementType(cmd.MovementType),
		Quantity:      cmd.Quantity,
		UnitCost:      unitCost,
		Currency:      cmd.Currency,
		OccurredAt:    cmd.OccurredAt,
		CausationID:   cmd.CausationID,
		CorrelationID: cmd.CorrelationID,
		TenantID:      cmd.TenantID,
	}
	if err := draft.Validate(); err != nil {
		s.recordRejection(err)
		return nil, toAppError(err)
	}

	current, err := s.loadOrZero(ctx, key, cmd.Currency)
	if err != nil {
		return nil, toAppError(err)
	}

	event := draft.ToEvent(uuid.New().String(), current.Version+1, time.Now().UTC())

	next, err := domain.NextProjection(current, event)
	if err != nil {
		s.recordRejection(err)
		s.logger.Warn("Movement rejected",
			"position", key.String(),
			"movementType", cmd.MovementType,
			"quantity", cmd.Quantity,
			"error", err)
		return nil, toAppError(err)
	}

	recorded := recordedEvent(event, next)

	if err := s.log.Append(ctx, event, current.Version, recorded); err != nil {
		if errors.Is(err, domain.ErrSequenceConflict) {
			s.recordConflict("sequence")
			s.logger.Warn("Concurrent append lost",
				"position", key.String(),
				"expectedSequence", event.SequenceNumber)
			return nil, toAppError(err)
		}
		s.logger.Error("Failed to append movement", "position", key.String(), "error", err)
		return nil, toAppError(err)
	}

	// The event is durable at this point. A CAS loss here means a repair
	// touched the projection concurrently; the projection catches up on
	// the next rebuild, the log stays authoritative either way.
	if err := s.store.CompareAndSwap(ctx, key, current.Version, next); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.recordConflict("version")
			s.logger.Warn("Projection write lost after append",
				"position", key.String(),
				"sequence", event.SequenceNumber)
			return nil, toAppError(err)
		}
		s.logger.Error("Failed to commit projection", "position", key.String(), "error", err)
		return nil, toAppError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordMovementApplied(cmd.MovementType)
	}
	s.logger.Info("Applied movement",
		"position", key.String(),
		"movementType", cmd.MovementType,
		"quantity", cmd.Quantity,
		"sequence", event.SequenceNumber,
		"onHand", next.QuantityOnHand,
		"available", next.QuantityAvailable())

	return toPositionDTO(next), nil
}

// loadOrZero loads the stored projection or falls back to the implicit
// zero state for positions that have never moved.
func (s *LedgerApplicationService) loadOrZero(ctx context.Context, key domain.PositionKey, currency string) (domain.Projection, error) {
	current, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrPositionNotFound) {
			return domain.ZeroProjection(key, currency), nil
		}
		s.logger.Error("Failed to load projection", "position", key.String(), "error", err)
		return domain.Projection{}, err
	}
	return current, nil
}

func (s *LedgerApplicationService) recordRejection(err error) {
	if s.metrics == nil {
		return
	}
	reason := "validation"
	switch {
	case errors.Is(err, domain.ErrInsufficientStock):
		reason = "insufficient_stock"
	case errors.Is(err, domain.ErrInsufficientReservation):
		reason = "insufficient_reservation"
	}
	s.metrics.RecordMovementRejected(reason)
}

func (s *LedgerApplicationService) recordConflict(kind string) {
	if s.metrics != nil {
		s.metrics.RecordConcurrencyConflict(kind)
	}
}

// recordedEvent builds the published fact for one applied movement,
// carrying the post-movement balances like a ledger statement line.
func recordedEvent(e domain.MovementEvent, next domain.Projection) *domain.MovementRecordedEvent {
	recorded := &domain.MovementRecordedEvent{
		EventID:        e.EventID,
		ItemID:         e.Key.ItemID,
		WarehouseID:    e.Key.WarehouseID,
		SequenceNumber: e.SequenceNumber,
		MovementType:   e.Type.String(),
		Quantity:       e.Quantity,
		Currency:       next.AverageCost.Currency(),
		OnHand:         next.QuantityOnHand,
		Reserved:       next.QuantityReserved,
		AverageCost:    next.AverageCost.ToCents(),
		TotalValue:     next.TotalValue.ToCents(),
		RecordedAt:     e.RecordedAt,
		TenantID:       e.TenantID,
	}
	if e.UnitCost != nil {
		recorded.UnitCost = e.UnitCost.ToCents()
	}
	return recorded
}
