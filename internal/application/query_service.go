package application

import (
	"context"
	"errors"

	"github.com/wms-platform/ledger-service/pkg/logging"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// LedgerQueryService handles read-only queries against the materialized
// projections and the movement log. This is separated from
// LedgerApplicationService (write side).
type LedgerQueryService struct {
	log             domain.MovementLog
	store           domain.ProjectionStore
	defaultCurrency string
	logger          *logging.Logger
}

// NewLedgerQueryService creates a new query service
func NewLedgerQueryService(
	log domain.MovementLog,
	store domain.ProjectionStore,
	defaultCurrency string,
	logger *logging.Logger,
) *LedgerQueryService {
	return &LedgerQueryService{
		log:             log,
		store:           store,
		defaultCurrency: defaultCurrency,
		logger:          logger,
	}
}

// GetPosition returns the current state of a position. A position that
// has never moved reads as the zero state, not as an error.
func (s *LedgerQueryService) GetPosition(ctx context.Context, query GetPositionQuery) (*PositionDTO, error) {
	key, err := domain.NewPositionKey(query.ItemID, query.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}

	p, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrPositionNotFound) {
			return toPositionDTO(domain.ZeroProjection(key, s.defaultCurrency)), nil
		}
		s.logger.Error("Failed to get position", "position", key.String(), "error", err)
		return nil, toAppError(err)
	}

	return toPositionDTO(p), nil
}

// GetMovements returns the movement history of a position in ascending
// sequence order. When a limit is given, the most recent movements win
// but ordering within the page stays ascending.
func (s *LedgerQueryService) GetMovements(ctx context.Context, query GetMovementsQuery) ([]MovementDTO, error) {
	key, err := domain.NewPositionKey(query.ItemID, query.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}

	events, err := s.log.ReadAll(ctx, key)
	if err != nil {
		s.logger.Error("Failed to read movement log", "position", key.String(), "error", err)
		return nil, toAppError(err)
	}

	if query.Limit > 0 && len(events) > query.Limit {
		events = events[len(events)-query.Limit:]
	}

	return toMovementDTOs(events), nil
}
