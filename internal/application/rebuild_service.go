package application

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/wms-platform/ledger-service/pkg/errors"
	"github.com/wms-platform/ledger-service/pkg/logging"
	"github.com/wms-platform/ledger-service/pkg/metrics"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// repairAttempts bounds the retry loop when a repair write races a live
// movement. Each retry re-reads both the log and the projection.
const repairAttempts = 3

// RebuildService rebuilds and reconciles projections from the movement
// log, which is the source of truth.
type RebuildService struct {
	log     domain.MovementLog
	store   domain.ProjectionStore
	logger  *logging.Logger
	metrics *metrics.Metrics
}

// NewRebuildService creates a new RebuildService
func NewRebuildService(
	log domain.MovementLog,
	store domain.ProjectionStore,
	logger *logging.Logger,
	m *metrics.Metrics,
) *RebuildService {
	return &RebuildService{
		log:     log,
		store:   store,
		logger:  logger,
		metrics: m,
	}
}

// Rebuild folds the full movement log from the zero state and returns
// the result. It never writes the projection back: it is the read-only
// inspection half of the repair tooling, Reconcile owns the write.
func (s *RebuildService) Rebuild(ctx context.Context, cmd RebuildCommand) (*PositionDTO, error) {
	key, err := domain.NewPositionKey(cmd.ItemID, cmd.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}

	rebuilt, _, err := s.replay(ctx, key, cmd.Currency)
	if err != nil {
		s.logger.Error("Failed to rebuild projection", "position", key.String(), "error", err)
		return nil, toAppError(err)
	}

	if s.metrics != nil {
		s.metrics.RecordRebuild("success")
	}
	s.logger.Info("Rebuilt projection",
		"position", key.String(),
		"version", rebuilt.Version,
		"onHand", rebuilt.QuantityOnHand)
	return toPositionDTO(rebuilt), nil
}

// Reconcile replays the movement log and compares the result with the
// stored projection. A divergence is reported as data, not as an error,
// and the stored row is overwritten with the replayed state, conditional
// on the version observed before the rebuild. A concurrent movement that
// moves the version mid-repair restarts the rebuild a bounded number of
// times.
func (s *RebuildService) Reconcile(ctx context.Context, cmd ReconcileCommand) (*ReconcileReportDTO, error) {
	key, err := domain.NewPositionKey(cmd.ItemID, cmd.WarehouseID)
	if err != nil {
		return nil, toAppError(err)
	}

	for attempt := 0; attempt < repairAttempts; attempt++ {
		replayed, currency, err := s.replay(ctx, key, cmd.Currency)
		if err != nil {
			return nil, toAppError(err)
		}

		stored, err := s.loadStored(ctx, key, currency)
		if err != nil {
			return nil, toAppError(err)
		}

		report := &ReconcileReportDTO{
			ItemID:        key.ItemID,
			WarehouseID:   key.WarehouseID,
			StoredVersion: stored.Version,
			ReplayVersion: replayed.Version,
			Differences:   diffProjections(stored, replayed),
			CompletedAt:   time.Now().UTC(),
		}
		report.Matched = len(report.Differences) == 0

		if report.Matched {
			s.recordReconciliation("matched")
			s.logger.Info("Reconciled position", "position", key.String(), "matched", true)
			return report, nil
		}

		s.logger.Warn("Projection diverged from log",
			"position", key.String(),
			"storedVersion", stored.Version,
			"replayVersion", replayed.Version,
			"differences", len(report.Differences))

		err = s.store.Overwrite(ctx, key, stored.Version, replayed, reconciledEvent(key, report))
		if err == nil {
			report.Repaired = true
			s.recordReconciliation("repaired")
			s.logger.Info("Repaired diverged projection",
				"position", key.String(),
				"version", replayed.Version)
			return report, nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			s.logger.Error("Failed to repair projection", "position", key.String(), "error", err)
			return nil, toAppError(err)
		}

		s.logger.Warn("Repair raced a live movement, retrying",
			"position", key.String(),
			"attempt", attempt+1)
	}

	s.recordReconciliation("contended")
	return nil, apperrors.ErrConflict("projection kept moving during repair").
		WithDetail("position", key.String())
}

func (s *RebuildService) loadStored(ctx context.Context, key domain.PositionKey, currency string) (domain.Projection, error) {
	stored, err := s.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, domain.ErrPositionNotFound) {
			return domain.ZeroProjection(key, currency), nil
		}
		return domain.Projection{}, err
	}
	return stored, nil
}

// replay folds the key's full stream. The currency of the stream's own
// receipts wins over the caller-supplied fallback, so operational tools
// running with a default currency still reconcile positions costed in
// another one.
func (s *RebuildService) replay(ctx context.Context, key domain.PositionKey, fallbackCurrency string) (domain.Projection, string, error) {
	events, err := s.log.ReadAll(ctx, key)
	if err != nil {
		return domain.Projection{}, "", err
	}
	currency := domain.StreamCurrency(events, fallbackCurrency)
	p, err := domain.Replay(key, currency, events)
	if err != nil {
		return domain.Projection{}, "", err
	}
	return p, currency, nil
}

func (s *RebuildService) recordReconciliation(result string) {
	if s.metrics != nil {
		s.metrics.RecordReconciliation(result)
	}
}

func reconciledEvent(key domain.PositionKey, report *ReconcileReportDTO) *domain.PositionReconciledEvent {
	return &domain.PositionReconciledEvent{
		ItemID:        key.ItemID,
		WarehouseID:   key.WarehouseID,
		Matched:       report.Matched,
		Repaired:      true,
		StoredVersion: report.StoredVersion,
		ReplayVersion: report.ReplayVersion,
		CompletedAt:   report.CompletedAt,
	}
}
