package application

import (
	"errors"

	apperrors "github.com/wms-platform/ledger-service/pkg/errors"

	"github.com/wms-platform/ledger-service/internal/domain"
)

// toAppError maps domain sentinels onto transport-level error codes.
func toAppError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrMissingItemID),
		errors.Is(err, domain.ErrMissingWarehouseID),
		errors.Is(err, domain.ErrInvalidMovementType),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrMissingUnitCost),
		errors.Is(err, domain.ErrUnexpectedUnitCost),
		errors.Is(err, domain.ErrInvalidCurrency),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return apperrors.ErrValidation(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrInsufficientStock):
		return apperrors.ErrInsufficientStock(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrInsufficientReservation):
		return apperrors.ErrInsufficientReservation(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrSequenceConflict),
		errors.Is(err, domain.ErrVersionConflict):
		return apperrors.ErrConflict(err.Error()).Wrap(err)
	case errors.Is(err, domain.ErrPositionNotFound):
		return apperrors.ErrNotFound("position").Wrap(err)
	case errors.Is(err, domain.ErrStorageUnavailable):
		return apperrors.ErrServiceUnavailable("ledger store").Wrap(err)
	default:
		return apperrors.FromError(err)
	}
}
