package application

import (
	"fmt"

	"github.com/wms-platform/ledger-service/internal/domain"
)

func toMoneyDTO(m domain.Money) MoneyDTO {
	return MoneyDTO{
		Amount:   m.ToCents(),
		Currency: m.Currency(),
	}
}

func toPositionDTO(p domain.Projection) *PositionDTO {
	return &PositionDTO{
		ItemID:            p.Key.ItemID,
		WarehouseID:       p.Key.WarehouseID,
		QuantityOnHand:    p.QuantityOnHand,
		QuantityReserved:  p.QuantityReserved,
		QuantityAvailable: p.QuantityAvailable(),
		AverageCost:       toMoneyDTO(p.AverageCost),
		TotalValue:        toMoneyDTO(p.TotalValue),
		LastMovementAt:    p.LastMovementAt,
		Version:           p.Version,
	}
}

func toMovementDTO(e domain.MovementEvent) MovementDTO {
	dto := MovementDTO{
		EventID:        e.EventID,
		ItemID:         e.Key.ItemID,
		WarehouseID:    e.Key.WarehouseID,
		SequenceNumber: e.SequenceNumber,
		MovementType:   e.Type.String(),
		Quantity:       e.Quantity,
		OccurredAt:     e.OccurredAt,
		RecordedAt:     e.RecordedAt,
		CausationID:    e.CausationID,
		CorrelationID:  e.CorrelationID,
	}
	if e.UnitCost != nil {
		cost := toMoneyDTO(*e.UnitCost)
		dto.UnitCost = &cost
	}
	return dto
}

func toMovementDTOs(events []domain.MovementEvent) []MovementDTO {
	dtos := make([]MovementDTO, len(events))
	for i, e := range events {
		dtos[i] = toMovementDTO(e)
	}
	return dtos
}

// diffProjections lists the fields where stored and replayed disagree.
// Version is reported separately on the reconcile report.
func diffProjections(stored, replayed domain.Projection) []FieldDiffDTO {
	var diffs []FieldDiffDTO

	addInt := func(field string, a, b int64) {
		if a != b {
			diffs = append(diffs, FieldDiffDTO{
				Field:    field,
				Stored:   fmt.Sprintf("%d", a),
				Replayed: fmt.Sprintf("%d", b),
			})
		}
	}

	addInt("quantityOnHand", stored.QuantityOnHand, replayed.QuantityOnHand)
	addInt("quantityReserved", stored.QuantityReserved, replayed.QuantityReserved)
	if !stored.AverageCost.Equals(replayed.AverageCost) {
		diffs = append(diffs, FieldDiffDTO{
			Field:    "averageCost",
			Stored:   stored.AverageCost.String(),
			Replayed: replayed.AverageCost.String(),
		})
	}
	if !stored.TotalValue.Equals(replayed.TotalValue) {
		diffs = append(diffs, FieldDiffDTO{
			Field:    "totalValue",
			Stored:   stored.TotalValue.String(),
			Replayed: replayed.TotalValue.String(),
		})
	}
	addInt("version", stored.Version, replayed.Version)

	return diffs
}
