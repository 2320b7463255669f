package domain

// applyCost computes the new weighted-average unit cost and total value
// for a position, given its prior state and one movement.
//
// Only receipts blend cost: newAvg = (onHand*avg + q*c) / (onHand + q).
// A receipt into an empty position replaces the undefined average with
// the incoming cost (the formula degenerates to c when onHand is 0).
// Every other movement leaves the average untouched and recomputes total
// value from the new on-hand quantity.
//
// Costing is deterministic and order-sensitive: folding events out of
// sequence order yields a different, incorrect average.
func applyCost(prior Projection, newOnHand int64, e MovementEvent) (Money, Money, error) {
	avg := prior.AverageCost

	if e.Type == MovementReceipt {
		cost := *e.UnitCost
		if avg.Currency() != "" && cost.Currency() != avg.Currency() {
			return Money{}, Money{}, ErrCurrencyMismatch
		}
		if newOnHand > 0 {
			blended, err := prior.AverageCost.Multiply(prior.QuantityOnHand).Add(cost.Multiply(e.Quantity))
			if err != nil {
				return Money{}, Money{}, err
			}
			avg, err = blended.Divide(newOnHand)
			if err != nil {
				return Money{}, Money{}, err
			}
		} else {
			avg = cost
		}
	}

	return avg, avg.Multiply(newOnHand), nil
}
