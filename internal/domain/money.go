package domain

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Money represents a monetary value with currency.
// Amount is stored in the currency's minor unit (cents) to avoid
// floating point issues in cost accounting.
type Money struct {
	amount   int64  // minor units (cents)
	currency string // ISO 4217 currency code
}

// Money errors
var (
	ErrInvalidCurrency  = errors.New("invalid currency code")
	ErrCurrencyMismatch = errors.New("currency mismatch")
	ErrNegativeMoney    = errors.New("money amount cannot be negative")
	ErrDivisionByZero   = errors.New("division by zero")
)

// NewMoney creates a Money value from an amount in minor units.
func NewMoney(amount int64, currency string) (Money, error) {
	if amount < 0 {
		return Money{}, ErrNegativeMoney
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{amount: amount, currency: currency}, nil
}

// ZeroMoney creates a zero money value in the given currency.
func ZeroMoney(currency string) Money {
	return Money{amount: 0, currency: currency}
}

// Amount returns the amount in minor units (cents).
func (m Money) Amount() int64 { return m.amount }

// Currency returns the ISO 4217 currency code.
func (m Money) Currency() string { return m.currency }

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.amount == 0 }

// Add adds two money values (must have same currency).
func (m Money) Add(other Money) (Money, error) {
	if m.currency != other.currency {
		return Money{}, ErrCurrencyMismatch
	}
	return Money{amount: m.amount + other.amount, currency: m.currency}, nil
}

// Multiply multiplies the amount by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{amount: m.amount * qty, currency: m.currency}
}

// Divide divides the amount by a divisor, rounding half away from zero
// so weighted averages do not drift systematically low.
func (m Money) Divide(divisor int64) (Money, error) {
	if divisor == 0 {
		return Money{}, ErrDivisionByZero
	}
	half := divisor / 2
	if m.amount < 0 {
		half = -half
	}
	return Money{amount: (m.amount + half) / divisor, currency: m.currency}, nil
}

// Equals checks if two money values are equal (amount and currency).
func (m Money) Equals(other Money) bool {
	return m.amount == other.amount && m.currency == other.currency
}

// String returns a human readable representation, e.g. "10.00 USD".
func (m Money) String() string {
	return fmt.Sprintf("%d.%02d %s", m.amount/100, abs64(m.amount%100), m.currency)
}

// ToCents is an alias for Amount() for clarity at call sites.
func (m Money) ToCents() int64 { return m.amount }

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// MarshalBSONValue implements bson.ValueMarshaler
func (m Money) MarshalBSONValue() (bsontype.Type, []byte, error) {
	doc := primitive.D{
		{Key: "amount", Value: m.amount},
		{Key: "currency", Value: m.currency},
	}
	return bson.MarshalValue(doc)
}

// UnmarshalBSONValue implements bson.ValueUnmarshaler
func (m *Money) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	var doc primitive.D
	if err := bson.UnmarshalValue(t, data, &doc); err != nil {
		return err
	}
	docMap := doc.Map()
	if amount, ok := docMap["amount"].(int64); ok {
		m.amount = amount
	}
	if currency, ok := docMap["currency"].(string); ok {
		m.currency = currency
	}
	return nil
}

// MarshalJSON renders money as {"amount": cents, "currency": "USD"}.
func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(fmt.Sprintf(`{"amount":%d,"currency":%q}`, m.amount, m.currency)), nil
}
