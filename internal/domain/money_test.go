package domain

import (
	"testing"
)

func mustNewMoney(amount int64, currency string) Money {
	m, err := NewMoney(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

func TestNewMoney(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		currency    string
		expectError bool
	}{
		{
			name:        "valid money",
			amount:      1000,
			currency:    "USD",
			expectError: false,
		},
		{
			name:        "zero amount is valid",
			amount:      0,
			currency:    "EUR",
			expectError: false,
		},
		{
			name:        "negative amount",
			amount:      -100,
			currency:    "USD",
			expectError: true,
		},
		{
			name:        "empty currency",
			amount:      1000,
			currency:    "",
			expectError: true,
		},
		{
			name:        "invalid currency code length",
			amount:      1000,
			currency:    "US",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			money, err := NewMoney(tt.amount, tt.currency)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if money.Amount() != tt.amount {
					t.Errorf("expected amount %d, got %d", tt.amount, money.Amount())
				}
				if money.Currency() != tt.currency {
					t.Errorf("expected currency %s, got %s", tt.currency, money.Currency())
				}
			}
		})
	}
}

func TestMoney_Add(t *testing.T) {
	tests := []struct {
		name        string
		money1      Money
		money2      Money
		expected    int64
		expectError bool
	}{
		{
			name:        "add same currency",
			money1:      mustNewMoney(1000, "USD"),
			money2:      mustNewMoney(500, "USD"),
			expected:    1500,
			expectError: false,
		},
		{
			name:        "add zero",
			money1:      mustNewMoney(1000, "USD"),
			money2:      ZeroMoney("USD"),
			expected:    1000,
			expectError: false,
		},
		{
			name:        "currency mismatch",
			money1:      mustNewMoney(1000, "USD"),
			money2:      mustNewMoney(500, "EUR"),
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := tt.money1.Add(tt.money2)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Amount() != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, result.Amount())
				}
			}
		})
	}
}

func TestMoney_Multiply(t *testing.T) {
	m := mustNewMoney(1050, "USD")

	result := m.Multiply(3)
	if result.Amount() != 3150 {
		t.Errorf("expected 3150, got %d", result.Amount())
	}

	result = m.Multiply(0)
	if !result.IsZero() {
		t.Errorf("expected zero, got %d", result.Amount())
	}
}

func TestMoney_Divide(t *testing.T) {
	tests := []struct {
		name        string
		amount      int64
		divisor     int64
		expected    int64
		expectError bool
	}{
		{
			name:     "exact division",
			amount:   1000,
			divisor:  4,
			expected: 250,
		},
		{
			name:     "rounds half up",
			amount:   1001,
			divisor:  2,
			expected: 501,
		},
		{
			name:     "rounds down below half",
			amount:   1000,
			divisor:  3,
			expected: 333,
		},
		{
			name:        "division by zero",
			amount:      1000,
			divisor:     0,
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := Money{amount: tt.amount, currency: "USD"}
			result, err := m.Divide(tt.divisor)

			if tt.expectError {
				if err == nil {
					t.Errorf("expected error, got nil")
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				if result.Amount() != tt.expected {
					t.Errorf("expected %d, got %d", tt.expected, result.Amount())
				}
			}
		})
	}
}

func TestMoney_String(t *testing.T) {
	m := mustNewMoney(123456, "USD")
	if m.String() != "1234.56 USD" {
		t.Errorf("unexpected string: %s", m.String())
	}

	m = ZeroMoney("EUR")
	if m.String() != "0.00 EUR" {
		t.Errorf("unexpected string: %s", m.String())
	}
}
