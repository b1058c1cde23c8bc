package money

import (
	"fmt"
	"strings"

	"venuebook/internal/domain/shared/fault"
)

// DefaultCurrency is the marketplace settlement currency.
const DefaultCurrency = "PKR"

var (
	ErrInvalidCurrency  = fault.Validation("invalid_currency", "money: invalid currency code")
	ErrCurrencyMismatch = fault.Validation("currency_mismatch", "money: currency mismatch")
)

// Money keeps amounts in whole rupees to avoid floating point issues.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// New constructs a Money value validating minimal invariants.
func New(amount int64, currency string) (Money, error) {
	if strings.TrimSpace(currency) == "" {
		currency = DefaultCurrency
	}
	if len(currency) != 3 {
		return Money{}, ErrInvalidCurrency
	}
	return Money{Amount: amount, Currency: strings.ToUpper(currency)}, nil
}

// Must creates Money and panics if validation fails; useful in tests and fixtures.
func Must(amount int64, currency string) Money {
	m, err := New(amount, currency)
	if err != nil {
		panic(err)
	}
	return m
}

// Zero returns an empty amount in the given currency.
func Zero(currency string) Money {
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Currency: strings.ToUpper(currency)}
}

// Add adds two money values ensuring currencies match.
func (m Money) Add(other Money) (Money, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return Money{}, err
	}
	return Money{Amount: m.Amount + other.Amount, Currency: m.Currency}, nil
}

// Sum adds all values to the receiver.
func (m Money) Sum(values ...Money) (Money, error) {
	total := m
	for _, v := range values {
		next, err := total.Add(v)
		if err != nil {
			return Money{}, err
		}
		total = next
	}
	return total, nil
}

// LessOrEqual compares amounts of the same currency.
func (m Money) LessOrEqual(other Money) (bool, error) {
	if err := m.ensureSameCurrency(other); err != nil {
		return false, err
	}
	return m.Amount <= other.Amount, nil
}

func (m Money) IsPositive() bool {
	return m.Amount > 0
}

// IsZero returns true if the amount equals zero.
func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) String() string {
	return fmt.Sprintf("%s %d", m.Currency, m.Amount)
}

func (m Money) ensureSameCurrency(other Money) error {
	if m.Currency == "" || other.Currency == "" {
		return ErrInvalidCurrency
	}
	if m.Currency != other.Currency {
		return ErrCurrencyMismatch
	}
	return nil
}
