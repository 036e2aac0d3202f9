package currency

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Converter converts an amount into a target currency.
// Implementations must return ErrInvalidCurrency (possibly wrapped) when
// either side of the conversion is unsupported.
type Converter interface {
	Convert(m Money, to Currency) (Money, error)
}

// RateTable is a static Converter with rates quoted against USD.
// It converts via the cross rate: amount / rate(from) * rate(to).
type RateTable struct {
	rates map[Currency]decimal.Decimal
}

// NewRateTable builds a converter from rates quoted against USD.
// The USD rate defaults to 1 when absent.
func NewRateTable(rates map[Currency]decimal.Decimal) *RateTable {
	cp := make(map[Currency]decimal.Decimal, len(rates)+1)
	for c, r := range rates {
		cp[c] = r
	}
	if _, ok := cp[USD]; !ok {
		cp[USD] = decimal.NewFromInt(1)
	}
	return &RateTable{rates: cp}
}

// DefaultRates returns the development rate table used by billingd.
func DefaultRates() map[Currency]decimal.Decimal {
	return map[Currency]decimal.Decimal{
		USD: decimal.NewFromInt(1),
		DKK: decimal.RequireFromString("6.8120"),
		EUR: decimal.RequireFromString("0.91556"),
		GBP: decimal.RequireFromString("0.76514"),
		SEK: decimal.RequireFromString("9.3869"),
	}
}

// Convert implements Converter. Identity conversions return m unchanged.
func (t *RateTable) Convert(m Money, to Currency) (Money, error) {
	if m.Currency == to {
		return m, nil
	}
	from, ok := t.rates[m.Currency]
	if !ok || from.IsZero() {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, m.Currency)
	}
	target, ok := t.rates[to]
	if !ok {
		return Money{}, fmt.Errorf("%w: %s", ErrInvalidCurrency, to)
	}
	// Cross rate through the USD base with generous precision, rounded to
	// cents only at the end.
	converted := m.Amount.DivRound(from, 12).Mul(target).Round(2)
	return Money{Amount: converted, Currency: to}, nil
}
