package currency

import (
	"fmt"
	"strings"

	xcurrency "golang.org/x/text/currency"
)

// Currency is an ISO-4217 currency code from the supported set.
type Currency string

const (
	USD Currency = "USD"
	EUR Currency = "EUR"
	DKK Currency = "DKK"
	GBP Currency = "GBP"
	SEK Currency = "SEK"
)

// Supported returns the currencies billingkit can invoice in, in a stable order.
func Supported() []Currency {
	return []Currency{USD, EUR, DKK, GBP, SEK}
}

// IsSupported reports whether c belongs to the supported set.
func IsSupported(c Currency) bool {
	switch c {
	case USD, EUR, DKK, GBP, SEK:
		return true
	}
	return false
}

// Parse normalizes and validates a currency code. The code must be a valid
// ISO-4217 unit and a member of the supported set.
func Parse(code string) (Currency, error) {
	unit, err := xcurrency.ParseISO(strings.TrimSpace(code))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	c := Currency(unit.String())
	if !IsSupported(c) {
		return "", fmt.Errorf("%w: %q", ErrInvalidCurrency, code)
	}
	return c, nil
}

// String implements fmt.Stringer.
func (c Currency) String() string { return string(c) }
