package currency

import "errors"

var (
	// ErrInvalidCurrency is returned when a currency code is not ISO-4217 or
	// not in the supported set.
	ErrInvalidCurrency = errors.New("invalid or unsupported currency")

	// ErrCurrencyMismatch is returned when two amounts in different
	// currencies are combined without an explicit conversion.
	ErrCurrencyMismatch = errors.New("currency mismatch")
)
