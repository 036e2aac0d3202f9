package currency_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/billingkit/currency"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("valid codes", func(t *testing.T) {
		t.Parallel()
		for _, code := range []string{"USD", "eur", " dkk ", "GBP", "sek"} {
			c, err := currency.Parse(code)
			require.NoError(t, err, "code %q", code)
			assert.True(t, currency.IsSupported(c))
		}
	})

	t.Run("valid ISO but unsupported", func(t *testing.T) {
		t.Parallel()
		_, err := currency.Parse("JPY")
		require.ErrorIs(t, err, currency.ErrInvalidCurrency)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := currency.Parse("money")
		require.ErrorIs(t, err, currency.ErrInvalidCurrency)
	})
}

func TestMoney(t *testing.T) {
	t.Parallel()

	t.Run("exact arithmetic", func(t *testing.T) {
		t.Parallel()
		a, err := currency.NewMoneyFromString("0.10", currency.USD)
		require.NoError(t, err)
		b, err := currency.NewMoneyFromString("0.20", currency.USD)
		require.NoError(t, err)

		sum, err := a.Add(b)
		require.NoError(t, err)
		// 0.1 + 0.2 must be exactly 0.3, not 0.30000000000000004.
		want, err := currency.NewMoneyFromString("0.30", currency.USD)
		require.NoError(t, err)
		assert.True(t, sum.Equal(want), "got %s", sum)
	})

	t.Run("add rejects mixed currencies", func(t *testing.T) {
		t.Parallel()
		a := currency.NewMoney(decimal.NewFromInt(1), currency.USD)
		b := currency.NewMoney(decimal.NewFromInt(1), currency.EUR)
		_, err := a.Add(b)
		require.ErrorIs(t, err, currency.ErrCurrencyMismatch)
	})

	t.Run("string formatting", func(t *testing.T) {
		t.Parallel()
		m, err := currency.NewMoneyFromString("15", currency.USD)
		require.NoError(t, err)
		assert.Equal(t, "15.00 USD", m.String())
	})
}

func TestRateTable(t *testing.T) {
	t.Parallel()

	conv := currency.NewRateTable(currency.DefaultRates())

	t.Run("identity conversion is a no-op", func(t *testing.T) {
		t.Parallel()
		m, err := currency.NewMoneyFromString("42.00", currency.EUR)
		require.NoError(t, err)
		got, err := conv.Convert(m, currency.EUR)
		require.NoError(t, err)
		assert.True(t, got.Equal(m))
	})

	t.Run("cross rate through USD", func(t *testing.T) {
		t.Parallel()
		m, err := currency.NewMoneyFromString("100.00", currency.USD)
		require.NoError(t, err)
		got, err := conv.Convert(m, currency.EUR)
		require.NoError(t, err)
		assert.Equal(t, currency.EUR, got.Currency)
		assert.Equal(t, "91.56", got.Amount.StringFixed(2))
	})

	t.Run("round trips stay close", func(t *testing.T) {
		t.Parallel()
		m, err := currency.NewMoneyFromString("250.00", currency.USD)
		require.NoError(t, err)
		eur, err := conv.Convert(m, currency.EUR)
		require.NoError(t, err)
		back, err := conv.Convert(eur, currency.USD)
		require.NoError(t, err)
		diff := back.Amount.Sub(m.Amount).Abs()
		assert.True(t, diff.LessThanOrEqual(decimal.RequireFromString("0.02")), "diff %s", diff)
	})

	t.Run("unknown currency fails", func(t *testing.T) {
		t.Parallel()
		table := currency.NewRateTable(map[currency.Currency]decimal.Decimal{})
		m := currency.NewMoney(decimal.NewFromInt(10), currency.SEK)
		_, err := table.Convert(m, currency.USD)
		require.ErrorIs(t, err, currency.ErrInvalidCurrency)

		m = currency.NewMoney(decimal.NewFromInt(10), currency.USD)
		_, err = table.Convert(m, currency.SEK)
		require.ErrorIs(t, err, currency.ErrInvalidCurrency)
	})
}
