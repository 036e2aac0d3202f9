// Package currency provides the monetary primitives used across billingkit:
// supported currency codes, an exact-decimal Money value type, and the
// Converter capability the billing engine uses to move amounts between
// currencies.
//
// Amounts are represented with shopspring/decimal rather than floats because
// they end up charged to real accounts; all arithmetic and comparisons are
// exact.
//
// The Converter implementation shipped here (RateTable) is a static
// cross-rate table meant for development and testing. Production hosts are
// expected to supply their own Converter backed by a real rate source.
package currency
