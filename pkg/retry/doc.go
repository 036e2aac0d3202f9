// Package retry implements the fixed-delay retry policy the billing engine
// applies to transient payment-network failures.
//
// A Retrier is stateful and scoped to one logical operation: each Failure
// call consumes one attempt and blocks for the configured delay; once
// attempts are exhausted the triggering error is returned to the caller.
// Reset exists only to reuse a Retrier across independent operations, never
// mid-retry.
package retry
