// Package memstore provides a mutex-guarded in-memory implementation of
// billing.Store. It backs the test suite and the dev mode of billingd, and
// mirrors the Postgres store's semantics: not-found sentinels, one-row write
// enforcement, and optimistic concurrency on subscriptions.
package memstore
