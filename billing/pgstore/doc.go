// Package pgstore implements billing.Store on PostgreSQL via pgx.
//
// Status codes are symbolic inside the engine and numeric in the database;
// the translation happens here, in SQL, by joining the billing_statuses
// registry table. Subscriptions carry a version column and updates are
// conditional on it, surfacing lost races as billing.ErrWriteFailed.
package pgstore
