// Package pg bootstraps the PostgreSQL layer: a pgx/v5 connection pool with
// startup retries, goose schema migrations, and error helpers for the common
// SQLSTATE checks storage code needs.
package pg
