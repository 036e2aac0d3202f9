// Package httpserver wraps net/http with graceful shutdown, configurable
// timeouts and lifecycle hooks. Run blocks until the context is cancelled, an
// interrupt or TERM signal arrives, or the listener fails; shutdown drains
// in-flight requests within a configurable deadline. Errors are wrapped with
// the ErrStart and ErrShutdown sentinels.
package httpserver
