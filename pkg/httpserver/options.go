package httpserver

import (
	"log/slog"
	"time"
)

// Option configures a Server before it starts.
type Option func(*config)

// WithAddr sets the listen address.
func WithAddr(addr string) Option {
	if addr == "" {
		panic("httpserver: empty listen address")
	}
	return func(c *config) { c.addr = addr }
}

// WithShutdownTimeout bounds how long Shutdown waits for in-flight requests
// to drain.
func WithShutdownTimeout(d time.Duration) Option {
	if d <= 0 {
		panic("httpserver: shutdown timeout must be positive")
	}
	return func(c *config) { c.shutdownTimeout = d }
}

// WithLogger attaches a logger. A nil logger keeps the discard default.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithStartHook registers h to run right before the server starts listening.
// Nil hooks are ignored.
func WithStartHook(h func(*slog.Logger)) Option {
	return func(c *config) {
		if h != nil {
			c.startHooks = append(c.startHooks, h)
		}
	}
}

// WithStopHook registers h to run after shutdown has drained the server.
// Nil hooks are ignored.
func WithStopHook(h func(*slog.Logger)) Option {
	return func(c *config) {
		if h != nil {
			c.stopHooks = append(c.stopHooks, h)
		}
	}
}
