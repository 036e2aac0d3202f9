package httpserver

import "time"

// Config carries the env-driven server settings.
type Config struct {
	// Addr is the address the server listens on.
	Addr string `env:"HTTP_ADDR" envDefault:":8080"`
	// ReadTimeout caps how long reading a full request may take.
	ReadTimeout time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`
	// WriteTimeout caps how long writing a response may take.
	WriteTimeout time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	// IdleTimeout caps how long a keep-alive connection may sit idle.
	IdleTimeout time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`
	// ShutdownTimeout bounds the graceful drain on shutdown.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
}

// NewFromConfig builds a Server from cfg. Zero fields keep the package
// defaults; opts apply on top of the config.
func NewFromConfig(cfg Config, opts ...Option) *Server {
	fromCfg := func(c *config) {
		if cfg.Addr != "" {
			c.addr = cfg.Addr
		}
		if cfg.ReadTimeout > 0 {
			c.readTimeout = cfg.ReadTimeout
		}
		if cfg.WriteTimeout > 0 {
			c.writeTimeout = cfg.WriteTimeout
		}
		if cfg.IdleTimeout > 0 {
			c.idleTimeout = cfg.IdleTimeout
		}
		if cfg.ShutdownTimeout > 0 {
			c.shutdownTimeout = cfg.ShutdownTimeout
		}
	}
	return New(append([]Option{fromCfg}, opts...)...)
}
