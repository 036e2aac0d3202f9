package billing

import "time"

// Config tunes the billing engine. Defaults reproduce the production policy:
// a twice-daily sweep and three fixed-delay retries per charge.
type Config struct {
	// SweepInterval is how often the recurring sweep runs.
	SweepInterval time.Duration `env:"BILLING_SWEEP_INTERVAL" envDefault:"12h"`
	// SweepInitialDelay postpones the first sweep after the task starts.
	SweepInitialDelay time.Duration `env:"BILLING_SWEEP_INITIAL_DELAY" envDefault:"0s"`
	// RetryAttempts is the number of retries granted beyond the first charge
	// try when the payment network fails transiently.
	RetryAttempts int `env:"BILLING_CHARGE_RETRY_ATTEMPTS" envDefault:"3"`
	// RetryDelay is the fixed wait between charge attempts.
	RetryDelay time.Duration `env:"BILLING_CHARGE_RETRY_DELAY" envDefault:"2s"`
}

// DefaultConfig returns the production defaults without consulting the
// environment.
func DefaultConfig() Config {
	return Config{
		SweepInterval: 12 * time.Hour,
		RetryAttempts: 3,
		RetryDelay:    2 * time.Second,
	}
}

// normalized fills missing tunables with the production defaults so a
// hand-built Config still follows the documented retry policy. Zero
// RetryAttempts is a valid no-retry policy and stays as given.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.SweepInterval <= 0 {
		c.SweepInterval = def.SweepInterval
	}
	if c.RetryAttempts < 0 {
		c.RetryAttempts = def.RetryAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = def.RetryDelay
	}
	return c
}

const (
	// incompleteWindowDays is how long a subscription may stay INCOMPLETE
	// before it expires without ever being charged again.
	incompleteWindowDays = 3
	// graceWindowDays is how long after the period end a PAST_DUE
	// subscription can still be rescued by a successful charge.
	graceWindowDays = 3
)
