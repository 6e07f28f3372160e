package memory

import "time"

// Config controls session retention.
type Config struct {
	// MaxTurns is the number of user/assistant exchanges kept per session.
	MaxTurns      int
	IdleTimeout   time.Duration
	SweepInterval time.Duration
}

// DefaultConfig returns a Config with the service defaults.
func DefaultConfig() Config {
	return Config{
		MaxTurns:      5,
		IdleTimeout:   24 * time.Hour,
		SweepInterval: time.Hour,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.MaxTurns <= 0 {
		c.MaxTurns = d.MaxTurns
	}
	if c.IdleTimeout <= 0 {
		c.IdleTimeout = d.IdleTimeout
	}
	if c.SweepInterval <= 0 {
		c.SweepInterval = d.SweepInterval
	}
	return c
}
