package procedure

import (
	"log/slog"
	"slices"
	"time"

	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
)

// Sleeper blocks for d. Settle delays go through it so tests can record them
// instead of waiting.
type Sleeper func(d time.Duration)

// DefaultCarriers are the sales codes applied before and after the reboot of
// the FRP reset.
var DefaultCarriers = []string{"VZW", "TMB"}

type Config struct {
	Dialer    modem.Dialer
	Sink      console.Sink
	Confirmer console.Confirmer
	Timing    Timing
	Logger    *slog.Logger
	Sleeper   Sleeper
	Carriers  []string
}

func (c *Config) validate() error {
	if c.Dialer == nil {
		return ErrNoDialer
	}
	if c.Sink == nil {
		return ErrNoSink
	}
	if c.Carriers != nil && len(c.Carriers) != 2 {
		return ErrCarriers
	}
	return nil
}

func (c *Config) setDefaults() {
	c.Timing = c.Timing.orDefault()
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	if c.Sleeper == nil {
		c.Sleeper = time.Sleep
	}
	if c.Carriers == nil {
		c.Carriers = slices.Clone(DefaultCarriers)
	}
}

type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(dialer modem.Dialer) *ConfigBuilder {
	b.config.Dialer = dialer
	return b
}

func (b *ConfigBuilder) WithSink(sink console.Sink) *ConfigBuilder {
	b.config.Sink = sink
	return b
}

func (b *ConfigBuilder) WithConfirmer(confirmer console.Confirmer) *ConfigBuilder {
	b.config.Confirmer = confirmer
	return b
}

func (b *ConfigBuilder) WithTiming(timing Timing) *ConfigBuilder {
	b.config.Timing = timing
	return b
}

func (b *ConfigBuilder) WithLogger(logger *slog.Logger) *ConfigBuilder {
	b.config.Logger = logger
	return b
}

func (b *ConfigBuilder) WithSleeper(sleeper Sleeper) *ConfigBuilder {
	b.config.Sleeper = sleeper
	return b
}

func (b *ConfigBuilder) WithCarriers(carriers ...string) *ConfigBuilder {
	b.config.Carriers = carriers
	return b
}

func (b *ConfigBuilder) Build() (Config, error) {
	if err := b.config.validate(); err != nil {
		return Config{}, err
	}
	b.config.setDefaults()
	return b.config, nil
}
