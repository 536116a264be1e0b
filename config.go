package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kirsle/configdir"
	"github.com/spf13/pflag"

	"widtech.dev/atfrp/modem"
	"widtech.dev/atfrp/procedure"
)

// Config holds the application configuration
type Config struct {
	// SerialPort is the path to the modem's serial port (e.g. "/dev/ttyACM0")
	SerialPort string
	// BaudRate is the baud rate for serial communication with the modem (e.g. 115200)
	BaudRate int
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string
	// NoColor disables ANSI colors on the terminal
	NoColor bool
	// Settle is the delay after each diagnostic command
	Settle time.Duration
	// RebootWait is how long the device takes to power-cycle
	RebootWait time.Duration
	// ReconnectWait is the extra wait before dialing again after a reboot
	ReconnectWait time.Duration
	// Carriers are the sales codes applied before and after the FRP reset reboot
	Carriers []string
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// DefaultEnvFile is the env file read when --env-file is not given.
func DefaultEnvFile() string {
	return filepath.Join(configdir.LocalConfig("atfrp"), "atfrp.env")
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		timing := procedure.DefaultTiming()
		c.SerialPort = "/dev/ttyACM0"
		c.BaudRate = modem.DefaultBaudRate
		c.LogLevel = "info"
		c.Settle = timing.Settle
		c.RebootWait = timing.RebootWait
		c.ReconnectWait = timing.ReconnectWait
		c.Carriers = append([]string(nil), procedure.DefaultCarriers...)
		return nil
	}
}

// WithEnvFile loads configuration from a dotenv file. A missing file is not
// an error.
func WithEnvFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		vars, err := godotenv.Read(path)
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read env file %s: %w", path, err)
		}
		return c.applyEnv(func(key string) string { return vars[key] })
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		return c.applyEnv(os.Getenv)
	}
}

func (c *Config) applyEnv(get func(string) string) error {
	if serial := get("SERIAL_PORT"); serial != "" {
		c.SerialPort = serial
	}

	if baud := get("BAUD_RATE"); baud != "" {
		if b, err := strconv.Atoi(baud); err == nil {
			c.BaudRate = b
		}
	}

	if level := get("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}

	if get("NO_COLOR") != "" {
		c.NoColor = true
	}

	for key, dst := range map[string]*time.Duration{
		"SETTLE_DELAY":   &c.Settle,
		"REBOOT_WAIT":    &c.RebootWait,
		"RECONNECT_WAIT": &c.ReconnectWait,
	} {
		if v := get(key); v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("invalid %s: %w", key, err)
			}
			*dst = d
		}
	}

	if carriers := get("CARRIERS"); carriers != "" {
		c.Carriers = splitList(carriers)
	}

	return nil
}

// WithFlags loads configuration from command-line flags
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		duration := func(dst *time.Duration, f *pflag.Flag) {
			d, perr := time.ParseDuration(f.Value.String())
			if perr != nil {
				err = errors.Join(err, fmt.Errorf("invalid --%s: %w", f.Name, perr))
				return
			}
			*dst = d
		}

		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "serial-port":
				c.SerialPort = f.Value.String()
			case "baud-rate":
				if b, perr := strconv.Atoi(f.Value.String()); perr == nil {
					c.BaudRate = b
				}
			case "log-level":
				c.LogLevel = f.Value.String()
			case "no-color":
				c.NoColor = f.Value.String() == "true"
			case "settle":
				duration(&c.Settle, f)
			case "reboot-wait":
				duration(&c.RebootWait, f)
			case "reconnect-wait":
				duration(&c.ReconnectWait, f)
			case "carriers":
				if carriers, perr := fSet.GetStringSlice(f.Name); perr == nil {
					c.Carriers = splitList(strings.Join(carriers, ","))
				}
			}
		})
		return err
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.ToUpper(part))
		}
	}
	return out
}

// Timing returns the procedure timing with the configured delays applied.
func (c *Config) Timing() procedure.Timing {
	t := procedure.DefaultTiming()
	t.Settle = c.Settle
	t.RebootWait = c.RebootWait
	t.ReconnectWait = c.ReconnectWait
	return t
}
