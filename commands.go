package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.bug.st/serial/enumerator"

	"widtech.dev/atfrp/console"
	"widtech.dev/atfrp/modem"
	"widtech.dev/atfrp/procedure"
)

// app is the state shared by every subcommand once configuration is loaded.
type app struct {
	config *Config
	logger *slog.Logger
	runner *procedure.Runner
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var envFile string

	root := &cobra.Command{
		Use:   "atfrp",
		Short: "Baseband service tool speaking the vendor AT dialect",
		Long: `atfrp talks to a phone's modem over its USB serial port.

It reads identity data, checks and resets factory reset protection, enables
debug mode and reboots the device. Settings come from defaults, the env file,
the environment and flags, in that order.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load(cmd, envFile)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&envFile, "env-file", DefaultEnvFile(), "Env file with configuration overrides")
	flags.String("serial-port", "/dev/ttyACM0", "Serial port to connect to the modem")
	flags.Int("baud-rate", modem.DefaultBaudRate, "Baud rate for serial communication")
	flags.String("log-level", "info", "Log level (debug, info, warn, error)")
	flags.Bool("no-color", false, "Disable colored output")
	flags.Duration("settle", procedure.DefaultTiming().Settle, "Delay after each diagnostic command")
	flags.Duration("reboot-wait", procedure.DefaultTiming().RebootWait, "Time the device needs to restart")
	flags.Duration("reconnect-wait", procedure.DefaultTiming().ReconnectWait, "Extra wait before reconnecting after a restart")
	flags.StringSlice("carriers", procedure.DefaultCarriers, "Carrier codes applied before and after the FRP reset reboot")

	root.AddCommand(
		portsCmd(),
		queryCmd(a, "info", "Read model, software, serial numbers and security patch", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.ReadDeviceInfo(ctx, conn)
			return err
		}),
		queryCmd(a, "version", "Read the Android version", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.AndroidVersion(ctx, conn)
			return err
		}),
		queryCmd(a, "simlock", "Read the SIM lock status", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.SIMLockStatus(ctx, conn)
			return err
		}),
		queryCmd(a, "chipset", "Identify the chipset", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.Chipset(ctx, conn)
			return err
		}),
		queryCmd(a, "carrier", "Read the carrier ID", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.CarrierID(ctx, conn)
			return err
		}),
		queryCmd(a, "frp", "Check the factory reset protection status", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.CheckFRP(ctx, conn)
			return err
		}),
		queryCmd(a, "dvif", "Read device info while in download mode", func(ctx context.Context, conn *modem.Conn) error {
			_, err := a.runner.ReadDownloadInfo(ctx, conn)
			return err
		}),
		queryCmd(a, "download-mode", "Reboot the device into download mode", func(ctx context.Context, conn *modem.Conn) error {
			return a.runner.RebootDownloadMode(ctx, conn)
		}),
		queryCmd(a, "restart", "Restart the device", func(ctx context.Context, conn *modem.Conn) error {
			return a.runner.Restart(ctx, conn)
		}),
		frpResetCmd(a),
		adbCmd(a),
	)

	return root
}

// load reads the configuration and builds the runner.
func (a *app) load(cmd *cobra.Command, envFile string) error {
	config, err := LoadConfig(WithDefaults(), WithEnvFile(envFile), WithEnv(), WithFlags(cmd.Flags()))
	if err != nil {
		return err
	}
	a.config = config
	a.logger = newLogger(config.LogLevel)
	slog.SetDefault(a.logger)

	// color.NoColor covers NO_COLOR, TERM=dumb and output that is not a terminal.
	colored := !config.NoColor && !color.NoColor
	out := cmd.OutOrStdout()
	if out == os.Stdout {
		out = color.Output
	}
	var sink console.Sink = console.NewTerminal(out, colored)
	if a.logger.Enabled(cmd.Context(), slog.LevelDebug) {
		sink = console.Tee(sink, console.NewSlogSink(a.logger.With("component", "console")))
	}

	runnerConfig, err := procedure.NewConfigBuilder().
		WithDialer(modem.SerialDialer{
			PortName: config.SerialPort,
			BaudRate: config.BaudRate,
		}).
		WithSink(sink).
		WithConfirmer(console.LinePrompt{}).
		WithTiming(config.Timing()).
		WithCarriers(config.Carriers...).
		WithLogger(a.logger.With("component", "procedure")).
		Build()
	if err != nil {
		return err
	}

	a.runner, err = procedure.NewRunner(runnerConfig)
	return err
}

// session connects, runs fn and releases whatever handle is left open.
func (a *app) session(ctx context.Context, fn func(ctx context.Context, conn *modem.Conn) (*modem.Conn, error)) error {
	conn, err := a.runner.Connect(ctx)
	if err != nil {
		return err
	}

	conn, err = fn(ctx, conn)
	if conn != nil && !conn.Closed() {
		if cerr := conn.Close(); cerr != nil {
			a.logger.Warn("failed to close connection", "error", cerr)
		}
	}
	return err
}

func queryCmd(a *app, use, short string, fn func(ctx context.Context, conn *modem.Conn) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd.Context(), func(ctx context.Context, conn *modem.Conn) (*modem.Conn, error) {
				return conn, fn(ctx, conn)
			})
		},
	}
}

func frpResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "frp-reset",
		Short: "Reset factory reset protection (two-carrier sequence with reboot)",
		Long: `Reset factory reset protection.

The device is configured with the first carrier, restarted, reconnected and
configured with the second carrier. The whole sequence takes about 40 seconds
with the default timing. Keep the device plugged in.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.session(cmd.Context(), a.runner.ResetFRP)
		},
	}
}

func adbCmd(a *app) *cobra.Command {
	var variant string

	cmd := &cobra.Command{
		Use:   "adb",
		Short: "Enable debug mode (requires dialing *#0*# on the device)",
		Example: `  # Devices with 2022 firmware
  atfrp adb --variant 2022

  # Devices with 2023 firmware or later
  atfrp adb --variant 2023`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := procedure.ParseDebugVariant(variant)
			if err != nil {
				return err
			}
			return a.session(cmd.Context(), func(ctx context.Context, conn *modem.Conn) (*modem.Conn, error) {
				return conn, a.runner.EnableDebug(ctx, conn, v)
			})
		},
	}
	cmd.Flags().StringVar(&variant, "variant", procedure.Debug2023.String(), "Firmware variant (2022 or 2023)")
	return cmd
}

func portsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := enumerator.GetDetailedPortsList()
			if err != nil {
				return fmt.Errorf("list serial ports: %w", err)
			}
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				fmt.Fprintln(out, "No serial ports found.")
				return nil
			}
			for _, p := range ports {
				if p.IsUSB {
					fmt.Fprintf(out, "%s\tUSB %s:%s %s %s\n", p.Name, p.VID, p.PID, p.SerialNumber, p.Product)
					continue
				}
				fmt.Fprintln(out, p.Name)
			}
			return nil
		},
	}
}
