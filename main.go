package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/cepro/gridsim/config"
	"github.com/cepro/gridsim/kpi"
	"github.com/spf13/cobra"
)

func main() {
	var configPath string
	var logLevel string
	cfg := config.Default()

	rootCmd := &cobra.Command{
		Use:           "gridsim",
		Short:         "Three zone electricity grid simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if configPath != "" {
				var err error
				cfg, err = config.Read(configPath)
				if err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("log-level") || cfg.LogLevel == "" {
				cfg.LogLevel = logLevel
			}
			return setupLogging(cfg.LogLevel)
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "runtime config file (JSON or YAML)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level: debug, info, warn or error")

	rootCmd.AddCommand(runCmd(&cfg))
	rootCmd.AddCommand(validateCmd())
	rootCmd.AddCommand(serveCmd(&cfg))
	rootCmd.AddCommand(uploadCmd(&cfg))
	rootCmd.AddCommand(pollCmd())
	rootCmd.AddCommand(exampleCmd())

	if err := rootCmd.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) error {
	var slogLevel slog.Level
	if err := slogLevel.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("parse log level: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slogLevel}))
	slog.SetDefault(logger)
	return nil
}

// contractFlags binds the day-ahead contract flags shared by the run commands.
type contractFlags struct {
	quantity float64
	price    float64
}

func (f *contractFlags) register(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&f.quantity, "contract-quantity", 0, "day-ahead contract quantity in MW")
	cmd.Flags().Float64Var(&f.price, "contract-price", -1, "day-ahead contract price (default: the scenario's day-ahead price)")
}

func (f *contractFlags) contract(defaultContract kpi.Contract) kpi.Contract {
	contract := defaultContract
	contract.Quantity = f.quantity
	if f.price >= 0 {
		contract.Price = f.price
	}
	return contract
}

func runCmd(cfg *config.Config) *cobra.Command {
	var csvPath string
	var scriptPath string
	var archive bool
	var contract contractFlags

	cmd := &cobra.Command{
		Use:   "run [scenario]",
		Short: "Run a scenario to completion without pacing and print the scorecard",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runHeadless(*cfg, args[0], scriptPath, csvPath, archive, contract)
		},
	}

	cmd.Flags().StringVar(&csvPath, "csv", "", "write the tick log as CSV to this file")
	cmd.Flags().StringVar(&scriptPath, "script", "", "apply scripted operator actions from this file")
	cmd.Flags().BoolVar(&archive, "archive", false, "store the run in the local archive for upload")
	contract.register(cmd)
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [scenario]",
		Short: "Check that a scenario has every required field and a valid topology",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runValidate(os.Stdout, args[0])
		},
	}
}

func serveCmd(cfg *config.Config) *cobra.Command {
	var contract contractFlags

	cmd := &cobra.Command{
		Use:   "serve [scenario]",
		Short: "Run a scenario in paced ticks and serve its state over Modbus TCP",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runServe(*cfg, args[0], contract)
		},
	}

	contract.register(cmd)
	return cmd
}

func uploadCmd(cfg *config.Config) *cobra.Command {
	var loop bool

	cmd := &cobra.Command{
		Use:   "upload",
		Short: "Upload archived runs to the data platform",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runUpload(*cfg, loop)
		},
	}

	cmd.Flags().BoolVar(&loop, "loop", false, "keep uploading at the configured interval until interrupted")
	return cmd
}

func pollCmd() *cobra.Command {
	var batteryMode string
	var toggleUnit int

	cmd := &cobra.Command{
		Use:   "poll [host:port]",
		Short: "Read the simulator's Modbus registers and optionally send a command",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			return runPoll(os.Stdout, args[0], batteryMode, toggleUnit)
		},
	}

	cmd.Flags().StringVar(&batteryMode, "battery-mode", "", "set the battery mode: auto, charge or discharge")
	cmd.Flags().IntVar(&toggleUnit, "toggle-unit", -1, "toggle the thermal unit at this zero-based index")
	return cmd
}

func exampleCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "example",
		Short: "Print an example scenario as YAML",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runExample(os.Stdout)
		},
	}
}
