// Command calculus evaluates integrals, derivatives, critical points and
// limits of single-variable expressions, from the command line or as an
// HTTP service.
//
// Usage:
//
//	calculus integral "x^2" --start 0 --end 1
//	calculus derivative "sin x" --at 0
//	calculus critical "x^3 - 3x" --start -3 --end 3
//	calculus limit "sin(x)/x" --at 0
//	calculus serve --port 8000
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	gocalculus "github.com/njchilds90/gocalculus"
	"github.com/njchilds90/gocalculus/internal/config"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// Set up by PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "calculus",
	Short: "Single-variable calculus engine",
	Long: `calculus parses expressions such as "2x^2 + sin x" and computes
definite integrals, symbolic derivatives, critical points and limits.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}
		logger, err = buildLogger(cfg.Logging, verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func buildLogger(lc config.LoggingConfig, verbose bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	if lc.Development {
		zc = zap.NewDevelopmentConfig()
	}
	level, err := zapcore.ParseLevel(lc.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}

func newCalculator() *gocalculus.Calculator {
	return gocalculus.New(
		gocalculus.WithOptions(cfg.EngineOptions()),
		gocalculus.WithLogger(logger),
	)
}

func printJSON(cmd *cobra.Command, v interface{}) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

var integralCmd = &cobra.Command{
	Use:   "integral [expression]",
	Short: "Definite integral over [--start, --end]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetFloat64("start")
		end, _ := cmd.Flags().GetFloat64("end")
		res, err := newCalculator().ComputeIntegral(args[0], start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var derivativeCmd = &cobra.Command{
	Use:   "derivative [expression]",
	Short: "Symbolic derivative, optionally evaluated at --at",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var at, start, end *float64
		if cmd.Flags().Changed("at") {
			v, _ := cmd.Flags().GetFloat64("at")
			at = &v
		}
		if cmd.Flags().Changed("start") || cmd.Flags().Changed("end") {
			s, _ := cmd.Flags().GetFloat64("start")
			e, _ := cmd.Flags().GetFloat64("end")
			start, end = &s, &e
		}
		res, err := newCalculator().ComputeDerivative(args[0], at, start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var criticalCmd = &cobra.Command{
	Use:   "critical [expression]",
	Short: "Minima, maxima and inflection points in [--start, --end]",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		start, _ := cmd.Flags().GetFloat64("start")
		end, _ := cmd.Flags().GetFloat64("end")
		res, err := newCalculator().ComputeCriticalPoints(args[0], start, end)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var limitCmd = &cobra.Command{
	Use:   "limit [expression]",
	Short: "Limit as x approaches --at from --dir (+, - or both)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		at, _ := cmd.Flags().GetFloat64("at")
		dir, _ := cmd.Flags().GetString("dir")
		res, err := newCalculator().ComputeLimit(args[0], at, dir)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	},
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("port") {
			cfg.Server.Port, _ = cmd.Flags().GetInt("port")
		}
		return serve(cmd.Context(), cfg, newCalculator(), logger)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "calculus.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	integralCmd.Flags().Float64("start", 0, "Lower bound")
	integralCmd.Flags().Float64("end", 1, "Upper bound")

	derivativeCmd.Flags().Float64("at", 0, "Point at which to evaluate the derivative")
	derivativeCmd.Flags().Float64("start", -10, "Start of the sampled range")
	derivativeCmd.Flags().Float64("end", 10, "End of the sampled range")

	criticalCmd.Flags().Float64("start", -10, "Start of the search range")
	criticalCmd.Flags().Float64("end", 10, "End of the search range")

	limitCmd.Flags().Float64("at", 0, "Approach point")
	limitCmd.Flags().String("dir", "", `Direction: "+", "-" or empty for two-sided`)

	serveCmd.Flags().IntP("port", "p", 8000, "Port to listen on (overrides config)")

	rootCmd.AddCommand(integralCmd, derivativeCmd, criticalCmd, limitCmd, serveCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
