package main

import (
	"fmt"
	"os"
	"path/filepath"

	"seatfinder/internal/config"
	"seatfinder/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose    bool
	configPath string
	headless   bool
	parallel   bool

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "seatfinder",
	Short: "Find remaining seats in timetable activities",
	Long: `seatfinder drives the public timetable in Chrome and reports how many
seats are left in the activities named by the queries of a config file.

Run without a subcommand to resolve every query once.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		zapCfg.Encoding = "console"
		zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
	RunE: runQueries,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVar(&headless, "headless", false, "Run Chrome headless (overrides config)")
	rootCmd.PersistentFlags().BoolVar(&parallel, "parallel", false, "Resolve queries in parallel (overrides config)")

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of outcomes to show")
	historyCmd.Flags().StringVar(&historyUnit, "unit", "", "Only show outcomes for this unit code")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing config")
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "Quiet period before re-running (default 500ms)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig loads and validates the config file, applies flag overrides
// and initializes file logging next to it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := logging.Initialize(configDir(), cfg.Logging.Options()); err != nil {
		getLogger().Warn("File logging disabled", zap.Error(err))
	}

	if cmd.Flags().Changed("headless") {
		logging.BootDebug("--headless=%v overrides config", headless)
		cfg.Headless = headless
	}
	if cmd.Flags().Changed("parallel") {
		logging.BootDebug("--parallel=%v overrides config", parallel)
		cfg.Parallel = parallel
	}
	logging.Boot("Loaded config %s (parallel=%v headless=%v)", configPath, cfg.Parallel, cfg.Headless)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// configDir is the directory relative paths in the config resolve against.
func configDir() string {
	abs, err := filepath.Abs(configPath)
	if err != nil {
		return "."
	}
	return filepath.Dir(abs)
}

// getLogger returns the CLI logger, or a no-op one when the pre-run hook
// has not built it.
func getLogger() *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
