package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"synapse/internal/config"
	"synapse/internal/logging"
)

var (
	// Global flags
	verbose    bool
	configPath string
	timeout    time.Duration

	// Loaded in PersistentPreRunE
	settings config.Settings

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "synapse - AI campaign orchestration",
	Long: `synapse turns a topic or a list of URLs into a multi-platform social
media campaign: a strategic debrief plus A/B post variants with viral scores.

Topic input is researched (with web search when the provider supports it) and
synthesized in one pass. URL input runs the full pipeline: acquire, debrief,
per-URL essence distillation, then batched post generation.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		settings, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if verbose {
			settings.Logging.Level = "debug"
			settings.Logging.DebugMode = true
		}

		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		// --verbose routes category logs through the command logger.
		if verbose {
			logging.InitializeWithLogger(logger, settings.Logging)
		} else if err := logging.Initialize(settings.Logging); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}

		logging.Config("settings loaded from %s (provider=%s model=%s)",
			configPath, settings.Provider, settings.EffectiveModel())
		if verr := settings.Validate(); verr != nil {
			logging.ConfigWarn("settings are incomplete: %v", verr)
		}
		logger.Debug("Settings loaded",
			zap.String("path", configPath),
			zap.String("provider", settings.Provider),
			zap.String("model", settings.EffectiveModel()))
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "Settings file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 15*time.Minute, "Operation timeout")

	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(imageCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		logging.BootError("synapse failed: %v", err)
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: ")+err.Error())
		os.Exit(1)
	}
}

// commandContext bounds a command by --timeout and cancels on SIGINT/SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	ctx, cancel := context.WithTimeout(ctx, timeout)
	return ctx, func() {
		cancel()
		stop()
	}
}
