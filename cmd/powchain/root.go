package powchain

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/manifest-network/powchain/internal/chain"
	"github.com/manifest-network/powchain/internal/config"
	"github.com/manifest-network/powchain/internal/session"
)

var (
	validLogLevels = map[string]slog.Level{
		"debug": slog.LevelDebug,
		"info":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	}
	validLogLevelsStr = strings.Join(slices.Sorted(maps.Keys(validLogLevels)), "|")
)

var RootCmd = &cobra.Command{
	Use:   "powchain",
	Short: "Mine, tamper with and verify a toy proof-of-work chain",
	Long:  `powchain mines blocks into a hash-linked chain and shows how tampering breaks it.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logLevel := viper.GetString("logLevel")
		if err := setLogLevel(logLevel); err != nil {
			return err
		}
		slog.Debug("Application started", "version", Version)
		return nil
	},
}

// setLogLevel sets the log level
func setLogLevel(logLevel string) error {
	level, exists := validLogLevels[logLevel]
	if !exists {
		return fmt.Errorf("invalid log level: %s. Valid log levels are: %s", logLevel, validLogLevelsStr)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

func init() {
	RootCmd.PersistentFlags().StringP("logLevel", "l", "info", fmt.Sprintf("set log level (%s)", validLogLevelsStr))
	RootCmd.PersistentFlags().IntP("difficulty", "d", 2, fmt.Sprintf("Leading zero hex characters required of mined hashes (%d-%d)", session.MinDifficulty, session.MaxDifficulty))
	RootCmd.PersistentFlags().Int("batch-size", chain.DefaultBatchSize, "Hash attempts per mining slice before yielding (advanced)")
	RootCmd.PersistentFlags().Bool("rehash", false, "Recompute the hash of tampered blocks instead of leaving it stale")
	if err := viper.BindPFlags(RootCmd.PersistentFlags()); err != nil {
		slog.Error("Failed to bind rootCmd flags", "error", err)
	}

	RootCmd.SilenceUsage = true
	RootCmd.SilenceErrors = true

	viper.SetConfigName("config")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME/.powchain")
	viper.AddConfigPath("/etc/powchain")

	viper.SetEnvPrefix("powchain")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	RootCmd.AddCommand(DemoCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VerifyCmd)
	RootCmd.AddCommand(HashCmd)
	RootCmd.AddCommand(versionCmd)
}

// Execute runs the root command.
func Execute() {
	if err := viper.ReadInConfig(); err == nil {
		slog.Info("Using config file", "file", viper.ConfigFileUsed())
	} else {
		slog.Info("No config file found")
	}

	if err := RootCmd.Execute(); err != nil {
		slog.Error("An error occurred", "error", err)
		os.Exit(1)
	}
}

// loadChainConfig reads and validates the chain flags shared by subcommands.
func loadChainConfig() (config.ChainConfig, error) {
	cfg := config.LoadChainConfigFromCLI()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid chain configuration: %w", err)
	}
	slog.Debug("Command-line arguments", "chainConfig", cfg)
	return cfg, nil
}

func tamperMode(cfg config.ChainConfig) chain.TamperMode {
	if cfg.Rehash {
		return chain.TamperRehash
	}
	return chain.TamperDataOnly
}

// handleInterrupt returns a context cancelled on SIGINT or SIGTERM.
func handleInterrupt(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
			slog.Info("Received interrupt signal, shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(c)
	}()
	return ctx, cancel
}
