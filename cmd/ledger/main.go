package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Veraticus/receipt-ledger/internal/cli"
	"github.com/Veraticus/receipt-ledger/internal/common"
	"github.com/Veraticus/receipt-ledger/internal/config"
	"github.com/Veraticus/receipt-ledger/internal/metrics"
)

var (
	cfgFile  string
	version  = "dev"
	cfg      *config.Config
	recorder = metrics.New()
	rootCmd  = &cobra.Command{
		Use:   "ledger",
		Short: "🧾 Supermarket receipt categorization ledger",
		Long: `ledger imports electronic supermarket receipts (NFC-e pages), merges repeated
lines, assigns every item a spending category from learned patterns or a
language model, and keeps per-category totals for each receipt.

Corrections made with "ledger items recategorize" are learned, so the same
product is categorized without asking the model next time.`,
		PersistentPreRunE:  initConfig,
		PersistentPostRunE: writeMetrics,
		SilenceUsage:       true,
		SilenceErrors:      true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ledger/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("db", "", "database path (default: $HOME/.local/share/ledger/ledger.db)")

	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))

	rootCmd.AddCommand(ingestCmd())
	rootCmd.AddCommand(categorizeCmd())
	rootCmd.AddCommand(receiptsCmd())
	rootCmd.AddCommand(itemsCmd())
	rootCmd.AddCommand(patternsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(summaryCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	rootCmd.SetOut(os.Stdout)

	err := rootCmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		fmt.Fprintln(os.Stderr, cli.FormatError(common.UserMessage(err)))
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath(fmt.Sprintf("%s/.config/ledger", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("LEDGER")
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	loaded, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	cfg = loaded

	level, err := common.ParseLevel(cfg.Logging.Level)
	if err != nil {
		return err
	}
	if err := common.SetupLogger(level, cfg.Logging.Format); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	slog.Debug("Configuration loaded", "config_file", viper.ConfigFileUsed(), "database", cfg.Database.Path)
	return nil
}

// writeMetrics dumps the run's counters for the node exporter textfile
// collector when a path is configured.
func writeMetrics(_ *cobra.Command, _ []string) error {
	if cfg == nil || cfg.Metrics.Textfile == "" {
		return nil
	}
	if err := recorder.WriteToTextfile(cfg.Metrics.Textfile); err != nil {
		slog.Warn("Failed to write metrics textfile", "path", cfg.Metrics.Textfile, "error", err)
	}
	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("ledger %s\n", version)
		},
	}
}
