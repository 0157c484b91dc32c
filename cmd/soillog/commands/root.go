// Package commands implements the soillog CLI.
package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/soillog/soillog-go/internal/config"
	"github.com/soillog/soillog-go/internal/probe"
	"github.com/soillog/soillog-go/internal/storage"
	"github.com/soillog/soillog-go/internal/storage/sqlite"
)

var rootCmd = &cobra.Command{
	Use:   "soillog",
	Short: "Soil sensor session logger",
	Long: `Captures, stores and summarizes soil-sensor logging sessions from a
field probe: start/stop remote logging, pull finished logs into a local
SQLite database, and browse per-session statistics.`,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("db-path", "soillog.db", "SQLite database path")
	rootCmd.PersistentFlags().String("device-url", probe.DefaultBaseURL, "probe base URL")
	rootCmd.PersistentFlags().Duration("http-timeout", probe.DefaultTimeout, "probe request timeout")

	viper.BindPFlag("db-path", rootCmd.PersistentFlags().Lookup("db-path"))
	viper.BindPFlag("device-url", rootCmd.PersistentFlags().Lookup("device-url"))
	viper.BindPFlag("http-timeout", rootCmd.PersistentFlags().Lookup("http-timeout"))
}

// openStore opens the configured database. A failed schema initialization
// is logged and tolerated: the handle is still returned so the process can
// proceed with whatever state the database is in.
func openStore() (*sqlite.Store, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}

	store, err := sqlite.NewFileStore(cfg.DBPath)
	if err != nil {
		var initErr *storage.SchemaInitError
		if store != nil && errors.As(err, &initErr) {
			slog.Warn("continuing_without_schema_init", "error", err)
			return store, cfg, nil
		}
		return nil, nil, err
	}
	return store, cfg, nil
}

// newProbeClient builds a device client from configuration.
func newProbeClient(cfg *config.Config) *probe.Client {
	client := probe.NewClient(cfg.DeviceURL)
	client.HTTPClient.Timeout = cfg.HTTPTimeout
	return client
}
