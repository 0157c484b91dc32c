package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soillog/soillog-go/internal/config"
	"github.com/soillog/soillog-go/internal/ingest"
	"github.com/soillog/soillog-go/internal/probe"
	"github.com/soillog/soillog-go/internal/refresh"
)

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Control the field probe",
}

var deviceStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check probe connectivity",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		client := newProbeClient(cfg)
		status := client.Check(cmd.Context())
		fmt.Printf("Probe at %s: %s\n", cfg.DeviceURL, status)
		return nil
	},
}

var deviceStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start a remote logging run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		result, err := newProbeClient(cfg).StartLogging(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to start logging: %w", err)
		}
		fmt.Printf("Logging started: %s\n", result.Status)
		return nil
	},
}

var deviceStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the current logging run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		result, err := newProbeClient(cfg).StopLogging(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to stop logging: %w", err)
		}
		if result.Raw != "" {
			fmt.Printf("Logging stopped: %s\n", result.Raw)
		} else {
			fmt.Printf("Logging stopped: %s\n", result.Status)
		}
		return nil
	},
}

var deviceLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "List finished logs on the probe",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logs, err := newProbeClient(cfg).ListLogs(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list logs: %w", err)
		}
		if len(logs) == 0 {
			fmt.Println("No logs on the probe.")
			return nil
		}
		for _, name := range logs {
			fmt.Println(name)
		}
		return nil
	},
}

var devicePullCmd = &cobra.Command{
	Use:   "pull <log-name>...",
	Short: "Download logs from the probe and store them as sessions",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, cfg, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		client := newProbeClient(cfg)
		bus := refresh.NewBus()
		bus.Subscribe(func() {
			fmt.Println("Session list refreshed.")
		})
		ingestor := ingest.New(store).WithBus(bus)

		for _, name := range args {
			if err := pullLog(cmd.Context(), client, ingestor, name); err != nil {
				return err
			}
		}
		return nil
	},
}

func pullLog(ctx context.Context, client *probe.Client, ingestor *ingest.Ingestor, name string) error {
	payload, err := client.FetchLog(ctx, name)
	if err != nil {
		return fmt.Errorf("failed to download %s: %w", name, err)
	}
	id, err := ingestor.Ingest(ctx, payload)
	if err != nil {
		return err
	}
	if id == 0 {
		fmt.Printf("%s: no data, skipped\n", name)
		return nil
	}
	fmt.Printf("%s: stored as session %d (%d readings)\n", name, id, len(payload.Data))
	return nil
}

func init() {
	deviceCmd.AddCommand(deviceStatusCmd, deviceStartCmd, deviceStopCmd, deviceLogsCmd, devicePullCmd)
	rootCmd.AddCommand(deviceCmd)
}
