package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/soillog/soillog-go/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <payload.json>",
	Short: "Ingest a saved device payload file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read payload file: %w", err)
		}
		var payload ingest.LogPayload
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("failed to parse payload file: %w", err)
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := ingest.New(store).Ingest(cmd.Context(), &payload)
		if err != nil {
			return err
		}
		if id == 0 {
			fmt.Println("Payload carried no data; nothing ingested.")
			return nil
		}
		fmt.Printf("Payload ingested as session %d (%d readings).\n", id, len(payload.Data))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}
