package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soillog/soillog-go/internal/ingest"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Import the embedded CSV fixture as a session",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		id, err := ingest.New(store).ImportFixture(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("Fixture imported as session %d.\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)
}
