package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/soillog/soillog-go/internal/storage"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Database maintenance",
}

var dbResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Remove all rows and reset auto-increment counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		// Children before parents: readings reference sessions, sessions
		// reference devices.
		for _, table := range []storage.Table{
			storage.TableSensorData, storage.TableSession, storage.TableDevice,
		} {
			if err := store.ClearTable(cmd.Context(), table); err != nil {
				return err
			}
		}
		fmt.Println("All tables cleared.")
		return nil
	},
}

var dbDropCmd = &cobra.Command{
	Use:   "drop",
	Short: "Drop all application tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.DropAllTables(cmd.Context()); err != nil {
			return err
		}
		fmt.Println("All tables dropped.")
		return nil
	},
}

func init() {
	dbCmd.AddCommand(dbResetCmd, dbDropCmd)
	rootCmd.AddCommand(dbCmd)
}
