package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/soillog/soillog-go/internal/domain"
	"github.com/soillog/soillog-go/internal/storage"
)

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Browse and manage stored sessions",
}

var sessionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all stored sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.GetAllSessions(cmd.Context())
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions stored.")
			return nil
		}
		for _, s := range sessions {
			start, end := s.FormattedDates()
			fmt.Printf("%4d  %-20s  %s - %s  (%d min)  %s\n",
				s.ID, s.Name, start, end, s.DurationMinutes(), s.Location)
		}
		return nil
	},
}

var sessionsRangeCmd = &cobra.Command{
	Use:   "range <start> <end>",
	Short: "List sessions inside an inclusive ISO-8601 time range",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		sessions, err := store.GetSessionsByTimeframe(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		if len(sessions) == 0 {
			fmt.Println("No sessions in range.")
			return nil
		}
		for _, s := range sessions {
			fmt.Printf("%4d  %-20s  %s - %s\n", s.ID, s.Name, s.Start, s.End)
		}
		return nil
	},
}

var sessionsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show a session with statistics and soil health",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		complete, err := store.GetCompleteSession(cmd.Context(), id)
		if err != nil {
			return err
		}
		if complete == nil {
			fmt.Printf("Session %d not found.\n", id)
			return nil
		}

		printCompleteSession(complete)
		return nil
	},
}

func printCompleteSession(c *storage.CompleteSession) {
	start, end := c.Session.FormattedDates()
	fmt.Printf("Session %d: %s\n", c.Session.ID, c.Session.Name)
	fmt.Printf("  Device:   %s (id %d)\n", c.Device.Name, c.Device.ID)
	fmt.Printf("  Location: %s\n", c.Session.Location)
	fmt.Printf("  Window:   %s - %s (%d min)\n", start, end, c.Session.DurationMinutes())
	fmt.Printf("  Readings: %d\n", c.Stats.ReadingsCount)

	avg := c.Stats.Averages
	fmt.Println("  Averages:")
	fmt.Printf("    N %.2f  P %.2f  K %.2f  pH %.2f\n", avg.Nitrogen, avg.Phosphorus, avg.Potassium, avg.PH)
	fmt.Printf("    moisture %.2f%%  humidity %.2f%%  soil %.2fC  air %.2fC\n",
		avg.Moisture, avg.Humidity, avg.SoilTemperature, avg.AirTemperature)

	if c.Stats.ReadingsCount == 0 {
		return
	}

	// Health assessment over the session averages.
	mean := averageReading(c)
	health := mean.SoilHealthStatus()
	npk := mean.NPKRatio()
	fmt.Printf("  NPK ratio: %.1f / %.1f / %.1f\n", npk.N, npk.P, npk.K)
	fmt.Printf("  Health:    %s (score %d, pH %s, moisture %s)\n",
		health.Overall, health.Score, health.PHStatus, health.MoistureLevel)
	if recs := mean.Recommendations(); len(recs) > 0 {
		fmt.Printf("  Advice:    %s\n", strings.Join(recs, " "))
	}
}

var sessionsRenameCmd = &cobra.Command{
	Use:   "rename <id> <name>",
	Short: "Rename a session",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid session id %q", args[0])
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		name := args[1]
		changes, err := store.UpdateSession(cmd.Context(), id, storage.SessionUpdate{Name: &name})
		if err != nil {
			return err
		}
		if changes == 0 {
			fmt.Printf("Session %d not found.\n", id)
			return nil
		}
		fmt.Printf("Session %d renamed to %q.\n", id, name)
		return nil
	},
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>...",
	Short: "Delete sessions and their readings",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ids := make([]int64, 0, len(args))
		for _, arg := range args {
			id, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid session id %q", arg)
			}
			ids = append(ids, id)
		}

		store, _, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		result, err := store.DeleteSessions(cmd.Context(), ids)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d session(s) and %d reading(s).\n",
			result.SessionsDeleted, result.ReadingsDeleted)
		return nil
	},
}

// averageReading folds the session averages back into a reading so the
// domain classifications apply to the session as a whole.
func averageReading(c *storage.CompleteSession) domain.SensorReading {
	avg := c.Stats.Averages
	return domain.SensorReading{
		Nitrogen:        avg.Nitrogen,
		Phosphorus:      avg.Phosphorus,
		Potassium:       avg.Potassium,
		PH:              avg.PH,
		Moisture:        avg.Moisture,
		Humidity:        avg.Humidity,
		SoilTemperature: avg.SoilTemperature,
		AirTemperature:  avg.AirTemperature,
	}
}

func init() {
	sessionsCmd.AddCommand(sessionsListCmd, sessionsRangeCmd, sessionsShowCmd, sessionsRenameCmd, sessionsDeleteCmd)
	rootCmd.AddCommand(sessionsCmd)
}
