package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/vidquiz/internal/report"
	"github.com/abhisek/vidquiz/internal/store"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize quiz results",
}

var reportEmployeesCmd = &cobra.Command{
	Use:   "employees",
	Short: "Per-employee answer statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		employeeID, _ := cmd.Flags().GetString("employee-id")
		videoID, _ := cmd.Flags().GetString("video-id")
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		stats, err := report.New(env.store).EmployeeStats(cmd.Context(), store.QueryOpts{
			EmployeeID: employeeID,
			VideoID:    videoID,
		})
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(stats)
		}
		if len(stats) == 0 {
			fmt.Println("No answers recorded.")
			return nil
		}

		fmt.Printf("%-24s  %-36s  %5s  %5s  %5s  %8s  %6s  %s\n",
			"Employee", "Video", "Total", "Right", "Wrong", "Restarts", "Score", "Done")
		fmt.Println(strings.Repeat("─", 110))
		for _, s := range stats {
			done := "no"
			if s.HasCompleted {
				done = "yes"
			}
			fmt.Printf("%-24s  %-36s  %5d  %5d  %5d  %8d  %5d%%  %s\n",
				truncate(s.FullName, 24), s.VideoID, s.TotalAnswers, s.CorrectAnswers,
				s.WrongAnswers, s.RestartCount, s.ScorePercent, done)
		}
		return nil
	},
}

var reportGoalCmd = &cobra.Command{
	Use:   "goal <video-id>",
	Short: "Pass, fail and incomplete rates for a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		asJSON, _ := cmd.Flags().GetBool("json")

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		goal, err := report.New(env.store).Goal(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		if asJSON {
			return writeJSON(goal)
		}

		fmt.Printf("%s (%s)\n", goal.Title, goal.VideoID)
		fmt.Printf("  Views:      %d\n", goal.Views)
		fmt.Printf("  Attempts:   %d\n", goal.Attempts)
		fmt.Printf("  Passed:     %d (%.1f%%)\n", goal.Passed, goal.PassedPercent)
		fmt.Printf("  Failed:     %d (%.1f%%)\n", goal.Failed, goal.FailedPercent)
		fmt.Printf("  Incomplete: %d (%.1f%%)\n", goal.Incomplete, goal.IncompletePercent)
		return nil
	},
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func init() {
	reportEmployeesCmd.Flags().String("employee-id", "", "Only this employee")
	reportEmployeesCmd.Flags().String("video-id", "", "Only this video")
	reportCmd.PersistentFlags().Bool("json", false, "Print JSON instead of a table")

	reportCmd.AddCommand(reportEmployeesCmd)
	reportCmd.AddCommand(reportGoalCmd)
}
