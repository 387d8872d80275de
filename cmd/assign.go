package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var assignCmd = &cobra.Command{
	Use:   "assign <employee-number> <video-id>",
	Short: "Assign a video to an employee",
	Long:  "Assign sets the video an employee watches. Any earlier assignment is replaced.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		emp, err := env.store.EmployeeRepo().ByNumber(ctx, args[0])
		if err != nil {
			return fmt.Errorf("employee %s: %w", args[0], err)
		}
		video, err := env.store.VideoRepo().Get(ctx, args[1])
		if err != nil {
			return fmt.Errorf("video %s: %w", args[1], err)
		}
		if err := env.store.VideoRepo().Assign(ctx, emp.ID, video.ID); err != nil {
			return err
		}
		fmt.Printf("Assigned %q to %s.\n", video.Title, emp.FullName)
		return nil
	},
}
