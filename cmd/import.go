package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abhisek/vidquiz/internal/schedule"
	"github.com/abhisek/vidquiz/internal/store"
)

var importCmd = &cobra.Command{
	Use:   "import <file.json>",
	Short: "Import a video and its checkpoint schedule",
	Long: `Import reads a JSON document with a "video" object and a "questions"
array, validates it and stores it. Importing a video that already exists
replaces its questions.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read document: %w", err)
		}
		doc, err := schedule.ParseDocument(raw)
		if err != nil {
			return fmt.Errorf("parse document: %w", err)
		}

		env, err := openEnv(cmd)
		if err != nil {
			return err
		}
		defer env.Close()

		ctx := cmd.Context()
		videos := env.store.VideoRepo()

		video := &store.Video{ID: doc.Video.ID, URL: doc.Video.URL, Title: doc.Video.Title}
		existing := false
		if video.ID != "" {
			_, err := videos.Get(ctx, video.ID)
			switch {
			case err == nil:
				existing = true
			case !errors.Is(err, store.ErrNotFound):
				return fmt.Errorf("look up video: %w", err)
			}
		}
		if !existing {
			if err := videos.Create(ctx, video); err != nil {
				return err
			}
		}

		if err := videos.ReplaceQuestions(ctx, video.ID, doc.Rows()); err != nil {
			return fmt.Errorf("store questions: %w", err)
		}

		env.log.Info("schedule imported", "video_id", video.ID, "questions", len(doc.Questions), "replaced", existing)
		fmt.Printf("Imported %q (%s) with %d questions.\n", video.Title, video.ID, len(doc.Questions))
		return nil
	},
}
