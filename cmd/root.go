package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/abhisek/vidquiz/internal/config"
	"github.com/abhisek/vidquiz/internal/logger"
	"github.com/abhisek/vidquiz/internal/store"
)

var rootCmd = &cobra.Command{
	Use:          "vidquiz",
	Short:        "Timestamped quizzes for training videos",
	Long:         "vidquiz pauses training videos at scheduled checkpoints, grades the answers and records every attempt.",
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("db", "", "Path to SQLite database file (overrides VIDQUIZ_DB env var)")
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(employeeCmd)
	rootCmd.AddCommand(assignCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(versionCmd)
}

// appEnv bundles what most subcommands need.
type appEnv struct {
	cfg   *config.Config
	log   *logger.Logger
	store *store.Store
}

func (r *appEnv) Close() {
	r.store.Close()
	r.log.Sync()
}

// openEnv loads configuration, builds the logger and opens the store.
func openEnv(cmd *cobra.Command) (*appEnv, error) {
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(file, cmd.Flags())
	if err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:       cfg.Log.Level,
		File:        cfg.Log.File,
		Development: cfg.Server.Mode == "debug",
	})
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	dbPath, err := resolveDBPath(cfg)
	if err != nil {
		return nil, fmt.Errorf("resolve DB path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	log.Debug("store opened", "path", dbPath)

	return &appEnv{cfg: cfg, log: log, store: st}, nil
}

// resolveDBPath returns the database path using --db / db.path (highest
// priority), then VIDQUIZ_DB env var, then the default XDG path.
func resolveDBPath(cfg *config.Config) (string, error) {
	if p := cfg.DB.Path; p != "" {
		return p, store.EnsureDir(p)
	}
	return store.DefaultDBPath()
}
