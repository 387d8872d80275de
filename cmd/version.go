package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Set via -ldflags at build time, e.g.
// -X github.com/abhisek/vidquiz/cmd.version=v0.3.0
var (
	version = "(devel)"
	commit  = ""
	date    = ""
)

type buildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit,omitempty"`
	Date      string `json:"date,omitempty"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
}

// currentBuild fills missing ldflags values from the VCS stamp the Go
// toolchain embeds.
func currentBuild() buildInfo {
	b := buildInfo{
		Version:   version,
		Commit:    commit,
		Date:      date,
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
	}
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if b.Version == "(devel)" && info.Main.Version != "" {
		b.Version = info.Main.Version
	}
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			if b.Commit == "" {
				b.Commit = s.Value
			}
		case "vcs.time":
			if b.Date == "" {
				b.Date = s.Value
			}
		}
	}
	return b
}

func (b buildInfo) String() string {
	s := "vidquiz " + b.Version
	if b.Commit != "" {
		c := b.Commit
		if len(c) > 12 {
			c = c[:12]
		}
		s += " (" + c
		if b.Date != "" {
			s += ", " + b.Date
		}
		s += ")"
	}
	return s + " " + b.GoVersion + " " + b.Platform
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version and build metadata",
	RunE: func(cmd *cobra.Command, args []string) error {
		b := currentBuild()
		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			return writeJSON(b)
		}
		fmt.Println(b)
		return nil
	},
}

func init() {
	versionCmd.Flags().Bool("json", false, "Print JSON instead of text")
}
