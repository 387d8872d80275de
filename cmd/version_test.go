package cmd

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildInfoString(t *testing.T) {
	tests := []struct {
		name string
		info buildInfo
		want string
	}{
		{
			name: "devel",
			info: buildInfo{Version: "(devel)", GoVersion: "go1.25.6", Platform: "linux/amd64"},
			want: "vidquiz (devel) go1.25.6 linux/amd64",
		},
		{
			name: "release",
			info: buildInfo{
				Version:   "v0.3.0",
				Commit:    "0123456789abcdef0123",
				Date:      "2026-10-01T12:00:00Z",
				GoVersion: "go1.25.6",
				Platform:  "darwin/arm64",
			},
			want: "vidquiz v0.3.0 (0123456789ab, 2026-10-01T12:00:00Z) go1.25.6 darwin/arm64",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.info.String())
		})
	}
}

func TestCurrentBuildKeepsLinkerValues(t *testing.T) {
	oldVersion, oldCommit := version, commit
	t.Cleanup(func() { version, commit = oldVersion, oldCommit })
	version, commit = "v1.2.3", "abc123"

	b := currentBuild()
	assert.Equal(t, "v1.2.3", b.Version)
	assert.Equal(t, "abc123", b.Commit)
	assert.NotEmpty(t, b.GoVersion)
}
