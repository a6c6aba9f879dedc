package version

import (
	"runtime/debug"
	"strings"
	"testing"
)

func TestApplyBuildInfo(t *testing.T) {
	tests := []struct {
		name       string
		start      Info
		settings   []debug.BuildSetting
		wantCommit string
		wantDate   string
	}{
		{
			name:  "vcs stamp fills unknowns",
			start: Info{GitCommit: "unknown", BuildDate: "unknown"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
				{Key: "vcs.modified", Value: "false"},
			},
			wantCommit: "0123456",
			wantDate:   "2026-01-02T03:04:05Z",
		},
		{
			name:  "dirty tree",
			start: Info{GitCommit: "unknown", BuildDate: "unknown"},
			settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "abc"},
				{Key: "vcs.modified", Value: "true"},
			},
			wantCommit: "abc-dirty",
			wantDate:   "unknown",
		},
		{
			name:       "ldflags win",
			start:      Info{GitCommit: "feedbee", BuildDate: "2025-12-31"},
			settings:   []debug.BuildSetting{{Key: "vcs.revision", Value: "0123456789"}, {Key: "vcs.time", Value: "2026-01-02"}},
			wantCommit: "feedbee",
			wantDate:   "2025-12-31",
		},
		{
			name:       "no vcs stamp",
			start:      Info{GitCommit: "unknown", BuildDate: "unknown"},
			wantCommit: "unknown",
			wantDate:   "unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := tt.start
			applyBuildInfo(&info, &debug.BuildInfo{Settings: tt.settings})
			if info.GitCommit != tt.wantCommit || info.BuildDate != tt.wantDate {
				t.Errorf("got commit %q date %q, want %q %q", info.GitCommit, info.BuildDate, tt.wantCommit, tt.wantDate)
			}
		})
	}
}

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.GoVersion == "" || !strings.Contains(info.Platform, "/") {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(info.Long(), Version+" (commit ") {
		t.Errorf("Long() = %q", info.Long())
	}
}
