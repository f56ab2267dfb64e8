package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	tests := []struct {
		name  string
		value string
	}{
		{"Version", info.Version},
		{"Commit", info.Commit},
		{"BuildTime", info.BuildTime},
		{"GoVersion", info.GoVersion},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.value == "" {
				t.Errorf("%s should not be empty", tt.name)
			}
		})
	}
	if info.GoVersion == "unknown" {
		t.Error("GoVersion was not filled from the runtime")
	}
}

func TestFillFromRuntime(t *testing.T) {
	tests := []struct {
		name string
		in   Info
		bi   *debug.BuildInfo
		want Info
	}{
		{
			name: "unknown fields filled",
			in:   Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: "unknown"},
			bi: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
				{Key: "vcs.time", Value: "2024-05-01T12:00:00Z"},
			}},
			want: Info{Version: "dev", Commit: "0123456", BuildTime: "2024-05-01T12:00:00Z", GoVersion: runtime.Version()},
		},
		{
			name: "ldflags win",
			in:   Info{Version: "v1.0.0", Commit: "abc1234", BuildTime: "today", GoVersion: "go1.24.0"},
			bi: &debug.BuildInfo{Settings: []debug.BuildSetting{
				{Key: "vcs.revision", Value: "0123456789abcdef"},
			}},
			want: Info{Version: "v1.0.0", Commit: "abc1234", BuildTime: "today", GoVersion: "go1.24.0"},
		},
		{
			name: "no build info",
			in:   Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: "unknown"},
			want: Info{Version: "dev", Commit: "unknown", BuildTime: "unknown", GoVersion: runtime.Version()},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in
			fillFromRuntime(&got, func() (*debug.BuildInfo, bool) { return tt.bi, tt.bi != nil })
			if got != tt.want {
				t.Errorf("fillFromRuntime() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestString(t *testing.T) {
	s := String()
	i := Get()
	if !strings.HasPrefix(s, i.Version+" ("+i.Commit+")") {
		t.Errorf("String() = %q", s)
	}
	if UserAgent() != "filegate/"+i.Version {
		t.Errorf("UserAgent() = %q", UserAgent())
	}
}
