package buildinfo

import (
	"runtime"
	"runtime/debug"
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()

	if info.Version != Version {
		t.Errorf("Version = %q, want %q", info.Version, Version)
	}
	if info.GoVersion != runtime.Version() {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if info.Commit == "" || info.BuildTime == "" {
		t.Errorf("Get() = %+v", info)
	}
}

func TestString(t *testing.T) {
	s := String()
	if !strings.HasPrefix(s, Version+" (") || !strings.Contains(s, ") built at ") {
		t.Errorf("String() = %q", s)
	}
}

func TestFillFromVCS(t *testing.T) {
	settings := []debug.BuildSetting{
		{Key: "vcs.revision", Value: "0123456789abcdef0123"},
		{Key: "vcs.time", Value: "2026-01-02T03:04:05Z"},
		{Key: "vcs.modified", Value: "false"},
	}

	info := Info{Commit: "unknown", BuildTime: "unknown"}
	fillFromVCS(&info, settings)
	if info.Commit != "0123456789ab" || info.BuildTime != "2026-01-02T03:04:05Z" {
		t.Errorf("fillFromVCS() = %+v", info)
	}

	injected := Info{Commit: "abc", BuildTime: "today"}
	fillFromVCS(&injected, settings)
	if injected.Commit != "abc" || injected.BuildTime != "today" {
		t.Errorf("ldflags values were overwritten: %+v", injected)
	}
}
