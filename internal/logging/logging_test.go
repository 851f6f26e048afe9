package logging

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARN", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"trace", zerolog.TraceLevel},
		{"", zerolog.InfoLevel},
		{"chatty", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestVerbosityLevel(t *testing.T) {
	tests := []struct {
		count int
		want  string
	}{
		{0, "error"},
		{1, "warn"},
		{2, "info"},
		{3, "debug"},
		{7, "trace"},
	}

	for _, tt := range tests {
		if got := VerbosityLevel(tt.count, "error"); got != tt.want {
			t.Errorf("VerbosityLevel(%d) = %q, want %q", tt.count, got, tt.want)
		}
	}
}

func TestLogPathUsesXDGState(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_STATE_HOME", dir)

	path := LogPath()
	if filepath.Base(path) != "loopviz.log" {
		t.Fatalf("unexpected log file name: %s", path)
	}
	// Only meaningful on linux; other platforms ignore XDG_STATE_HOME
	if strings.HasPrefix(path, dir) {
		log := NewWithLevel("debug")
		if log.GetLevel() != zerolog.DebugLevel {
			t.Fatalf("expected debug level, got %v", log.GetLevel())
		}
	}
}
