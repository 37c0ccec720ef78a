package logger

import (
	"testing"

	"go.uber.org/zap"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "info"},
		{"debug", "debug"},
		{"WARN", "warn"},
		{"error", "error"},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
		}
		if got.String() != tt.want {
			t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseLevel("loud"); err == nil {
		t.Fatal("ParseLevel(loud) error = nil, want error")
	}
}

func TestNewCLIQuietByDefault(t *testing.T) {
	l := NewCLI(false)
	if l.Core().Enabled(zap.InfoLevel) {
		t.Fatal("quiet CLI logger has info enabled")
	}
	if !NewCLI(true).Core().Enabled(zap.DebugLevel) {
		t.Fatal("verbose CLI logger has debug disabled")
	}
}
