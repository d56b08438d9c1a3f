package logger

import (
	"testing"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
)

func TestNew_UnknownLevelFallsBackToInfo(t *testing.T) {
	l, err := New(config.LogConfig{Level: "loud", Encoding: "json"})
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if l.Core().Enabled(-1) {
		t.Fatalf("debug enabled, want info floor")
	}
	if !l.Core().Enabled(0) {
		t.Fatalf("info disabled")
	}
}

func TestEncoding(t *testing.T) {
	if got := encoding("JSON"); got != "json" {
		t.Fatalf("encoding=%q want json", got)
	}
	if got := encoding("xml"); got != "console" {
		t.Fatalf("encoding=%q want console", got)
	}
}
