package cronrunner

import (
	"context"
	"testing"

	"go.uber.org/zap"
)

func TestRunnerAdd_EmptySpecIsDisabled(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	id, err := r.Add("noop", "  ", func(context.Context) {})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if id != 0 {
		t.Fatalf("expected zero id, got %d", id)
	}
	if len(r.Next()) != 0 {
		t.Fatalf("expected no entries")
	}
}

func TestRunnerAdd_RejectsInvalidSpec(t *testing.T) {
	r := New(nil, nil)
	if _, err := r.Add("bad", "every day", func(context.Context) {}); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestRunnerNext_ReportsNamedEntries(t *testing.T) {
	r := New(zap.NewNop(), context.Background())
	if _, err := r.Add("equipment", "0 0 1 * * *", func(context.Context) {}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Add("health", "@every 30m", func(context.Context) {}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	r.Start()
	defer r.Stop()

	next := r.Next()
	if len(next) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(next))
	}
	if next["equipment"].IsZero() || next["health"].IsZero() {
		t.Fatalf("expected scheduled times, got %v", next)
	}
}
