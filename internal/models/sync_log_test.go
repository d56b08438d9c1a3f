package models

import (
	"testing"
	"time"
)

func TestParseSyncType(t *testing.T) {
	cases := map[string]SyncType{
		"equipments":       SyncTypeEquipment,
		"running-time":     SyncTypeRunningTime,
		"Work_Orders":      SyncTypeWorkOrders,
		"materials":        SyncTypeMaterials,
		"daily-plant-data": SyncTypeDailyPlantData,
		"all":              SyncTypeAll,
	}
	for in, want := range cases {
		got, err := ParseSyncType(in)
		if err != nil {
			t.Fatalf("ParseSyncType(%q) err=%v", in, err)
		}
		if got != want {
			t.Fatalf("ParseSyncType(%q)=%q want %q", in, got, want)
		}
	}
	if _, err := ParseSyncType("stations"); err == nil {
		t.Fatalf("expected error for unknown type")
	}
}

func TestSyncLogDuration(t *testing.T) {
	start := time.Date(2026, 3, 1, 1, 0, 0, 0, time.UTC)
	l := SyncLog{StartedAt: start}
	if l.Duration() != 0 {
		t.Fatalf("duration=%s want 0 before completion", l.Duration())
	}
	done := start.Add(90 * time.Second)
	l.CompletedAt = &done
	if l.Duration() != 90*time.Second {
		t.Fatalf("duration=%s want 90s", l.Duration())
	}
}
