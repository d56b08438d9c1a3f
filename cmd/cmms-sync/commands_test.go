package main

import (
	"strings"
	"testing"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

func TestParseSyncFlags_MaterialsDateRange(t *testing.T) {
	params, once, err := parseSyncFlags("sync:materials", models.SyncTypeMaterials,
		[]string{"--plants", "P01, P02", "--start-date", "2026-10-01", "--end-date", "2026-10-15", "--once"})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !once {
		t.Fatalf("expected --once")
	}
	if strings.Join(params.PlantCodes, ",") != "P01,P02" {
		t.Fatalf("plants=%v", params.PlantCodes)
	}
	if params.StartDate == nil || !params.StartDate.Equal(time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start=%v", params.StartDate)
	}
	if params.EndDate == nil || !params.EndDate.Equal(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end=%v", params.EndDate)
	}
}

func TestParseSyncFlags_RejectsIgnoredDateFlags(t *testing.T) {
	cases := []struct {
		name     string
		syncType models.SyncType
		args     []string
		want     string
	}{
		{"sync:equipments", models.SyncTypeEquipment, []string{"--date", "2026-10-16"}, "--date"},
		{"sync:materials", models.SyncTypeMaterials, []string{"--date", "2026-10-16"}, "--date"},
		{"sync:running-time", models.SyncTypeRunningTime, []string{"--start-date", "2026-10-01"}, "--start-date"},
		{"sync:work-orders", models.SyncTypeWorkOrders, []string{"--date", "2026-10-16"}, "--date"},
	}
	for _, tc := range cases {
		_, _, err := parseSyncFlags(tc.name, tc.syncType, tc.args)
		if err == nil || !strings.Contains(err.Error(), tc.want) {
			t.Fatalf("%s %v: err=%v", tc.name, tc.args, err)
		}
	}
}

func TestParseSyncFlags_BadDates(t *testing.T) {
	if _, _, err := parseSyncFlags("sync:running-time", models.SyncTypeRunningTime, []string{"--date", "yesterday"}); err == nil {
		t.Fatalf("expected invalid date error")
	}
	_, _, err := parseSyncFlags("sync:work-orders", models.SyncTypeWorkOrders,
		[]string{"--start-date", "2026-10-10", "--end-date", "2026-10-01"})
	if err == nil || !strings.Contains(err.Error(), "before") {
		t.Fatalf("expected range error, got %v", err)
	}
}

func TestUsageListsMaterialsRange(t *testing.T) {
	var b strings.Builder
	usage(&b)
	for _, line := range strings.Split(b.String(), "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "sync:materials") {
			if !strings.Contains(line, "--start-date") || !strings.Contains(line, "--end-date") {
				t.Fatalf("materials usage missing range flags: %q", line)
			}
			return
		}
	}
	t.Fatalf("sync:materials missing from usage")
}
