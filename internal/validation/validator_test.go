package validation

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

type stubPlants struct {
	rows  []models.Plant
	calls int
	err   error
}

func (s *stubPlants) FindPlantsByCodes(_ context.Context, codes []string) ([]models.Plant, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Plant
	for _, p := range s.rows {
		for _, c := range codes {
			if p.PlantCode == c {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func TestValidate_EquipmentRequiresPlantCode(t *testing.T) {
	v := New(&stubPlants{})
	res, err := v.Validate(context.Background(), models.SyncTypeEquipment, remote.Record{"plant_code": "", "equipment_code": "EQ1"})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Valid {
		t.Fatalf("expected invalid result")
	}
	if res.Reason != "plant_code is required" {
		t.Fatalf("unexpected reason %q", res.Reason)
	}
}

func TestValidate_UnknownPlantIsSoftFailure(t *testing.T) {
	plants := &stubPlants{rows: []models.Plant{{ID: 1, PlantCode: "PLT001"}}}
	v := New(plants)
	for i := 0; i < 2; i++ {
		res, err := v.Validate(context.Background(), models.SyncTypeEquipment, remote.Record{"plant_code": "PLT999", "equipment_code": "EQ1"})
		if err != nil {
			t.Fatalf("Validate: %v", err)
		}
		if res.Valid || res.Reason != "plant PLT999 not found" {
			t.Fatalf("unexpected result %+v", res)
		}
	}
	if plants.calls != 1 {
		t.Fatalf("expected cached miss, got %d lookups", plants.calls)
	}
}

func TestValidate_ResolvesPlantFromPrimedCache(t *testing.T) {
	plants := &stubPlants{}
	v := New(plants)
	v.Prime([]models.Plant{{ID: 3, PlantCode: "PLT001"}})

	res, err := v.Validate(context.Background(), models.SyncTypeEquipment, remote.Record{
		"plant_code":     "PLT001",
		"equipment_code": "EQ-100",
		"equipment_name": "Boiler feed pump",
		"is_active":      true,
	})
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if !res.Valid || res.Plant == nil || res.Plant.ID != 3 {
		t.Fatalf("unexpected result %+v", res)
	}
	p, ok := res.Payload.(EquipmentPayload)
	if !ok {
		t.Fatalf("unexpected payload %T", res.Payload)
	}
	if p.Name != "Boiler feed pump" || !Flag(p.IsActive, false) {
		t.Fatalf("unexpected payload %+v", p)
	}
	if plants.calls != 0 {
		t.Fatalf("expected no lookups, got %d", plants.calls)
	}
}

func TestValidate_RunningTimeFormats(t *testing.T) {
	v := New(nil)
	v.Prime([]models.Plant{{ID: 1, PlantCode: "PLT001"}})

	cases := []struct {
		name   string
		rec    remote.Record
		valid  bool
		reason string
	}{
		{
			name:  "numeric string and number",
			rec:   remote.Record{"plant_code": "PLT001", "equipment_code": "EQ1", "date": "2026-10-16", "counter_reading": json.Number("1520.5"), "running_hours": "12"},
			valid: true,
		},
		{
			name:  "rfc3339 date",
			rec:   remote.Record{"plant_code": "PLT001", "equipment_code": "EQ1", "date": "2026-10-16T00:00:00+07:00"},
			valid: true,
		},
		{
			name:   "bad date",
			rec:    remote.Record{"plant_code": "PLT001", "equipment_code": "EQ1", "date": "16/10/2026"},
			reason: `date "16/10/2026" is not a valid date`,
		},
		{
			name:   "bad number",
			rec:    remote.Record{"plant_code": "PLT001", "equipment_code": "EQ1", "date": "2026-10-16", "running_hours": "n/a"},
			reason: `running_hours "n/a" is not numeric`,
		},
		{
			name:   "missing equipment",
			rec:    remote.Record{"plant_code": "PLT001", "date": "2026-10-16"},
			reason: "equipment_code is required",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := v.Validate(context.Background(), models.SyncTypeRunningTime, tc.rec)
			if err != nil {
				t.Fatalf("Validate: %v", err)
			}
			if res.Valid != tc.valid {
				t.Fatalf("valid=%v, want %v (%s)", res.Valid, tc.valid, res.Reason)
			}
			if !tc.valid && res.Reason != tc.reason {
				t.Fatalf("reason %q, want %q", res.Reason, tc.reason)
			}
		})
	}
}

func TestValidate_LookupErrorIsHard(t *testing.T) {
	v := New(&stubPlants{err: errors.New("db down")})
	_, err := v.Validate(context.Background(), models.SyncTypeWorkOrders, remote.Record{"plant_code": "PLT001", "order_number": "4000123"})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestValidate_UnknownType(t *testing.T) {
	v := New(nil)
	_, err := v.Validate(context.Background(), models.SyncType("stations"), remote.Record{})
	if !errors.Is(err, models.ErrUnknownSyncType) {
		t.Fatalf("expected ErrUnknownSyncType, got %v", err)
	}
}

func TestParseDate(t *testing.T) {
	got, ok := ParseDate("2026-10-16T23:30:00+07:00")
	if !ok {
		t.Fatalf("expected parse")
	}
	want := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	if _, ok := ParseDate(""); ok {
		t.Fatalf("empty should not parse")
	}
}

func TestFlag(t *testing.T) {
	if !Flag("", true) || Flag("", false) {
		t.Fatalf("empty should use fallback")
	}
	if !Flag("X", false) || Flag("0", true) {
		t.Fatalf("unexpected flag parsing")
	}
}

func TestNaturalKey_ReadsAliases(t *testing.T) {
	cases := []struct {
		syncType models.SyncType
		a, b     remote.Record
		want     string
	}{
		{
			models.SyncTypeEquipment,
			remote.Record{"plant_code": "PLT001", "equipment_code": "EQ-1"},
			remote.Record{"plant": "PLT001", "equipment_number": "EQ-1"},
			"PLT001|EQ-1",
		},
		{
			models.SyncTypeRunningTime,
			remote.Record{"plant_code": "PLT001", "equipment_code": "EQ-1", "date": "2026-10-16"},
			remote.Record{"plant_code": "PLT001", "equipment": "EQ-1", "measurement_date": "2026-10-16 00:00:00"},
			"PLT001|EQ-1|2026-10-16",
		},
		{
			models.SyncTypeWorkOrders,
			remote.Record{"order_number": "4000123"},
			remote.Record{"order": json.Number("4000123")},
			"4000123",
		},
		{
			models.SyncTypeMaterials,
			remote.Record{"reservation_number": "R-1", "reservation_item": "10"},
			remote.Record{"reservation": "R-1", "item_number": "10"},
			"R-1|10",
		},
		{
			models.SyncTypeDailyPlantData,
			remote.Record{"plant_code": "PLT001", "date": "2026-10-16"},
			remote.Record{"plant": "PLT001", "date": "2026-10-16T00:00:00Z"},
			"PLT001|2026-10-16",
		},
	}
	for _, tc := range cases {
		key := NaturalKey(tc.syncType)
		if got := key(tc.a); got != tc.want {
			t.Fatalf("%s canonical key=%q want %q", tc.syncType, got, tc.want)
		}
		if got := key(tc.b); got != tc.want {
			t.Fatalf("%s aliased key=%q want %q", tc.syncType, got, tc.want)
		}
	}
}

func TestNaturalKey_MissingPartIsEmpty(t *testing.T) {
	key := NaturalKey(models.SyncTypeEquipment)
	if got := key(remote.Record{"plant_code": "PLT001"}); got != "" {
		t.Fatalf("key=%q", got)
	}
	if got := NaturalKey(models.SyncTypeMaterials)(remote.Record{"reservation_number": "R-1"}); got != "R-1|" {
		t.Fatalf("material key=%q", got)
	}
	if got := PlantCode(remote.Record{"plant": " PLT002 "}); got != "PLT002" {
		t.Fatalf("plant code=%q", got)
	}
}
