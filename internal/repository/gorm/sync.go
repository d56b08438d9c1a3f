package gormrepository

import (
	"context"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

var (
	equipmentColumns = []string{
		"name", "equipment_group_id", "functional_location", "manufacturer",
		"serial_number", "cost_center", "is_active", "raw_json", "last_synced_at",
	}
	runningTimeColumns = []string{
		"plant_id", "counter_reading", "running_hours", "raw_json", "last_synced_at",
	}
	workOrderColumns = []string{
		"plant_id", "equipment_id", "order_type", "description", "status",
		"created_on", "basic_start_date", "basic_finish_date", "raw_json", "last_synced_at",
	}
	materialColumns = []string{
		"plant_id", "equipment_id", "order_number", "material_number", "material_description",
		"requirement_quantity", "withdrawn_quantity", "unit", "requirement_date",
		"raw_json", "last_synced_at",
	}
	dailyPlantDataColumns = []string{
		"regional_code", "processed_tonnage", "operating_hours", "is_operating",
		"notes", "raw_json", "last_synced_at",
	}
)

func (s *Store) UpsertEquipment(ctx context.Context, item *models.Equipment) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	key := map[string]any{"plant_id": item.PlantID, "equipment_code": item.EquipmentCode}
	return upsertByKey(s.db.WithContext(ctx), item, key, equipmentColumns,
		func(m *models.Equipment) *uint64 { return &m.ID })
}

func (s *Store) UpsertRunningTime(ctx context.Context, item *models.EquipmentRunningTime) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	key := map[string]any{"equipment_id": item.EquipmentID, "date": item.Date}
	return upsertByKey(s.db.WithContext(ctx), item, key, runningTimeColumns,
		func(m *models.EquipmentRunningTime) *uint64 { return &m.ID })
}

func (s *Store) UpsertWorkOrder(ctx context.Context, item *models.WorkOrder) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	key := map[string]any{"order_number": item.OrderNumber}
	return upsertByKey(s.db.WithContext(ctx), item, key, workOrderColumns,
		func(m *models.WorkOrder) *uint64 { return &m.ID })
}

func (s *Store) UpsertEquipmentMaterial(ctx context.Context, item *models.EquipmentWorkOrderMaterial) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	key := map[string]any{"reservation_number": item.ReservationNumber, "reservation_item": item.ReservationItem}
	return upsertByKey(s.db.WithContext(ctx), item, key, materialColumns,
		func(m *models.EquipmentWorkOrderMaterial) *uint64 { return &m.ID })
}

func (s *Store) UpsertDailyPlantData(ctx context.Context, item *models.DailyPlantData) (bool, error) {
	if s == nil || s.db == nil || item == nil {
		return false, nil
	}
	key := map[string]any{"plant_id": item.PlantID, "date": item.Date}
	return upsertByKey(s.db.WithContext(ctx), item, key, dailyPlantDataColumns,
		func(m *models.DailyPlantData) *uint64 { return &m.ID })
}
