package validation

import (
	"strings"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

// Payloads are the validated textual form of remote records. Values stay as
// trimmed strings; the helpers in parse.go convert them once validation
// passed.

type EquipmentPayload struct {
	PlantCode          string `validate:"required,max=20"`
	EquipmentCode      string `validate:"required,max=40"`
	Name               string `validate:"max=255"`
	GroupCode          string `validate:"max=40"`
	GroupName          string `validate:"max=150"`
	FunctionalLocation string `validate:"max=80"`
	Manufacturer       string `validate:"max=120"`
	SerialNumber       string `validate:"max=80"`
	CostCenter         string `validate:"max=40"`
	IsActive           string `validate:"omitempty,flag"`
}

type RunningTimePayload struct {
	PlantCode      string `validate:"required,max=20"`
	EquipmentCode  string `validate:"required,max=40"`
	Date           string `validate:"required,caldate"`
	CounterReading string `validate:"omitempty,decimal"`
	RunningHours   string `validate:"omitempty,decimal"`
}

type WorkOrderPayload struct {
	PlantCode       string `validate:"required,max=20"`
	OrderNumber     string `validate:"required,max=40"`
	EquipmentCode   string `validate:"max=40"`
	OrderType       string `validate:"max=20"`
	Description     string
	Status          string `validate:"max=80"`
	CreatedOn       string `validate:"omitempty,caldate"`
	BasicStartDate  string `validate:"omitempty,caldate"`
	BasicFinishDate string `validate:"omitempty,caldate"`
}

type MaterialPayload struct {
	PlantCode           string `validate:"required,max=20"`
	ReservationNumber   string `validate:"required,max=40"`
	ReservationItem     string `validate:"max=20"`
	OrderNumber         string `validate:"max=40"`
	EquipmentCode       string `validate:"max=40"`
	MaterialNumber      string `validate:"max=40"`
	MaterialDescription string
	RequirementQuantity string `validate:"omitempty,decimal"`
	WithdrawnQuantity   string `validate:"omitempty,decimal"`
	Unit                string `validate:"max=10"`
	RequirementDate     string `validate:"omitempty,caldate"`
}

type DailyPlantDataPayload struct {
	PlantCode        string `validate:"required,max=20"`
	Date             string `validate:"required,caldate"`
	RegionalCode     string `validate:"max=20"`
	ProcessedTonnage string `validate:"omitempty,decimal"`
	OperatingHours   string `validate:"omitempty,decimal"`
	IsOperating      string `validate:"omitempty,flag"`
	Notes            string
}

// Field names accepted for the parts of a natural key.
var (
	plantFields       = []string{"plant_code", "plant"}
	equipmentFields   = []string{"equipment_code", "equipment_number", "equipment"}
	orderFields       = []string{"order_number", "order"}
	reservationFields = []string{"reservation_number", "reservation"}
	resItemFields     = []string{"reservation_item", "item_number"}
	measuredOnFields  = []string{"date", "measurement_date"}
	dayFields         = []string{"date"}
)

// PlantCode returns the plant a record belongs to under any accepted field
// name.
func PlantCode(rec remote.Record) string {
	return first(rec, plantFields...)
}

// NaturalKey returns the identity function for records of syncType, matching
// the unique index of the local table. Parts are read the way the decoders
// read them and dates are normalised, so aliases and date formats collapse
// to one key. A record missing a required part yields "".
func NaturalKey(syncType models.SyncType) func(remote.Record) string {
	switch syncType {
	case models.SyncTypeEquipment:
		return func(rec remote.Record) string {
			return joinKey(PlantCode(rec), first(rec, equipmentFields...))
		}
	case models.SyncTypeRunningTime:
		return func(rec remote.Record) string {
			return joinKey(PlantCode(rec), first(rec, equipmentFields...), keyDate(first(rec, measuredOnFields...)))
		}
	case models.SyncTypeWorkOrders:
		return func(rec remote.Record) string {
			return joinKey(first(rec, orderFields...))
		}
	case models.SyncTypeMaterials:
		return func(rec remote.Record) string {
			number := first(rec, reservationFields...)
			if number == "" {
				return ""
			}
			return number + "|" + first(rec, resItemFields...)
		}
	case models.SyncTypeDailyPlantData:
		return func(rec remote.Record) string {
			return joinKey(PlantCode(rec), keyDate(first(rec, dayFields...)))
		}
	}
	return nil
}

func joinKey(parts ...string) string {
	for _, p := range parts {
		if p == "" {
			return ""
		}
	}
	return strings.Join(parts, "|")
}

func keyDate(s string) string {
	if t, ok := ParseDate(s); ok {
		return t.Format("2006-01-02")
	}
	return s
}

// first returns the first non-empty field among names. The remote API is not
// consistent about field naming across endpoints.
func first(rec remote.Record, names ...string) string {
	for _, name := range names {
		if v := rec.String(name); v != "" {
			return v
		}
	}
	return ""
}

func decodeEquipment(rec remote.Record) EquipmentPayload {
	return EquipmentPayload{
		PlantCode:          PlantCode(rec),
		EquipmentCode:      first(rec, equipmentFields...),
		Name:               first(rec, "equipment_name", "name", "description"),
		GroupCode:          first(rec, "equipment_group_code", "group_code"),
		GroupName:          first(rec, "equipment_group_name", "group_name"),
		FunctionalLocation: first(rec, "functional_location"),
		Manufacturer:       first(rec, "manufacturer"),
		SerialNumber:       first(rec, "serial_number"),
		CostCenter:         first(rec, "cost_center"),
		IsActive:           first(rec, "is_active", "active"),
	}
}

func decodeRunningTime(rec remote.Record) RunningTimePayload {
	return RunningTimePayload{
		PlantCode:      PlantCode(rec),
		EquipmentCode:  first(rec, equipmentFields...),
		Date:           first(rec, measuredOnFields...),
		CounterReading: first(rec, "counter_reading"),
		RunningHours:   first(rec, "running_hours", "running_time"),
	}
}

func decodeWorkOrder(rec remote.Record) WorkOrderPayload {
	return WorkOrderPayload{
		PlantCode:       PlantCode(rec),
		OrderNumber:     first(rec, orderFields...),
		EquipmentCode:   first(rec, equipmentFields...),
		OrderType:       first(rec, "order_type"),
		Description:     first(rec, "description"),
		Status:          first(rec, "status", "order_status"),
		CreatedOn:       first(rec, "created_on"),
		BasicStartDate:  first(rec, "basic_start_date"),
		BasicFinishDate: first(rec, "basic_finish_date"),
	}
}

func decodeMaterial(rec remote.Record) MaterialPayload {
	return MaterialPayload{
		PlantCode:           PlantCode(rec),
		ReservationNumber:   first(rec, reservationFields...),
		ReservationItem:     first(rec, resItemFields...),
		OrderNumber:         first(rec, "order_number"),
		EquipmentCode:       first(rec, equipmentFields...),
		MaterialNumber:      first(rec, "material_number", "material"),
		MaterialDescription: first(rec, "material_description"),
		RequirementQuantity: first(rec, "requirement_quantity"),
		WithdrawnQuantity:   first(rec, "withdrawn_quantity", "quantity_withdrawn"),
		Unit:                first(rec, "unit", "base_unit"),
		RequirementDate:     first(rec, "requirement_date"),
	}
}

func decodeDailyPlantData(rec remote.Record) DailyPlantDataPayload {
	return DailyPlantDataPayload{
		PlantCode:        PlantCode(rec),
		Date:             first(rec, dayFields...),
		RegionalCode:     first(rec, "regional_code", "regional"),
		ProcessedTonnage: first(rec, "processed_tonnage", "tbs_processed"),
		OperatingHours:   first(rec, "operating_hours"),
		IsOperating:      first(rec, "is_operating"),
		Notes:            first(rec, "notes", "remarks"),
	}
}
