package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EquipmentWorkOrderMaterial is a material reservation line withdrawn against a
// work order. Keyed by reservation number and item.
type EquipmentWorkOrderMaterial struct {
	ID                  uint64          `gorm:"primaryKey;autoIncrement"`
	ReservationNumber   string          `gorm:"type:varchar(40);not null;uniqueIndex:ux_materials_reservation,priority:1"`
	ReservationItem     string          `gorm:"type:varchar(20);not null;default:'';uniqueIndex:ux_materials_reservation,priority:2"`
	PlantID             uint64          `gorm:"not null;index"`
	EquipmentID         *uint64         `gorm:"index"`
	OrderNumber         *string         `gorm:"type:varchar(40);index"`
	MaterialNumber      *string         `gorm:"type:varchar(40)"`
	MaterialDescription *string         `gorm:"type:text"`
	RequirementQuantity decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	WithdrawnQuantity   decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	Unit                *string         `gorm:"type:varchar(10)"`
	RequirementDate     *time.Time      `gorm:"type:date"`

	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	LastSyncedAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (EquipmentWorkOrderMaterial) TableName() string {
	return "equipment_work_order_materials"
}
