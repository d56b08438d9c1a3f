package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// EquipmentRunningTime holds one counter reading per equipment per day.
type EquipmentRunningTime struct {
	ID             uint64          `gorm:"primaryKey;autoIncrement"`
	EquipmentID    uint64          `gorm:"not null;uniqueIndex:ux_running_times_equipment_date,priority:1"`
	Date           time.Time       `gorm:"type:date;not null;uniqueIndex:ux_running_times_equipment_date,priority:2"`
	PlantID        uint64          `gorm:"not null;index"`
	CounterReading decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	RunningHours   decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"`

	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	LastSyncedAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (EquipmentRunningTime) TableName() string {
	return "equipment_running_times"
}
