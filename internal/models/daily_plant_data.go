package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type DailyPlantData struct {
	ID               uint64          `gorm:"primaryKey;autoIncrement"`
	PlantID          uint64          `gorm:"not null;uniqueIndex:ux_daily_plant_data_plant_date,priority:1"`
	Date             time.Time       `gorm:"type:date;not null;uniqueIndex:ux_daily_plant_data_plant_date,priority:2"`
	RegionalCode     string          `gorm:"type:varchar(20);index"`
	ProcessedTonnage decimal.Decimal `gorm:"type:numeric(20,4);not null;default:0"`
	OperatingHours   decimal.Decimal `gorm:"type:numeric(12,4);not null;default:0"`
	IsOperating      bool            `gorm:"not null;default:false"`
	Notes            *string         `gorm:"type:text"`

	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	LastSyncedAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (DailyPlantData) TableName() string {
	return "daily_plant_data"
}
