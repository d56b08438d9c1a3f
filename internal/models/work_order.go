package models

import (
	"time"

	"gorm.io/datatypes"
)

type WorkOrder struct {
	ID              uint64     `gorm:"primaryKey;autoIncrement"`
	OrderNumber     string     `gorm:"type:varchar(40);not null;uniqueIndex"`
	PlantID         uint64     `gorm:"not null;index"`
	EquipmentID     *uint64    `gorm:"index"`
	OrderType       *string    `gorm:"type:varchar(20)"`
	Description     *string    `gorm:"type:text"`
	Status          *string    `gorm:"type:varchar(80)"`
	CreatedOn       *time.Time `gorm:"type:date;index"`
	BasicStartDate  *time.Time `gorm:"type:date"`
	BasicFinishDate *time.Time `gorm:"type:date"`

	RawJSON      datatypes.JSON `gorm:"type:jsonb"`
	LastSyncedAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (WorkOrder) TableName() string {
	return "work_orders"
}
