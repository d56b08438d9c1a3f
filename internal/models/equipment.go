package models

import (
	"time"

	"gorm.io/datatypes"
)

type Equipment struct {
	ID                 uint64  `gorm:"primaryKey;autoIncrement"`
	PlantID            uint64  `gorm:"not null;uniqueIndex:ux_equipments_plant_code,priority:1"`
	EquipmentCode      string  `gorm:"type:varchar(40);not null;uniqueIndex:ux_equipments_plant_code,priority:2"`
	Name               string  `gorm:"type:varchar(255);not null"`
	EquipmentGroupID   *uint64 `gorm:"index"`
	FunctionalLocation *string `gorm:"type:varchar(80)"`
	Manufacturer       *string `gorm:"type:varchar(120)"`
	SerialNumber       *string `gorm:"type:varchar(80)"`
	CostCenter         *string `gorm:"type:varchar(40)"`
	IsActive           bool    `gorm:"not null;default:true"`

	RawJSON      datatypes.JSON `gorm:"type:jsonb;comment:last remote payload"`
	LastSyncedAt *time.Time     `gorm:"type:timestamptz"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Equipment) TableName() string {
	return "equipments"
}
