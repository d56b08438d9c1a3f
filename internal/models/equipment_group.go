package models

import "time"

// EquipmentGroup is created on demand when an equipment payload references an
// unknown group code.
type EquipmentGroup struct {
	ID        uint64 `gorm:"primaryKey;autoIncrement"`
	GroupCode string `gorm:"type:varchar(40);not null;uniqueIndex"`
	Name      string `gorm:"type:varchar(150)"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (EquipmentGroup) TableName() string {
	return "equipment_groups"
}
