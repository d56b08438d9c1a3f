package models

import "time"

type Region struct {
	ID   uint64 `gorm:"primaryKey;autoIncrement"`
	Code string `gorm:"type:varchar(20);not null;uniqueIndex;comment:regional code used by the remote API"`
	Name string `gorm:"type:varchar(120);not null"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Region) TableName() string {
	return "regions"
}
