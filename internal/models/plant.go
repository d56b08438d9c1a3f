package models

import "time"

// Plant rows are maintained by admins. Sync resolves plant codes against this
// table and never creates plants.
type Plant struct {
	ID        uint64  `gorm:"primaryKey;autoIncrement"`
	PlantCode string  `gorm:"type:varchar(20);not null;uniqueIndex"`
	Name      string  `gorm:"type:varchar(150);not null"`
	RegionID  *uint64 `gorm:"index"`
	Region    *Region `gorm:"foreignKey:RegionID"`
	IsActive  bool    `gorm:"not null;default:true;index"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (Plant) TableName() string {
	return "plants"
}
