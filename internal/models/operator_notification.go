package models

import (
	"time"

	"gorm.io/datatypes"
)

const (
	NotificationLevelInfo     = "info"
	NotificationLevelCritical = "critical"
)

type OperatorNotification struct {
	ID        uint64         `gorm:"primaryKey;autoIncrement"`
	Level     string         `gorm:"type:varchar(20);not null;index"`
	Title     string         `gorm:"type:varchar(200);not null"`
	Body      string         `gorm:"type:text;not null"`
	SyncType  *SyncType      `gorm:"type:varchar(40);index"`
	SyncLogID *uint64        `gorm:"index"`
	Data      datatypes.JSON `gorm:"type:jsonb"`
	ReadAt    *time.Time     `gorm:"type:timestamptz"`
	CreatedAt time.Time      `gorm:"type:timestamptz;autoCreateTime;index"`
}

func (OperatorNotification) TableName() string {
	return "operator_notifications"
}
