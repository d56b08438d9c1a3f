package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

type SyncType string

var ErrUnknownSyncType = errors.New("unknown sync type")

const (
	SyncTypeEquipment      SyncType = "equipment"
	SyncTypeRunningTime    SyncType = "running_time"
	SyncTypeWorkOrders     SyncType = "work_orders"
	SyncTypeMaterials      SyncType = "equipment_work_order_materials"
	SyncTypeDailyPlantData SyncType = "daily_plant_data"
	// SyncTypeAll labels logs written for the combined sequential job.
	SyncTypeAll SyncType = "all"
)

// EntitySyncTypes lists the entity syncs in the order they run sequentially.
func EntitySyncTypes() []SyncType {
	return []SyncType{
		SyncTypeEquipment,
		SyncTypeRunningTime,
		SyncTypeWorkOrders,
		SyncTypeMaterials,
		SyncTypeDailyPlantData,
	}
}

func ParseSyncType(value string) (SyncType, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	v = strings.ReplaceAll(v, "-", "_")
	switch v {
	case "equipment", "equipments":
		return SyncTypeEquipment, nil
	case "running_time", "running_times":
		return SyncTypeRunningTime, nil
	case "work_orders", "work_order":
		return SyncTypeWorkOrders, nil
	case "equipment_work_order_materials", "materials":
		return SyncTypeMaterials, nil
	case "daily_plant_data":
		return SyncTypeDailyPlantData, nil
	case "all":
		return SyncTypeAll, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownSyncType, value)
	}
}

// Label is the operator-facing name used in notifications.
func (t SyncType) Label() string {
	switch t {
	case SyncTypeEquipment:
		return "Equipment"
	case SyncTypeRunningTime:
		return "Running time"
	case SyncTypeWorkOrders:
		return "Work orders"
	case SyncTypeMaterials:
		return "Work order materials"
	case SyncTypeDailyPlantData:
		return "Daily plant data"
	case SyncTypeAll:
		return "Full sync"
	default:
		return string(t)
	}
}

type SyncStatus string

const (
	SyncStatusPending SyncStatus = "pending"
	SyncStatusRunning SyncStatus = "running"
	SyncStatusSuccess SyncStatus = "success"
	SyncStatusFailed  SyncStatus = "failed"
)

// SyncLog is the audit row of one sync run.
type SyncLog struct {
	ID          uint64     `gorm:"primaryKey;autoIncrement"`
	SyncType    SyncType   `gorm:"type:varchar(40);not null;index:idx_sync_logs_type_status,priority:1"`
	Status      SyncStatus `gorm:"type:varchar(20);not null;index:idx_sync_logs_type_status,priority:2"`
	StartedAt   time.Time  `gorm:"type:timestamptz;not null;index"`
	CompletedAt *time.Time `gorm:"type:timestamptz"`

	RecordsProcessed int `gorm:"not null;default:0"`
	RecordsSuccess   int `gorm:"not null;default:0"`
	RecordsCreated   int `gorm:"not null;default:0"`
	RecordsUpdated   int `gorm:"not null;default:0"`
	RecordsFailed    int `gorm:"not null;default:0"`

	ErrorMessage      *string        `gorm:"type:text"`
	Details           datatypes.JSON `gorm:"type:jsonb"`
	JobID             *string        `gorm:"type:varchar(64);index"`
	Attempt           int            `gorm:"not null;default:1"`
	PermanentlyFailed bool           `gorm:"not null;default:false"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime"`
}

func (SyncLog) TableName() string {
	return "sync_logs"
}

// Duration is zero until the run completes.
func (l SyncLog) Duration() time.Duration {
	if l.CompletedAt == nil || l.CompletedAt.Before(l.StartedAt) {
		return 0
	}
	return l.CompletedAt.Sub(l.StartedAt)
}
