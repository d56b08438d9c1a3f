package repository

import (
	"context"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

// MasterDataRepository reads the admin-maintained reference tables.
type MasterDataRepository interface {
	ListActivePlants(ctx context.Context) ([]models.Plant, error)
	FindPlantsByCodes(ctx context.Context, codes []string) ([]models.Plant, error)
	ListActiveRegionCodes(ctx context.Context) ([]string, error)
	FirstOrCreateEquipmentGroup(ctx context.Context, code string, name string) (*models.EquipmentGroup, error)
	FindEquipment(ctx context.Context, plantID uint64, equipmentCode string) (*models.Equipment, error)
}

// SyncRepository writes synchronized entities. Each Upsert looks the row up by
// its natural key, then creates or updates it, and reports whether it created.
type SyncRepository interface {
	UpsertEquipment(ctx context.Context, item *models.Equipment) (bool, error)
	UpsertRunningTime(ctx context.Context, item *models.EquipmentRunningTime) (bool, error)
	UpsertWorkOrder(ctx context.Context, item *models.WorkOrder) (bool, error)
	UpsertEquipmentMaterial(ctx context.Context, item *models.EquipmentWorkOrderMaterial) (bool, error)
	UpsertDailyPlantData(ctx context.Context, item *models.DailyPlantData) (bool, error)
}

type SyncLogRepository interface {
	InsertSyncLog(ctx context.Context, item *models.SyncLog) error
	SaveSyncLog(ctx context.Context, item *models.SyncLog) error
	GetSyncLog(ctx context.Context, id uint64) (*models.SyncLog, error)
	LatestSyncLogByJob(ctx context.Context, jobID string) (*models.SyncLog, error)
	ListSyncLogs(ctx context.Context, params ListSyncLogsParams) ([]models.SyncLog, error)
	CountSyncLogs(ctx context.Context, params ListSyncLogsParams) (int64, error)
	ListRunningSyncLogsBefore(ctx context.Context, startedBefore time.Time) ([]models.SyncLog, error)
	DeleteSyncLogsBefore(ctx context.Context, before time.Time) (int64, error)
}

type NotificationRepository interface {
	InsertNotification(ctx context.Context, item *models.OperatorNotification) error
	ListNotifications(ctx context.Context, params ListNotificationsParams) ([]models.OperatorNotification, error)
	CountNotifications(ctx context.Context, params ListNotificationsParams) (int64, error)
	MarkNotificationRead(ctx context.Context, id uint64, at time.Time) error
}

type Repository interface {
	MasterDataRepository
	SyncRepository
	SyncLogRepository
	NotificationRepository
}

// SettingsRepository stores runtime switches. It is kept out of Repository
// because only the settings service and its handler use it.
type SettingsRepository interface {
	GetSystemSettingByKey(ctx context.Context, key string) (*models.SystemSetting, error)
	UpsertSystemSetting(ctx context.Context, item *models.SystemSetting) error
	ListSystemSettings(ctx context.Context, params ListSystemSettingsParams) ([]models.SystemSetting, error)
}

type ListSystemSettingsParams struct {
	Limit   int
	Offset  int
	Prefix  *string
	OrderBy string
	Asc     *bool
}

type ListSyncLogsParams struct {
	Limit    int
	Offset   int
	SyncType *models.SyncType
	Status   *models.SyncStatus
	JobID    *string
	Since    *time.Time
	OrderBy  string
	Asc      *bool
}

type ListNotificationsParams struct {
	Limit      int
	Offset     int
	Level      *string
	UnreadOnly bool
	OrderBy    string
	Asc        *bool
}
