package db

import (
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		// reference data
		&models.Region{},
		&models.Plant{},
		&models.EquipmentGroup{},
		// synchronized entities
		&models.Equipment{},
		&models.EquipmentRunningTime{},
		&models.WorkOrder{},
		&models.EquipmentWorkOrderMaterial{},
		&models.DailyPlantData{},
		// audit
		&models.SyncLog{},
		&models.OperatorNotification{},
		// runtime switches
		&models.SystemSetting{},
	)
}
