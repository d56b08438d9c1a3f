package gormrepository

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

func (s *Store) ListActivePlants(ctx context.Context) ([]models.Plant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Plant
	err := s.db.WithContext(ctx).
		Preload("Region").
		Where("is_active = ?", true).
		Order("plant_code asc").
		Find(&items).Error
	return items, err
}

func (s *Store) FindPlantsByCodes(ctx context.Context, codes []string) ([]models.Plant, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	codes = cleanStrings(codes)
	if len(codes) == 0 {
		return nil, nil
	}
	var items []models.Plant
	err := s.db.WithContext(ctx).
		Preload("Region").
		Where("plant_code IN ?", codes).
		Order("plant_code asc").
		Find(&items).Error
	return items, err
}

func (s *Store) ListActiveRegionCodes(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var codes []string
	err := s.db.WithContext(ctx).
		Model(&models.Plant{}).
		Joins("JOIN regions ON regions.id = plants.region_id").
		Where("plants.is_active = ?", true).
		Distinct().
		Order("regions.code asc").
		Pluck("regions.code", &codes).Error
	return codes, err
}

func (s *Store) FirstOrCreateEquipmentGroup(ctx context.Context, code string, name string) (*models.EquipmentGroup, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.New("equipment group code is empty")
	}
	if strings.TrimSpace(name) == "" {
		name = code
	}
	db := s.db.WithContext(ctx)
	var group models.EquipmentGroup
	err := db.Where(models.EquipmentGroup{GroupCode: code}).
		Attrs(models.EquipmentGroup{Name: strings.TrimSpace(name)}).
		FirstOrCreate(&group).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		group = models.EquipmentGroup{}
		err = db.Where("group_code = ?", code).Take(&group).Error
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (s *Store) FindEquipment(ctx context.Context, plantID uint64, equipmentCode string) (*models.Equipment, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Equipment
	err := s.db.WithContext(ctx).
		Where("plant_id = ? AND equipment_code = ?", plantID, strings.TrimSpace(equipmentCode)).
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}
