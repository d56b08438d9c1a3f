package gormrepository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

func (s *Store) InsertSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) SaveSyncLog(ctx context.Context, item *models.SyncLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Save(item).Error
}

func (s *Store) GetSyncLog(ctx context.Context, id uint64) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.SyncLog
	err := s.db.WithContext(ctx).Where("id = ?", id).Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) LatestSyncLogByJob(ctx context.Context, jobID string) (*models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return nil, nil
	}
	var item models.SyncLog
	err := s.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("started_at desc").
		Order("id desc").
		Take(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) ListSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := syncLogFilters(s.db.WithContext(ctx).Model(&models.SyncLog{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "started_at")
	limit := normalizeLimit(params.Limit, 50)
	offset := normalizeOffset(params.Offset)
	var items []models.SyncLog
	if err := query.Limit(limit).Offset(offset).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (s *Store) CountSyncLogs(ctx context.Context, params repository.ListSyncLogsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := syncLogFilters(s.db.WithContext(ctx).Model(&models.SyncLog{}), params).Count(&total).Error
	return total, err
}

func syncLogFilters(query *gorm.DB, params repository.ListSyncLogsParams) *gorm.DB {
	if params.SyncType != nil && *params.SyncType != "" {
		query = query.Where("sync_type = ?", *params.SyncType)
	}
	if params.Status != nil && *params.Status != "" {
		query = query.Where("status = ?", *params.Status)
	}
	if params.JobID != nil && strings.TrimSpace(*params.JobID) != "" {
		query = query.Where("job_id = ?", strings.TrimSpace(*params.JobID))
	}
	if params.Since != nil && !params.Since.IsZero() {
		query = query.Where("started_at >= ?", *params.Since)
	}
	return query
}

func (s *Store) ListRunningSyncLogsBefore(ctx context.Context, startedBefore time.Time) ([]models.SyncLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.SyncLog
	err := s.db.WithContext(ctx).
		Where("status = ?", models.SyncStatusRunning).
		Where("started_at < ?", startedBefore).
		Order("started_at asc").
		Find(&items).Error
	return items, err
}

func (s *Store) DeleteSyncLogsBefore(ctx context.Context, before time.Time) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	if before.IsZero() {
		return 0, nil
	}
	res := s.db.WithContext(ctx).
		Where("created_at < ?", before).
		Delete(&models.SyncLog{})
	return res.RowsAffected, res.Error
}
