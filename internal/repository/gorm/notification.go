package gormrepository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

func (s *Store) InsertNotification(ctx context.Context, item *models.OperatorNotification) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListNotifications(ctx context.Context, params repository.ListNotificationsParams) ([]models.OperatorNotification, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := notificationFilters(s.db.WithContext(ctx).Model(&models.OperatorNotification{}), params)
	query = applyOrder(query, params.OrderBy, params.Asc, "created_at")
	var items []models.OperatorNotification
	err := query.Limit(normalizeLimit(params.Limit, 50)).Offset(normalizeOffset(params.Offset)).Find(&items).Error
	return items, err
}

func (s *Store) CountNotifications(ctx context.Context, params repository.ListNotificationsParams) (int64, error) {
	if s == nil || s.db == nil {
		return 0, nil
	}
	var total int64
	err := notificationFilters(s.db.WithContext(ctx).Model(&models.OperatorNotification{}), params).Count(&total).Error
	return total, err
}

func notificationFilters(query *gorm.DB, params repository.ListNotificationsParams) *gorm.DB {
	if params.Level != nil && strings.TrimSpace(*params.Level) != "" {
		query = query.Where("level = ?", strings.TrimSpace(*params.Level))
	}
	if params.UnreadOnly {
		query = query.Where("read_at IS NULL")
	}
	return query
}

func (s *Store) MarkNotificationRead(ctx context.Context, id uint64, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	if at.IsZero() {
		at = time.Now().UTC()
	}
	res := s.db.WithContext(ctx).
		Model(&models.OperatorNotification{}).
		Where("id = ? AND read_at IS NULL", id).
		Update("read_at", at)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.OperatorNotification{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return gorm.ErrRecordNotFound
		}
	}
	return nil
}
