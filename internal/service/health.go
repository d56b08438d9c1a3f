package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/notification"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

// HealthService finds runs that never finished and prunes old audit rows.
type HealthService struct {
	Repo       repository.SyncLogRepository
	Notifier   notification.Notifier
	Logger     *zap.Logger
	StuckAfter time.Duration
	Retention  time.Duration
	Now        func() time.Time
}

// DetectStuck marks every run still "running" after StuckAfter (default 2h)
// as failed and raises one critical notification per run.
func (s *HealthService) DetectStuck(ctx context.Context) ([]models.SyncLog, error) {
	stuckAfter := s.StuckAfter
	if stuckAfter <= 0 {
		stuckAfter = 2 * time.Hour
	}
	now := s.now()
	items, err := s.Repo.ListRunningSyncLogsBefore(ctx, now.Add(-stuckAfter))
	if err != nil {
		return nil, fmt.Errorf("list stuck sync logs: %w", err)
	}
	for i := range items {
		item := &items[i]
		msg := fmt.Sprintf("marked failed by health check: running since %s", item.StartedAt.Format(time.RFC3339))
		item.Status = models.SyncStatusFailed
		item.CompletedAt = &now
		item.ErrorMessage = &msg
		if err := s.Repo.SaveSyncLog(ctx, item); err != nil {
			return items[:i], fmt.Errorf("save sync log %d: %w", item.ID, err)
		}
		if s.Logger != nil {
			s.Logger.Warn("stuck sync run detected",
				zap.Uint64("sync_log_id", item.ID),
				zap.String("sync_type", string(item.SyncType)),
				zap.Time("started_at", item.StartedAt),
			)
		}
		if s.Notifier == nil {
			continue
		}
		id := item.ID
		err := s.Notifier.Notify(ctx, notification.Message{
			Level:     models.NotificationLevelCritical,
			Title:     fmt.Sprintf("Stuck %s sync", item.SyncType),
			Body:      fmt.Sprintf("Sync log #%d has been running since %s and was marked failed.", item.ID, item.StartedAt.Format(time.RFC3339)),
			SyncType:  item.SyncType,
			SyncLogID: &id,
			Data: map[string]any{
				"started_at":   item.StartedAt,
				"stuck_after":  stuckAfter.String(),
				"job_id":       item.JobID,
				"attempt":      item.Attempt,
				"health_check": true,
			},
		})
		if err != nil && s.Logger != nil {
			s.Logger.Warn("stuck run notification failed", zap.Uint64("sync_log_id", id), zap.Error(err))
		}
	}
	return items, nil
}

// PruneLogs deletes audit rows older than Retention (default 30 days).
func (s *HealthService) PruneLogs(ctx context.Context) (int64, error) {
	retention := s.Retention
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	deleted, err := s.Repo.DeleteSyncLogsBefore(ctx, s.now().Add(-retention))
	if err != nil {
		return 0, fmt.Errorf("prune sync logs: %w", err)
	}
	if s.Logger != nil {
		s.Logger.Info("sync logs pruned", zap.Int64("deleted", deleted), zap.Duration("retention", retention))
	}
	return deleted, nil
}

func (s *HealthService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}
