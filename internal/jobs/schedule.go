package jobs

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	cronrunner "github.com/fhrrrzy/neo-cmms-sub001/internal/cron"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

// Dispatcher builds and enqueues a job for a sync type.
type Dispatcher struct {
	Factory Factory
	Queue   *Queue
}

func (d Dispatcher) Dispatch(ctx context.Context, syncType models.SyncType, params service.Params) (Definition, error) {
	def, err := d.Factory.New(syncType, params)
	if err != nil {
		return Definition{}, err
	}
	return d.Queue.Dispatch(ctx, def)
}

// Maintenance is the housekeeping run next to the sync jobs.
type Maintenance interface {
	DetectStuck(ctx context.Context) ([]models.SyncLog, error)
	PruneLogs(ctx context.Context) (int64, error)
}

// FeatureSwitches gates scheduled entries at fire time.
type FeatureSwitches interface {
	IsEnabled(ctx context.Context, key string, fallback bool) bool
}

// Schedule registers the daily sync jobs and the housekeeping entries on
// runner. Entries with an empty spec are skipped; entries whose switch is
// off are registered but do nothing when they fire.
func Schedule(runner *cronrunner.Runner, cfg config.CronConfig, d Dispatcher, health Maintenance, switches FeatureSwitches, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	enabled := func(ctx context.Context, key string) bool {
		if switches == nil || switches.IsEnabled(ctx, key, true) {
			return true
		}
		logger.Info("scheduled entry switched off", zap.String("switch", key))
		return false
	}

	syncEntries := []struct {
		spec     string
		syncType models.SyncType
	}{
		{cfg.Equipment, models.SyncTypeEquipment},
		{cfg.RunningTime, models.SyncTypeRunningTime},
		{cfg.WorkOrders, models.SyncTypeWorkOrders},
		{cfg.Materials, models.SyncTypeMaterials},
		{cfg.DailyPlantData, models.SyncTypeDailyPlantData},
	}
	for _, entry := range syncEntries {
		syncType := entry.syncType
		name := kinds[syncType].name
		_, err := runner.Add(name, entry.spec, func(ctx context.Context) {
			if !enabled(ctx, service.FeatureSyncKey(syncType)) {
				return
			}
			def, err := d.Dispatch(ctx, syncType, service.Params{})
			switch {
			case errors.Is(err, ErrDuplicateJob):
				logger.Info("scheduled job skipped", zap.String("job", name), zap.Error(err))
			case err != nil:
				logger.Error("scheduled job dispatch failed", zap.String("job", name), zap.Error(err))
			default:
				logger.Info("scheduled job dispatched", zap.String("job", name), zap.String("job_id", def.ID))
			}
		})
		if err != nil {
			return err
		}
	}

	if health == nil {
		return nil
	}
	if _, err := runner.Add("sync-health-check", cfg.HealthCheck, func(ctx context.Context) {
		if !enabled(ctx, service.FeatureHealthCheck) {
			return
		}
		stuck, err := health.DetectStuck(ctx)
		if err != nil {
			logger.Error("health check failed", zap.Error(err))
			return
		}
		if len(stuck) > 0 {
			logger.Warn("stuck sync runs marked failed", zap.Int("count", len(stuck)))
		}
	}); err != nil {
		return err
	}
	_, err := runner.Add("sync-prune-logs", cfg.PruneLogs, func(ctx context.Context) {
		if !enabled(ctx, service.FeaturePruneLogs) {
			return
		}
		n, err := health.PruneLogs(ctx)
		if err != nil {
			logger.Error("sync log retention failed", zap.Error(err))
			return
		}
		logger.Info("sync logs pruned", zap.Int64("deleted", n))
	})
	return err
}
