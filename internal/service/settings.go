package service

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

const (
	featurePrefix      = "feature."
	FeatureHealthCheck = "feature.sync.health_check"
	FeaturePruneLogs   = "feature.sync.prune_logs"
)

// FeatureSyncKey is the switch that gates scheduled runs of syncType.
func FeatureSyncKey(syncType models.SyncType) string {
	return featurePrefix + "sync." + string(syncType)
}

func DefaultFeatureSwitches() map[string]bool {
	out := map[string]bool{
		FeatureSyncKey(models.SyncTypeAll): true,
		FeatureHealthCheck:                 true,
		FeaturePruneLogs:                   true,
	}
	for _, t := range models.EntitySyncTypes() {
		out[FeatureSyncKey(t)] = true
	}
	return out
}

// SettingsService reads and writes the runtime feature switches. Missing or
// unreadable switches resolve to the caller's fallback.
type SettingsService struct {
	Repo   repository.SettingsRepository
	Logger *zap.Logger
	Now    func() time.Time
}

// EnsureDefaultSwitches inserts every default switch that is not stored yet.
// Stored values are never overwritten.
func (s *SettingsService) EnsureDefaultSwitches(ctx context.Context) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	for key, enabled := range DefaultFeatureSwitches() {
		existing, err := s.Repo.GetSystemSettingByKey(ctx, key)
		if err != nil {
			return err
		}
		if existing != nil {
			continue
		}
		if err := s.put(ctx, key, enabled); err != nil {
			return err
		}
	}
	return nil
}

func (s *SettingsService) IsEnabled(ctx context.Context, key string, fallback bool) bool {
	if s == nil || s.Repo == nil {
		return fallback
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return fallback
	}
	item, err := s.Repo.GetSystemSettingByKey(ctx, key)
	if err != nil {
		if s.Logger != nil {
			s.Logger.Warn("read feature switch", zap.String("key", key), zap.Error(err))
		}
		return fallback
	}
	if item == nil || len(item.Value) == 0 {
		return fallback
	}
	var enabled bool
	if err := json.Unmarshal(item.Value, &enabled); err != nil {
		return fallback
	}
	return enabled
}

func (s *SettingsService) SetEnabled(ctx context.Context, key string, enabled bool) error {
	if s == nil || s.Repo == nil {
		return nil
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil
	}
	return s.put(ctx, key, enabled)
}

// Switch is one feature switch as reported to operators.
type Switch struct {
	Key         string    `json:"key"`
	Enabled     bool      `json:"enabled"`
	Description string    `json:"description,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (s *SettingsService) ListSwitches(ctx context.Context) ([]Switch, error) {
	prefix := featurePrefix
	items, err := s.Repo.ListSystemSettings(ctx, repository.ListSystemSettingsParams{
		Limit:   200,
		Prefix:  &prefix,
		OrderBy: "key",
		Asc:     boolPtr(true),
	})
	if err != nil {
		return nil, err
	}
	out := make([]Switch, 0, len(items))
	for _, it := range items {
		var enabled bool
		_ = json.Unmarshal(it.Value, &enabled)
		out = append(out, Switch{Key: it.Key, Enabled: enabled, Description: it.Description, UpdatedAt: it.UpdatedAt})
	}
	return out, nil
}

func (s *SettingsService) put(ctx context.Context, key string, enabled bool) error {
	raw, _ := json.Marshal(enabled)
	now := time.Now().UTC()
	if s.Now != nil {
		now = s.Now().UTC()
	}
	return s.Repo.UpsertSystemSetting(ctx, &models.SystemSetting{
		Key:         key,
		Value:       datatypes.JSON(raw),
		Description: "feature switch",
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func boolPtr(v bool) *bool { return &v }
