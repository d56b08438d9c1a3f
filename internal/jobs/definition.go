// Package jobs wraps sync runs in queued jobs with bounded retries, linear
// backoff, per-attempt timeouts and final-outcome notifications.
package jobs

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

const DefaultMaxAttempts = 3

// Definition is one queued sync job.
type Definition struct {
	ID          string
	Name        string
	SyncType    models.SyncType
	MaxAttempts int
	BackoffUnit time.Duration
	Timeout     time.Duration
	Priority    int
	// UniqueKey, when set, keeps a second job with the same key out of the
	// queue until the first reaches a terminal state.
	UniqueKey  string
	Params     service.Params
	EnqueuedAt time.Time
}

// LinearBackoff returns the delay before retrying after a failed attempt:
// attempt × unit.
func LinearBackoff(unit time.Duration) func(attempt int) time.Duration {
	return func(attempt int) time.Duration {
		if attempt < 1 {
			attempt = 1
		}
		return time.Duration(attempt) * unit
	}
}

func (d Definition) Backoff(attempt int) time.Duration {
	return LinearBackoff(d.BackoffUnit)(attempt)
}

// lockTTL bounds how long a uniqueness lock may outlive a crashed worker:
// every attempt at full timeout plus every backoff, with slack.
func (d Definition) lockTTL() time.Duration {
	ttl := 10 * time.Minute
	for attempt := 1; attempt <= d.MaxAttempts; attempt++ {
		ttl += d.Timeout
		if attempt < d.MaxAttempts {
			ttl += d.Backoff(attempt)
		}
	}
	return ttl
}

type kind struct {
	name     string
	unit     time.Duration
	timeout  time.Duration
	priority int
}

var kinds = map[models.SyncType]kind{
	models.SyncTypeEquipment:      {name: "sync-equipments", unit: 60 * time.Second, timeout: 30 * time.Minute, priority: 8},
	models.SyncTypeRunningTime:    {name: "sync-running-time", unit: 90 * time.Second, timeout: 30 * time.Minute, priority: 10},
	models.SyncTypeWorkOrders:     {name: "sync-work-orders", unit: 60 * time.Second, timeout: 30 * time.Minute, priority: 5},
	models.SyncTypeMaterials:      {name: "sync-materials", unit: 60 * time.Second, timeout: 30 * time.Minute, priority: 5},
	models.SyncTypeDailyPlantData: {name: "sync-daily-plant-data", unit: 60 * time.Second, timeout: 30 * time.Minute, priority: 5},
	models.SyncTypeAll:            {name: "sync-all", unit: 120 * time.Second, timeout: 60 * time.Minute, priority: 1},
}

// Factory builds job definitions. TargetDate resolves the default running
// time date so the uniqueness key is fixed at dispatch.
type Factory struct {
	MaxAttempts int
	TargetDate  func(*time.Time) time.Time
	Now         func() time.Time
}

func (f Factory) New(syncType models.SyncType, params service.Params) (Definition, error) {
	k, ok := kinds[syncType]
	if !ok {
		return Definition{}, fmt.Errorf("job: %w %q", models.ErrUnknownSyncType, syncType)
	}
	attempts := f.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultMaxAttempts
	}
	now := time.Now().UTC()
	if f.Now != nil {
		now = f.Now().UTC()
	}
	def := Definition{
		ID:          uuid.NewString(),
		Name:        k.name,
		SyncType:    syncType,
		MaxAttempts: attempts,
		BackoffUnit: k.unit,
		Timeout:     k.timeout,
		Priority:    k.priority,
		Params:      params,
		EnqueuedAt:  now,
	}
	if syncType == models.SyncTypeRunningTime {
		day := f.targetDate(params.Date)
		def.Params.Date = &day
		def.UniqueKey = RunningTimeKey(day)
	}
	return def, nil
}

func (f Factory) targetDate(date *time.Time) time.Time {
	if f.TargetDate != nil {
		return f.TargetDate(date)
	}
	if date != nil {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	y := time.Now().UTC().AddDate(0, 0, -1)
	return time.Date(y.Year(), y.Month(), y.Day(), 0, 0, 0, 0, time.UTC)
}

func RunningTimeKey(day time.Time) string {
	return "sync-running-time:" + day.Format("2006-01-02")
}
