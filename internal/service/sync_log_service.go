package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

var ErrSyncLogNotFound = errors.New("sync log not found")

// SyncLogService owns the lifecycle of sync_logs rows.
type SyncLogService struct {
	Repo              repository.SyncLogRepository
	Logger            *zap.Logger
	MaxFailureDetails int
	Now               func() time.Time
}

type RecordFailure struct {
	Key    string `json:"key,omitempty"`
	Reason string `json:"reason"`
}

type FetchFailure struct {
	Target string `json:"target"`
	Error  string `json:"error"`
}

// Tally accumulates the counters of one run.
type Tally struct {
	Processed     int
	Created       int
	Updated       int
	Failed        int
	Failures      []RecordFailure
	FetchFailures []FetchFailure
	Targets       []string

	// OutOfScope counts regional records for plants the caller did not ask for.
	OutOfScope int
}

func (t *Tally) fail(key, reason string) {
	t.Failed++
	t.Failures = append(t.Failures, RecordFailure{Key: key, Reason: reason})
}

func (t *Tally) noteFetch(report remote.FetchReport) {
	for _, f := range report.Failed {
		t.FetchFailures = append(t.FetchFailures, FetchFailure{Target: f.Target, Error: f.Err.Error()})
	}
}

type logDetails struct {
	Targets           []string        `json:"targets,omitempty"`
	Failures          []RecordFailure `json:"failures,omitempty"`
	FailuresTruncated int             `json:"failures_truncated,omitempty"`
	FetchFailures     []FetchFailure  `json:"fetch_failures,omitempty"`
	OutOfScope        int             `json:"out_of_scope,omitempty"`
}

func (s *SyncLogService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SyncLogService) Start(ctx context.Context, syncType models.SyncType, jobID string, attempt int) (*models.SyncLog, error) {
	if attempt < 1 {
		attempt = 1
	}
	item := &models.SyncLog{
		SyncType:  syncType,
		Status:    models.SyncStatusRunning,
		StartedAt: s.now(),
		JobID:     strPtr(jobID),
		Attempt:   attempt,
	}
	if err := s.Repo.InsertSyncLog(ctx, item); err != nil {
		return nil, fmt.Errorf("insert sync log: %w", err)
	}
	return item, nil
}

func (s *SyncLogService) Finish(ctx context.Context, item *models.SyncLog, tally Tally) error {
	s.apply(item, tally)
	item.Status = models.SyncStatusSuccess
	return s.save(ctx, item)
}

// Fail marks the run failed with cause. It still persists when ctx has
// expired, since an attempt timeout is the usual reason for failing.
func (s *SyncLogService) Fail(ctx context.Context, item *models.SyncLog, tally Tally, cause error) error {
	s.apply(item, tally)
	item.Status = models.SyncStatusFailed
	if cause != nil {
		item.ErrorMessage = strPtr(cause.Error())
	}
	return s.save(context.WithoutCancel(ctx), item)
}

// MarkPermanentFailure flags the job's latest unsuccessful row as permanently
// failed, or writes a new failed row when the job left none.
func (s *SyncLogService) MarkPermanentFailure(ctx context.Context, syncType models.SyncType, jobID string, attempts int, cause error) (*models.SyncLog, error) {
	ctx = context.WithoutCancel(ctx)
	now := s.now()
	latest, err := s.Repo.LatestSyncLogByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("load latest sync log: %w", err)
	}
	if latest != nil && latest.Status != models.SyncStatusSuccess {
		latest.Status = models.SyncStatusFailed
		latest.PermanentlyFailed = true
		if latest.CompletedAt == nil {
			latest.CompletedAt = &now
		}
		if latest.ErrorMessage == nil && cause != nil {
			latest.ErrorMessage = strPtr(cause.Error())
		}
		if err := s.save(ctx, latest); err != nil {
			return nil, err
		}
		return latest, nil
	}

	if attempts < 1 {
		attempts = 1
	}
	item := &models.SyncLog{
		SyncType:          syncType,
		Status:            models.SyncStatusFailed,
		StartedAt:         now,
		CompletedAt:       &now,
		JobID:             strPtr(jobID),
		Attempt:           attempts,
		PermanentlyFailed: true,
	}
	if cause != nil {
		item.ErrorMessage = strPtr(cause.Error())
	}
	if err := s.Repo.InsertSyncLog(ctx, item); err != nil {
		return nil, fmt.Errorf("insert sync log: %w", err)
	}
	return item, nil
}

func (s *SyncLogService) List(ctx context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, int64, error) {
	items, err := s.Repo.ListSyncLogs(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.Repo.CountSyncLogs(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (s *SyncLogService) Get(ctx context.Context, id uint64) (*models.SyncLog, error) {
	item, err := s.Repo.GetSyncLog(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrSyncLogNotFound
	}
	return item, nil
}

func (s *SyncLogService) apply(item *models.SyncLog, tally Tally) {
	now := s.now()
	item.CompletedAt = &now
	item.RecordsProcessed = tally.Processed
	item.RecordsCreated = tally.Created
	item.RecordsUpdated = tally.Updated
	item.RecordsSuccess = tally.Created + tally.Updated
	item.RecordsFailed = tally.Failed
	item.Details = s.details(tally)
}

func (s *SyncLogService) details(tally Tally) datatypes.JSON {
	limit := s.MaxFailureDetails
	if limit <= 0 {
		limit = 50
	}
	d := logDetails{Targets: tally.Targets, FetchFailures: tally.FetchFailures, OutOfScope: tally.OutOfScope}
	d.Failures = tally.Failures
	if len(d.Failures) > limit {
		d.FailuresTruncated = len(d.Failures) - limit
		d.Failures = d.Failures[:limit]
	}
	if len(d.Targets) == 0 && len(d.Failures) == 0 && len(d.FetchFailures) == 0 && d.OutOfScope == 0 {
		return nil
	}
	b, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func (s *SyncLogService) save(ctx context.Context, item *models.SyncLog) error {
	if err := s.Repo.SaveSyncLog(ctx, item); err != nil {
		if s.Logger != nil {
			s.Logger.Error("save sync log failed",
				zap.Uint64("sync_log_id", item.ID),
				zap.String("sync_type", string(item.SyncType)),
				zap.Error(err),
			)
		}
		return fmt.Errorf("save sync log: %w", err)
	}
	return nil
}
