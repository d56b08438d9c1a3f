package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/metrics"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/validation"
)

var ErrNoPlants = errors.New("no plants to sync")

// RecordSource fetches the raw records of one entity type. Targets are plant
// codes unless ByRegion reports true, in which case they are regional codes.
type RecordSource interface {
	Fetch(ctx context.Context, targets []string, dr remote.DateRange) ([]remote.Record, remote.FetchReport, error)
	ByRegion() bool
}

// Params selects what a sync run covers. Zero values fall back to the
// per-type defaults.
type Params struct {
	PlantCodes []string
	Date       *time.Time
	StartDate  *time.Time
	EndDate    *time.Time
	Types      []models.SyncType
	JobID      string
	Attempt    int
}

type Result struct {
	Type          models.SyncType `json:"type"`
	Success       bool            `json:"success"`
	Processed     int             `json:"processed"`
	Created       int             `json:"created"`
	Updated       int             `json:"updated"`
	Errors        int             `json:"errors"`
	FetchFailures int             `json:"fetch_failures"`
	OutOfScope    int             `json:"out_of_scope,omitempty"`
	Duration      time.Duration   `json:"duration"`
	SyncLogID     uint64          `json:"sync_log_id"`
	Error         string          `json:"error,omitempty"`
	Failures      []RecordFailure `json:"-"`
}

type AllResult struct {
	Success  bool          `json:"success"`
	Results  []Result      `json:"results"`
	Duration time.Duration `json:"duration"`
}

func (r AllResult) Totals() (created, updated, errs int) {
	for _, res := range r.Results {
		created += res.Created
		updated += res.Updated
		errs += res.Errors
	}
	return created, updated, errs
}

type SyncService struct {
	Repo    repository.Repository
	Sources map[models.SyncType]RecordSource
	Logs    *SyncLogService
	Logger  *zap.Logger

	Location              *time.Location
	WorkOrderLookbackDays int
	RegionalCodes         []string
	Now                   func() time.Time
}

type entitySync struct {
	syncType models.SyncType
	upsert   func(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error)
}

// runState holds caches that live for one run.
type runState struct {
	now       time.Time
	equipment map[string]*uint64
}

// recordError is a per-record failure that is tallied instead of aborting
// the run.
type recordError struct {
	reason string
}

func (e recordError) Error() string { return e.reason }

func skip(format string, args ...any) error {
	return recordError{reason: fmt.Sprintf(format, args...)}
}

func (s *SyncService) SyncEquipment(ctx context.Context, params Params) (Result, error) {
	return s.run(ctx, entitySync{syncType: models.SyncTypeEquipment, upsert: s.upsertEquipment}, params, remote.DateRange{})
}

// SyncRunningTime syncs one day of counter readings. Params.Date defaults to
// yesterday in the configured timezone.
func (s *SyncService) SyncRunningTime(ctx context.Context, params Params) (Result, error) {
	day := s.TargetDate(params.Date)
	return s.run(ctx, entitySync{syncType: models.SyncTypeRunningTime, upsert: s.upsertRunningTime}, params, remote.DateRange{Start: day, End: day})
}

// SyncWorkOrders syncs orders created within Params.StartDate..EndDate,
// defaulting to the last WorkOrderLookbackDays days.
func (s *SyncService) SyncWorkOrders(ctx context.Context, params Params) (Result, error) {
	dr := s.rangeOf(params)
	if dr.Start.IsZero() && dr.End.IsZero() {
		days := s.WorkOrderLookbackDays
		if days <= 0 {
			days = 7
		}
		today := s.today()
		dr = remote.DateRange{Start: today.AddDate(0, 0, -days), End: today}
	}
	return s.run(ctx, entitySync{syncType: models.SyncTypeWorkOrders, upsert: s.upsertWorkOrder}, params, dr)
}

func (s *SyncService) SyncEquipmentMaterials(ctx context.Context, params Params) (Result, error) {
	return s.run(ctx, entitySync{syncType: models.SyncTypeMaterials, upsert: s.upsertMaterial}, params, s.rangeOf(params))
}

// SyncDailyPlantData syncs the regional summaries for Params.Date (default
// yesterday), or for the explicit range when one is given.
func (s *SyncService) SyncDailyPlantData(ctx context.Context, params Params) (Result, error) {
	dr := s.rangeOf(params)
	if dr.Start.IsZero() && dr.End.IsZero() {
		day := s.TargetDate(params.Date)
		dr = remote.DateRange{Start: day, End: day}
	}
	return s.run(ctx, entitySync{syncType: models.SyncTypeDailyPlantData, upsert: s.upsertDailyPlantData}, params, dr)
}

// Sync runs a single entity type.
func (s *SyncService) Sync(ctx context.Context, syncType models.SyncType, params Params) (Result, error) {
	switch syncType {
	case models.SyncTypeEquipment:
		return s.SyncEquipment(ctx, params)
	case models.SyncTypeRunningTime:
		return s.SyncRunningTime(ctx, params)
	case models.SyncTypeWorkOrders:
		return s.SyncWorkOrders(ctx, params)
	case models.SyncTypeMaterials:
		return s.SyncEquipmentMaterials(ctx, params)
	case models.SyncTypeDailyPlantData:
		return s.SyncDailyPlantData(ctx, params)
	default:
		return Result{Type: syncType}, fmt.Errorf("sync: %w %q", models.ErrUnknownSyncType, syncType)
	}
}

// SyncAllSequentially runs Params.Types (all entity types when empty) one
// after another. A failing type does not stop the ones after it; the
// returned error joins every hard failure.
func (s *SyncService) SyncAllSequentially(ctx context.Context, params Params) (AllResult, error) {
	start := s.now()
	types := params.Types
	if len(types) == 0 {
		types = models.EntitySyncTypes()
	}
	out := AllResult{Success: true}
	var errs []error
	for _, t := range types {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			out.Success = false
			break
		}
		res, err := s.Sync(ctx, t, params)
		out.Results = append(out.Results, res)
		if err != nil {
			out.Success = false
			errs = append(errs, fmt.Errorf("%s: %w", t, err))
		}
	}
	out.Duration = s.now().Sub(start)
	return out, errors.Join(errs...)
}

func (s *SyncService) run(ctx context.Context, es entitySync, params Params, dr remote.DateRange) (Result, error) {
	start := s.now()
	result := Result{Type: es.syncType}
	logger := s.logger().With(zap.String("sync_type", string(es.syncType)), zap.String("job_id", params.JobID))

	source := s.Sources[es.syncType]
	if source == nil {
		return result, fmt.Errorf("no source configured for %s", es.syncType)
	}

	log, err := s.Logs.Start(ctx, es.syncType, params.JobID, params.Attempt)
	if err != nil {
		return result, err
	}
	result.SyncLogID = log.ID

	var tally Tally
	fail := func(cause error) (Result, error) {
		if err := s.Logs.Fail(ctx, log, tally, cause); err != nil {
			logger.Error("record failed sync run", zap.Error(err))
		}
		s.fill(&result, tally, start)
		result.Error = cause.Error()
		metrics.SyncRuns.WithLabelValues(string(es.syncType), string(models.SyncStatusFailed)).Inc()
		logger.Warn("sync run failed", zap.Uint64("sync_log_id", log.ID), zap.Error(cause))
		return result, cause
	}

	plants, err := s.resolvePlants(ctx, params.PlantCodes)
	if err != nil {
		return fail(fmt.Errorf("resolve plants: %w", err))
	}
	if len(plants) == 0 {
		return fail(ErrNoPlants)
	}

	targets := plantCodes(plants)
	if source.ByRegion() {
		targets, err = s.regionTargets(ctx, plants, len(params.PlantCodes) > 0)
		if err != nil {
			return fail(fmt.Errorf("resolve regions: %w", err))
		}
	}
	tally.Targets = targets

	records, report, err := source.Fetch(ctx, targets, dr)
	tally.noteFetch(report)
	if err != nil {
		return fail(fmt.Errorf("fetch %s: %w", es.syncType, err))
	}

	v := validation.New(s.Repo)
	v.Prime(plants)
	var only map[string]struct{}
	if source.ByRegion() && len(params.PlantCodes) > 0 {
		only = make(map[string]struct{}, len(plants))
		for _, p := range plants {
			only[p.PlantCode] = struct{}{}
		}
	}

	run := &runState{now: start, equipment: map[string]*uint64{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return fail(err)
		}
		if only != nil {
			if _, ok := only[validation.PlantCode(rec)]; !ok {
				tally.OutOfScope++
				continue
			}
		}
		tally.Processed++
		key := recordKey(es.syncType, rec)

		res, err := v.Validate(ctx, es.syncType, rec)
		if err != nil {
			return fail(err)
		}
		if !res.Valid {
			tally.fail(key, res.Reason)
			continue
		}

		created, err := es.upsert(ctx, run, res, rec)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return fail(ctxErr)
			}
			var rerr recordError
			if !errors.As(err, &rerr) {
				logger.Warn("record upsert failed", zap.String("key", key), zap.Error(err))
			}
			tally.fail(key, err.Error())
			continue
		}
		if created {
			tally.Created++
		} else {
			tally.Updated++
		}
	}

	if err := s.Logs.Finish(ctx, log, tally); err != nil {
		return fail(err)
	}
	s.fill(&result, tally, start)
	result.Success = true

	metrics.SyncRuns.WithLabelValues(string(es.syncType), string(models.SyncStatusSuccess)).Inc()
	metrics.SyncRecords.WithLabelValues(string(es.syncType), "created").Add(float64(tally.Created))
	metrics.SyncRecords.WithLabelValues(string(es.syncType), "updated").Add(float64(tally.Updated))
	metrics.SyncRecords.WithLabelValues(string(es.syncType), "failed").Add(float64(tally.Failed))
	metrics.SyncDuration.WithLabelValues(string(es.syncType)).Observe(result.Duration.Seconds())
	logger.Info("sync run completed",
		zap.Uint64("sync_log_id", log.ID),
		zap.Int("processed", tally.Processed),
		zap.Int("created", tally.Created),
		zap.Int("updated", tally.Updated),
		zap.Int("failed", tally.Failed),
		zap.Int("out_of_scope", tally.OutOfScope),
		zap.Int("fetch_failures", len(tally.FetchFailures)),
		zap.Duration("duration", result.Duration),
	)
	return result, nil
}

func (s *SyncService) fill(result *Result, tally Tally, start time.Time) {
	result.Processed = tally.Processed
	result.Created = tally.Created
	result.Updated = tally.Updated
	result.Errors = tally.Failed
	result.FetchFailures = len(tally.FetchFailures)
	result.OutOfScope = tally.OutOfScope
	result.Failures = tally.Failures
	result.Duration = s.now().Sub(start)
}

func (s *SyncService) resolvePlants(ctx context.Context, codes []string) ([]models.Plant, error) {
	if len(codes) > 0 {
		return s.Repo.FindPlantsByCodes(ctx, codes)
	}
	return s.Repo.ListActivePlants(ctx)
}

// regionTargets uses the configured regional codes unless the caller named
// plants, in which case only their regions are fetched.
func (s *SyncService) regionTargets(ctx context.Context, plants []models.Plant, explicit bool) ([]string, error) {
	if explicit {
		seen := map[string]struct{}{}
		var out []string
		for _, p := range plants {
			if p.Region == nil || p.Region.Code == "" {
				continue
			}
			if _, ok := seen[p.Region.Code]; ok {
				continue
			}
			seen[p.Region.Code] = struct{}{}
			out = append(out, p.Region.Code)
		}
		return out, nil
	}
	if len(s.RegionalCodes) > 0 {
		return s.RegionalCodes, nil
	}
	return s.Repo.ListActiveRegionCodes(ctx)
}

func (s *SyncService) upsertEquipment(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error) {
	p := res.Payload.(validation.EquipmentPayload)
	name := p.Name
	if name == "" {
		name = p.EquipmentCode
	}
	item := &models.Equipment{
		PlantID:            res.Plant.ID,
		EquipmentCode:      p.EquipmentCode,
		Name:               name,
		FunctionalLocation: validation.OptionalString(p.FunctionalLocation),
		Manufacturer:       validation.OptionalString(p.Manufacturer),
		SerialNumber:       validation.OptionalString(p.SerialNumber),
		CostCenter:         validation.OptionalString(p.CostCenter),
		IsActive:           validation.Flag(p.IsActive, true),
		RawJSON:            rawJSON(rec),
		LastSyncedAt:       &run.now,
	}
	if p.GroupCode != "" {
		group, err := s.Repo.FirstOrCreateEquipmentGroup(ctx, p.GroupCode, p.GroupName)
		if err != nil {
			return false, fmt.Errorf("equipment group %s: %w", p.GroupCode, err)
		}
		item.EquipmentGroupID = &group.ID
	}
	created, err := s.Repo.UpsertEquipment(ctx, item)
	if err == nil {
		id := item.ID
		run.equipment[equipmentKey(res.Plant.ID, p.EquipmentCode)] = &id
	}
	return created, err
}

func (s *SyncService) upsertRunningTime(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error) {
	p := res.Payload.(validation.RunningTimePayload)
	equipmentID, err := s.equipmentID(ctx, run, res.Plant.ID, p.EquipmentCode)
	if err != nil {
		return false, err
	}
	if equipmentID == nil {
		return false, skip("equipment %s not found in plant %s", p.EquipmentCode, res.Plant.PlantCode)
	}
	day, _ := validation.ParseDate(p.Date)
	item := &models.EquipmentRunningTime{
		EquipmentID:    *equipmentID,
		Date:           day,
		PlantID:        res.Plant.ID,
		CounterReading: validation.Decimal(p.CounterReading),
		RunningHours:   validation.Decimal(p.RunningHours),
		RawJSON:        rawJSON(rec),
		LastSyncedAt:   &run.now,
	}
	return s.Repo.UpsertRunningTime(ctx, item)
}

func (s *SyncService) upsertWorkOrder(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error) {
	p := res.Payload.(validation.WorkOrderPayload)
	equipmentID, err := s.equipmentID(ctx, run, res.Plant.ID, p.EquipmentCode)
	if err != nil {
		return false, err
	}
	item := &models.WorkOrder{
		OrderNumber:     p.OrderNumber,
		PlantID:         res.Plant.ID,
		EquipmentID:     equipmentID,
		OrderType:       validation.OptionalString(p.OrderType),
		Description:     validation.OptionalString(p.Description),
		Status:          validation.OptionalString(p.Status),
		CreatedOn:       validation.OptionalDate(p.CreatedOn),
		BasicStartDate:  validation.OptionalDate(p.BasicStartDate),
		BasicFinishDate: validation.OptionalDate(p.BasicFinishDate),
		RawJSON:         rawJSON(rec),
		LastSyncedAt:    &run.now,
	}
	return s.Repo.UpsertWorkOrder(ctx, item)
}

func (s *SyncService) upsertMaterial(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error) {
	p := res.Payload.(validation.MaterialPayload)
	equipmentID, err := s.equipmentID(ctx, run, res.Plant.ID, p.EquipmentCode)
	if err != nil {
		return false, err
	}
	item := &models.EquipmentWorkOrderMaterial{
		ReservationNumber:   p.ReservationNumber,
		ReservationItem:     p.ReservationItem,
		PlantID:             res.Plant.ID,
		EquipmentID:         equipmentID,
		OrderNumber:         validation.OptionalString(p.OrderNumber),
		MaterialNumber:      validation.OptionalString(p.MaterialNumber),
		MaterialDescription: validation.OptionalString(p.MaterialDescription),
		RequirementQuantity: validation.Decimal(p.RequirementQuantity),
		WithdrawnQuantity:   validation.Decimal(p.WithdrawnQuantity),
		Unit:                validation.OptionalString(p.Unit),
		RequirementDate:     validation.OptionalDate(p.RequirementDate),
		RawJSON:             rawJSON(rec),
		LastSyncedAt:        &run.now,
	}
	return s.Repo.UpsertEquipmentMaterial(ctx, item)
}

func (s *SyncService) upsertDailyPlantData(ctx context.Context, run *runState, res validation.Result, rec remote.Record) (bool, error) {
	p := res.Payload.(validation.DailyPlantDataPayload)
	day, _ := validation.ParseDate(p.Date)
	regional := p.RegionalCode
	if regional == "" && res.Plant.Region != nil {
		regional = res.Plant.Region.Code
	}
	item := &models.DailyPlantData{
		PlantID:          res.Plant.ID,
		Date:             day,
		RegionalCode:     regional,
		ProcessedTonnage: validation.Decimal(p.ProcessedTonnage),
		OperatingHours:   validation.Decimal(p.OperatingHours),
		IsOperating:      validation.Flag(p.IsOperating, validation.Decimal(p.OperatingHours).IsPositive()),
		Notes:            validation.OptionalString(p.Notes),
		RawJSON:          rawJSON(rec),
		LastSyncedAt:     &run.now,
	}
	return s.Repo.UpsertDailyPlantData(ctx, item)
}

// equipmentID resolves an equipment code within a plant. It returns nil for
// an empty code or an unknown equipment.
func (s *SyncService) equipmentID(ctx context.Context, run *runState, plantID uint64, code string) (*uint64, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, nil
	}
	key := equipmentKey(plantID, code)
	if id, ok := run.equipment[key]; ok {
		return id, nil
	}
	item, err := s.Repo.FindEquipment(ctx, plantID, code)
	if err != nil {
		return nil, fmt.Errorf("lookup equipment %s: %w", code, err)
	}
	var id *uint64
	if item != nil {
		v := item.ID
		id = &v
	}
	run.equipment[key] = id
	return id, nil
}

// TargetDate returns date truncated to a calendar day, or yesterday in the
// configured timezone when date is nil.
func (s *SyncService) TargetDate(date *time.Time) time.Time {
	if date != nil && !date.IsZero() {
		return time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	}
	return s.today().AddDate(0, 0, -1)
}

func (s *SyncService) today() time.Time {
	loc := s.Location
	if loc == nil {
		loc = time.UTC
	}
	now := s.now().In(loc)
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}

func (s *SyncService) rangeOf(params Params) remote.DateRange {
	var dr remote.DateRange
	if params.StartDate != nil {
		dr.Start = *params.StartDate
	}
	if params.EndDate != nil {
		dr.End = *params.EndDate
	}
	return dr
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *SyncService) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func plantCodes(plants []models.Plant) []string {
	out := make([]string, 0, len(plants))
	for _, p := range plants {
		out = append(out, p.PlantCode)
	}
	return out
}

func equipmentKey(plantID uint64, code string) string {
	return fmt.Sprintf("%d|%s", plantID, code)
}

// recordKey names a record in failure details by its natural key.
func recordKey(syncType models.SyncType, rec remote.Record) string {
	if key, ok := naturalKeys[syncType]; ok {
		return key(rec)
	}
	return ""
}

func rawJSON(rec remote.Record) datatypes.JSON {
	b, err := json.Marshal(rec)
	if err != nil {
		return nil
	}
	return datatypes.JSON(b)
}

func strPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}
