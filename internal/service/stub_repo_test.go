package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/client/remote"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/notification"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
)

// memRepo is an in-memory repository.Repository keyed like the real unique
// indexes.
type memRepo struct {
	mu sync.Mutex

	plants        []models.Plant
	groups        map[string]*models.EquipmentGroup
	equipment     map[string]*models.Equipment
	runningTimes  map[string]*models.EquipmentRunningTime
	workOrders    map[string]*models.WorkOrder
	materials     map[string]*models.EquipmentWorkOrderMaterial
	daily         map[string]*models.DailyPlantData
	logs          []*models.SyncLog
	notifications []models.OperatorNotification
	nextID        uint64
}

var _ repository.Repository = (*memRepo)(nil)

func newMemRepo(plants ...models.Plant) *memRepo {
	return &memRepo{
		plants:       plants,
		groups:       map[string]*models.EquipmentGroup{},
		equipment:    map[string]*models.Equipment{},
		runningTimes: map[string]*models.EquipmentRunningTime{},
		workOrders:   map[string]*models.WorkOrder{},
		materials:    map[string]*models.EquipmentWorkOrderMaterial{},
		daily:        map[string]*models.DailyPlantData{},
	}
}

func (m *memRepo) id() uint64 {
	m.nextID++
	return m.nextID
}

func (m *memRepo) ListActivePlants(context.Context) ([]models.Plant, error) {
	var out []models.Plant
	for _, p := range m.plants {
		if p.IsActive {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memRepo) FindPlantsByCodes(_ context.Context, codes []string) ([]models.Plant, error) {
	var out []models.Plant
	for _, p := range m.plants {
		for _, c := range codes {
			if p.PlantCode == c {
				out = append(out, p)
			}
		}
	}
	return out, nil
}

func (m *memRepo) ListActiveRegionCodes(context.Context) ([]string, error) {
	seen := map[string]struct{}{}
	var out []string
	for _, p := range m.plants {
		if !p.IsActive || p.Region == nil {
			continue
		}
		if _, ok := seen[p.Region.Code]; !ok {
			seen[p.Region.Code] = struct{}{}
			out = append(out, p.Region.Code)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *memRepo) FirstOrCreateEquipmentGroup(_ context.Context, code, name string) (*models.EquipmentGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groups[code]; ok {
		return g, nil
	}
	g := &models.EquipmentGroup{ID: m.id(), GroupCode: code, Name: name}
	m.groups[code] = g
	return g, nil
}

func (m *memRepo) FindEquipment(_ context.Context, plantID uint64, code string) (*models.Equipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.equipment[fmt.Sprintf("%d|%s", plantID, code)]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, nil
}

func upsertMem[T any](m *memRepo, rows map[string]*T, key string, item *T, idOf func(*T) *uint64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := rows[key]; ok {
		*idOf(item) = *idOf(existing)
		cp := *item
		rows[key] = &cp
		return false, nil
	}
	*idOf(item) = m.id()
	cp := *item
	rows[key] = &cp
	return true, nil
}

func (m *memRepo) UpsertEquipment(_ context.Context, item *models.Equipment) (bool, error) {
	return upsertMem(m, m.equipment, fmt.Sprintf("%d|%s", item.PlantID, item.EquipmentCode), item,
		func(e *models.Equipment) *uint64 { return &e.ID })
}

func (m *memRepo) UpsertRunningTime(_ context.Context, item *models.EquipmentRunningTime) (bool, error) {
	return upsertMem(m, m.runningTimes, fmt.Sprintf("%d|%s", item.EquipmentID, item.Date.Format("2006-01-02")), item,
		func(e *models.EquipmentRunningTime) *uint64 { return &e.ID })
}

func (m *memRepo) UpsertWorkOrder(_ context.Context, item *models.WorkOrder) (bool, error) {
	return upsertMem(m, m.workOrders, item.OrderNumber, item,
		func(e *models.WorkOrder) *uint64 { return &e.ID })
}

func (m *memRepo) UpsertEquipmentMaterial(_ context.Context, item *models.EquipmentWorkOrderMaterial) (bool, error) {
	return upsertMem(m, m.materials, item.ReservationNumber+"|"+item.ReservationItem, item,
		func(e *models.EquipmentWorkOrderMaterial) *uint64 { return &e.ID })
}

func (m *memRepo) UpsertDailyPlantData(_ context.Context, item *models.DailyPlantData) (bool, error) {
	return upsertMem(m, m.daily, fmt.Sprintf("%d|%s", item.PlantID, item.Date.Format("2006-01-02")), item,
		func(e *models.DailyPlantData) *uint64 { return &e.ID })
}

func (m *memRepo) InsertSyncLog(_ context.Context, item *models.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	cp := *item
	m.logs = append(m.logs, &cp)
	return nil
}

func (m *memRepo) SaveSyncLog(_ context.Context, item *models.SyncLog) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.logs {
		if l.ID == item.ID {
			cp := *item
			m.logs[i] = &cp
			return nil
		}
	}
	return fmt.Errorf("sync log %d not found", item.ID)
}

func (m *memRepo) GetSyncLog(_ context.Context, id uint64) (*models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.logs {
		if l.ID == id {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) LatestSyncLogByJob(_ context.Context, jobID string) (*models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.logs) - 1; i >= 0; i-- {
		if l := m.logs[i]; l.JobID != nil && *l.JobID == jobID {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRepo) ListSyncLogs(context.Context, repository.ListSyncLogsParams) ([]models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.SyncLog, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, *l)
	}
	return out, nil
}

func (m *memRepo) CountSyncLogs(context.Context, repository.ListSyncLogsParams) (int64, error) {
	return int64(len(m.logs)), nil
}

func (m *memRepo) ListRunningSyncLogsBefore(_ context.Context, before time.Time) ([]models.SyncLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SyncLog
	for _, l := range m.logs {
		if l.Status == models.SyncStatusRunning && l.StartedAt.Before(before) {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (m *memRepo) DeleteSyncLogsBefore(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.logs[:0]
	var deleted int64
	for _, l := range m.logs {
		if l.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, l)
	}
	m.logs = kept
	return deleted, nil
}

func (m *memRepo) InsertNotification(_ context.Context, item *models.OperatorNotification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item.ID = m.id()
	m.notifications = append(m.notifications, *item)
	return nil
}

func (m *memRepo) ListNotifications(context.Context, repository.ListNotificationsParams) ([]models.OperatorNotification, error) {
	return m.notifications, nil
}

func (m *memRepo) CountNotifications(context.Context, repository.ListNotificationsParams) (int64, error) {
	return int64(len(m.notifications)), nil
}

func (m *memRepo) MarkNotificationRead(context.Context, uint64, time.Time) error {
	return nil
}

func (m *memRepo) log(id uint64) models.SyncLog {
	l, _ := m.GetSyncLog(context.Background(), id)
	if l == nil {
		return models.SyncLog{}
	}
	return *l
}

type fetchCall struct {
	targets []string
	dr      remote.DateRange
}

type fakeSource struct {
	records  []remote.Record
	report   remote.FetchReport
	err      error
	byRegion bool
	calls    []fetchCall
}

func (f *fakeSource) Fetch(_ context.Context, targets []string, dr remote.DateRange) ([]remote.Record, remote.FetchReport, error) {
	f.calls = append(f.calls, fetchCall{targets: targets, dr: dr})
	if f.err != nil {
		return nil, f.report, f.err
	}
	return f.records, f.report, nil
}

func (f *fakeSource) ByRegion() bool { return f.byRegion }

func newTestSyncService(repo *memRepo, sources map[models.SyncType]RecordSource) *SyncService {
	now := time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	return &SyncService{
		Repo:     repo,
		Sources:  sources,
		Logs:     &SyncLogService{Repo: repo, Now: clock},
		Location: time.FixedZone("WIB", 7*3600),
		Now:      clock,
	}
}

func plant(id uint64, code string, region *models.Region) models.Plant {
	p := models.Plant{ID: id, PlantCode: code, Name: code, IsActive: true, Region: region}
	if region != nil {
		rid := region.ID
		p.RegionID = &rid
	}
	return p
}

var _ notification.Notifier = (*recordingNotifier)(nil)

type recordingNotifier struct {
	msgs []notification.Message
}

func (r *recordingNotifier) Notify(_ context.Context, msgs ...notification.Message) error {
	r.msgs = append(r.msgs, msgs...)
	return nil
}
