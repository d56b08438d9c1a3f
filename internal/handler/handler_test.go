package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/jobs"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/repository"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeDispatcher struct {
	calls []service.Params
	types []models.SyncType
	err   error
}

func (d *fakeDispatcher) Dispatch(_ context.Context, syncType models.SyncType, params service.Params) (jobs.Definition, error) {
	if d.err != nil {
		return jobs.Definition{}, d.err
	}
	d.types = append(d.types, syncType)
	d.calls = append(d.calls, params)
	return jobs.Definition{ID: "job-1", Name: "sync-" + string(syncType), SyncType: syncType}, nil
}

func newSyncEngine(d JobDispatcher, hook config.WebhookConfig) *gin.Engine {
	engine := gin.New()
	h := &SyncHandler{Jobs: d, Webhook: hook, Logger: zap.NewNop()}
	h.Register(engine)
	return engine
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestDispatchParsesParams(t *testing.T) {
	d := &fakeDispatcher{}
	engine := newSyncEngine(d, config.WebhookConfig{})

	body := `{"plant_codes":["P01","P02,P01"],"date":"2026-10-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/sync/running_time", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []models.SyncType{models.SyncTypeRunningTime}, d.types)
	require.Equal(t, []string{"P01", "P02"}, d.calls[0].PlantCodes)
	require.NotNil(t, d.calls[0].Date)
	require.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), *d.calls[0].Date)
}

func TestDispatchRejectsBadInput(t *testing.T) {
	engine := newSyncEngine(&fakeDispatcher{}, config.WebhookConfig{})

	cases := map[string]string{
		"/api/sync/bogus":     `{}`,
		"/api/sync/equipment": `{"start_date":"yesterday"}`,
		"/api/sync/all":       `{"start_date":"2026-10-10","end_date":"2026-10-01"}`,
	}
	for path, body := range cases {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)
		require.Equal(t, http.StatusBadRequest, rec.Code, path)
	}
}

func TestDispatchDuplicateIsConflict(t *testing.T) {
	d := &fakeDispatcher{err: fmt.Errorf("%w: sync-running-time:2026-10-16 held by x", jobs.ErrDuplicateJob)}
	engine := newSyncEngine(d, config.WebhookConfig{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sync/running_time", nil))

	require.Equal(t, http.StatusConflict, rec.Code)
	require.Contains(t, decode(t, rec).Message, "sync-running-time:2026-10-16")
}

func TestWebhookKey(t *testing.T) {
	hook := config.WebhookConfig{Key: "s3cret"}

	t.Run("header", func(t *testing.T) {
		d := &fakeDispatcher{}
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sync", nil)
		req.Header.Set("X-Webhook-Key", "s3cret")
		rec := httptest.NewRecorder()
		newSyncEngine(d, hook).ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Equal(t, []models.SyncType{models.SyncTypeAll}, d.types)
	})

	t.Run("form field", func(t *testing.T) {
		d := &fakeDispatcher{}
		form := url.Values{"api_key": {"s3cret"}, "type": {"equipment"}}
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sync", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		rec := httptest.NewRecorder()
		newSyncEngine(d, hook).ServeHTTP(rec, req)
		require.Equal(t, http.StatusAccepted, rec.Code)
		require.Equal(t, []models.SyncType{models.SyncTypeEquipment}, d.types)
	})

	t.Run("wrong key", func(t *testing.T) {
		d := &fakeDispatcher{}
		req := httptest.NewRequest(http.MethodPost, "/api/webhooks/sync", nil)
		req.Header.Set("X-Webhook-Key", "nope")
		rec := httptest.NewRecorder()
		newSyncEngine(d, hook).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, d.types)
	})

	t.Run("unconfigured allows", func(t *testing.T) {
		d := &fakeDispatcher{}
		rec := httptest.NewRecorder()
		newSyncEngine(d, config.WebhookConfig{}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/sync", nil))
		require.Equal(t, http.StatusAccepted, rec.Code)
	})

	t.Run("unconfigured but required", func(t *testing.T) {
		d := &fakeDispatcher{}
		rec := httptest.NewRecorder()
		newSyncEngine(d, config.WebhookConfig{RequireKey: true}).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/webhooks/sync", nil))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, d.types)
	})
}

type fakeLogs struct {
	items  []models.SyncLog
	params repository.ListSyncLogsParams
}

func (f *fakeLogs) List(_ context.Context, params repository.ListSyncLogsParams) ([]models.SyncLog, int64, error) {
	f.params = params
	return f.items, int64(len(f.items)), nil
}

func (f *fakeLogs) Get(_ context.Context, id uint64) (*models.SyncLog, error) {
	for i := range f.items {
		if f.items[i].ID == id {
			return &f.items[i], nil
		}
	}
	return nil, service.ErrSyncLogNotFound
}

func TestSyncLogRoutes(t *testing.T) {
	started := time.Date(2026, 10, 16, 1, 30, 0, 0, time.UTC)
	done := started.Add(90 * time.Second)
	logs := &fakeLogs{items: []models.SyncLog{{
		ID:               7,
		SyncType:         models.SyncTypeRunningTime,
		Status:           models.SyncStatusSuccess,
		StartedAt:        started,
		CompletedAt:      &done,
		RecordsProcessed: 4,
		RecordsCreated:   4,
	}}}
	engine := gin.New()
	(&SyncLogHandler{Logs: logs}).Register(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync-logs?type=running_time&status=SUCCESS&limit=10", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, models.SyncTypeRunningTime, *logs.params.SyncType)
	require.Equal(t, models.SyncStatusSuccess, *logs.params.Status)
	require.Equal(t, 10, logs.params.Limit)
	require.Contains(t, rec.Body.String(), `"duration_seconds":90`)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync-logs?type=nope", nil))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync-logs/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sync-logs/8", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeNotifications struct {
	repository.NotificationRepository
	readID uint64
}

func (f *fakeNotifications) MarkNotificationRead(_ context.Context, id uint64, _ time.Time) error {
	if id != 3 {
		return gorm.ErrRecordNotFound
	}
	f.readID = id
	return nil
}

func TestNotificationMarkRead(t *testing.T) {
	repo := &fakeNotifications{}
	engine := gin.New()
	(&NotificationHandler{Repo: repo}).Register(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/3/read", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uint64(3), repo.readID)

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/notifications/4/read", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadiness(t *testing.T) {
	engine := gin.New()
	(&HealthHandler{Checks: map[string]func(context.Context) error{
		"db":    func(context.Context) error { return nil },
		"locks": func(context.Context) error { return errors.New("dial tcp: refused") },
	}}).Register(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "locks")

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

type fakeSwitches struct {
	state map[string]bool
}

func (f *fakeSwitches) ListSwitches(context.Context) ([]service.Switch, error) {
	out := make([]service.Switch, 0, len(f.state))
	for k, v := range f.state {
		out = append(out, service.Switch{Key: k, Enabled: v})
	}
	return out, nil
}

func (f *fakeSwitches) IsEnabled(_ context.Context, key string, fallback bool) bool {
	if v, ok := f.state[key]; ok {
		return v
	}
	return fallback
}

func (f *fakeSwitches) SetEnabled(_ context.Context, key string, enabled bool) error {
	f.state[key] = enabled
	return nil
}

func TestSettingsSwitches(t *testing.T) {
	switches := &fakeSwitches{state: map[string]bool{}}
	engine := gin.New()
	(&SettingsHandler{Settings: switches}).Register(engine)

	req := httptest.NewRequest(http.MethodPut, "/api/settings/switches/sync.running_time", strings.NewReader(`{"enabled":false}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.False(t, switches.state["feature.sync.running_time"])

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/settings/switches/sync.running_time", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"enabled":false`)

	req = httptest.NewRequest(http.MethodPut, "/api/settings/switches/sync.equipment", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestJobStatus(t *testing.T) {
	tracker := jobs.NewTracker(time.Hour)
	def := jobs.Definition{ID: "job-7", Name: "sync-running-time", SyncType: models.SyncTypeRunningTime}
	tracker.Set(def, jobs.StateRetrying, 1, errors.New("remote api returned 503"))

	engine := gin.New()
	h := &SyncHandler{Jobs: &fakeDispatcher{}, Status: tracker, Logger: zap.NewNop()}
	h.Register(engine)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/job-7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	data := decode(t, rec).Data.(map[string]any)
	require.Equal(t, "retrying", data["state"])
	require.EqualValues(t, 1, data["attempt"])
	require.Equal(t, "remote api returned 503", data["error"])

	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/jobs/unknown", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}
