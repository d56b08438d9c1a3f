package gormrepository

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"gorm.io/gorm"

	"github.com/fhrrrzy/neo-cmms-sub001/internal/config"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/db"
	"github.com/fhrrrzy/neo-cmms-sub001/internal/models"
)

var (
	pgOnce      sync.Once
	pgContainer *postgres.PostgresContainer
	pgDSN       string
	pgErr       error
)

func TestMain(m *testing.M) {
	code := m.Run()
	if pgContainer != nil {
		_ = pgContainer.Terminate(context.Background())
	}
	os.Exit(code)
}

// newTestStore returns a store on a freshly truncated postgres schema. The
// container is shared by every test in the package.
func newTestStore(t *testing.T) (*Store, *gorm.DB) {
	t.Helper()
	if testing.Short() {
		t.Skip("postgres integration test")
	}
	tc.SkipIfProviderIsNotHealthy(t)

	ctx := context.Background()
	pgOnce.Do(func() {
		pgContainer, pgErr = postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("cmms"),
			postgres.WithUsername("cmms"),
			postgres.WithPassword("cmms"),
			postgres.BasicWaitStrategies(),
		)
		if pgErr != nil {
			return
		}
		pgDSN, pgErr = pgContainer.ConnectionString(ctx, "sslmode=disable")
	})
	require.NoError(t, pgErr)

	conn, err := db.Open(config.DBConfig{DSN: pgDSN})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(conn) })
	require.NoError(t, db.AutoMigrate(conn))
	require.NoError(t, conn.Gorm.Exec(`TRUNCATE regions, plants, equipment_groups, equipments,
		equipment_running_times, work_orders, equipment_work_order_materials, daily_plant_data,
		sync_logs, operator_notifications, system_settings RESTART IDENTITY CASCADE`).Error)
	return New(conn.Gorm), conn.Gorm
}

func seedPlant(t *testing.T, gdb *gorm.DB, code string) models.Plant {
	t.Helper()
	p := models.Plant{PlantCode: code, Name: code, IsActive: true}
	require.NoError(t, gdb.Create(&p).Error)
	return p
}

func countRows(t *testing.T, gdb *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, gdb.Model(model).Count(&n).Error)
	return n
}

func TestUpsertEquipment_CreatesThenUpdatesInPlace(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()
	p := seedPlant(t, gdb, "PLT001")

	first := &models.Equipment{PlantID: p.ID, EquipmentCode: "EQ-100", Name: "Pump", IsActive: true}
	created, err := store.UpsertEquipment(ctx, first)
	require.NoError(t, err)
	require.True(t, created)
	require.NotZero(t, first.ID)

	second := &models.Equipment{PlantID: p.ID, EquipmentCode: "EQ-100", Name: "Pump (rebuilt)", IsActive: false}
	created, err = store.UpsertEquipment(ctx, second)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	got, err := store.FindEquipment(ctx, p.ID, "EQ-100")
	require.NoError(t, err)
	require.Equal(t, "Pump (rebuilt)", got.Name)
	require.False(t, got.IsActive)
	require.EqualValues(t, 1, countRows(t, gdb, &models.Equipment{}))
}

func TestUpsertEquipment_ConcurrentInsertBecomesUpdate(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()
	p := seedPlant(t, gdb, "PLT001")

	// Another writer inserts the same natural key between the lookup and
	// the create.
	var fired atomic.Bool
	const name = "test:concurrent_insert"
	require.NoError(t, gdb.Callback().Create().Before("gorm:create").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table != "equipments" || !fired.CompareAndSwap(false, true) {
			return
		}
		err := gdb.Exec(`INSERT INTO equipments (plant_id, equipment_code, name, is_active, created_at, updated_at)
			VALUES (?, ?, ?, true, now(), now())`, p.ID, "EQ-200", "inserted elsewhere").Error
		if err != nil {
			_ = tx.AddError(err)
		}
	}))
	t.Cleanup(func() { _ = gdb.Callback().Create().Remove(name) })

	item := &models.Equipment{PlantID: p.ID, EquipmentCode: "EQ-200", Name: "Compressor", IsActive: true}
	created, err := store.UpsertEquipment(ctx, item)
	require.NoError(t, err)
	require.False(t, created)
	require.True(t, fired.Load())

	got, err := store.FindEquipment(ctx, p.ID, "EQ-200")
	require.NoError(t, err)
	require.Equal(t, got.ID, item.ID)
	require.Equal(t, "Compressor", got.Name)
	require.EqualValues(t, 1, countRows(t, gdb, &models.Equipment{}))
}

func TestUpsertRunningTime_KeyIncludesDate(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()
	p := seedPlant(t, gdb, "PLT001")
	eq := &models.Equipment{PlantID: p.ID, EquipmentCode: "EQ-1", Name: "EQ-1", IsActive: true}
	_, err := store.UpsertEquipment(ctx, eq)
	require.NoError(t, err)

	day := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	for _, d := range []time.Time{day, day, day.AddDate(0, 0, 1)} {
		_, err := store.UpsertRunningTime(ctx, &models.EquipmentRunningTime{EquipmentID: eq.ID, PlantID: p.ID, Date: d})
		require.NoError(t, err)
	}
	require.EqualValues(t, 2, countRows(t, gdb, &models.EquipmentRunningTime{}))
}

func TestFirstOrCreateEquipmentGroup_ReusesExisting(t *testing.T) {
	store, gdb := newTestStore(t)
	ctx := context.Background()

	g1, err := store.FirstOrCreateEquipmentGroup(ctx, "PMP", "Pumps")
	require.NoError(t, err)
	g2, err := store.FirstOrCreateEquipmentGroup(ctx, " PMP ", "Other name")
	require.NoError(t, err)
	require.Equal(t, g1.ID, g2.ID)
	require.Equal(t, "Pumps", g2.Name)

	g3, err := store.FirstOrCreateEquipmentGroup(ctx, "CMP", "")
	require.NoError(t, err)
	require.Equal(t, "CMP", g3.Name)
	require.EqualValues(t, 2, countRows(t, gdb, &models.EquipmentGroup{}))

	_, err = store.FirstOrCreateEquipmentGroup(ctx, "  ", "blank")
	require.Error(t, err)
}

func TestLatestSyncLogByJob_NewestStartThenHighestID(t *testing.T) {
	store, _ := newTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 17, 1, 0, 0, 0, time.UTC)
	job, other := "job-1", "job-2"

	rows := []*models.SyncLog{
		{SyncType: models.SyncTypeEquipment, Status: models.SyncStatusFailed, StartedAt: base.Add(2 * time.Minute), JobID: &job, Attempt: 2},
		{SyncType: models.SyncTypeEquipment, Status: models.SyncStatusFailed, StartedAt: base, JobID: &job, Attempt: 1},
		{SyncType: models.SyncTypeEquipment, Status: models.SyncStatusFailed, StartedAt: base.Add(2 * time.Minute), JobID: &job, Attempt: 3},
		{SyncType: models.SyncTypeEquipment, Status: models.SyncStatusSuccess, StartedAt: base.Add(time.Hour), JobID: &other, Attempt: 1},
	}
	for _, row := range rows {
		require.NoError(t, store.InsertSyncLog(ctx, row))
	}

	got, err := store.LatestSyncLogByJob(ctx, job)
	require.NoError(t, err)
	require.Equal(t, rows[2].ID, got.ID)
	require.Equal(t, 3, got.Attempt)

	missing, err := store.LatestSyncLogByJob(ctx, "job-404")
	require.NoError(t, err)
	require.Nil(t, missing)
}
