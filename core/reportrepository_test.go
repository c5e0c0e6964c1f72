package core_test

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/core/coretest"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
)

type fixture struct {
	repo       *core.ReportRepository
	dm         *core.DatabaseManager
	supervisor *model.User
	manager    *model.User
	employee   *model.User
	employee2  *model.User
}

func newFixture(t *testing.T) *fixture {
	dm := coretest.NewDatabase(t)
	return &fixture{
		repo:       core.NewReportRepository(dm),
		dm:         dm,
		supervisor: coretest.CreateUser(t, dm, "s1", model.RoleSupervisor),
		manager:    coretest.CreateUser(t, dm, "m1", model.RoleManager),
		employee:   coretest.CreateUser(t, dm, "e1", model.RoleEmployee),
		employee2:  coretest.CreateUser(t, dm, "e2", model.RoleEmployee),
	}
}

func (f *fixture) countReports(t *testing.T, date string) int64 {
	var count int64
	require.NoError(t, f.dm.DB.Model(&model.DailyReport{}).Where("date = ?", date).Count(&count).Error)
	return count
}

func (f *fixture) countRows(t *testing.T, table string) int64 {
	var count int64
	require.NoError(t, f.dm.DB.Table(table).Count(&count).Error)
	return count
}

func supervisorIDs(half model.ShiftHalf) []uuid.UUID {
	return utils.Map(half.Supervisors, func(u model.User) uuid.UUID { return u.ID })
}

func TestCreateDefaultsAndConflict(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.repo.Create(ctx, "2024-01-01", core.ReportInput{})
	require.NoError(t, err)
	assert.Equal(t, "2024-01-01", report.Date)
	assert.Equal(t, "", report.Day.GeneralNotes)
	assert.Equal(t, "", report.Night.PreviousShift)
	assert.NotNil(t, report.Day.Supervisors)
	assert.Empty(t, report.Day.Supervisors)
	assert.NotNil(t, report.Night.Performance)
	assert.Empty(t, report.Night.Performance)

	_, err = f.repo.Create(ctx, "2024-01-01", core.ReportInput{Day: core.ShiftInput{Late: utils.Ptr("x")}})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, int64(1), f.countReports(t, "2024-01-01"))

	got, err := f.repo.GetByDate(ctx, "2024-01-01")
	require.NoError(t, err)
	assert.Equal(t, "", got.Day.Late)
}

func TestCreateWithRelations(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, err := f.repo.Create(ctx, "2024-02-02", core.ReportInput{
		Day: core.ShiftInput{
			Supervisors:  &[]uuid.UUID{f.supervisor.ID, f.manager.ID, f.supervisor.ID},
			GeneralNotes: utils.Ptr("busy"),
			Performance: &[]core.PerformanceInput{
				{EmployeeID: f.employee.ID, Text: "late"},
				{EmployeeID: f.employee.ID, Text: "stayed back"},
			},
		},
		Night: core.ShiftInput{Refills: utils.Ptr("ice")},
	})
	require.NoError(t, err)

	assert.ElementsMatch(t, []uuid.UUID{f.supervisor.ID, f.manager.ID}, supervisorIDs(report.Day))
	require.Len(t, report.Day.Performance, 2)
	assert.Equal(t, "late", report.Day.Performance[0].PerformanceText)
	assert.Equal(t, "stayed back", report.Day.Performance[1].PerformanceText)
	assert.Equal(t, "busy", report.Day.GeneralNotes)
	assert.Equal(t, "ice", report.Night.Refills)
	assert.Empty(t, report.Night.Supervisors)
}

func TestGetByDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.GetByDate(ctx, "2024-01-01")
	assert.ErrorIs(t, err, core.ErrNotFound)

	_, err = f.repo.GetByDate(ctx, "01/01/2024")
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestUpsertMergesOverPreviousFields(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	report, created, err := f.repo.Upsert(ctx, "2024-01-05", core.ReportInput{
		Day:   core.ShiftInput{GeneralNotes: utils.Ptr("A notes"), Late: utils.Ptr("A late")},
		Night: core.ShiftInput{Refills: utils.Ptr("A refills")},
	})
	require.NoError(t, err)
	assert.True(t, created)
	firstID := report.ID

	report, created, err = f.repo.Upsert(ctx, "2024-01-05", core.ReportInput{
		Day: core.ShiftInput{GeneralNotes: utils.Ptr("B notes")},
	})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, firstID, report.ID)
	assert.Equal(t, "B notes", report.Day.GeneralNotes)
	assert.Equal(t, "A late", report.Day.Late)
	assert.Equal(t, "A refills", report.Night.Refills)
	assert.Equal(t, int64(1), f.countReports(t, "2024-01-05"))
}

func TestUpdateEmptyPerformanceClearsEntries(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, "2024-01-06", core.ReportInput{
		Day: core.ShiftInput{Performance: &[]core.PerformanceInput{
			{EmployeeID: f.employee.ID, Text: "one"},
			{EmployeeID: f.employee2.ID, Text: "two"},
			{EmployeeID: f.employee.ID, Text: "three"},
		}},
		Night: core.ShiftInput{Performance: &[]core.PerformanceInput{{EmployeeID: f.employee.ID, Text: "night"}}},
	})
	require.NoError(t, err)

	report, err := f.repo.Update(ctx, "2024-01-06", core.ReportInput{
		Day: core.ShiftInput{Performance: &[]core.PerformanceInput{}},
	})
	require.NoError(t, err)
	assert.Empty(t, report.Day.Performance)
	require.Len(t, report.Night.Performance, 1)
	assert.Equal(t, int64(0), f.countRows(t, model.ShiftDay.PerformanceTable()))
	assert.Equal(t, int64(1), f.countRows(t, model.ShiftNight.PerformanceTable()))
}

func TestUpdateReplacesPerformance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, "2024-01-07", core.ReportInput{
		Day: core.ShiftInput{Performance: &[]core.PerformanceInput{{EmployeeID: f.employee.ID, Text: "old"}}},
	})
	require.NoError(t, err)

	report, err := f.repo.Update(ctx, "2024-01-07", core.ReportInput{
		Day: core.ShiftInput{Performance: &[]core.PerformanceInput{{EmployeeID: f.employee2.ID, Text: "new"}}},
	})
	require.NoError(t, err)
	require.Len(t, report.Day.Performance, 1)
	assert.Equal(t, f.employee2.ID, report.Day.Performance[0].EmployeeID)
	assert.Equal(t, "new", report.Day.Performance[0].PerformanceText)
}

func TestUpdateRejectsInvalidReferences(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, "2024-01-08", core.ReportInput{
		Day: core.ShiftInput{
			Supervisors:  &[]uuid.UUID{f.supervisor.ID},
			GeneralNotes: utils.Ptr("before"),
			Performance:  &[]core.PerformanceInput{{EmployeeID: f.employee.ID, Text: "kept"}},
		},
	})
	require.NoError(t, err)

	tests := []struct {
		name  string
		input core.ReportInput
		field string
	}{
		{
			name: "employee as supervisor",
			input: core.ReportInput{Day: core.ShiftInput{
				GeneralNotes: utils.Ptr("after"),
				Supervisors:  &[]uuid.UUID{f.manager.ID, f.employee.ID},
				Performance:  &[]core.PerformanceInput{},
			}},
			field: "supervisor_d",
		},
		{
			name: "supervisor as performance employee",
			input: core.ReportInput{Night: core.ShiftInput{
				GeneralNotes: utils.Ptr("after"),
				Performance:  &[]core.PerformanceInput{{EmployeeID: f.supervisor.ID, Text: "x"}},
			}},
			field: "employee_perf_n",
		},
		{
			name: "unknown user",
			input: core.ReportInput{Day: core.ShiftInput{
				Supervisors: &[]uuid.UUID{uuid.New()},
			}},
			field: "supervisor_d",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.repo.Update(ctx, "2024-01-08", tt.input)
			require.ErrorIs(t, err, core.ErrValidation)
			var fe *core.FieldError
			require.ErrorAs(t, err, &fe)
			assert.Equal(t, tt.field, fe.Field)

			report, err := f.repo.GetByDate(ctx, "2024-01-08")
			require.NoError(t, err)
			assert.Equal(t, "before", report.Day.GeneralNotes)
			assert.Equal(t, "", report.Night.GeneralNotes)
			assert.Equal(t, []uuid.UUID{f.supervisor.ID}, supervisorIDs(report.Day))
			require.Len(t, report.Day.Performance, 1)
			assert.Equal(t, "kept", report.Day.Performance[0].PerformanceText)
		})
	}
}

func TestUpdateMissingReport(t *testing.T) {
	_, err := newFixture(t).repo.Update(context.Background(), "2030-01-01", core.ReportInput{})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestDeleteCascades(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, "2024-01-09", core.ReportInput{
		Day:   core.ShiftInput{Supervisors: &[]uuid.UUID{f.supervisor.ID}, Performance: &[]core.PerformanceInput{{EmployeeID: f.employee.ID, Text: "a"}}},
		Night: core.ShiftInput{Supervisors: &[]uuid.UUID{f.manager.ID}, Performance: &[]core.PerformanceInput{{EmployeeID: f.employee2.ID, Text: "b"}}},
	})
	require.NoError(t, err)

	require.NoError(t, f.repo.Delete(ctx, "2024-01-09"))

	_, err = f.repo.GetByDate(ctx, "2024-01-09")
	assert.ErrorIs(t, err, core.ErrNotFound)
	for _, s := range model.Shifts {
		assert.Equal(t, int64(0), f.countRows(t, s.PerformanceTable()))
		assert.Equal(t, int64(0), f.countRows(t, s.SupervisorTable()))
	}
	assert.Equal(t, int64(4), f.countRows(t, "users"))

	assert.ErrorIs(t, f.repo.Delete(ctx, "2024-01-09"), core.ErrNotFound)
}

func TestUpsertWithOnlyNightFieldsKeepsDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.repo.Create(ctx, "2024-01-01", core.ReportInput{
		Day: core.ShiftInput{
			Supervisors: &[]uuid.UUID{f.supervisor.ID},
			Performance: &[]core.PerformanceInput{{EmployeeID: f.employee.ID, Text: "late"}},
		},
	})
	require.NoError(t, err)

	report, created, err := f.repo.Upsert(ctx, "2024-01-01", core.ReportInput{
		Night: core.ShiftInput{
			Supervisors:      &[]uuid.UUID{f.manager.ID},
			GeneralNotes:     utils.Ptr("quiet night"),
			CustomerComments: utils.Ptr("none"),
			Performance:      &[]core.PerformanceInput{{EmployeeID: f.employee2.ID, Text: "good"}},
		},
	})
	require.NoError(t, err)
	assert.False(t, created)

	assert.Equal(t, []uuid.UUID{f.supervisor.ID}, supervisorIDs(report.Day))
	require.Len(t, report.Day.Performance, 1)
	assert.Equal(t, f.employee.ID, report.Day.Performance[0].EmployeeID)
	assert.Equal(t, "late", report.Day.Performance[0].PerformanceText)

	assert.Equal(t, []uuid.UUID{f.manager.ID}, supervisorIDs(report.Night))
	assert.Equal(t, "quiet night", report.Night.GeneralNotes)
	assert.Equal(t, "none", report.Night.CustomerComments)
	require.Len(t, report.Night.Performance, 1)
	assert.Equal(t, "good", report.Night.Performance[0].PerformanceText)
}

// upsertConcurrently runs workers upserts of date at once and returns how many created the report.
func upsertConcurrently(t *testing.T, repo *core.ReportRepository, date string, workers int) int {
	var wg sync.WaitGroup
	var created atomic.Int32
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, ok, err := repo.Upsert(context.Background(), date, core.ReportInput{
				Day: core.ShiftInput{Late: utils.Ptr(fmt.Sprintf("worker %d", i))},
			})
			errs[i] = err
			if ok {
				created.Add(1)
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "worker %d", i)
	}
	return int(created.Load())
}

// countDuplicateInserts counts inserts rejected by a unique index.
func countDuplicateInserts(t *testing.T, dm *core.DatabaseManager) *atomic.Int32 {
	var n atomic.Int32
	err := dm.DB.Callback().Create().After("gorm:create").Register("test:duplicates", func(tx *gorm.DB) {
		if errors.Is(tx.Error, gorm.ErrDuplicatedKey) {
			n.Add(1)
		}
	})
	require.NoError(t, err)
	return &n
}

func TestConcurrentUpsertsCreateOneReport(t *testing.T) {
	f := newFixture(t)

	assert.Equal(t, 1, upsertConcurrently(t, f.repo, "2024-06-01", 8))
	assert.Equal(t, int64(1), f.countReports(t, "2024-06-01"))
}

func TestConcurrentUpsertsOnFileDatabase(t *testing.T) {
	dm, err := core.New("sqlite", filepath.Join(t.TempDir(), "reports.db"), 8, core.LogLevelSilent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dm.Close() })
	require.NoError(t, dm.Migrate(context.Background()))

	sqlDB, err := dm.DB.DB()
	require.NoError(t, err)
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)

	repo := core.NewReportRepository(dm)
	assert.Equal(t, 1, upsertConcurrently(t, repo, "2024-06-01", 8))

	var count int64
	require.NoError(t, dm.DB.Model(&model.DailyReport{}).Where("date = ?", "2024-06-01").Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestUpsertFallsBackOnUniqueIndex(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	duplicates := countDuplicateInserts(t, f.dm)

	_, err := f.repo.Create(ctx, "2024-07-01", core.ReportInput{Day: core.ShiftInput{Late: utils.Ptr("first")}})
	require.NoError(t, err)

	_, err = f.repo.Create(ctx, "2024-07-01", core.ReportInput{})
	assert.ErrorIs(t, err, core.ErrConflict)
	assert.Equal(t, int32(1), duplicates.Load())

	report, created, err := f.repo.Upsert(ctx, "2024-07-01", core.ReportInput{Night: core.ShiftInput{Refills: utils.Ptr("second")}})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, int32(2), duplicates.Load())
	assert.Equal(t, "first", report.Day.Late)
	assert.Equal(t, "second", report.Night.Refills)
	assert.Equal(t, int64(1), f.countReports(t, "2024-07-01"))
}

func TestListOrdersAndFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	for _, date := range []string{"2024-01-03", "2024-01-01", "2024-01-02"} {
		_, err := f.repo.Create(ctx, date, core.ReportInput{
			Day: core.ShiftInput{Supervisors: &[]uuid.UUID{f.supervisor.ID}},
		})
		require.NoError(t, err)
	}

	reports, err := f.repo.List(ctx, core.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, utils.Map(reports, func(r model.DailyReport) string { return r.Date }))
	for _, r := range reports {
		assert.Equal(t, []uuid.UUID{f.supervisor.ID}, supervisorIDs(r.Day))
	}

	reports, err = f.repo.List(ctx, core.ReportFilter{From: "2024-01-02"})
	require.NoError(t, err)
	assert.Len(t, reports, 2)

	reports, err = f.repo.List(ctx, core.ReportFilter{From: "2024-01-02", To: "2024-01-02"})
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "2024-01-02", reports[0].Date)

	_, err = f.repo.List(ctx, core.ReportFilter{To: "tomorrow"})
	assert.ErrorIs(t, err, core.ErrValidation)

	empty, err := core.NewReportRepository(coretest.NewDatabase(t)).List(ctx, core.ReportFilter{})
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
