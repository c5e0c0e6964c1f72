package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
)

type PerformanceInput struct {
	EmployeeID uuid.UUID
	Text       string
}

// ShiftInput carries the provided fields of one half. A nil field was not provided
// and is left untouched on update.
type ShiftInput struct {
	Supervisors      *[]uuid.UUID
	GeneralNotes     *string
	Late             *string
	Refills          *string
	CustomerComments *string
	PreviousShift    *string
	Performance      *[]PerformanceInput
}

func (in *ShiftInput) columns(s model.Shift) map[string]interface{} {
	cols := map[string]interface{}{}
	set := func(name string, v *string) {
		if v != nil {
			cols[s.Column(name)] = *v
		}
	}
	set("general_notes", in.GeneralNotes)
	set("late", in.Late)
	set("refills", in.Refills)
	set("customer_comments", in.CustomerComments)
	set("previous_shift", in.PreviousShift)
	return cols
}

func (in *ShiftInput) apply(half *model.ShiftHalf) {
	if in.GeneralNotes != nil {
		half.GeneralNotes = *in.GeneralNotes
	}
	if in.Late != nil {
		half.Late = *in.Late
	}
	if in.Refills != nil {
		half.Refills = *in.Refills
	}
	if in.CustomerComments != nil {
		half.CustomerComments = *in.CustomerComments
	}
	if in.PreviousShift != nil {
		half.PreviousShift = *in.PreviousShift
	}
}

type ReportInput struct {
	Day   ShiftInput
	Night ShiftInput
}

func (in *ReportInput) Half(s model.Shift) *ShiftInput {
	if s == model.ShiftNight {
		return &in.Night
	}
	return &in.Day
}

// ReportFilter bounds List by inclusive dates; empty bounds are open.
type ReportFilter struct {
	From string
	To   string
}

type ReportRepository struct {
	dm *DatabaseManager
}

func NewReportRepository(dm *DatabaseManager) *ReportRepository {
	return &ReportRepository{dm: dm}
}

func (r *ReportRepository) Create(ctx context.Context, date string, input ReportInput) (*model.DailyReport, error) {
	date, err := normalizeDate("date", date)
	if err != nil {
		return nil, err
	}

	report := &model.DailyReport{Date: date}
	for _, s := range model.Shifts {
		input.Half(s).apply(report.Half(s))
	}

	err = r.dm.Transaction(ctx, func(tx *gorm.DB) error {
		if err := validateReferences(tx, &input); err != nil {
			return err
		}
		// the unique index on date decides who wins
		if err := tx.Create(report).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("report for %s: %w", date, ErrConflict)
			}
			return fmt.Errorf("failed to create report: %w", err)
		}
		if err := replaceRelations(tx, report.ID, &input); err != nil {
			return err
		}
		return hydrate(tx, []*model.DailyReport{report})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

func (r *ReportRepository) GetByDate(ctx context.Context, date string) (*model.DailyReport, error) {
	date, err := normalizeDate("date", date)
	if err != nil {
		return nil, err
	}
	var report *model.DailyReport
	err = r.dm.Exec(ctx, func(db *gorm.DB) error {
		report, err = findByDate(db, date)
		if err != nil {
			return err
		}
		return hydrate(db, []*model.DailyReport{report})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Update applies the provided fields of input in one transaction. Provided
// supervisor and performance lists replace the stored ones wholesale.
func (r *ReportRepository) Update(ctx context.Context, date string, input ReportInput) (*model.DailyReport, error) {
	date, err := normalizeDate("date", date)
	if err != nil {
		return nil, err
	}
	var report *model.DailyReport
	err = r.dm.Transaction(ctx, func(tx *gorm.DB) error {
		report, err = findByDate(tx, date)
		if err != nil {
			return err
		}
		if err := validateReferences(tx, &input); err != nil {
			return err
		}

		cols := map[string]interface{}{}
		for _, s := range model.Shifts {
			for k, v := range input.Half(s).columns(s) {
				cols[k] = v
			}
		}
		if len(cols) > 0 {
			if err := tx.Model(&model.DailyReport{}).Where("id = ?", report.ID).Updates(cols).Error; err != nil {
				return fmt.Errorf("failed to update report: %w", err)
			}
		}
		if err := replaceRelations(tx, report.ID, &input); err != nil {
			return err
		}

		report, err = findByDate(tx, date)
		if err != nil {
			return err
		}
		return hydrate(tx, []*model.DailyReport{report})
	})
	if err != nil {
		return nil, err
	}
	return report, nil
}

// Upsert creates the report for date or, when one exists, updates it with input
// treated as partial. The bool is true when a report was created.
//
// A concurrent writer that loses the insert race hits the unique index on date,
// its transaction rolls back and it falls through to Update.
func (r *ReportRepository) Upsert(ctx context.Context, date string, input ReportInput) (*model.DailyReport, bool, error) {
	report, err := r.Create(ctx, date, input)
	if err == nil {
		return report, true, nil
	}
	if !errors.Is(err, ErrConflict) {
		return nil, false, err
	}
	report, err = r.Update(ctx, date, input)
	if err != nil {
		return nil, false, err
	}
	return report, false, nil
}

// Delete removes the report with its performance entries and supervisor links.
func (r *ReportRepository) Delete(ctx context.Context, date string) error {
	date, err := normalizeDate("date", date)
	if err != nil {
		return err
	}
	return r.dm.Transaction(ctx, func(tx *gorm.DB) error {
		report, err := findByDate(tx, date)
		if err != nil {
			return err
		}
		for _, s := range model.Shifts {
			if err := tx.Table(s.PerformanceTable()).Where("report_id = ?", report.ID).Delete(&model.PerformanceEntry{}).Error; err != nil {
				return fmt.Errorf("failed to delete %s performance: %w", s, err)
			}
			if err := tx.Table(s.SupervisorTable()).Where("report_id = ?", report.ID).Delete(&model.ReportSupervisor{}).Error; err != nil {
				return fmt.Errorf("failed to delete %s supervisors: %w", s, err)
			}
		}
		if err := tx.Delete(&model.DailyReport{}, report.ID).Error; err != nil {
			return fmt.Errorf("failed to delete report: %w", err)
		}
		return nil
	})
}

// List returns reports in ascending date order.
func (r *ReportRepository) List(ctx context.Context, filter ReportFilter) ([]model.DailyReport, error) {
	var err error
	if filter.From != "" {
		if filter.From, err = normalizeDate("from", filter.From); err != nil {
			return nil, err
		}
	}
	if filter.To != "" {
		if filter.To, err = normalizeDate("to", filter.To); err != nil {
			return nil, err
		}
	}

	reports := []model.DailyReport{}
	err = r.dm.Exec(ctx, func(db *gorm.DB) error {
		q := db.Order("date")
		if filter.From != "" {
			q = q.Where("date >= ?", filter.From)
		}
		if filter.To != "" {
			q = q.Where("date <= ?", filter.To)
		}
		if err := q.Find(&reports).Error; err != nil {
			return fmt.Errorf("failed to list reports: %w", err)
		}
		ptrs := make([]*model.DailyReport, len(reports))
		for i := range reports {
			ptrs[i] = &reports[i]
		}
		return hydrate(db, ptrs)
	})
	if err != nil {
		return nil, err
	}
	return reports, nil
}

func normalizeDate(field, date string) (string, error) {
	t, err := utils.ParseDate(date)
	if err != nil {
		return "", invalid(field, "%s", err.Error())
	}
	return utils.FormatDate(t), nil
}

func findByDate(db *gorm.DB, date string) (*model.DailyReport, error) {
	var report model.DailyReport
	if err := db.Where("date = ?", date).First(&report).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("report for %s: %w", date, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load report: %w", err)
	}
	return &report, nil
}

// validateReferences checks every referenced user before anything is written:
// supervisors must be supervisors or managers, performance entries must point at employees.
func validateReferences(tx *gorm.DB, input *ReportInput) error {
	type ref struct {
		field string
		id    uuid.UUID
		check func(model.Role) bool
		want  string
	}
	var refs []ref
	for _, s := range model.Shifts {
		half := input.Half(s)
		if half.Supervisors != nil {
			for _, id := range *half.Supervisors {
				refs = append(refs, ref{"supervisor_" + s.Suffix(), id, model.Role.CanSupervise, "a supervisor or manager"})
			}
		}
		if half.Performance != nil {
			for _, p := range *half.Performance {
				refs = append(refs, ref{"employee_perf_" + s.Suffix(), p.EmployeeID, func(r model.Role) bool { return r == model.RoleEmployee }, "an employee"})
			}
		}
	}
	if len(refs) == 0 {
		return nil
	}

	ids := utils.Unique(utils.Map(refs, func(r ref) uuid.UUID { return r.id }))
	var users []model.User
	if err := tx.Where("id IN ?", ids).Find(&users).Error; err != nil {
		return fmt.Errorf("failed to load referenced users: %w", err)
	}
	roles := make(map[uuid.UUID]model.Role, len(users))
	for _, u := range users {
		roles[u.ID] = u.Role
	}

	for _, r := range refs {
		role, ok := roles[r.id]
		if !ok {
			return invalid(r.field, "invalid pk %q - object does not exist", r.id.String())
		}
		if !r.check(role) {
			return invalid(r.field, "user %s is not %s", r.id, r.want)
		}
	}
	return nil
}

func replaceRelations(tx *gorm.DB, reportID uint, input *ReportInput) error {
	for _, s := range model.Shifts {
		half := input.Half(s)
		if half.Supervisors != nil {
			if err := tx.Table(s.SupervisorTable()).Where("report_id = ?", reportID).Delete(&model.ReportSupervisor{}).Error; err != nil {
				return fmt.Errorf("failed to clear %s supervisors: %w", s, err)
			}
			links := utils.Map(utils.Unique(*half.Supervisors), func(id uuid.UUID) model.ReportSupervisor {
				return model.ReportSupervisor{ReportID: reportID, UserID: id}
			})
			if len(links) > 0 {
				if err := tx.Table(s.SupervisorTable()).Create(&links).Error; err != nil {
					return fmt.Errorf("failed to link %s supervisors: %w", s, err)
				}
			}
		}
		if half.Performance != nil {
			if err := tx.Table(s.PerformanceTable()).Where("report_id = ?", reportID).Delete(&model.PerformanceEntry{}).Error; err != nil {
				return fmt.Errorf("failed to clear %s performance: %w", s, err)
			}
			entries := utils.Map(*half.Performance, func(p PerformanceInput) model.PerformanceEntry {
				return model.PerformanceEntry{ReportID: reportID, EmployeeID: p.EmployeeID, PerformanceText: p.Text}
			})
			if len(entries) > 0 {
				if err := tx.Table(s.PerformanceTable()).Create(&entries).Error; err != nil {
					return fmt.Errorf("failed to create %s performance: %w", s, err)
				}
			}
		}
	}
	return nil
}

// hydrate loads supervisors and performance entries for reports in one pass per table.
func hydrate(db *gorm.DB, reports []*model.DailyReport) error {
	if len(reports) == 0 {
		return nil
	}
	ids := utils.Map(reports, func(r *model.DailyReport) uint { return r.ID })

	for _, s := range model.Shifts {
		var links []model.ReportSupervisor
		if err := db.Table(s.SupervisorTable()).Where("report_id IN ?", ids).Find(&links).Error; err != nil {
			return fmt.Errorf("failed to load %s supervisors: %w", s, err)
		}
		var users []model.User
		if len(links) > 0 {
			userIDs := utils.Unique(utils.Map(links, func(l model.ReportSupervisor) uuid.UUID { return l.UserID }))
			if err := db.Where("id IN ?", userIDs).Order("username, id").Find(&users).Error; err != nil {
				return fmt.Errorf("failed to load %s supervisor users: %w", s, err)
			}
		}
		linked := utils.Membership(links, func(l model.ReportSupervisor) (uint, uuid.UUID) { return l.ReportID, l.UserID })

		var entries []model.PerformanceEntry
		if err := db.Table(s.PerformanceTable()).Where("report_id IN ?", ids).Order("id").Find(&entries).Error; err != nil {
			return fmt.Errorf("failed to load %s performance: %w", s, err)
		}
		byReport := utils.GroupBy(entries, func(e model.PerformanceEntry) uint { return e.ReportID })

		for _, report := range reports {
			half := report.Half(s)
			half.Supervisors = utils.Filter(users, func(u model.User) bool { return linked[report.ID][u.ID] })
			half.Performance = byReport[report.ID]
			if half.Performance == nil {
				half.Performance = []model.PerformanceEntry{}
			}
		}
	}
	return nil
}
