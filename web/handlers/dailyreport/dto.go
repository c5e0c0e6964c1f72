package dailyreport

import (
	"github.com/google/uuid"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
	"shiftreport.com/shiftreport/web/common"
)

type PerformanceDTO struct {
	ID              uint      `json:"id,omitempty"`
	Employee        uuid.UUID `json:"employee"`
	PerformanceText string    `json:"performance_text"`
}

// ReportDTO keeps the flat _d/_n field names the frontend uses.
type ReportDTO struct {
	ID   uint   `json:"id"`
	Date string `json:"date"`

	SupervisorD       []uuid.UUID      `json:"supervisor_d"`
	GeneralNotesD     string           `json:"general_notes_d"`
	LateD             string           `json:"late_d"`
	EmployeePerfD     []PerformanceDTO `json:"employee_perf_d"`
	RefillsD          string           `json:"refills_d"`
	CustomerCommentsD string           `json:"customer_comments_d"`
	PreviousShiftD    string           `json:"previous_shift_d"`

	SupervisorN       []uuid.UUID      `json:"supervisor_n"`
	GeneralNotesN     string           `json:"general_notes_n"`
	LateN             string           `json:"late_n"`
	EmployeePerfN     []PerformanceDTO `json:"employee_perf_n"`
	RefillsN          string           `json:"refills_n"`
	CustomerCommentsN string           `json:"customer_comments_n"`
	PreviousShiftN    string           `json:"previous_shift_n"`
}

// ReportRequestDTO is the body of create, update and upsert. Absent and null
// fields are not provided.
type ReportRequestDTO struct {
	Date *common.DateOnly `json:"date"`

	SupervisorD       *[]uuid.UUID      `json:"supervisor_d"`
	GeneralNotesD     *string           `json:"general_notes_d"`
	LateD             *string           `json:"late_d"`
	EmployeePerfD     *[]PerformanceDTO `json:"employee_perf_d"`
	RefillsD          *string           `json:"refills_d"`
	CustomerCommentsD *string           `json:"customer_comments_d"`
	PreviousShiftD    *string           `json:"previous_shift_d"`

	SupervisorN       *[]uuid.UUID      `json:"supervisor_n"`
	GeneralNotesN     *string           `json:"general_notes_n"`
	LateN             *string           `json:"late_n"`
	EmployeePerfN     *[]PerformanceDTO `json:"employee_perf_n"`
	RefillsN          *string           `json:"refills_n"`
	CustomerCommentsN *string           `json:"customer_comments_n"`
	PreviousShiftN    *string           `json:"previous_shift_n"`
}

func (d *ReportRequestDTO) Input() core.ReportInput {
	return core.ReportInput{
		Day: core.ShiftInput{
			Supervisors:      d.SupervisorD,
			GeneralNotes:     d.GeneralNotesD,
			Late:             d.LateD,
			Refills:          d.RefillsD,
			CustomerComments: d.CustomerCommentsD,
			PreviousShift:    d.PreviousShiftD,
			Performance:      performanceInput(d.EmployeePerfD),
		},
		Night: core.ShiftInput{
			Supervisors:      d.SupervisorN,
			GeneralNotes:     d.GeneralNotesN,
			Late:             d.LateN,
			Refills:          d.RefillsN,
			CustomerComments: d.CustomerCommentsN,
			PreviousShift:    d.PreviousShiftN,
			Performance:      performanceInput(d.EmployeePerfN),
		},
	}
}

func performanceInput(entries *[]PerformanceDTO) *[]core.PerformanceInput {
	if entries == nil {
		return nil
	}
	return utils.Ptr(utils.Map(*entries, func(p PerformanceDTO) core.PerformanceInput {
		return core.PerformanceInput{EmployeeID: p.Employee, Text: p.PerformanceText}
	}))
}

func NewReportDTO(r *model.DailyReport) ReportDTO {
	return ReportDTO{
		ID:   r.ID,
		Date: r.Date,

		SupervisorD:       supervisorIDs(r.Day),
		GeneralNotesD:     r.Day.GeneralNotes,
		LateD:             r.Day.Late,
		EmployeePerfD:     performanceDTOs(r.Day),
		RefillsD:          r.Day.Refills,
		CustomerCommentsD: r.Day.CustomerComments,
		PreviousShiftD:    r.Day.PreviousShift,

		SupervisorN:       supervisorIDs(r.Night),
		GeneralNotesN:     r.Night.GeneralNotes,
		LateN:             r.Night.Late,
		EmployeePerfN:     performanceDTOs(r.Night),
		RefillsN:          r.Night.Refills,
		CustomerCommentsN: r.Night.CustomerComments,
		PreviousShiftN:    r.Night.PreviousShift,
	}
}

func supervisorIDs(half model.ShiftHalf) []uuid.UUID {
	return utils.Map(half.Supervisors, func(u model.User) uuid.UUID { return u.ID })
}

func performanceDTOs(half model.ShiftHalf) []PerformanceDTO {
	return utils.Map(half.Performance, func(p model.PerformanceEntry) PerformanceDTO {
		return PerformanceDTO{ID: p.ID, Employee: p.EmployeeID, PerformanceText: p.PerformanceText}
	})
}
