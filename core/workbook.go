package core

import (
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
)

const (
	ReportsSheet     = "Reports"
	PerformanceSheet = "Performance"
)

var (
	reportHeaders      = []interface{}{"Date", "Shift", "Supervisors", "General notes", "Late", "Refills", "Customer comments", "Previous shift"}
	performanceHeaders = []interface{}{"Date", "Shift", "Employee", "Performance"}
)

// WriteReportsWorkbook writes reports as an xlsx workbook with one row per shift half
// and a second sheet listing every performance entry. names resolves employee ids;
// unknown ids are written as-is.
func WriteReportsWorkbook(w io.Writer, reports []model.DailyReport, names map[uuid.UUID]string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ReportsSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(PerformanceSheet); err != nil {
		return err
	}
	if err := setRow(f, ReportsSheet, 1, reportHeaders); err != nil {
		return err
	}
	if err := setRow(f, PerformanceSheet, 1, performanceHeaders); err != nil {
		return err
	}

	reportRow, perfRow := 2, 2
	for _, report := range reports {
		for _, s := range model.Shifts {
			half := report.Half(s)
			supervisors := utils.Map(half.Supervisors, func(u model.User) string { return u.DisplayName() })
			row := []interface{}{
				report.Date,
				string(s),
				strings.Join(supervisors, ", "),
				half.GeneralNotes,
				half.Late,
				half.Refills,
				half.CustomerComments,
				half.PreviousShift,
			}
			if err := setRow(f, ReportsSheet, reportRow, row); err != nil {
				return err
			}
			reportRow++

			for _, entry := range half.Performance {
				name, ok := names[entry.EmployeeID]
				if !ok {
					name = entry.EmployeeID.String()
				}
				if err := setRow(f, PerformanceSheet, perfRow, []interface{}{report.Date, string(s), name, entry.PerformanceText}); err != nil {
					return err
				}
				perfRow++
			}
		}
	}

	if err := f.SetColWidth(ReportsSheet, "C", "H", 30); err != nil {
		return err
	}
	if err := f.SetColWidth(PerformanceSheet, "C", "D", 30); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	return f.SetSheetRow(sheet, cell, &values)
}
