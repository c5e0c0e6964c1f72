package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
)

// SummarizeReport renders a plain text digest of report, used for email and chat.
func SummarizeReport(report *model.DailyReport, names map[uuid.UUID]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Shift report %s\n", report.Date)
	for _, s := range model.Shifts {
		half := report.Half(s)
		title := "Day shift"
		if s == model.ShiftNight {
			title = "Night shift"
		}
		fmt.Fprintf(&b, "\n%s\n", title)

		supervisors := utils.Map(half.Supervisors, func(u model.User) string { return u.DisplayName() })
		fmt.Fprintf(&b, "  Supervisors: %s\n", utils.Or(strings.Join(supervisors, ", "), "-"))
		fmt.Fprintf(&b, "  General notes: %s\n", utils.Or(half.GeneralNotes, "-"))
		fmt.Fprintf(&b, "  Late: %s\n", utils.Or(half.Late, "-"))
		fmt.Fprintf(&b, "  Refills: %s\n", utils.Or(half.Refills, "-"))
		fmt.Fprintf(&b, "  Customer comments: %s\n", utils.Or(half.CustomerComments, "-"))
		fmt.Fprintf(&b, "  Previous shift: %s\n", utils.Or(half.PreviousShift, "-"))

		if len(half.Performance) == 0 {
			continue
		}
		b.WriteString("  Performance:\n")
		for _, entry := range half.Performance {
			name, ok := names[entry.EmployeeID]
			if !ok {
				name = entry.EmployeeID.String()
			}
			fmt.Fprintf(&b, "    - %s: %s\n", name, entry.PerformanceText)
		}
	}
	return b.String()
}
