package dailyreport

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/web/common"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Export streams the filtered reports as an xlsx workbook.
func (ep *Endpoint) Export(c *gin.Context) {
	ctx := c.Request.Context()
	filter, err := filterFromQuery(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	reports, err := ep.reports.List(ctx, filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	names, err := ep.users.DisplayNames(ctx)
	if err != nil {
		common.RespondError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := core.WriteReportsWorkbook(&buf, reports, names); err != nil {
		common.RespondError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(filter)))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func exportFilename(filter core.ReportFilter) string {
	from, to := filter.From, filter.To
	switch {
	case from != "" && to != "":
		return fmt.Sprintf("shift-reports-%s-to-%s.xlsx", from, to)
	case from != "":
		return fmt.Sprintf("shift-reports-from-%s.xlsx", from)
	case to != "":
		return fmt.Sprintf("shift-reports-to-%s.xlsx", to)
	}
	return "shift-reports.xlsx"
}
