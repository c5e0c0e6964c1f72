package dailyreport

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
	"shiftreport.com/shiftreport/web/common"
	"shiftreport.com/shiftreport/web/middlewares"
)

// Notifier is told about every saved report. Failures are logged, never returned to the caller.
type Notifier interface {
	ReportSaved(report *model.DailyReport, created bool, by string) error
}

type Endpoint struct {
	reports  *core.ReportRepository
	users    *core.UserDirectory
	notifier Notifier
	log      *zap.Logger
}

func Register(r *gin.RouterGroup, reports *core.ReportRepository, users *core.UserDirectory, notifier Notifier, log *zap.Logger) {
	endpoint := &Endpoint{reports: reports, users: users, notifier: notifier, log: log}
	r.GET("/dailyreport/", endpoint.List)
	r.POST("/dailyreport/", endpoint.Create)
	r.GET("/dailyreport/export/", endpoint.Export)
	r.GET("/dailyreport/:date/", endpoint.Get)
	r.PUT("/dailyreport/:date/", endpoint.Update)
	r.PATCH("/dailyreport/:date/", endpoint.Update)
	r.POST("/dailyreport/upsert/:date/", endpoint.Upsert)
	r.DELETE("/dailyreport/delete/:date/", endpoint.Delete)
}

func (ep *Endpoint) List(c *gin.Context) {
	filter, err := filterFromQuery(c)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	reports, err := ep.reports.List(c.Request.Context(), filter)
	if err != nil {
		common.RespondError(c, err)
		return
	}
	res := make([]ReportDTO, len(reports))
	for i := range reports {
		res[i] = NewReportDTO(&reports[i])
	}
	c.JSON(http.StatusOK, res)
}

func (ep *Endpoint) Create(c *gin.Context) {
	var body ReportRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil {
		common.RespondBindingError(c, err)
		return
	}
	if body.Date == nil || body.Date.IsZero() {
		c.JSON(http.StatusBadRequest, common.NewFieldErrorResponse("date", "This field is required."))
		return
	}

	report, err := ep.reports.Create(c.Request.Context(), body.Date.String(), body.Input())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	ep.notify(c, report, true)
	c.JSON(http.StatusCreated, NewReportDTO(report))
}

func (ep *Endpoint) Get(c *gin.Context) {
	report, err := ep.reports.GetByDate(c.Request.Context(), c.Param("date"))
	if err != nil {
		common.RespondError(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReportDTO(report))
}

func (ep *Endpoint) Update(c *gin.Context) {
	body, ok := bindPartialBody(c)
	if !ok {
		return
	}

	report, err := ep.reports.Update(c.Request.Context(), c.Param("date"), body.Input())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	ep.notify(c, report, false)
	c.JSON(http.StatusOK, NewReportDTO(report))
}

// Upsert creates the report for the path date or updates it. The body date is ignored.
func (ep *Endpoint) Upsert(c *gin.Context) {
	body, ok := bindPartialBody(c)
	if !ok {
		return
	}

	report, created, err := ep.reports.Upsert(c.Request.Context(), c.Param("date"), body.Input())
	if err != nil {
		common.RespondError(c, err)
		return
	}
	ep.notify(c, report, created)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	c.JSON(status, NewReportDTO(report))
}

func (ep *Endpoint) Delete(c *gin.Context) {
	if err := ep.reports.Delete(c.Request.Context(), c.Param("date")); err != nil {
		common.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (ep *Endpoint) notify(c *gin.Context, report *model.DailyReport, created bool) {
	if ep.notifier == nil {
		return
	}
	by := ""
	if claims := middlewares.Identity(c); claims != nil {
		by = claims.Username
	}
	if err := ep.notifier.ReportSaved(report, created, utils.Or(by, "unknown")); err != nil {
		ep.log.Warn("Failed to send report notification", zap.String("date", report.Date), zap.Error(err))
	}
}

// bindPartialBody reads a partial report body. A missing body means no fields were provided.
func bindPartialBody(c *gin.Context) (ReportRequestDTO, bool) {
	var body ReportRequestDTO
	if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
		common.RespondBindingError(c, err)
		return body, false
	}
	return body, true
}

func filterFromQuery(c *gin.Context) (core.ReportFilter, error) {
	from, err := common.QueryDate(c.Query, "from")
	if err != nil {
		return core.ReportFilter{}, err
	}
	to, err := common.QueryDate(c.Query, "to")
	if err != nil {
		return core.ReportFilter{}, err
	}
	return core.ReportFilter{From: from.String(), To: to.String()}, nil
}
