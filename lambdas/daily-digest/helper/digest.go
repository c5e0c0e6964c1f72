package helper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/communication"
	"shiftreport.com/shiftreport/model"
	"shiftreport.com/shiftreport/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// Digest mails and posts the summary of one day's report.
type Digest struct {
	Reports    *core.ReportRepository
	Users      *core.UserDirectory
	Mailer     SESAPI
	Slack      *communication.Slack
	From       string
	Recipients []string
	Location   *time.Location
	Log        *zap.Logger
	Now        func() time.Time
}

// Run sends the digest for date, or for yesterday in d.Location when date is empty.
// A day without a report is announced on Slack and is not an error.
func (d *Digest) Run(ctx context.Context, date string) error {
	if date == "" {
		now := time.Now
		if d.Now != nil {
			now = d.Now
		}
		date = utils.Yesterday(now(), d.Location)
	}
	log := d.Log.With(zap.String("date", date))

	report, err := d.Reports.GetByDate(ctx, date)
	if errors.Is(err, core.ErrNotFound) {
		log.Info("No report to digest")
		return d.Slack.Info(fmt.Sprintf("No shift report was filed for %s", date))
	}
	if err != nil {
		return err
	}

	names, err := d.Users.DisplayNames(ctx)
	if err != nil {
		return err
	}
	summary := core.SummarizeReport(report, names)

	if d.From != "" && len(d.Recipients) > 0 {
		info, err := buildDigestEmail(report, names, summary, d.From, d.Recipients)
		if err != nil {
			return err
		}
		messageID, err := SendEmail(ctx, d.Mailer, info)
		if err != nil {
			_ = d.Slack.Error(fmt.Sprintf("Failed to email shift report digest for %s: %v", date, err))
			return err
		}
		log.Info("Digest emailed", zap.String("message_id", messageID), zap.Strings("recipients", d.Recipients))
	}

	if err := d.Slack.Info(summary); err != nil {
		log.Warn("Failed to post digest to Slack", zap.Error(err))
	}
	return nil
}

func buildDigestEmail(report *model.DailyReport, names map[uuid.UUID]string, summary, from string, to []string) (*EmailInfo, error) {
	var workbook bytes.Buffer
	if err := core.WriteReportsWorkbook(&workbook, []model.DailyReport{*report}, names); err != nil {
		return nil, err
	}
	return &EmailInfo{
		From:    from,
		To:      to,
		Subject: fmt.Sprintf("Shift report %s", report.Date),
		Text:    summary,
		HTML:    "<pre>" + html.EscapeString(summary) + "</pre>",
		Attachments: []Attachment{{
			Filename:    fmt.Sprintf("shift-report-%s.xlsx", report.Date),
			ContentType: xlsxContentType,
			Content:     workbook.Bytes(),
		}},
	}, nil
}
