package communication

import (
	"fmt"

	"github.com/slack-go/slack"

	"shiftreport.com/shiftreport/model"
)

type Slack struct {
	client  *slack.Client
	options SlackOption
}

type SlackOption struct {
	InfoChannelID  string
	ErrorChannelID string
	// APIURL overrides the slack endpoint, mainly for tests.
	APIURL string
}

// NewSlack returns nil when token is empty; a nil *Slack drops every message.
func NewSlack(token string, options SlackOption) *Slack {
	if token == "" {
		return nil
	}
	var opts []slack.Option
	if options.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(options.APIURL))
	}
	client := slack.New(token, opts...)
	return &Slack{client: client, options: options}
}

func (s *Slack) postMessage(channelID, message string) error {
	if s == nil || channelID == "" {
		return nil
	}
	_, _, err := s.client.PostMessage(
		channelID,
		slack.MsgOptionText(message, false),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		return fmt.Errorf("failed to post message to Slack: %w", err)
	}
	return nil
}

func (s *Slack) Info(message string) error {
	return s.postMessage(s.infoChannel(), message)
}

func (s *Slack) Error(message string) error {
	return s.postMessage(s.errorChannel(), message)
}

// ReportSaved announces a created or updated report on the info channel.
func (s *Slack) ReportSaved(report *model.DailyReport, created bool, by string) error {
	verb := "updated"
	if created {
		verb = "created"
	}
	return s.Info(fmt.Sprintf("Shift report for %s %s by %s", report.Date, verb, by))
}

func (s *Slack) infoChannel() string {
	if s == nil {
		return ""
	}
	return s.options.InfoChannelID
}

func (s *Slack) errorChannel() string {
	if s == nil {
		return ""
	}
	return s.options.ErrorChannelID
}
