package main

import (
	"context"
	"flag"
	"os"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"go.uber.org/zap"

	"shiftreport.com/shiftreport/config"
	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/communication"
	"shiftreport.com/shiftreport/infrastructure/logger"
	"shiftreport.com/shiftreport/lambdas/daily-digest/helper"
)

// HandleRequest runs on the scheduled EventBridge rule and digests yesterday's report.
func HandleRequest(ctx context.Context, event events.CloudWatchEvent) error {
	return digest(ctx, "", "")
}

func digest(ctx context.Context, configPath, date string) error {
	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return err
	}
	log, err := logger.New(logger.Options{Level: cfg.Log.Level})
	if err != nil {
		return err
	}
	defer log.Sync()

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return err
	}
	defer dm.Close()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return err
	}

	d := &helper.Digest{
		Reports: core.NewReportRepository(dm),
		Users:   core.NewUserDirectory(dm),
		Mailer:  ses.NewFromConfig(awsCfg),
		Slack: communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannelID,
			ErrorChannelID: cfg.Slack.ErrorChannelID,
		}),
		From:       cfg.Digest.From,
		Recipients: cfg.Digest.Recipients,
		Location:   cfg.Location(),
		Log:        log,
	}
	if err := d.Run(ctx, date); err != nil {
		log.Error("Digest failed", zap.Error(err))
		return err
	}
	return nil
}

func main() {
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		lambda.Start(HandleRequest)
		return
	}

	configPath := flag.String("config", "", "path to a YAML config file")
	date := flag.String("date", "", "report date (yyyy-MM-dd), defaults to yesterday")
	flag.Parse()

	if err := digest(context.Background(), *configPath, *date); err != nil {
		os.Exit(1)
	}
}
