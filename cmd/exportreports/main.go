package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"shiftreport.com/shiftreport/config"
	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/filesystem"
	"shiftreport.com/shiftreport/infrastructure/logger"
	"shiftreport.com/shiftreport/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportreports writes reports in a date range to an xlsx file, or to the
// export bucket when -s3 is set.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	from := flag.String("from", "", "first date (yyyy-MM-dd), inclusive")
	to := flag.String("to", "", "last date (yyyy-MM-dd), inclusive")
	out := flag.String("out", "shift-reports.xlsx", "output file")
	toS3 := flag.Bool("s3", false, "upload to the configured export bucket instead of writing a file")
	list := flag.Bool("list", false, "list exports already in the bucket and exit")
	flag.Parse()

	log, err := logger.New(logger.Options{Level: "info"})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx := context.Background()
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	var fs *filesystem.S3FileSystem
	if *toS3 || *list {
		if cfg.Export.Bucket == "" {
			log.Fatal("export.bucket is not configured")
		}
		fs, err = filesystem.NewS3FileSystem(ctx, cfg.Export.Bucket)
		if err != nil {
			log.Fatal("Failed to create s3 client", zap.Error(err))
		}
	}

	if *list {
		keys, err := fs.ListFiles(ctx, cfg.Export.Prefix)
		if err != nil {
			log.Fatal("Failed to list exports", zap.Error(err))
		}
		for _, key := range keys {
			fmt.Println(key)
		}
		return
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, 1, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dm.Close()

	reports, err := core.NewReportRepository(dm).List(ctx, core.ReportFilter{From: *from, To: *to})
	if err != nil {
		log.Fatal("Failed to list reports", zap.Error(err))
	}
	names, err := core.NewUserDirectory(dm).DisplayNames(ctx)
	if err != nil {
		log.Fatal("Failed to load users", zap.Error(err))
	}

	var buf bytes.Buffer
	if err := core.WriteReportsWorkbook(&buf, reports, names); err != nil {
		log.Fatal("Failed to build workbook", zap.Error(err))
	}

	if *toS3 {
		key := fmt.Sprintf("%sshift-reports-%s-%s.xlsx", cfg.Export.Prefix,
			utils.Or(*from, "start"), utils.Or(*to, utils.FormatDate(time.Now())))
		if err := fs.WriteFile(ctx, key, xlsxContentType, &buf); err != nil {
			log.Fatal("Failed to upload export", zap.Error(err))
		}
		log.Info("Export uploaded", zap.String("bucket", cfg.Export.Bucket), zap.String("key", key), zap.Int("reports", len(reports)))
		return
	}

	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		log.Fatal("Failed to write export", zap.Error(err))
	}
	log.Info("Export written", zap.String("file", *out), zap.Int("reports", len(reports)))
}
