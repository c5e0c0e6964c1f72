package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"shiftreport.com/shiftreport/config"
	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/logger"
	"shiftreport.com/shiftreport/security"
)

// createtoken prints an access token for an existing user, for scripts and API testing.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	username := flag.String("username", "", "user to issue the token for")
	flag.Parse()

	log, err := logger.New(logger.Options{Level: "info"})
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *username == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()
	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		log.Fatal("Failed to load config", zap.Error(err))
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, 1, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dm.Close()

	user, err := core.NewUserDirectory(dm).GetByUsername(ctx, *username)
	if err != nil {
		log.Fatal("Failed to find user", zap.String("username", *username), zap.Error(err))
	}

	issuer, err := security.NewTokenIssuer(cfg.Auth.SigningSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		log.Fatal("Failed to create token issuer", zap.Error(err))
	}
	token, err := issuer.IssueAccess(user)
	if err != nil {
		log.Fatal("Failed to issue token", zap.Error(err))
	}
	fmt.Println(token)
}
