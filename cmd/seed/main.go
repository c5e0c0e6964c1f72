package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"go.uber.org/zap"

	"shiftreport.com/shiftreport/config"
	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/logger"
	"shiftreport.com/shiftreport/model"
)

// seed migrates the schema and creates the first manager account.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	username := flag.String("username", "admin", "username of the bootstrap manager")
	name := flag.String("name", "", "display name of the bootstrap manager")
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

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, 1, core.LogLevelInfo)
	if err != nil {
		log.Fatal("Failed to open database", zap.Error(err))
	}
	defer dm.Close()

	if err := dm.Migrate(ctx); err != nil {
		log.Fatal("Failed to migrate", zap.Error(err))
	}
	log.Info("Schema migrated")

	password := os.Getenv("SEED_PASSWORD")
	if password == "" {
		log.Info("SEED_PASSWORD not set, skipping manager account")
		return
	}

	user, err := core.NewUserDirectory(dm).CreateUser(ctx, core.NewUser{
		Username: *username,
		Password: password,
		Role:     model.RoleManager,
		Name:     *name,
	})
	var fe *core.FieldError
	switch {
	case errors.As(err, &fe) && fe.Field == "username":
		log.Info("Manager already exists", zap.String("username", *username))
	case err != nil:
		log.Fatal("Failed to create manager", zap.Error(err))
	default:
		log.Info("Manager created", zap.String("username", user.Username), zap.String("id", user.ID.String()))
	}
}
