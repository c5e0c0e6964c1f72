package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"shiftreport.com/shiftreport/config"
	"shiftreport.com/shiftreport/core"
	"shiftreport.com/shiftreport/infrastructure/communication"
	"shiftreport.com/shiftreport/infrastructure/logger"
	"shiftreport.com/shiftreport/infrastructure/tracing"
	"shiftreport.com/shiftreport/security"
	"shiftreport.com/shiftreport/web/handlers"
	"shiftreport.com/shiftreport/web/middlewares"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx, *configPath)
	if err != nil {
		panic(err)
	}

	log, err := logger.New(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		panic(err)
	}

	err = run(ctx, cfg, log)
	if err != nil {
		log.Error("Server stopped", zap.Error(err))
	}
	_ = log.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	if cfg.Tracing.Endpoint != "" {
		tp, err := tracing.InitTracer(ctx, tracing.Options{
			Endpoint:    cfg.Tracing.Endpoint,
			Insecure:    cfg.Tracing.Insecure,
			ServiceName: cfg.Tracing.ServiceName,
			Environment: cfg.Tracing.Environment,
		})
		if err != nil {
			return err
		}
		defer tp.Shutdown(context.Background())
		log.Info("Tracer provider initialized", zap.String("endpoint", cfg.Tracing.Endpoint))
	}

	dm, err := core.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Database.MaxConnections, core.ParseLogLevel(cfg.Database.LogLevel))
	if err != nil {
		return err
	}
	defer dm.Close()
	if err := dm.Migrate(ctx); err != nil {
		return err
	}

	issuer, err := security.NewTokenIssuer(cfg.Auth.SigningSecret, cfg.Auth.Issuer, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)
	if err != nil {
		return err
	}

	var blacklist security.TokenBlacklist = security.NewMemoryBlacklist()
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			return err
		}
		defer redisClient.Close()
		blacklist = security.NewRedisBlacklist(redisClient, security.TokenBlacklistPrefix)
	}

	gin.SetMode(cfg.Server.Mode)
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.Tracing(), middlewares.RequestLogger(log))
	handlers.Register(r, handlers.Dependencies{
		Users:     core.NewUserDirectory(dm),
		Reports:   core.NewReportRepository(dm),
		Issuer:    issuer,
		Blacklist: blacklist,
		Notifier: communication.NewSlack(cfg.Slack.Token, communication.SlackOption{
			InfoChannelID:  cfg.Slack.InfoChannelID,
			ErrorChannelID: cfg.Slack.ErrorChannelID,
		}),
		Log: log,
	})

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CorsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Server listening", zap.String("address", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
