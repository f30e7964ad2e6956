package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"fieldlog/internal/auth"
	"fieldlog/internal/backend"
	"fieldlog/internal/cli"
	"fieldlog/internal/core"
	"fieldlog/internal/export"
	apphttp "fieldlog/internal/http"
	"fieldlog/internal/log"
	"fieldlog/internal/services"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentApp)

	ctx := context.Background()
	bcfg := backend.FromAppConfig(cfg)
	factory := backend.NewFactory(logger.Logger)

	store := cli.OpenStore(ctx, logger, factory, bcfg)

	publisher, err := factory.CreatePublisher(bcfg)
	if err != nil {
		logger.Error("Failed to initialize change publisher", "error", err, "events", bcfg.Events)
		os.Exit(1)
	}

	svc := services.NewRecordService(store.Store, publisher)
	svc.AddCloser(store.Cleanup)

	users, err := auth.ParseUsers(cfg.Users)
	if err != nil {
		logger.Error("Invalid FIELDLOG_USERS", "error", err)
		os.Exit(1)
	}

	var pinger apphttp.Pinger
	if store.Pinger != nil {
		pinger = store.Pinger
	}
	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Options{
		Records: svc,
		Auth:    auth.NewAuthenticator(users),
		Tokens: auth.TokenConfig{
			Secret: cfg.TokenSecret,
			Issuer: "fieldlog",
			TTL:    cfg.TokenTTL,
		},
		Store:      pinger,
		Logger:     logger,
		CORSOrigin: cfg.CORSOrigin,
		RateLimit:  cfg.RateLimitPerMinute,
	})
	svc.OnMutation(srv.InvalidateCompany)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Without a broker the server exports in process.
	var scheduler *services.ExportScheduler
	if bcfg.Events == backend.NoEvents {
		sink, err := factory.CreateSink(ctx, bcfg)
		if err != nil {
			logger.Error("Failed to initialize export sinks", "error", err)
			os.Exit(1)
		}
		if sink != nil {
			scheduler = services.NewExportScheduler(export.NewExporter(store.Store, sink), services.ExportSchedulerConfig{
				PollInterval: bcfg.ExportInterval,
				MaxRetries:   services.DefaultExportSchedulerConfig().MaxRetries,
			})
			svc.OnMutation(scheduler.MarkDirty)
			for _, c := range core.Companies() {
				scheduler.MarkDirty(c.ID)
			}
			if err := scheduler.Start(ctx); err != nil {
				logger.Error("Failed to start export scheduler", "error", err)
				os.Exit(1)
			}
		}
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		if scheduler != nil {
			if err := scheduler.Stop(ctx); err != nil {
				logger.Error("Export scheduler stop error", "error", err)
			}
		}
		if err := svc.Close(); err != nil {
			logger.Error("Record service close error", "error", err)
		}
	})

	logger.Info("Starting fieldlog server",
		"port", cfg.Port,
		"backend", bcfg.Type,
		"events", bcfg.Events,
		"in_process_export", scheduler != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(shutdownCtx, done)
	logger.Info("Server stopped gracefully")
}
