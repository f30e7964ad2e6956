package main

import (
	"context"
	"errors"
	"os"

	"golang.org/x/sync/errgroup"

	"fieldlog/internal/backend"
	"fieldlog/internal/cli"
	"fieldlog/internal/export"
	"fieldlog/internal/log"
	"fieldlog/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg, logger := cli.LoadAndValidateConfig(log.ComponentWorker)

	logger.Info("Starting fieldlog-worker")

	bcfg := backend.FromAppConfig(cfg)
	if bcfg.Events == backend.NoEvents {
		logger.Error("EVENTS_BACKEND must be amqp or kafka for the worker")
		os.Exit(1)
	}
	if bcfg.Type == backend.MemoryBackend && bcfg.MemoryDataFile == "" {
		logger.Warn("Worker reads an empty in-memory store; set DATA_BACKEND to a shared store")
	}

	ctx, stop := cli.SignalContext()
	defer stop()

	factory := backend.NewFactory(logger.Logger)
	store := cli.OpenStore(ctx, logger, factory, bcfg)
	defer func() {
		if err := store.Cleanup.Close(); err != nil {
			logger.Error("Store close error", "error", err)
		}
	}()

	sink, err := factory.CreateSink(ctx, bcfg)
	if err != nil {
		logger.Error("Failed to initialize export sinks", "error", err)
		os.Exit(1)
	}
	if sink == nil {
		logger.Error("No export sink configured; set EXPORT_DIR, EXPORT_S3_BUCKET or GOOGLE_SPREADSHEET_ID")
		os.Exit(1)
	}

	consumer, err := factory.CreateConsumer(bcfg)
	if err != nil {
		logger.Error("Failed to initialize change consumer", "error", err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(export.NewExporter(store.Store, sink))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := exportWorker.Run(gctx, consumer)
		if err == nil && gctx.Err() == nil {
			return errors.New("change consumer stopped unexpectedly")
		}
		return err
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("Shutting down worker...")
		return consumer.Close()
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
