package backend

import (
	"context"
	"fmt"
	"log/slog"

	"fieldlog/internal/events"
	amqpevents "fieldlog/internal/events/amqp"
	kafkaevents "fieldlog/internal/events/kafka"
	"fieldlog/internal/export"
	"fieldlog/internal/records/memory"
	"fieldlog/internal/storage"
	"fieldlog/internal/storage/postgres"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{
		logger: logger,
	}
}

// CreateStore implements Factory.CreateStore
func (f *DefaultFactory) CreateStore(ctx context.Context, config Config) (*StoreResult, error) {
	if !config.Type.IsValid() {
		return nil, fmt.Errorf("invalid backend type: %s", config.Type)
	}

	switch config.Type {
	case SQLiteBackend:
		return f.createSQLiteStore(config)
	case PostgresBackend:
		return f.createPostgresStore(ctx, config)
	case MemoryBackend:
		return f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*StoreResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)

	return &StoreResult{Store: repo, Pinger: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createPostgresStore(ctx context.Context, config Config) (*StoreResult, error) {
	repo, err := postgres.Open(ctx, config.PostgresURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Postgres repository: %w", err)
	}

	f.logger.Info("Initialized Postgres backend")

	return &StoreResult{Store: repo, Pinger: repo, Cleanup: repo.Close}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*StoreResult, error) {
	if config.MemoryDataFile == "" {
		f.logger.Info("Initialized memory backend", "persistent", false)
		return &StoreResult{Store: memory.New()}, nil
	}

	store, err := memory.NewFromFile(config.MemoryDataFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_file", config.MemoryDataFile)

	return &StoreResult{Store: store}, nil
}

// CreatePublisher implements Factory.CreatePublisher. A broker that cannot be
// reached degrades to a no-op publisher so writes keep working.
func (f *DefaultFactory) CreatePublisher(config Config) (events.Publisher, error) {
	switch config.Events {
	case AMQPEvents:
		client, err := amqpevents.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without change events", "error", err)
			return events.Noop{}, nil
		}
		f.logger.Info("Initialized AMQP publisher",
			"exchange", config.AMQPExchange,
			"queue", config.AMQPQueue)
		return client, nil
	case KafkaEvents:
		f.logger.Info("Initialized Kafka publisher", "topic", config.KafkaTopic, "brokers", config.KafkaBrokers)
		return kafkaevents.NewPublisher(config.KafkaBrokers, config.KafkaTopic), nil
	case NoEvents, "":
		return events.Noop{}, nil
	default:
		return nil, fmt.Errorf("unsupported events backend: %s", config.Events)
	}
}

// CreateConsumer implements Factory.CreateConsumer
func (f *DefaultFactory) CreateConsumer(config Config) (events.Consumer, error) {
	switch config.Events {
	case AMQPEvents:
		client, err := amqpevents.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize AMQP consumer: %w", err)
		}
		return client, nil
	case KafkaEvents:
		return kafkaevents.NewConsumer(config.KafkaBrokers, config.KafkaTopic, config.KafkaGroupID), nil
	default:
		return nil, fmt.Errorf("events backend %q cannot be consumed", config.Events)
	}
}

// CreateSink implements Factory.CreateSink
func (f *DefaultFactory) CreateSink(ctx context.Context, config Config) (export.Sink, error) {
	var sinks export.MultiSink

	if config.ExportDir != "" {
		fs, err := export.NewFileSink(config.ExportDir)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize file sink: %w", err)
		}
		sinks = append(sinks, fs)
		f.logger.Info("Initialized file export sink", "dir", config.ExportDir)
	}

	if config.S3.Bucket != "" {
		s3, err := export.NewS3Sink(ctx, config.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 sink: %w", err)
		}
		sinks = append(sinks, s3)
		f.logger.Info("Initialized S3 export sink", "bucket", config.S3.Bucket, "prefix", config.S3.Prefix)
	}

	if config.GoogleSpreadsheetID != "" {
		sheets, err := export.NewSheetsSinkFromEnv(ctx, config.GoogleSpreadsheetID)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Google Sheets sink: %w", err)
		}
		sinks = append(sinks, sheets)
		f.logger.Info("Initialized Google Sheets export sink")
	}

	switch len(sinks) {
	case 0:
		return nil, nil
	case 1:
		return sinks[0], nil
	default:
		return sinks, nil
	}
}
