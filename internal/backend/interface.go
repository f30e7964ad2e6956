package backend

import (
	"context"
	"time"

	"fieldlog/internal/events"
	"fieldlog/internal/export"
	"fieldlog/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// Pinger is implemented by stores that can report readiness.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreResult contains the record store and optional cleanup function
type StoreResult struct {
	Store   records.Store
	Pinger  Pinger
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
	CreatePublisher(config Config) (events.Publisher, error)
	CreateConsumer(config Config) (events.Consumer, error)
	// CreateSink returns nil when no export destination is configured.
	CreateSink(ctx context.Context, config Config) (export.Sink, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type   BackendType
	Events EventsType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	PostgresURL string

	// Memory backend specific; empty keeps records in memory only
	MemoryDataFile string

	// AMQP specific
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Kafka specific
	KafkaBrokers []string
	KafkaTopic   string
	KafkaGroupID string

	// Export sinks
	ExportDir           string
	S3                  export.S3Config
	GoogleSpreadsheetID string
	ExportInterval      time.Duration
}

// BackendType represents the type of record store
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// EventsType selects the change notification transport
type EventsType string

const (
	NoEvents    EventsType = "none"
	AMQPEvents  EventsType = "amqp"
	KafkaEvents EventsType = "kafka"
)

func (et EventsType) IsValid() bool {
	switch et {
	case NoEvents, AMQPEvents, KafkaEvents:
		return true
	default:
		return false
	}
}

// Close lets a CleanupFunc be registered wherever an io.Closer is expected.
func (f CleanupFunc) Close() error {
	if f == nil {
		return nil
	}
	return f()
}
