package backend

import (
	"fmt"

	"fieldlog/internal/config"
	"fieldlog/internal/export"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.DataBackend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.DataBackend)
	}
	eventsType := EventsType(appConfig.EventsBackend)
	if !eventsType.IsValid() {
		return Config{}, fmt.Errorf("invalid events backend in config: %s", appConfig.EventsBackend)
	}

	return Config{
		Type:   backendType,
		Events: eventsType,

		SQLiteDBPath:   appConfig.SQLiteDBPath,
		PostgresURL:    appConfig.PostgresURL,
		MemoryDataFile: appConfig.MemoryDataFile,

		AMQPURL:      appConfig.AMQPURL,
		AMQPExchange: appConfig.AMQPExchange,
		AMQPQueue:    appConfig.AMQPQueue,

		KafkaBrokers: appConfig.KafkaBrokers,
		KafkaTopic:   appConfig.KafkaTopic,
		KafkaGroupID: appConfig.KafkaGroupID,

		ExportDir: appConfig.ExportDir,
		S3: export.S3Config{
			Bucket:    appConfig.ExportS3Bucket,
			Region:    appConfig.ExportS3Region,
			Prefix:    appConfig.ExportS3Prefix,
			Endpoint:  appConfig.ExportS3Endpoint,
			PathStyle: appConfig.ExportS3PathStyle,
		},
		GoogleSpreadsheetID: appConfig.GoogleSpreadsheetID,
		ExportInterval:      appConfig.ExportInterval,
	}, nil
}

// Validate validates the backend configuration
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid backend type: %s", c.Type)
	}
	if !c.Events.IsValid() {
		return fmt.Errorf("invalid events backend: %s", c.Events)
	}

	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite backend")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return fmt.Errorf("Postgres URL is required for postgres backend")
		}
	}

	switch c.Events {
	case AMQPEvents:
		if c.AMQPURL == "" || c.AMQPExchange == "" || c.AMQPQueue == "" {
			return fmt.Errorf("AMQP URL, exchange and queue are required for amqp events")
		}
	case KafkaEvents:
		if len(c.KafkaBrokers) == 0 || c.KafkaTopic == "" {
			return fmt.Errorf("Kafka brokers and topic are required for kafka events")
		}
	}

	return nil
}

// GetBackendTypes returns all valid backend types
func GetBackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// GetBackendTypeStrings returns all valid backend type strings
func GetBackendTypeStrings() []string {
	types := GetBackendTypes()
	strings := make([]string, len(types))
	for i, t := range types {
		strings[i] = t.String()
	}
	return strings
}
