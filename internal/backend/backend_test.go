package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"fieldlog/internal/config"
	"fieldlog/internal/core"
	"fieldlog/internal/events"
	"fieldlog/internal/export"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{
		DataBackend:       "sqlite",
		SQLiteDBPath:      "/tmp/x.db",
		EventsBackend:     "kafka",
		KafkaBrokers:      []string{"k:9092"},
		KafkaTopic:        "t",
		ExportS3Bucket:    "b",
		ExportS3PathStyle: true,
		ExportInterval:    time.Minute,
	}

	cfg, err := FromAppConfig(app)
	if err != nil {
		t.Fatalf("FromAppConfig() error = %v", err)
	}
	if cfg.Type != SQLiteBackend || cfg.Events != KafkaEvents {
		t.Errorf("unexpected types: %s %s", cfg.Type, cfg.Events)
	}
	if cfg.S3.Bucket != "b" || !cfg.S3.PathStyle {
		t.Errorf("unexpected s3 config: %+v", cfg.S3)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	if _, err := FromAppConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
	if _, err := FromAppConfig(&config.Config{DataBackend: "sheets", EventsBackend: "none"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"memory", Config{Type: MemoryBackend, Events: NoEvents}, false},
		{"sqlite without path", Config{Type: SQLiteBackend, Events: NoEvents}, true},
		{"postgres without url", Config{Type: PostgresBackend, Events: NoEvents}, true},
		{"amqp without queue", Config{Type: MemoryBackend, Events: AMQPEvents, AMQPURL: "amqp://x", AMQPExchange: "e"}, true},
		{"kafka without brokers", Config{Type: MemoryBackend, Events: KafkaEvents, KafkaTopic: "t"}, true},
		{"bad events", Config{Type: MemoryBackend, Events: "smoke"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestGetBackendTypeStrings(t *testing.T) {
	got := GetBackendTypeStrings()
	if len(got) != 3 || got[0] != "memory" || got[2] != "postgres" {
		t.Errorf("unexpected backend types: %v", got)
	}
}

func TestCreateStoreMemoryAndSQLite(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)
	dir := t.TempDir()

	for _, cfg := range []Config{
		{Type: MemoryBackend},
		{Type: MemoryBackend, MemoryDataFile: filepath.Join(dir, "records.json")},
		{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(dir, "fieldlog.db")},
	} {
		res, err := f.CreateStore(ctx, cfg)
		if err != nil {
			t.Fatalf("CreateStore(%s) error = %v", cfg.Type, err)
		}
		rec := core.ActivityRecord{ID: "1", Date: "2025-08-01", Type: core.Prune, Quantity: 2}
		if err := res.Store.Upsert(ctx, core.EMS, rec); err != nil {
			t.Fatalf("Upsert on %s: %v", cfg.Type, err)
		}
		list, err := res.Store.List(ctx, core.EMS)
		if err != nil || len(list) != 1 {
			t.Fatalf("List on %s = %v, %v", cfg.Type, list, err)
		}
		if res.Pinger != nil {
			if err := res.Pinger.Ping(ctx); err != nil {
				t.Errorf("Ping on %s: %v", cfg.Type, err)
			}
		}
		if res.Cleanup != nil {
			if err := res.Cleanup(); err != nil {
				t.Errorf("Cleanup on %s: %v", cfg.Type, err)
			}
		}
	}

	if _, err := f.CreateStore(ctx, Config{Type: "sheets"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestCreatePublisherWithoutBroker(t *testing.T) {
	f := NewFactory(nil)

	p, err := f.CreatePublisher(Config{Events: NoEvents})
	if err != nil {
		t.Fatalf("CreatePublisher() error = %v", err)
	}
	if _, ok := p.(events.Noop); !ok {
		t.Errorf("expected Noop publisher, got %T", p)
	}

	if _, err := f.CreateConsumer(Config{Events: NoEvents}); err == nil {
		t.Error("expected error consuming without a broker")
	}
}

func TestCreateSink(t *testing.T) {
	ctx := context.Background()
	f := NewFactory(nil)

	sink, err := f.CreateSink(ctx, Config{})
	if err != nil || sink != nil {
		t.Fatalf("expected no sink, got %v %v", sink, err)
	}

	sink, err = f.CreateSink(ctx, Config{ExportDir: t.TempDir()})
	if err != nil {
		t.Fatalf("CreateSink() error = %v", err)
	}
	if _, ok := sink.(*export.FileSink); !ok {
		t.Errorf("expected file sink, got %T", sink)
	}
}
