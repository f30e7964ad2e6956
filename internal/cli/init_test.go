package cli

import (
	"context"
	"log/slog"
	"testing"
)

func TestSetupLoggerHonorsLevel(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := SetupLogger("worker", "warn")

	if logger.Component() != "worker" {
		t.Errorf("Component() = %q, want worker", logger.Component())
	}
	if logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelWarn) {
		t.Error("default logger should be replaced and accept warn")
	}
}
