package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fieldlog/internal/core"
)

// CompanyExporter writes one company's current export.
type CompanyExporter interface {
	ExportCompany(ctx context.Context, company core.CompanyID) error
}

// ExportSchedulerConfig holds configuration for the export scheduler
type ExportSchedulerConfig struct {
	// PollInterval is how often dirty companies are exported (default: 10s)
	PollInterval time.Duration

	// MaxRetries is how many failed exports a company gets before it is
	// dropped until its next mutation (default: 3)
	MaxRetries int
}

// DefaultExportSchedulerConfig returns sensible defaults
func DefaultExportSchedulerConfig() ExportSchedulerConfig {
	return ExportSchedulerConfig{
		PollInterval: 10 * time.Second,
		MaxRetries:   3,
	}
}

// ExportScheduler exports companies marked dirty by mutations on a fixed
// interval. It replaces the broker and worker pair in single-process setups.
type ExportScheduler struct {
	exporter CompanyExporter
	config   ExportSchedulerConfig

	dirtyMu sync.Mutex
	dirty   map[core.CompanyID]int // failed attempts so far

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportScheduler(exporter CompanyExporter, config ExportSchedulerConfig) *ExportScheduler {
	return &ExportScheduler{
		exporter: exporter,
		config:   config,
		dirty:    make(map[core.CompanyID]int),
	}
}

// MarkDirty queues company for the next export. It matches MutationListener.
func (s *ExportScheduler) MarkDirty(company core.CompanyID) {
	s.dirtyMu.Lock()
	s.dirty[company] = 0
	s.dirtyMu.Unlock()
}

// Pending returns the number of companies waiting for export.
func (s *ExportScheduler) Pending() int {
	s.dirtyMu.Lock()
	defer s.dirtyMu.Unlock()
	return len(s.dirty)
}

// Start begins the export loop. Returns an error if already running.
func (s *ExportScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("export scheduler is already running")
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	go s.runLoop(ctx)

	slog.InfoContext(ctx, "Export scheduler started",
		"poll_interval", s.config.PollInterval,
		"max_retries", s.config.MaxRetries)

	return nil
}

// Stop flushes once more and waits for the loop to exit.
func (s *ExportScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return nil
	}
	s.mu.Unlock()

	close(s.stopCh)

	select {
	case <-s.doneCh:
		slog.InfoContext(ctx, "Export scheduler stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export scheduler stop timed out")
		return ctx.Err()
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	return nil
}

// IsRunning returns whether the scheduler is currently running
func (s *ExportScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *ExportScheduler) runLoop(ctx context.Context) {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopCh:
			// Context may already be cancelled during shutdown.
			s.Flush(context.WithoutCancel(ctx))
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Flush(ctx)
		}
	}
}

// Flush exports every dirty company once.
func (s *ExportScheduler) Flush(ctx context.Context) {
	s.dirtyMu.Lock()
	batch := make(map[core.CompanyID]int, len(s.dirty))
	for c, n := range s.dirty {
		batch[c] = n
	}
	s.dirty = make(map[core.CompanyID]int)
	s.dirtyMu.Unlock()

	for company, attempts := range batch {
		err := s.exporter.ExportCompany(ctx, company)
		if err == nil {
			continue
		}
		attempts++
		if attempts >= s.config.MaxRetries {
			slog.ErrorContext(ctx, "Export failed, giving up until next change",
				"company", company, "attempts", attempts, "error", err)
			continue
		}
		slog.WarnContext(ctx, "Export failed, will retry",
			"company", company, "attempts", attempts, "error", err)

		s.dirtyMu.Lock()
		// A mutation during the export already reset the counter.
		if _, requeued := s.dirty[company]; !requeued {
			s.dirty[company] = attempts
		}
		s.dirtyMu.Unlock()
	}
}
