package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"moneybuddy/internal/amqp"
)

// Exporter is the part of worker.ExportWorker the processor drives.
type Exporter interface {
	ExportIfChanged(ctx context.Context) (bool, error)
}

// ExportProcessorConfig holds configuration for the in-process exporter
type ExportProcessorConfig struct {
	// PollInterval is the backstop export period (default: 5m)
	PollInterval time.Duration

	// MaxRetries is how many times a triggered export is retried (default: 3)
	MaxRetries int

	// RetryDelay is the wait before the first retry; it doubles per attempt (default: 2s)
	RetryDelay time.Duration
}

// DefaultExportProcessorConfig returns sensible defaults
func DefaultExportProcessorConfig() ExportProcessorConfig {
	return ExportProcessorConfig{
		PollInterval: 5 * time.Minute,
		MaxRetries:   3,
		RetryDelay:   2 * time.Second,
	}
}

// ExportProcessor keeps the export sheet current when no message broker
// is configured. It is a Publisher: ledger events trigger an export in
// the background, and bursts collapse into one run.
type ExportProcessor struct {
	exporter Exporter
	config   ExportProcessorConfig
	trigger  chan struct{}

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewExportProcessor(exporter Exporter, config ExportProcessorConfig) *ExportProcessor {
	return &ExportProcessor{
		exporter: exporter,
		config:   config,
		trigger:  make(chan struct{}, 1),
	}
}

// PublishEvent schedules an export for transaction events. It never blocks.
func (p *ExportProcessor) PublishEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	if ev.Subject != amqp.SubjectTransactions {
		return nil
	}
	select {
	case p.trigger <- struct{}{}:
	default:
	}
	return nil
}

// Start begins the processing loop. Returns an error if already running.
func (p *ExportProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("export processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Export processor started", "poll_interval", p.config.PollInterval)
	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *ExportProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Export processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Export processor stop timed out")
		return ctx.Err()
	}

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()

	return nil
}

// IsRunning returns whether the processor is currently running
func (p *ExportProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ExportProcessor) runLoop(ctx context.Context) {
	defer close(p.doneCh)

	ticker := time.NewTicker(p.config.PollInterval)
	defer ticker.Stop()

	// Export immediately on startup
	p.exportWithRetry(ctx)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-p.trigger:
			p.exportWithRetry(ctx)
		case <-ticker.C:
			p.exportWithRetry(ctx)
		}
	}
}

func (p *ExportProcessor) exportWithRetry(ctx context.Context) {
	delay := p.config.RetryDelay
	for attempt := 1; ; attempt++ {
		_, err := p.exporter.ExportIfChanged(ctx)
		if err == nil {
			return
		}
		if attempt >= p.config.MaxRetries {
			slog.ErrorContext(ctx, "Export failed permanently after max retries",
				"attempts", attempt, "error", err)
			return
		}
		slog.WarnContext(ctx, "Export failed, retrying", "attempt", attempt, "error", err)
		select {
		case <-p.stopCh:
			return
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay *= 2
	}
}
