// Package worker copies activity log entries to the external audit sheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"budgetmanager/internal/amqp"
	"budgetmanager/internal/core"
	"budgetmanager/internal/sheets"
	"budgetmanager/internal/storage"
)

// MirrorStore is the slice of the store the worker reads and marks.
type MirrorStore interface {
	GetActivity(ctx context.Context, id int64) (core.ActivityEntry, error)
	UnmirroredActivity(ctx context.Context, limit int) ([]core.ActivityEntry, error)
	MarkActivityMirrored(ctx context.Context, id int64, at time.Time) error
}

// MirrorConfig holds configuration for the mirror worker
type MirrorConfig struct {
	// SweepInterval is how often unmirrored entries are looked up (default: 1m)
	SweepInterval time.Duration

	// BatchSize is the max number of entries mirrored per sweep (default: 50)
	BatchSize int
}

func DefaultMirrorConfig() MirrorConfig {
	return MirrorConfig{
		SweepInterval: time.Minute,
		BatchSize:     50,
	}
}

// MirrorWorker appends activity entries to the audit sheet, driven by AMQP
// events and by a periodic sweep that catches entries whose event was lost.
type MirrorWorker struct {
	store  MirrorStore
	sheet  sheets.ActivityWriter
	config MirrorConfig
	now    func() time.Time

	// Serializes mirroring so an event and a sweep never append the same row twice.
	mirrorMu sync.Mutex

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorWorker(store MirrorStore, sheet sheets.ActivityWriter, config MirrorConfig) *MirrorWorker {
	defaults := DefaultMirrorConfig()
	if config.SweepInterval <= 0 {
		config.SweepInterval = defaults.SweepInterval
	}
	if config.BatchSize <= 0 {
		config.BatchSize = defaults.BatchSize
	}
	return &MirrorWorker{store: store, sheet: sheet, config: config, now: time.Now}
}

// HandleActivityEvent mirrors the entry an AMQP event points at.
func (w *MirrorWorker) HandleActivityEvent(ctx context.Context, event *amqp.ActivityEvent) error {
	slog.InfoContext(ctx, "Processing activity event",
		"activity_id", event.ActivityID,
		"entity", event.EntityName,
		"action", event.Action)

	entry, err := w.store.GetActivity(ctx, event.ActivityID)
	if errors.Is(err, storage.ErrNotFound) {
		slog.WarnContext(ctx, "Activity entry not found, dropping event", "activity_id", event.ActivityID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get activity from storage: %w", err)
	}
	return w.mirror(ctx, entry)
}

func (w *MirrorWorker) mirror(ctx context.Context, entry core.ActivityEntry) error {
	w.mirrorMu.Lock()
	defer w.mirrorMu.Unlock()

	// Reload under the lock: a concurrent sweep may have mirrored it already.
	current, err := w.store.GetActivity(ctx, entry.ID)
	if err != nil {
		return fmt.Errorf("reload activity %d: %w", entry.ID, err)
	}
	if current.MirroredAt != nil {
		slog.DebugContext(ctx, "Activity already mirrored", "activity_id", entry.ID)
		return nil
	}

	ref, err := w.sheet.AppendActivity(ctx, current)
	if err != nil {
		return fmt.Errorf("append to sheets: %w", err)
	}
	if err := w.store.MarkActivityMirrored(ctx, current.ID, w.now()); err != nil {
		// The row is in the sheet; the next sweep would append it again.
		return fmt.Errorf("mark activity %d mirrored: %w", current.ID, err)
	}

	slog.InfoContext(ctx, "Mirrored activity to audit sheet",
		"activity_id", current.ID,
		"sheets_ref", ref)
	return nil
}

// Sweep mirrors up to one batch of unmirrored entries, oldest first. It
// stops at the first sheet failure so entries stay in order.
func (w *MirrorWorker) Sweep(ctx context.Context) (int, error) {
	entries, err := w.store.UnmirroredActivity(ctx, w.config.BatchSize)
	if err != nil {
		return 0, fmt.Errorf("get unmirrored activity: %w", err)
	}
	if len(entries) == 0 {
		return 0, nil
	}

	slog.InfoContext(ctx, "Processing unmirrored activity", "count", len(entries))

	mirrored := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return mirrored, err
		}
		if err := w.mirror(ctx, e); err != nil {
			return mirrored, err
		}
		mirrored++
	}
	return mirrored, nil
}

// Start runs a sweep immediately and then every SweepInterval until Stop is
// called or ctx ends. Returns an error if already running.
func (w *MirrorWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("mirror worker is already running")
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.mu.Unlock()

	go w.runLoop(ctx)

	slog.InfoContext(ctx, "Mirror worker started",
		"sweep_interval", w.config.SweepInterval,
		"batch_size", w.config.BatchSize)
	return nil
}

// Stop signals the loop and waits for it to finish.
func (w *MirrorWorker) Stop(ctx context.Context) error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	stopCh, doneCh := w.stopCh, w.doneCh
	w.running = false
	w.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Mirror worker stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror worker stop timed out")
		return ctx.Err()
	}
}

func (w *MirrorWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *MirrorWorker) runLoop(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.SweepInterval)
	defer ticker.Stop()

	w.sweepAndLog(ctx)

	for {
		select {
		case <-w.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sweepAndLog(ctx)
		}
	}
}

func (w *MirrorWorker) sweepAndLog(ctx context.Context) {
	n, err := w.Sweep(ctx)
	if err != nil {
		if ctx.Err() == nil {
			slog.ErrorContext(ctx, "Activity sweep failed", "mirrored", n, "error", err)
		}
		return
	}
	if n > 0 {
		slog.InfoContext(ctx, "Activity sweep completed", "mirrored", n)
	}
}
