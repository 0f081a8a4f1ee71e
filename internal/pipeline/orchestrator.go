package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/kzharov/pitchsignal/internal/blob/s3"
	"github.com/kzharov/pitchsignal/internal/emit"
)

// seenKeyTTL is how long the emission controller remembers a key before the
// hourly prune drops it. Matches end well inside a day.
const seenKeyTTL = 24 * time.Hour

// Orchestrator manages the engine goroutines: the scan loop, the settlement
// loop, the emission-state prune, and the optional daily archive upload.
type Orchestrator struct {
	scanner        *Scanner
	settler        *Settler
	emitter        *emit.Controller
	archiver       *s3blob.Archiver // nil disables archiving
	scanInterval   time.Duration
	settleInterval time.Duration
	logger         *slog.Logger
}

// NewOrchestrator creates a new Orchestrator. A nil archiver disables the
// archive loop.
func NewOrchestrator(
	scanner *Scanner,
	settler *Settler,
	emitter *emit.Controller,
	archiver *s3blob.Archiver,
	scanInterval, settleInterval time.Duration,
	logger *slog.Logger,
) *Orchestrator {
	return &Orchestrator{
		scanner:        scanner,
		settler:        settler,
		emitter:        emitter,
		archiver:       archiver,
		scanInterval:   scanInterval,
		settleInterval: settleInterval,
		logger:         logger,
	}
}

// Run starts all loops as concurrent goroutines using an errgroup. Each
// goroutine respects ctx cancellation. If any goroutine returns a non-context
// error, the errgroup cancels the shared context and Run returns that error.
func (o *Orchestrator) Run(ctx context.Context) error {
	o.logger.Info("orchestrator starting",
		slog.Duration("scan_interval", o.scanInterval),
		slog.Duration("settle_interval", o.settleInterval),
		slog.Bool("archive", o.archiver != nil),
	)

	g, ctx := errgroup.WithContext(ctx)

	if o.scanner != nil {
		g.Go(func() error {
			o.logger.Info("starting scan loop")
			err := o.scanner.RunLoop(ctx, o.scanInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("scanner: %w", err)
		})
	}

	if o.settler != nil {
		g.Go(func() error {
			o.logger.Info("starting settlement loop")
			err := o.settler.RunLoop(ctx, o.settleInterval)
			if ctx.Err() != nil {
				return nil // clean shutdown
			}
			return fmt.Errorf("settler: %w", err)
		})
	}

	if o.emitter != nil {
		g.Go(func() error {
			o.runPruneLoop(ctx)
			return nil
		})
	}

	if o.archiver != nil {
		g.Go(func() error {
			o.runArchiveLoop(ctx)
			return nil
		})
	}

	err := g.Wait()
	if err != nil {
		o.logger.Error("orchestrator stopped with error", slog.String("error", err.Error()))
		return err
	}

	o.logger.Info("orchestrator stopped cleanly")
	return nil
}

// runPruneLoop drops stale emission-controller entries once an hour so the
// seen-key map does not grow with every match ever scanned.
func (o *Orchestrator) runPruneLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			o.emitter.Prune(seenKeyTTL)
		}
	}
}

// runArchiveLoop uploads the previous UTC day's picks and settlements to cold
// storage once the day rolls over. Checks hourly; uploads are idempotent
// because the object key is keyed by day.
func (o *Orchestrator) runArchiveLoop(ctx context.Context) {
	lastArchived := time.Now().UTC().Truncate(24 * time.Hour)

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			today := time.Now().UTC().Truncate(24 * time.Hour)
			if !today.After(lastArchived) {
				continue
			}
			yesterday := today.AddDate(0, 0, -1)
			count, err := o.archiver.ArchiveDay(ctx, yesterday)
			if err != nil {
				o.logger.Error("daily archive failed",
					slog.String("day", yesterday.Format(time.DateOnly)),
					slog.String("error", err.Error()),
				)
				continue
			}
			o.logger.Info("daily archive uploaded",
				slog.String("day", yesterday.Format(time.DateOnly)),
				slog.Int64("records", count),
			)
			lastArchived = today
		}
	}
}
