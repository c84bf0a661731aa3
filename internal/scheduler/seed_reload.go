package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/logger"
	"github.com/MrSnakeDoc/tinylink/internal/seed"
)

// Applier is what the reloader drives. *seed.Seeder satisfies it.
type Applier interface {
	ApplyFile(ctx context.Context, path string) (seed.Report, error)
}

var _ Applier = (*seed.Seeder)(nil)

// SeedReloader applies the seed file on start, then on every tick and on
// every manual trigger.
type SeedReloader struct {
	applier       Applier
	path          string
	logger        logger.Logger
	interval      time.Duration
	manualTrigger <-chan struct{}

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewSeedReloader creates a reloader. An interval of zero disables the
// ticker; manual triggers still work.
func NewSeedReloader(
	applier Applier,
	path string,
	log logger.Logger,
	interval time.Duration,
	manualTrigger <-chan struct{},
) *SeedReloader {
	return &SeedReloader{
		applier:       applier,
		path:          path,
		logger:        log,
		interval:      interval,
		manualTrigger: manualTrigger,
		stopCh:        make(chan struct{}),
		done:          make(chan struct{}),
	}
}

// Start applies the file once and returns its error, then keeps running in
// the background until Stop or ctx cancellation.
func (sr *SeedReloader) Start(ctx context.Context) error {
	if err := sr.Reload(ctx); err != nil {
		close(sr.done)
		return fmt.Errorf("initial seed failed: %w", err)
	}

	go func() {
		defer close(sr.done)

		var tick <-chan time.Time
		if sr.interval > 0 {
			ticker := time.NewTicker(sr.interval)
			defer ticker.Stop()
			tick = ticker.C
		}

		for {
			select {
			case <-tick:
				sr.reloadLogged(ctx)
			case <-sr.manualTrigger:
				sr.logger.Info("manual seed reload triggered")
				sr.reloadLogged(ctx)
			case <-sr.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Stop ends the background loop and waits for an in-flight reload. It must
// only be called after Start.
func (sr *SeedReloader) Stop() {
	sr.stopOnce.Do(func() { close(sr.stopCh) })
	<-sr.done
}

// Reload applies the seed file now.
func (sr *SeedReloader) Reload(ctx context.Context) error {
	start := time.Now()
	rep, err := sr.applier.ApplyFile(ctx, sr.path)
	if err != nil {
		return err
	}

	sr.logger.Info("seed applied",
		logger.String("file", sr.path),
		logger.Int("created", rep.Created),
		logger.Int("unchanged", rep.Unchanged),
		logger.Int("drifted", len(rep.Drifted)),
		logger.Duration("took", time.Since(start)))
	return nil
}

func (sr *SeedReloader) reloadLogged(ctx context.Context) {
	if err := sr.Reload(ctx); err != nil {
		sr.logger.Error("failed to apply seed file", logger.String("file", sr.path), logger.Error(err))
	}
}
