// Package connect waits for a backing service to answer before the app starts
// serving. Postgres, SQLite/libsql and Redis all go through WithRetry.
package connect

import (
	"context"
	"fmt"
	"time"

	"github.com/MrSnakeDoc/tinylink/internal/logger"
)

// Policy defines how long and how often to retry.
type Policy struct {
	Timeout       time.Duration // total budget for all attempts (ex: 30s)
	InitialWait   time.Duration // first pause between attempts, doubled each time (ex: 2s)
	MaxWait       time.Duration // cap on the pause (ex: 10s)
	PingTimeout   time.Duration // budget per attempt (ex: 5s)
	WarnThreshold int           // attempts logged as warnings before escalating to errors
}

// Validate rejects policies that would spin or never try.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return fmt.Errorf("connect timeout must be > 0, got %v", p.Timeout)
	}
	if p.InitialWait <= 0 {
		return fmt.Errorf("retry interval must be > 0, got %v", p.InitialWait)
	}
	if p.MaxWait <= 0 {
		return fmt.Errorf("max wait must be > 0, got %v", p.MaxWait)
	}
	if p.PingTimeout <= 0 {
		return fmt.Errorf("ping timeout must be > 0, got %v", p.PingTimeout)
	}
	if p.WarnThreshold < 0 {
		return fmt.Errorf("warn threshold must be >= 0, got %d", p.WarnThreshold)
	}
	return nil
}

// PingFunc checks the target once.
type PingFunc func(ctx context.Context) error

// approaching is how close to the deadline retries start logging as errors.
const approaching = 10 * time.Second

// WithRetry calls ping until it succeeds, ctx ends, or the policy's timeout
// runs out. The wait between attempts doubles up to MaxWait.
func WithRetry(ctx context.Context, target string, p Policy, log logger.Logger, ping PingFunc) error {
	if err := p.Validate(); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	log.Info("connecting", logger.String("target", target), logger.Duration("timeout", p.Timeout))

	start := time.Now()
	wait := p.InitialWait
	for attempt := 1; ; attempt++ {
		pingCtx, pingCancel := context.WithTimeout(ctx, p.PingTimeout)
		err := ping(pingCtx)
		pingCancel()

		if err == nil {
			if attempt > 1 {
				log.Warn("connected after retry",
					logger.String("target", target),
					logger.Int("attempts", attempt),
					logger.Duration("elapsed", time.Since(start)))
			} else {
				log.Info("connected", logger.String("target", target))
			}
			return nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			log.Error("giving up on connection",
				logger.String("target", target),
				logger.Int("attempts", attempt),
				logger.Duration("timeout", p.Timeout),
				logger.Error(err))
			return fmt.Errorf("%s unavailable after %d attempts (timeout %v): %w", target, attempt, p.Timeout, err)
		case <-timer.C:
			logRetry(log, target, attempt, timeLeft(ctx), wait, p.WarnThreshold, err)
			wait *= 2
			if wait > p.MaxWait {
				wait = p.MaxWait
			}
		}
	}
}

func logRetry(log logger.Logger, target string, attempt int, remaining, waited time.Duration, warnThreshold int, err error) {
	switch {
	case remaining < approaching:
		log.Error("still down, deadline approaching",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("remaining", remaining),
			logger.Error(err))
	case attempt <= warnThreshold:
		log.Warn("connection failed, retrying",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("waited", waited),
			logger.Error(err))
	default:
		log.Error("still unavailable",
			logger.String("target", target),
			logger.Int("attempt", attempt),
			logger.Duration("waited", waited),
			logger.Error(err))
	}
}

func timeLeft(ctx context.Context) time.Duration {
	deadline, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	return time.Until(deadline)
}
