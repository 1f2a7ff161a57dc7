package scheduler

import (
	"context"
	"fmt"
	"time"

	"cryptorates/internal/logger"

	"github.com/robfig/cron/v3"
)

// Task is one scheduled unit of work. Errors are logged, not fatal; the
// next tick still fires.
type Task func(ctx context.Context) error

// Run executes task on the given cron spec until ctx is canceled. It
// blocks, so callers usually run it in its own goroutine or errgroup.
func Run(ctx context.Context, spec, name string, task Task) error {
	c := cron.New()
	_, err := c.AddFunc(spec, func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Errorf("scheduler: %s failed after %s: %v", name, time.Since(start).Round(time.Millisecond), err)
			return
		}
		logger.Debugf("scheduler: %s finished in %s", name, time.Since(start).Round(time.Millisecond))
	})
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}

	c.Start()
	logger.Infof("scheduler: %s scheduled with spec %q", name, spec)
	<-ctx.Done()

	// Stop returns a context that is done once running jobs drain.
	<-c.Stop().Done()
	return nil
}

// Validate checks a cron spec without scheduling anything.
func Validate(spec string) error {
	_, err := cron.ParseStandard(spec)
	if err != nil {
		return fmt.Errorf("invalid cron spec %q: %w", spec, err)
	}
	return nil
}
