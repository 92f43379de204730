package proxy

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type Reaper struct {
	cron   *cron.Cron
	svc    *Service
	logger *slog.Logger
}

// NewReaper schedules ReapExpired on a cron spec such as "@every 1h" or "5 0 * * *".
func NewReaper(svc *Service, schedule string, logger *slog.Logger) (*Reaper, error) {
	if schedule == "" {
		schedule = "@every 1h"
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	r := &Reaper{cron: c, svc: svc, logger: logger}

	if _, err := c.AddFunc(schedule, r.run); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reaper) run() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	if _, err := r.svc.ReapExpired(ctx); err != nil {
		r.logger.Error("scheduled proxy reap failed", "error", err)
	}
}

func (r *Reaper) Start() {
	r.logger.Info("proxy reaper started")
	r.cron.Start()
}

// Stop waits for a running reap to finish or ctx to expire.
func (r *Reaper) Stop(ctx context.Context) error {
	done := r.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
