package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/tder311/nemflow/logger"
)

// Run executes the startup backfill and then polls the near-real-time feeds
// until the context is cancelled. A failed cycle sleeps the shorter cooldown
// instead of the full interval; nothing short of cancellation stops the loop.
func (i *Ingester) Run(ctx context.Context) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return fmt.Errorf("ingester already running")
	}
	i.running = true
	i.mu.Unlock()
	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
	}()

	session, ctx := newSession(ctx)
	defer session.Stop()

	i.mu.Lock()
	i.status.RunID = session.ID
	i.mu.Unlock()

	log := i.log.WithComponent("ingester").WithFields(logger.Fields{"run_id": session.ID})
	interval := time.Duration(i.cfg.Ingest.PollIntervalMinutes) * time.Minute
	cooldown := time.Duration(i.cfg.Ingest.CooldownSeconds) * time.Second
	log.WithFields(logger.Fields{
		"interval": interval.String(),
		"cooldown": cooldown.String(),
	}).Info("ingestion loop starting")

	if err := i.Backfill(ctx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.WithError(err).Warn("startup backfill failed, continuing with polling")
	}

	for {
		success := i.IngestCurrent(ctx)
		if ctx.Err() != nil {
			log.Info("ingestion loop stopped")
			return ctx.Err()
		}

		wait := interval
		if !success {
			wait = cooldown
			log.WithFields(logger.Fields{"cooldown": cooldown.String()}).Warn("cycle failed, cooling down")
		}

		select {
		case <-ctx.Done():
			log.Info("ingestion loop stopped")
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}
