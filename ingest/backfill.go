package ingest

import (
	"context"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/logger"
	"github.com/tder311/nemflow/models"
)

// Backfill runs the startup gap-closing sequence in priority order:
//
//  1. settlement-grade price gap-fill over the recent window, capped per run
//  2. bridge fill of the near-real-time price window since the latest
//     settlement-grade timestamp
//  3. telemetry backfill behind the archive publication cutoff
//
// Prices come first because daily gaps are cheapest to detect and the data
// is most valuable; telemetry archives are the most expensive pulls. A
// failure on one date never aborts the rest.
func (i *Ingester) Backfill(ctx context.Context) error {
	log := i.log.WithComponent("backfill")
	now := time.Now().In(nemcsv.MarketZone)

	if err := i.backfillPrices(ctx, now); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	i.bridgePrices(ctx)
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := i.backfillDispatch(ctx, now); err != nil {
		return err
	}

	log.Info("backfill sequence complete")
	return nil
}

func (i *Ingester) backfillPrices(ctx context.Context, now time.Time) error {
	log := i.log.WithComponent("backfill")

	start := now.AddDate(0, 0, -i.cfg.Ingest.PriceBackfillDays)
	missing, err := i.store.MissingPriceDates(ctx, start, now, models.SourcePublic)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		log.Debug("no missing price dates")
		return nil
	}
	if len(missing) > i.cfg.Ingest.MaxBackfillDates {
		missing = missing[:i.cfg.Ingest.MaxBackfillDates]
	}

	log.WithFields(logger.Fields{"dates": len(missing)}).Info("backfilling missing price dates")
	for _, date := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := i.ingestHistoricalDate(ctx, models.FeedPrice, date); err != nil {
			if feedSkippable(err) {
				log.WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Debug("price date not yet archived")
			} else {
				log.WithError(err).WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Warn("price backfill failed for date")
			}
		}
	}
	return nil
}

// bridgePrices covers the stretch between the last settlement-grade
// publication and now with provisional data: only directory entries newer
// than the latest PUBLIC timestamp are fetched, bounding the work to a few
// hundred files at worst.
func (i *Ingester) bridgePrices(ctx context.Context) {
	log := i.log.WithComponent("backfill")

	since, ok, err := i.store.LatestPriceTimestamp(ctx, models.SourcePublic)
	if err != nil {
		log.WithError(err).Warn("could not resolve bridge start")
		return
	}
	if !ok {
		log.Debug("no settlement-grade prices yet, skipping bridge fill")
		return
	}

	for _, fetch := range []struct {
		feed string
		f    func(context.Context, time.Time) ([]models.PriceRecord, error)
	}{
		{"dispatch_price_bridge", i.source.AllCurrentDispatchPrices},
		{"trading_price_bridge", i.source.AllCurrentTradingPrices},
	} {
		records, err := fetch.f(ctx, since)
		if err != nil {
			if !feedSkippable(err) {
				i.feedFailed(log, fetch.feed, err)
			}
			continue
		}
		n, err := retryOnce(func() (int, error) { return i.store.UpsertPrices(ctx, records) })
		if err != nil {
			i.feedFailed(log, fetch.feed, err)
			continue
		}
		i.recordWritten("price_data", n)
		log.WithFields(logger.Fields{"feed": fetch.feed, "records": n, "since": since}).Info("bridge fill complete")
	}
}

func (i *Ingester) backfillDispatch(ctx context.Context, now time.Time) error {
	log := i.log.WithComponent("backfill")

	// The current window is cheap, fetch it unconditionally.
	readings, err := i.source.CurrentDispatch(ctx)
	if err != nil {
		if !feedSkippable(err) {
			i.feedFailed(log, "dispatch", err)
		}
	} else {
		n, err := retryOnce(func() (int, error) { return i.store.UpsertDispatch(ctx, readings) })
		if err != nil {
			i.feedFailed(log, "dispatch", err)
		} else {
			i.recordWritten("dispatch_data", n)
		}
	}

	// Days newer than the archive delay are not archived yet; looking for
	// them would only burn 404s.
	cutoff := now.AddDate(0, 0, -i.cfg.Ingest.ArchiveDelayDays)
	start := now.AddDate(0, 0, -i.cfg.Ingest.PriceBackfillDays)
	missing, err := i.store.MissingDispatchDates(ctx, start, cutoff, minDispatchRecords)
	if err != nil {
		return err
	}
	if len(missing) == 0 {
		log.Debug("no missing dispatch dates")
		return nil
	}
	if len(missing) > i.cfg.Ingest.MaxBackfillDates {
		missing = missing[:i.cfg.Ingest.MaxBackfillDates]
	}

	log.WithFields(logger.Fields{"dates": len(missing)}).Info("backfilling missing dispatch dates")
	for _, date := range missing {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := i.ingestHistoricalDate(ctx, models.FeedDispatch, date); err != nil {
			if feedSkippable(err) {
				log.WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Debug("dispatch date not yet archived")
			} else {
				log.WithError(err).WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Warn("dispatch backfill failed for date")
			}
		}
	}
	return nil
}
