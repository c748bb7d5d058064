// Package ingest orchestrates feed ingestion: a steady-state polling loop
// over the near-real-time feeds, historical range pulls, and the startup
// backfill sequence that closes gaps in priority order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/tder311/nemflow/config"
	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/logger"
	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
	"github.com/tder311/nemflow/reader/nemweb"
	"github.com/tder311/nemflow/store"
)

// Source fetches feed payloads. Satisfied by *nemweb.Client.
type Source interface {
	CurrentDispatch(ctx context.Context) ([]models.DispatchReading, error)
	HistoricalDispatch(ctx context.Context, date time.Time) ([]models.DispatchReading, error)
	CurrentDispatchPrices(ctx context.Context) ([]models.PriceRecord, error)
	CurrentTradingPrices(ctx context.Context) ([]models.PriceRecord, error)
	DailyPublicPrices(ctx context.Context, date time.Time) ([]models.PriceRecord, error)
	MonthlyPublicPrices(ctx context.Context, year int, month time.Month) ([]models.PriceRecord, error)
	AllCurrentDispatchPrices(ctx context.Context, since time.Time) ([]models.PriceRecord, error)
	AllCurrentTradingPrices(ctx context.Context, since time.Time) ([]models.PriceRecord, error)
	CurrentInterconnectorFlows(ctx context.Context) ([]models.InterconnectorFlow, error)
	LatestReserveForecasts(ctx context.Context, horizon models.PASAHorizon) ([]models.ReserveForecast, error)
	DailyBids(ctx context.Context, date time.Time) ([]models.BidDayOffer, []models.BidIntervalOffer, error)
	DailyPriceSetters(ctx context.Context, date time.Time) ([]models.PriceSetter, error)
}

// Store persists normalized records. Satisfied by *store.Store.
type Store interface {
	UpsertDispatch(ctx context.Context, rows []models.DispatchReading) (int, error)
	UpsertPrices(ctx context.Context, rows []models.PriceRecord) (int, error)
	UpsertInterconnectorFlows(ctx context.Context, rows []models.InterconnectorFlow) (int, error)
	UpsertReserveForecasts(ctx context.Context, horizon models.PASAHorizon, rows []models.ReserveForecast) (int, error)
	UpsertBidDayOffers(ctx context.Context, rows []models.BidDayOffer) (int, error)
	UpsertBidIntervalOffers(ctx context.Context, rows []models.BidIntervalOffer) (int, error)
	UpsertPriceSetters(ctx context.Context, rows []models.PriceSetter) (int, error)
	MissingPriceDates(ctx context.Context, start, end time.Time, source models.PriceSource) ([]time.Time, error)
	MissingDispatchDates(ctx context.Context, start, end time.Time, minRecords int) ([]time.Time, error)
	LatestPriceTimestamp(ctx context.Context, source models.PriceSource) (time.Time, bool, error)
}

// Exporter mirrors the optional raw export. A nil *writer.Exporter satisfies
// it as a no-op.
type Exporter interface {
	ExportPrices(ctx context.Context, rows []models.PriceRecord) error
}

// Ingester drives all ingestion for one process.
type Ingester struct {
	cfg      *config.Config
	source   Source
	store    Store
	exporter Exporter
	log      *logger.Log

	mu      sync.Mutex
	running bool
	status  Status
}

// New builds an Ingester over a store and a source.
func New(cfg *config.Config, st Store, src Source) *Ingester {
	return &Ingester{
		cfg:    cfg,
		source: src,
		store:  st,
		log:    logger.GetLogger(),
		status: Status{RecordsByTable: map[string]int{}},
	}
}

// UseExporter attaches the optional raw price export. Export failures are
// logged, never fatal; the store write has already landed.
func (i *Ingester) UseExporter(e Exporter) {
	i.exporter = e
}

// minDispatchRecords is the row threshold below which a day of telemetry is
// considered missing and worth an archive pull.
const minDispatchRecords = 100

// retryOnce re-runs a store write one time when it failed with a StoreError.
// Any other error, and a second failure, propagate unchanged.
func retryOnce(f func() (int, error)) (int, error) {
	n, err := f()
	var storeErr *store.StoreError
	if errors.As(err, &storeErr) {
		return f()
	}
	return n, err
}

// feedSkippable reports whether an error is a normal negative result: nothing
// published yet, or a payload with no usable rows.
func feedSkippable(err error) bool {
	return errors.Is(err, nemweb.ErrNotYetPublished) || errors.Is(err, parser.ErrNoData)
}

// IngestCurrent runs one pass over every near-real-time feed. Each feed is
// isolated: one failure logs, marks the pass unsuccessful, and moves on.
// Absent-data results do not fail the pass except for telemetry, whose
// absence means the pass did no useful work.
func (i *Ingester) IngestCurrent(ctx context.Context) bool {
	log := i.log.WithComponent("ingester")
	success := true

	readings, err := i.source.CurrentDispatch(ctx)
	if err != nil {
		success = false
		i.feedFailed(log, "dispatch", err)
	} else {
		n, err := retryOnce(func() (int, error) { return i.store.UpsertDispatch(ctx, readings) })
		if err != nil {
			success = false
			i.feedFailed(log, "dispatch", err)
		} else {
			i.recordWritten("dispatch_data", n)
		}
	}

	i.ingestPriceFeed(ctx, "dispatch_price", func() ([]models.PriceRecord, error) {
		return i.source.CurrentDispatchPrices(ctx)
	})
	i.ingestPriceFeed(ctx, "trading_price", func() ([]models.PriceRecord, error) {
		return i.source.CurrentTradingPrices(ctx)
	})

	// Yesterday's file covers the early hours of today because the market
	// day rolls at 04:00; fetch both days for complete coverage.
	today := time.Now().In(nemcsv.MarketZone)
	for _, date := range []time.Time{today.AddDate(0, 0, -1), today} {
		d := date
		i.ingestPriceFeed(ctx, "public_price", func() ([]models.PriceRecord, error) {
			return i.source.DailyPublicPrices(ctx, d)
		})
	}

	flows, err := i.source.CurrentInterconnectorFlows(ctx)
	if err != nil {
		if !feedSkippable(err) {
			success = false
			i.feedFailed(log, "interconnector", err)
		}
	} else {
		n, err := retryOnce(func() (int, error) { return i.store.UpsertInterconnectorFlows(ctx, flows) })
		if err != nil {
			success = false
			i.feedFailed(log, "interconnector", err)
		} else {
			i.recordWritten("interconnector_data", n)
		}
	}

	for _, horizon := range []models.PASAHorizon{models.HorizonPreDispatch, models.HorizonShortTerm} {
		forecasts, err := i.source.LatestReserveForecasts(ctx, horizon)
		if err != nil {
			if !feedSkippable(err) {
				success = false
				i.feedFailed(log, string(horizon), err)
			}
			continue
		}
		n, err := retryOnce(func() (int, error) { return i.store.UpsertReserveForecasts(ctx, horizon, forecasts) })
		if err != nil {
			success = false
			i.feedFailed(log, string(horizon), err)
			continue
		}
		i.recordWritten(string(horizon)+"_data", n)
	}

	if _, err := i.ingestDailyBids(ctx, today); err != nil && !feedSkippable(err) {
		success = false
		i.feedFailed(log, "bids", err)
	}

	i.recordCycle(success)
	return success
}

func (i *Ingester) ingestPriceFeed(ctx context.Context, feed string, fetch func() ([]models.PriceRecord, error)) {
	log := i.log.WithComponent("ingester")

	records, err := fetch()
	if err != nil {
		if feedSkippable(err) {
			log.WithFields(logger.Fields{"feed": feed}).Debug("no data this cycle")
			return
		}
		i.feedFailed(log, feed, err)
		return
	}

	n, err := retryOnce(func() (int, error) { return i.store.UpsertPrices(ctx, records) })
	if err != nil {
		i.feedFailed(log, feed, err)
		return
	}
	i.recordWritten("price_data", n)
	i.exportPrices(ctx, records)
}

func (i *Ingester) ingestDailyBids(ctx context.Context, date time.Time) (int, error) {
	day, interval, err := i.source.DailyBids(ctx, date)
	if err != nil {
		return 0, err
	}

	nDay, err := retryOnce(func() (int, error) { return i.store.UpsertBidDayOffers(ctx, day) })
	if err != nil {
		return 0, err
	}
	i.recordWritten("bid_day_offers", nDay)

	nInterval, err := retryOnce(func() (int, error) { return i.store.UpsertBidIntervalOffers(ctx, interval) })
	if err != nil {
		return nDay, err
	}
	i.recordWritten("bid_interval_offers", nInterval)
	return nDay + nInterval, nil
}

func (i *Ingester) exportPrices(ctx context.Context, rows []models.PriceRecord) {
	if i.exporter == nil || len(rows) == 0 {
		return
	}
	if err := i.exporter.ExportPrices(ctx, rows); err != nil {
		i.log.WithComponent("ingester").WithError(err).Warn("raw price export failed")
	}
}

func (i *Ingester) feedFailed(log *logger.Entry, feed string, err error) {
	feedFailures.WithLabelValues(feed).Inc()
	log.WithError(err).WithFields(logger.Fields{"feed": feed}).Warn("feed ingestion failed")
}

// IngestHistoricalRange pulls one feed's archives for every day in
// [start, end]. A failure on one date is logged and skipped. The shared rate
// limiter spaces the fetches. Returns the number of records written.
func (i *Ingester) IngestHistoricalRange(ctx context.Context, feed models.FeedKind, start, end time.Time) (int, error) {
	log := i.log.WithComponent("ingester").WithFields(logger.Fields{
		"feed":  string(feed),
		"start": start.Format("2006-01-02"),
		"end":   end.Format("2006-01-02"),
	})
	log.Info("starting historical ingestion")

	total := 0
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			return total, err
		}

		n, err := i.ingestHistoricalDate(ctx, feed, date)
		if err != nil {
			if feedSkippable(err) {
				log.WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Debug("no data for date")
			} else {
				log.WithError(err).WithFields(logger.Fields{"date": date.Format("2006-01-02")}).Warn("date ingestion failed")
				feedFailures.WithLabelValues(string(feed)).Inc()
			}
			continue
		}
		total += n
	}

	log.WithFields(logger.Fields{"records": total}).Info("historical ingestion complete")
	return total, nil
}

func (i *Ingester) ingestHistoricalDate(ctx context.Context, feed models.FeedKind, date time.Time) (int, error) {
	switch feed {
	case models.FeedDispatch:
		readings, err := i.source.HistoricalDispatch(ctx, date)
		if err != nil {
			return 0, err
		}
		n, err := retryOnce(func() (int, error) { return i.store.UpsertDispatch(ctx, readings) })
		if err == nil {
			i.recordWritten("dispatch_data", n)
		}
		return n, err

	case models.FeedPrice:
		records, err := i.source.DailyPublicPrices(ctx, date)
		if err != nil {
			return 0, err
		}
		n, err := retryOnce(func() (int, error) { return i.store.UpsertPrices(ctx, records) })
		if err == nil {
			i.recordWritten("price_data", n)
			i.exportPrices(ctx, records)
		}
		return n, err

	case models.FeedBids:
		return i.ingestDailyBids(ctx, date)

	case models.FeedPriceSetter:
		setters, err := i.source.DailyPriceSetters(ctx, date)
		if err != nil {
			return 0, err
		}
		n, err := retryOnce(func() (int, error) { return i.store.UpsertPriceSetters(ctx, setters) })
		if err == nil {
			i.recordWritten("price_setter_data", n)
		}
		return n, err

	default:
		return 0, fmt.Errorf("feed %q has no historical archive", feed)
	}
}

// IngestMonthlyPrices pulls one whole month of settlement-grade prices from
// the monthly archive in a single download.
func (i *Ingester) IngestMonthlyPrices(ctx context.Context, year int, month time.Month) (int, error) {
	records, err := i.source.MonthlyPublicPrices(ctx, year, month)
	if err != nil {
		return 0, err
	}
	n, err := retryOnce(func() (int, error) { return i.store.UpsertPrices(ctx, records) })
	if err != nil {
		return 0, err
	}
	i.recordWritten("price_data", n)
	i.exportPrices(ctx, records)
	return n, nil
}
