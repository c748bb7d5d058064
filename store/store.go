// Package store persists normalized market records in PostgreSQL. Every
// record family has its own append-mostly table with a uniqueness constraint
// on the natural key; conflicting writes replace all non-key columns, so
// re-ingesting a file is idempotent.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tder311/nemflow/config"
	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/logger"
)

// StoreError reports a rejected write. It surfaces to the orchestrator, which
// retries the batch once; query failures are returned unwrapped.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func writeErr(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// isNoRows distinguishes "no data" (empty success) from a failed query.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// Store wraps a pgx connection pool. Safe for concurrent use; the
// upsert-on-conflict semantics make concurrent writes to overlapping keys
// safe without explicit locking.
type Store struct {
	pool *pgxpool.Pool
	log  *logger.Log
}

// New connects a pool using the configured URL and size bounds. Call
// Initialize before first use and Close on shutdown.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.Storage.Postgres.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing postgres url: %w", err)
	}
	if cfg.Storage.Postgres.PoolMin > 0 {
		poolCfg.MinConns = int32(cfg.Storage.Postgres.PoolMin)
	}
	if cfg.Storage.Postgres.PoolMax > 0 {
		poolCfg.MaxConns = int32(cfg.Storage.Postgres.PoolMax)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	s := &Store{pool: pool, log: logger.GetLogger()}
	s.log.WithComponent("store").WithFields(logger.Fields{
		"pool_min": cfg.Storage.Postgres.PoolMin,
		"pool_max": cfg.Storage.Postgres.PoolMax,
	}).Info("postgres pool created")
	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() {
	s.pool.Close()
	s.log.WithComponent("store").Info("postgres pool closed")
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS dispatch_data (
		id BIGSERIAL PRIMARY KEY,
		settlementdate TIMESTAMP NOT NULL,
		duid TEXT NOT NULL,
		scadavalue REAL,
		uigf REAL,
		totalcleared REAL,
		ramprate REAL,
		availability REAL,
		raise1sec REAL,
		lower1sec REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(settlementdate, duid)
	)`,
	`CREATE TABLE IF NOT EXISTS price_data (
		id BIGSERIAL PRIMARY KEY,
		settlementdate TIMESTAMP NOT NULL,
		region TEXT NOT NULL,
		price REAL,
		totaldemand REAL,
		price_type TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(settlementdate, region, price_type)
	)`,
	`CREATE TABLE IF NOT EXISTS interconnector_data (
		id BIGSERIAL PRIMARY KEY,
		settlementdate TIMESTAMP NOT NULL,
		interconnectorid TEXT NOT NULL,
		meteredmwflow REAL,
		mwflow REAL,
		mwlosses REAL,
		marginalvalue REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(settlementdate, interconnectorid)
	)`,
	`CREATE TABLE IF NOT EXISTS pdpasa_data (
		id BIGSERIAL PRIMARY KEY,
		run_datetime TIMESTAMP NOT NULL,
		interval_datetime TIMESTAMP NOT NULL,
		regionid TEXT NOT NULL,
		demand10 REAL,
		demand50 REAL,
		demand90 REAL,
		reservereq REAL,
		capacityreq REAL,
		aggregatecapacityavailable REAL,
		aggregatepasaavailability REAL,
		surplusreserve REAL,
		lorcondition INTEGER,
		calculatedlor1level REAL,
		calculatedlor2level REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_datetime, interval_datetime, regionid)
	)`,
	`CREATE TABLE IF NOT EXISTS stpasa_data (
		id BIGSERIAL PRIMARY KEY,
		run_datetime TIMESTAMP NOT NULL,
		interval_datetime TIMESTAMP NOT NULL,
		regionid TEXT NOT NULL,
		demand10 REAL,
		demand50 REAL,
		demand90 REAL,
		reservereq REAL,
		capacityreq REAL,
		aggregatecapacityavailable REAL,
		aggregatepasaavailability REAL,
		surplusreserve REAL,
		lorcondition INTEGER,
		calculatedlor1level REAL,
		calculatedlor2level REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(run_datetime, interval_datetime, regionid)
	)`,
	`CREATE TABLE IF NOT EXISTS bid_day_offers (
		id BIGSERIAL PRIMARY KEY,
		settlementdate TIMESTAMP NOT NULL,
		offerdate TIMESTAMP,
		duid TEXT NOT NULL,
		priceband1 REAL, priceband2 REAL, priceband3 REAL, priceband4 REAL, priceband5 REAL,
		priceband6 REAL, priceband7 REAL, priceband8 REAL, priceband9 REAL, priceband10 REAL,
		minimumload REAL,
		t1 REAL, t2 REAL, t3 REAL, t4 REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(settlementdate, duid)
	)`,
	`CREATE TABLE IF NOT EXISTS bid_interval_offers (
		id BIGSERIAL PRIMARY KEY,
		interval_datetime TIMESTAMP NOT NULL,
		offerdate TIMESTAMP,
		duid TEXT NOT NULL,
		bandavail1 REAL, bandavail2 REAL, bandavail3 REAL, bandavail4 REAL, bandavail5 REAL,
		bandavail6 REAL, bandavail7 REAL, bandavail8 REAL, bandavail9 REAL, bandavail10 REAL,
		maxavail REAL,
		fixedload REAL,
		rocup REAL,
		rocdown REAL,
		pasaavailability REAL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(interval_datetime, duid)
	)`,
	`CREATE TABLE IF NOT EXISTS price_setter_data (
		id BIGSERIAL PRIMARY KEY,
		period_id TIMESTAMP NOT NULL,
		regionid TEXT NOT NULL,
		price REAL,
		duid TEXT NOT NULL,
		increase REAL,
		band_price REAL,
		band_no INTEGER,
		significant BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(period_id, regionid, duid)
	)`,
	`CREATE TABLE IF NOT EXISTS generator_info (
		duid TEXT PRIMARY KEY,
		station_name TEXT,
		region TEXT,
		fuel_source TEXT,
		technology_type TEXT,
		capacity_mw REAL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	)`,

	`CREATE INDEX IF NOT EXISTS idx_dispatch_settlement ON dispatch_data(settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_duid ON dispatch_data(duid)`,
	`CREATE INDEX IF NOT EXISTS idx_dispatch_settlement_duid ON dispatch_data(settlementdate, duid)`,
	`CREATE INDEX IF NOT EXISTS idx_price_settlement ON price_data(settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_price_region ON price_data(region)`,
	`CREATE INDEX IF NOT EXISTS idx_price_region_settlement ON price_data(region, settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_price_region_type_settlement ON price_data(region, price_type, settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_interconnector_settlement ON interconnector_data(settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_pdpasa_run ON pdpasa_data(run_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_pdpasa_region_run ON pdpasa_data(regionid, run_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_stpasa_run ON stpasa_data(run_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_stpasa_region_run ON stpasa_data(regionid, run_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_bid_day_settlement ON bid_day_offers(settlementdate)`,
	`CREATE INDEX IF NOT EXISTS idx_bid_day_duid ON bid_day_offers(duid)`,
	`CREATE INDEX IF NOT EXISTS idx_bid_interval_datetime ON bid_interval_offers(interval_datetime)`,
	`CREATE INDEX IF NOT EXISTS idx_bid_interval_duid ON bid_interval_offers(duid)`,
	`CREATE INDEX IF NOT EXISTS idx_price_setter_period ON price_setter_data(period_id)`,
	`CREATE INDEX IF NOT EXISTS idx_price_setter_region_period ON price_setter_data(regionid, period_id)`,
}

// Initialize creates every table and index if absent. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return writeErr("initialize schema", err)
		}
	}
	s.log.WithComponent("store").Info("database schema initialized")
	return nil
}

// marketTime rebinds a scanned timestamp to the market zone. The columns are
// zone-less, so pgx hands back wall-clock values in UTC.
func marketTime(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), nemcsv.MarketZone)
}

func marketTimePtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := marketTime(*t)
	return &v
}

// missingDates walks the calendar days from start through end inclusive and
// returns midnight of every day whose date string is absent from present.
func missingDates(start, end time.Time, present map[string]bool) []time.Time {
	var missing []time.Time
	cur := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, nemcsv.MarketZone)
	last := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, nemcsv.MarketZone)
	for !cur.After(last) {
		if !present[cur.Format("2006-01-02")] {
			missing = append(missing, cur)
		}
		cur = cur.AddDate(0, 0, 1)
	}
	return missing
}
