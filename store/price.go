package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertPriceSQL = `
	INSERT INTO price_data (settlementdate, region, price, totaldemand, price_type)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (settlementdate, region, price_type) DO UPDATE SET
		price = EXCLUDED.price,
		totaldemand = EXCLUDED.totaldemand`

// UpsertPrices writes price observations in one batch, replacing non-key
// columns on conflict. Empty input returns 0 without a round-trip.
func (s *Store) UpsertPrices(ctx context.Context, rows []models.PriceRecord) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertPriceSQL, r.SettlementDate, r.Region, r.Price, r.TotalDemand, string(r.Source))
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert prices", err)
	}
	return len(rows), nil
}

const selectPriceColumns = `settlementdate, region, price, totaldemand, price_type`

func scanPrices(rows pgx.Rows) ([]models.PriceRecord, error) {
	defer rows.Close()
	var out []models.PriceRecord
	for rows.Next() {
		var (
			r      models.PriceRecord
			source string
		)
		if err := rows.Scan(&r.SettlementDate, &r.Region, &r.Price, &r.TotalDemand, &source); err != nil {
			return nil, err
		}
		r.SettlementDate = marketTime(r.SettlementDate)
		r.Source = models.PriceSource(source)
		out = append(out, r)
	}
	return out, rows.Err()
}

// PriceRange returns price rows for one source with inclusive bounds in
// ascending timestamp order. An empty region returns all regions.
func (s *Store) PriceRange(ctx context.Context, region string, source models.PriceSource, start, end time.Time) ([]models.PriceRecord, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if region != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectPriceColumns+` FROM price_data
			WHERE price_type = $1 AND region = $2 AND settlementdate BETWEEN $3 AND $4
			ORDER BY settlementdate`, string(source), region, start, end)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectPriceColumns+` FROM price_data
			WHERE price_type = $1 AND settlementdate BETWEEN $2 AND $3
			ORDER BY settlementdate`, string(source), start, end)
	}
	if err != nil {
		return nil, err
	}
	return scanPrices(rows)
}

// LatestPrices returns every region's row at the most recent settlement
// instant for the given source.
func (s *Store) LatestPrices(ctx context.Context, source models.PriceSource) ([]models.PriceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectPriceColumns+` FROM price_data
		WHERE price_type = $1 AND settlementdate = (
			SELECT MAX(settlementdate) FROM price_data WHERE price_type = $1
		)
		ORDER BY region`, string(source))
	if err != nil {
		return nil, err
	}
	return scanPrices(rows)
}

// LatestPriceTimestamp returns the newest settlement instant stored for one
// source. The second return value is false when no rows exist.
func (s *Store) LatestPriceTimestamp(ctx context.Context, source models.PriceSource) (time.Time, bool, error) {
	var ts *time.Time
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(settlementdate) FROM price_data WHERE price_type = $1`,
		string(source)).Scan(&ts)
	if err != nil {
		return time.Time{}, false, err
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return marketTime(*ts), true, nil
}

// RegionPriceHistory returns one region's rows for the trailing window,
// measured back from the latest stored instant rather than the wall clock so
// a lagging store still yields a full window.
func (s *Store) RegionPriceHistory(ctx context.Context, region string, hours int, source models.PriceSource) ([]models.PriceRecord, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectPriceColumns+` FROM price_data
		WHERE region = $1 AND price_type = $2
		AND settlementdate >= (
			SELECT MAX(settlementdate) FROM price_data WHERE region = $1 AND price_type = $2
		) - ($3 * INTERVAL '1 hour')
		ORDER BY settlementdate`, region, string(source), hours)
	if err != nil {
		return nil, err
	}
	return scanPrices(rows)
}

// MissingPriceDates returns calendar days in [start, end] with no stored rows
// for the given source, used to drive backfill.
func (s *Store) MissingPriceDates(ctx context.Context, start, end time.Time, source models.PriceSource) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT DISTINCT settlementdate::DATE AS data_date
		FROM price_data
		WHERE price_type = $1
		AND settlementdate::DATE BETWEEN $2::DATE AND $3::DATE`, string(source), start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	present := map[string]bool{}
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		present[d.Format("2006-01-02")] = true
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return missingDates(start, end, present), nil
}
