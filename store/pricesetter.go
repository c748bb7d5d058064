package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertPriceSetterSQL = `
	INSERT INTO price_setter_data
		(period_id, regionid, price, duid, increase, band_price, band_no, significant)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (period_id, regionid, duid) DO UPDATE SET
		price = EXCLUDED.price,
		increase = EXCLUDED.increase,
		band_price = EXCLUDED.band_price,
		band_no = EXCLUDED.band_no,
		significant = EXCLUDED.significant`

// UpsertPriceSetters writes price attribution rows in one batch. Empty input
// returns 0 without a round-trip.
func (s *Store) UpsertPriceSetters(ctx context.Context, rows []models.PriceSetter) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertPriceSetterSQL,
			r.PeriodID, r.Region, r.Price, r.DUID, r.Increase, r.BandPrice, r.BandNo, r.Significant)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert price setters", err)
	}
	return len(rows), nil
}

// PriceSetterRange returns attributions with inclusive bounds in ascending
// period order. An empty region returns all regions. Below-threshold rows are
// included; callers filter on Significant when they want only material ones.
func (s *Store) PriceSetterRange(ctx context.Context, region string, start, end time.Time) ([]models.PriceSetter, error) {
	sql := `
		SELECT period_id, regionid, price, duid, increase, band_price, band_no, significant
		FROM price_setter_data
		WHERE period_id BETWEEN $1 AND $2`

	var (
		rows pgx.Rows
		err  error
	)
	if region != "" {
		rows, err = s.pool.Query(ctx, sql+` AND regionid = $3 ORDER BY period_id, duid`, start, end, region)
	} else {
		rows, err = s.pool.Query(ctx, sql+` ORDER BY period_id, regionid, duid`, start, end)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.PriceSetter
	for rows.Next() {
		var r models.PriceSetter
		if err := rows.Scan(&r.PeriodID, &r.Region, &r.Price, &r.DUID,
			&r.Increase, &r.BandPrice, &r.BandNo, &r.Significant); err != nil {
			return nil, err
		}
		r.PeriodID = marketTime(r.PeriodID)
		out = append(out, r)
	}
	return out, rows.Err()
}
