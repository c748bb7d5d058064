package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertBidDaySQL = `
	INSERT INTO bid_day_offers
		(settlementdate, offerdate, duid,
		 priceband1, priceband2, priceband3, priceband4, priceband5,
		 priceband6, priceband7, priceband8, priceband9, priceband10,
		 minimumload, t1, t2, t3, t4)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (settlementdate, duid) DO UPDATE SET
		offerdate = EXCLUDED.offerdate,
		priceband1 = EXCLUDED.priceband1, priceband2 = EXCLUDED.priceband2,
		priceband3 = EXCLUDED.priceband3, priceband4 = EXCLUDED.priceband4,
		priceband5 = EXCLUDED.priceband5, priceband6 = EXCLUDED.priceband6,
		priceband7 = EXCLUDED.priceband7, priceband8 = EXCLUDED.priceband8,
		priceband9 = EXCLUDED.priceband9, priceband10 = EXCLUDED.priceband10,
		minimumload = EXCLUDED.minimumload,
		t1 = EXCLUDED.t1, t2 = EXCLUDED.t2, t3 = EXCLUDED.t3, t4 = EXCLUDED.t4`

// UpsertBidDayOffers writes daily price-band rows in one batch. Empty input
// returns 0 without a round-trip.
func (s *Store) UpsertBidDayOffers(ctx context.Context, rows []models.BidDayOffer) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		args := []any{r.SettlementDate, r.OfferDate, r.DUID}
		for _, p := range r.PriceBands {
			args = append(args, p)
		}
		args = append(args, r.MinimumLoad, r.T1, r.T2, r.T3, r.T4)
		b.Queue(upsertBidDaySQL, args...)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert bid day offers", err)
	}
	return len(rows), nil
}

const upsertBidIntervalSQL = `
	INSERT INTO bid_interval_offers
		(interval_datetime, offerdate, duid,
		 bandavail1, bandavail2, bandavail3, bandavail4, bandavail5,
		 bandavail6, bandavail7, bandavail8, bandavail9, bandavail10,
		 maxavail, fixedload, rocup, rocdown, pasaavailability)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	ON CONFLICT (interval_datetime, duid) DO UPDATE SET
		offerdate = EXCLUDED.offerdate,
		bandavail1 = EXCLUDED.bandavail1, bandavail2 = EXCLUDED.bandavail2,
		bandavail3 = EXCLUDED.bandavail3, bandavail4 = EXCLUDED.bandavail4,
		bandavail5 = EXCLUDED.bandavail5, bandavail6 = EXCLUDED.bandavail6,
		bandavail7 = EXCLUDED.bandavail7, bandavail8 = EXCLUDED.bandavail8,
		bandavail9 = EXCLUDED.bandavail9, bandavail10 = EXCLUDED.bandavail10,
		maxavail = EXCLUDED.maxavail,
		fixedload = EXCLUDED.fixedload,
		rocup = EXCLUDED.rocup,
		rocdown = EXCLUDED.rocdown,
		pasaavailability = EXCLUDED.pasaavailability`

// UpsertBidIntervalOffers writes per-interval availability rows in one batch.
// Empty input returns 0 without a round-trip.
func (s *Store) UpsertBidIntervalOffers(ctx context.Context, rows []models.BidIntervalOffer) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		args := []any{r.IntervalDateTime, r.OfferDate, r.DUID}
		for _, a := range r.BandAvail {
			args = append(args, a)
		}
		args = append(args, r.MaxAvail, r.FixedLoad, r.RocUp, r.RocDown, r.PASAAvailability)
		b.Queue(upsertBidIntervalSQL, args...)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert bid interval offers", err)
	}
	return len(rows), nil
}

// BidDayOffers returns the daily price bands for one settlement day. An empty
// duid returns all units.
func (s *Store) BidDayOffers(ctx context.Context, day time.Time, duid string) ([]models.BidDayOffer, error) {
	sql := `
		SELECT settlementdate, offerdate, duid,
			priceband1, priceband2, priceband3, priceband4, priceband5,
			priceband6, priceband7, priceband8, priceband9, priceband10,
			minimumload, t1, t2, t3, t4
		FROM bid_day_offers
		WHERE settlementdate::DATE = $1::DATE`

	var (
		rows pgx.Rows
		err  error
	)
	if duid != "" {
		rows, err = s.pool.Query(ctx, sql+` AND duid = $2 ORDER BY duid`, day, duid)
	} else {
		rows, err = s.pool.Query(ctx, sql+` ORDER BY duid`, day)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BidDayOffer
	for rows.Next() {
		var r models.BidDayOffer
		dest := []any{&r.SettlementDate, &r.OfferDate, &r.DUID}
		for i := range r.PriceBands {
			dest = append(dest, &r.PriceBands[i])
		}
		dest = append(dest, &r.MinimumLoad, &r.T1, &r.T2, &r.T3, &r.T4)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.SettlementDate = marketTime(r.SettlementDate)
		r.OfferDate = marketTimePtr(r.OfferDate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// BidIntervalOffers returns availability rows with inclusive bounds in
// ascending interval order. An empty duid returns all units.
func (s *Store) BidIntervalOffers(ctx context.Context, duid string, start, end time.Time) ([]models.BidIntervalOffer, error) {
	sql := `
		SELECT interval_datetime, offerdate, duid,
			bandavail1, bandavail2, bandavail3, bandavail4, bandavail5,
			bandavail6, bandavail7, bandavail8, bandavail9, bandavail10,
			maxavail, fixedload, rocup, rocdown, pasaavailability
		FROM bid_interval_offers
		WHERE interval_datetime BETWEEN $1 AND $2`

	var (
		rows pgx.Rows
		err  error
	)
	if duid != "" {
		rows, err = s.pool.Query(ctx, sql+` AND duid = $3 ORDER BY interval_datetime`, start, end, duid)
	} else {
		rows, err = s.pool.Query(ctx, sql+` ORDER BY interval_datetime, duid`, start, end)
	}
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.BidIntervalOffer
	for rows.Next() {
		var r models.BidIntervalOffer
		dest := []any{&r.IntervalDateTime, &r.OfferDate, &r.DUID}
		for i := range r.BandAvail {
			dest = append(dest, &r.BandAvail[i])
		}
		dest = append(dest, &r.MaxAvail, &r.FixedLoad, &r.RocUp, &r.RocDown, &r.PASAAvailability)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		r.IntervalDateTime = marketTime(r.IntervalDateTime)
		r.OfferDate = marketTimePtr(r.OfferDate)
		out = append(out, r)
	}
	return out, rows.Err()
}
