package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

func pasaTable(horizon models.PASAHorizon) (string, error) {
	switch horizon {
	case models.HorizonPreDispatch:
		return "pdpasa_data", nil
	case models.HorizonShortTerm:
		return "stpasa_data", nil
	default:
		return "", fmt.Errorf("unknown reserve horizon %q", horizon)
	}
}

const pasaColumns = `run_datetime, interval_datetime, regionid,
	demand10, demand50, demand90, reservereq, capacityreq,
	aggregatecapacityavailable, aggregatepasaavailability, surplusreserve,
	lorcondition, calculatedlor1level, calculatedlor2level`

// UpsertReserveForecasts writes forecast rows in one batch, routed to the
// horizon's table. Empty input returns 0 without a round-trip.
func (s *Store) UpsertReserveForecasts(ctx context.Context, horizon models.PASAHorizon, rows []models.ReserveForecast) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	table, err := pasaTable(horizon)
	if err != nil {
		return 0, err
	}

	sql := `INSERT INTO ` + table + ` (` + pasaColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (run_datetime, interval_datetime, regionid) DO UPDATE SET
			demand10 = EXCLUDED.demand10,
			demand50 = EXCLUDED.demand50,
			demand90 = EXCLUDED.demand90,
			reservereq = EXCLUDED.reservereq,
			capacityreq = EXCLUDED.capacityreq,
			aggregatecapacityavailable = EXCLUDED.aggregatecapacityavailable,
			aggregatepasaavailability = EXCLUDED.aggregatepasaavailability,
			surplusreserve = EXCLUDED.surplusreserve,
			lorcondition = EXCLUDED.lorcondition,
			calculatedlor1level = EXCLUDED.calculatedlor1level,
			calculatedlor2level = EXCLUDED.calculatedlor2level`

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(sql,
			r.RunDateTime, r.IntervalDateTime, r.RegionID,
			r.Demand10, r.Demand50, r.Demand90, r.ReserveReq, r.CapacityReq,
			r.AggregateCapacityAvailable, r.AggregatePASAAvailability, r.SurplusReserve,
			r.LORCondition, r.LOR1Level, r.LOR2Level)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert "+table, err)
	}
	return len(rows), nil
}

func scanReserveForecasts(rows pgx.Rows, horizon models.PASAHorizon) ([]models.ReserveForecast, error) {
	defer rows.Close()
	var out []models.ReserveForecast
	for rows.Next() {
		r := models.ReserveForecast{Horizon: horizon}
		if err := rows.Scan(&r.RunDateTime, &r.IntervalDateTime, &r.RegionID,
			&r.Demand10, &r.Demand50, &r.Demand90, &r.ReserveReq, &r.CapacityReq,
			&r.AggregateCapacityAvailable, &r.AggregatePASAAvailability, &r.SurplusReserve,
			&r.LORCondition, &r.LOR1Level, &r.LOR2Level); err != nil {
			return nil, err
		}
		r.RunDateTime = marketTime(r.RunDateTime)
		r.IntervalDateTime = marketTime(r.IntervalDateTime)
		out = append(out, r)
	}
	return out, rows.Err()
}

// LatestReserveForecasts returns the forecast curve from the most recent run
// of one horizon, all intervals in ascending order. An empty region returns
// all regions.
func (s *Store) LatestReserveForecasts(ctx context.Context, horizon models.PASAHorizon, region string) ([]models.ReserveForecast, error) {
	table, err := pasaTable(horizon)
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	if region != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+pasaColumns+` FROM `+table+`
			WHERE run_datetime = (SELECT MAX(run_datetime) FROM `+table+`)
			AND regionid = $1
			ORDER BY interval_datetime`, region)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+pasaColumns+` FROM `+table+`
			WHERE run_datetime = (SELECT MAX(run_datetime) FROM `+table+`)
			ORDER BY interval_datetime, regionid`)
	}
	if err != nil {
		return nil, err
	}
	return scanReserveForecasts(rows, horizon)
}

// ReserveForecastRange returns forecast rows whose interval falls inside the
// inclusive bounds, across all runs, ascending by interval then run.
func (s *Store) ReserveForecastRange(ctx context.Context, horizon models.PASAHorizon, region string, start, end time.Time) ([]models.ReserveForecast, error) {
	table, err := pasaTable(horizon)
	if err != nil {
		return nil, err
	}

	var rows pgx.Rows
	if region != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+pasaColumns+` FROM `+table+`
			WHERE interval_datetime BETWEEN $1 AND $2 AND regionid = $3
			ORDER BY interval_datetime, run_datetime`, start, end, region)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+pasaColumns+` FROM `+table+`
			WHERE interval_datetime BETWEEN $1 AND $2
			ORDER BY interval_datetime, run_datetime, regionid`, start, end)
	}
	if err != nil {
		return nil, err
	}
	return scanReserveForecasts(rows, horizon)
}
