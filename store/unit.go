package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertUnitSQL = `
	INSERT INTO generator_info (duid, station_name, region, fuel_source, technology_type, capacity_mw, updated_at)
	VALUES ($1, $2, $3, $4, $5, $6, CURRENT_TIMESTAMP)
	ON CONFLICT (duid) DO UPDATE SET
		station_name = EXCLUDED.station_name,
		region = EXCLUDED.region,
		fuel_source = EXCLUDED.fuel_source,
		technology_type = EXCLUDED.technology_type,
		capacity_mw = EXCLUDED.capacity_mw,
		updated_at = CURRENT_TIMESTAMP`

// UpsertUnits writes unit reference rows in one batch. Empty input returns 0
// without a round-trip.
func (s *Store) UpsertUnits(ctx context.Context, rows []models.UnitMetadata) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertUnitSQL, r.DUID, r.StationName, r.Region, r.FuelSource, r.TechnologyType, r.CapacityMW)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert units", err)
	}
	return len(rows), nil
}

// Units lists the full unit reference table.
func (s *Store) Units(ctx context.Context) ([]models.UnitMetadata, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT duid, station_name, region, fuel_source, technology_type, capacity_mw
		FROM generator_info ORDER BY duid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.UnitMetadata
	for rows.Next() {
		var u models.UnitMetadata
		if err := rows.Scan(&u.DUID, &u.StationName, &u.Region, &u.FuelSource,
			&u.TechnologyType, &u.CapacityMW); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// FuelGeneration is one (instant, fuel source) aggregation of telemetry
// joined to the unit reference table.
type FuelGeneration struct {
	SettlementDate time.Time
	FuelSource     string
	GenerationMW   float64
	UnitCount      int
}

// GenerationByFuel sums telemetry by fuel source per settlement instant over
// the inclusive range. Units missing reference data land in "Unknown".
func (s *Store) GenerationByFuel(ctx context.Context, start, end time.Time) ([]FuelGeneration, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT d.settlementdate,
			COALESCE(g.fuel_source, 'Unknown') AS fuel_source,
			SUM(d.scadavalue) AS total_generation,
			COUNT(*) AS unit_count
		FROM dispatch_data d
		LEFT JOIN generator_info g ON d.duid = g.duid
		WHERE d.settlementdate BETWEEN $1 AND $2
		GROUP BY d.settlementdate, g.fuel_source
		ORDER BY d.settlementdate, fuel_source`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []FuelGeneration
	for rows.Next() {
		var f FuelGeneration
		if err := rows.Scan(&f.SettlementDate, &f.FuelSource, &f.GenerationMW, &f.UnitCount); err != nil {
			return nil, err
		}
		f.SettlementDate = marketTime(f.SettlementDate)
		out = append(out, f)
	}
	return out, rows.Err()
}

// FuelMixEntry is one fuel source's share of a region's generation at the
// latest reporting instant.
type FuelMixEntry struct {
	FuelSource     string
	GenerationMW   float64
	UnitCount      int
	SettlementDate time.Time
	Percentage     float64
}

// RegionFuelMix breaks the latest generation snapshot for one region down by
// fuel source, with each source's percentage of the region total.
func (s *Store) RegionFuelMix(ctx context.Context, region string) ([]FuelMixEntry, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(g.fuel_source, 'Unknown') AS fuel_source,
			SUM(d.scadavalue) AS generation_mw,
			COUNT(*) AS unit_count,
			MAX(d.settlementdate) AS settlementdate
		FROM dispatch_data d
		LEFT JOIN generator_info g ON d.duid = g.duid
		WHERE d.settlementdate = (SELECT MAX(settlementdate) FROM dispatch_data)
		AND g.region = $1
		GROUP BY g.fuel_source
		ORDER BY SUM(d.scadavalue) DESC`, region)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		out   []FuelMixEntry
		total float64
	)
	for rows.Next() {
		var e FuelMixEntry
		if err := rows.Scan(&e.FuelSource, &e.GenerationMW, &e.UnitCount, &e.SettlementDate); err != nil {
			return nil, err
		}
		e.SettlementDate = marketTime(e.SettlementDate)
		total += e.GenerationMW
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if total > 0 {
		for i := range out {
			out[i].Percentage = out[i].GenerationMW / total * 100
		}
	}
	return out, nil
}

// GenerationBucket is one (bucket, fuel source) average over a region's
// generation history.
type GenerationBucket struct {
	Period       time.Time
	FuelSource   string
	GenerationMW float64
	SampleCount  int
}

// RegionGenerationHistory returns generation by fuel source for the trailing
// window, averaged into fixed-width buckets anchored to absolute time. The
// window is measured back from the latest stored instant.
func (s *Store) RegionGenerationHistory(ctx context.Context, region string, hours int, bucketMinutes int) ([]GenerationBucket, error) {
	rows, err := s.pool.Query(ctx, `
		WITH timestamp_totals AS (
			SELECT d.settlementdate,
				COALESCE(g.fuel_source, 'Unknown') AS fuel_source,
				SUM(d.scadavalue) AS total_mw
			FROM dispatch_data d
			INNER JOIN generator_info g ON d.duid = g.duid
			WHERE g.region = $1
			AND d.settlementdate >= (
				(SELECT MAX(settlementdate) FROM dispatch_data) - ($2 * INTERVAL '1 hour')
			)
			GROUP BY d.settlementdate, g.fuel_source
		)
		SELECT
			TO_TIMESTAMP(
				(EXTRACT(EPOCH FROM settlementdate)::BIGINT / ($3 * 60)) * ($3 * 60)
			) AT TIME ZONE 'UTC' AS period,
			fuel_source,
			AVG(total_mw) AS generation_mw,
			COUNT(*) AS sample_count
		FROM timestamp_totals
		GROUP BY 1, 2
		ORDER BY period ASC, fuel_source`, region, hours, bucketMinutes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GenerationBucket
	for rows.Next() {
		var b GenerationBucket
		if err := rows.Scan(&b.Period, &b.FuelSource, &b.GenerationMW, &b.SampleCount); err != nil {
			return nil, err
		}
		b.Period = marketTime(b.Period)
		out = append(out, b)
	}
	return out, rows.Err()
}
