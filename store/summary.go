package store

import (
	"context"
	"fmt"
	"time"
)

// FuelBreakdown counts distinct units per fuel source.
type FuelBreakdown struct {
	FuelSource string
	UnitCount  int
}

// Summary describes overall telemetry coverage.
type Summary struct {
	TotalRecords  int64
	UniqueDUIDs   int64
	EarliestDate  *time.Time
	LatestDate    *time.Time
	FuelBreakdown []FuelBreakdown
}

// DataSummary reports telemetry volume, entity count, date range, and the
// unit breakdown by fuel source.
func (s *Store) DataSummary(ctx context.Context) (*Summary, error) {
	var out Summary

	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM dispatch_data`).Scan(&out.TotalRecords); err != nil {
		return nil, err
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(DISTINCT duid) FROM dispatch_data`).Scan(&out.UniqueDUIDs); err != nil {
		return nil, err
	}
	if err := s.pool.QueryRow(ctx,
		`SELECT MIN(settlementdate), MAX(settlementdate) FROM dispatch_data`,
	).Scan(&out.EarliestDate, &out.LatestDate); err != nil {
		return nil, err
	}
	out.EarliestDate = marketTimePtr(out.EarliestDate)
	out.LatestDate = marketTimePtr(out.LatestDate)

	rows, err := s.pool.Query(ctx, `
		SELECT COALESCE(g.fuel_source, 'Unknown') AS fuel_source,
			COUNT(DISTINCT d.duid) AS unit_count
		FROM dispatch_data d
		LEFT JOIN generator_info g ON d.duid = g.duid
		GROUP BY g.fuel_source
		ORDER BY unit_count DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var f FuelBreakdown
		if err := rows.Scan(&f.FuelSource, &f.UnitCount); err != nil {
			return nil, err
		}
		out.FuelBreakdown = append(out.FuelBreakdown, f)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &out, nil
}

// Coverage describes one table's extent for backfill planning.
type Coverage struct {
	EarliestDate *time.Time
	LatestDate   *time.Time
	TotalRecords int64
	DaysWithData int64
}

// PriceCoverage reports the price table's extent.
func (s *Store) PriceCoverage(ctx context.Context) (*Coverage, error) {
	var c Coverage
	err := s.pool.QueryRow(ctx, `
		SELECT MIN(settlementdate), MAX(settlementdate),
			COUNT(*), COUNT(DISTINCT settlementdate::DATE)
		FROM price_data`).Scan(&c.EarliestDate, &c.LatestDate, &c.TotalRecords, &c.DaysWithData)
	if err != nil {
		return nil, err
	}
	c.EarliestDate = marketTimePtr(c.EarliestDate)
	c.LatestDate = marketTimePtr(c.LatestDate)
	return &c, nil
}

// TableStats summarizes one table for the health report. DaysWithData and
// ExpectedIntervalMinutes are zero for the static reference table.
type TableStats struct {
	Table                   string
	TotalRecords            int64
	EarliestDate            *time.Time
	LatestDate              *time.Time
	DaysWithData            int64
	ExpectedIntervalMinutes int
}

// Gap is one detected hole in a time series.
type Gap struct {
	Start            time.Time
	End              time.Time
	MissingIntervals int
	DurationMinutes  int
}

// TableGaps lists the gaps found in one table's recent window.
type TableGaps struct {
	Table string
	Gaps  []Gap
}

// HealthReport combines per-table statistics with detected gaps.
type HealthReport struct {
	Tables       []TableStats
	Gaps         []TableGaps
	CheckedHours int
	CheckedAt    time.Time
}

var healthTables = []string{"dispatch_data", "price_data"}

// Health reports per-table counts and detects gaps wider than the 5-minute
// publication cadence over the trailing window, via a LAG scan over distinct
// timestamps. Gap output is capped at 100 rows per table.
func (s *Store) Health(ctx context.Context, hoursBack int) (*HealthReport, error) {
	report := &HealthReport{
		CheckedHours: hoursBack,
		CheckedAt:    time.Now(),
	}

	for _, table := range healthTables {
		var stats = TableStats{Table: table, ExpectedIntervalMinutes: 5}
		err := s.pool.QueryRow(ctx, `
			SELECT COUNT(*), MIN(settlementdate), MAX(settlementdate),
				COUNT(DISTINCT settlementdate::DATE)
			FROM `+table).Scan(&stats.TotalRecords, &stats.EarliestDate, &stats.LatestDate, &stats.DaysWithData)
		if err != nil {
			return nil, fmt.Errorf("health stats for %s: %w", table, err)
		}
		stats.EarliestDate = marketTimePtr(stats.EarliestDate)
		stats.LatestDate = marketTimePtr(stats.LatestDate)
		report.Tables = append(report.Tables, stats)

		rows, err := s.pool.Query(ctx, `
			WITH ordered_data AS (
				SELECT DISTINCT settlementdate,
					LAG(settlementdate) OVER (ORDER BY settlementdate) AS prev_date
				FROM `+table+`
				WHERE settlementdate >= NOW() - ($1 * INTERVAL '1 hour')
			),
			detected_gaps AS (
				SELECT prev_date AS gap_start,
					settlementdate AS gap_end,
					EXTRACT(EPOCH FROM (settlementdate - prev_date)) / 60 AS gap_minutes
				FROM ordered_data
				WHERE prev_date IS NOT NULL
				AND EXTRACT(EPOCH FROM (settlementdate - prev_date)) / 60 > 5
			)
			SELECT gap_start, gap_end, gap_minutes FROM detected_gaps
			ORDER BY gap_start LIMIT 100`, hoursBack)
		if err != nil {
			return nil, fmt.Errorf("gap detection for %s: %w", table, err)
		}

		tg := TableGaps{Table: table}
		for rows.Next() {
			var (
				g       Gap
				minutes float64
			)
			if err := rows.Scan(&g.Start, &g.End, &minutes); err != nil {
				rows.Close()
				return nil, err
			}
			g.Start = marketTime(g.Start)
			g.End = marketTime(g.End)
			g.DurationMinutes = int(minutes)
			g.MissingIntervals = int(minutes/5) - 1
			tg.Gaps = append(tg.Gaps, g)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return nil, err
		}
		report.Gaps = append(report.Gaps, tg)
	}

	return report, nil
}

// RegionSummary is a point-in-time view of one region: latest trading price,
// latest dispatch demand, and the current generation snapshot.
type RegionSummary struct {
	Region          string
	LatestPrice     *float64
	PriceTimestamp  *time.Time
	TotalDemand     *float64
	TotalGeneration *float64
	GeneratorCount  int
}

// RegionSnapshot assembles the region summary from the latest stored rows.
// Absent series leave the corresponding fields nil.
func (s *Store) RegionSnapshot(ctx context.Context, region string) (*RegionSummary, error) {
	out := &RegionSummary{Region: region}

	err := s.pool.QueryRow(ctx, `
		SELECT price, settlementdate FROM price_data
		WHERE region = $1 AND price_type = 'TRADING'
		ORDER BY settlementdate DESC LIMIT 1`, region).Scan(&out.LatestPrice, &out.PriceTimestamp)
	if err != nil && !isNoRows(err) {
		return nil, err
	}
	out.PriceTimestamp = marketTimePtr(out.PriceTimestamp)

	err = s.pool.QueryRow(ctx, `
		SELECT totaldemand FROM price_data
		WHERE region = $1 AND price_type = 'DISPATCH'
		ORDER BY settlementdate DESC LIMIT 1`, region).Scan(&out.TotalDemand)
	if err != nil && !isNoRows(err) {
		return nil, err
	}

	err = s.pool.QueryRow(ctx, `
		SELECT SUM(d.scadavalue), COUNT(DISTINCT d.duid)
		FROM dispatch_data d
		LEFT JOIN generator_info g ON d.duid = g.duid
		WHERE d.settlementdate = (SELECT MAX(settlementdate) FROM dispatch_data)
		AND g.region = $1`, region).Scan(&out.TotalGeneration, &out.GeneratorCount)
	if err != nil && !isNoRows(err) {
		return nil, err
	}

	return out, nil
}
