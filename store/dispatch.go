package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertDispatchSQL = `
	INSERT INTO dispatch_data
		(settlementdate, duid, scadavalue, uigf, totalcleared, ramprate, availability, raise1sec, lower1sec)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (settlementdate, duid) DO UPDATE SET
		scadavalue = EXCLUDED.scadavalue,
		uigf = EXCLUDED.uigf,
		totalcleared = EXCLUDED.totalcleared,
		ramprate = EXCLUDED.ramprate,
		availability = EXCLUDED.availability,
		raise1sec = EXCLUDED.raise1sec,
		lower1sec = EXCLUDED.lower1sec`

// UpsertDispatch writes telemetry readings in one batch. Conflicting keys
// replace all non-key columns. Empty input returns 0 without a round-trip.
func (s *Store) UpsertDispatch(ctx context.Context, rows []models.DispatchReading) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertDispatchSQL,
			r.SettlementDate, r.DUID, r.ScadaValue, r.UIGF, r.TotalCleared,
			r.RampRate, r.Availability, r.Raise1Sec, r.Lower1Sec)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert dispatch", err)
	}
	return len(rows), nil
}

func (s *Store) sendBatch(ctx context.Context, b *pgx.Batch, n int) error {
	br := s.pool.SendBatch(ctx, b)
	for i := 0; i < n; i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return err
		}
	}
	return br.Close()
}

const selectDispatchColumns = `settlementdate, duid, scadavalue, uigf, totalcleared, ramprate, availability, raise1sec, lower1sec`

func scanDispatch(rows pgx.Rows) ([]models.DispatchReading, error) {
	defer rows.Close()
	var out []models.DispatchReading
	for rows.Next() {
		var r models.DispatchReading
		if err := rows.Scan(&r.SettlementDate, &r.DUID, &r.ScadaValue, &r.UIGF,
			&r.TotalCleared, &r.RampRate, &r.Availability, &r.Raise1Sec, &r.Lower1Sec); err != nil {
			return nil, err
		}
		r.SettlementDate = marketTime(r.SettlementDate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// DispatchRange returns readings with inclusive bounds in ascending timestamp
// order. An empty duid returns all units.
func (s *Store) DispatchRange(ctx context.Context, duid string, start, end time.Time) ([]models.DispatchReading, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if duid != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectDispatchColumns+` FROM dispatch_data
			WHERE settlementdate BETWEEN $1 AND $2 AND duid = $3
			ORDER BY settlementdate`, start, end, duid)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectDispatchColumns+` FROM dispatch_data
			WHERE settlementdate BETWEEN $1 AND $2
			ORDER BY settlementdate`, start, end)
	}
	if err != nil {
		return nil, err
	}
	return scanDispatch(rows)
}

// LatestDispatch returns every reading at the single most recent settlement
// instant, a snapshot of the last reporting moment.
func (s *Store) LatestDispatch(ctx context.Context) ([]models.DispatchReading, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectDispatchColumns+` FROM dispatch_data
		WHERE settlementdate = (SELECT MAX(settlementdate) FROM dispatch_data)
		ORDER BY duid`)
	if err != nil {
		return nil, err
	}
	return scanDispatch(rows)
}

// LatestDispatchTimestamp returns the newest stored settlement instant. The
// second return value is false when the table is empty.
func (s *Store) LatestDispatchTimestamp(ctx context.Context) (time.Time, bool, error) {
	var ts *time.Time
	if err := s.pool.QueryRow(ctx, `SELECT MAX(settlementdate) FROM dispatch_data`).Scan(&ts); err != nil {
		return time.Time{}, false, err
	}
	if ts == nil {
		return time.Time{}, false, nil
	}
	return marketTime(*ts), true, nil
}

// MissingDispatchDates returns calendar days in [start, end] that hold fewer
// than minRecords readings. The threshold filters out days with only a stray
// file's worth of data, which still need an archive pull.
func (s *Store) MissingDispatchDates(ctx context.Context, start, end time.Time, minRecords int) ([]time.Time, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT settlementdate::DATE AS data_date
		FROM dispatch_data
		WHERE settlementdate::DATE BETWEEN $1::DATE AND $2::DATE
		GROUP BY settlementdate::DATE
		HAVING COUNT(*) >= $3`, start, end, minRecords)
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

// UniqueDUIDs lists every unit identifier seen in telemetry.
func (s *Store) UniqueDUIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT duid FROM dispatch_data ORDER BY duid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var duids []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		duids = append(duids, d)
	}
	return duids, rows.Err()
}
