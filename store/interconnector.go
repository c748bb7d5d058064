package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tder311/nemflow/models"
)

const upsertInterconnectorSQL = `
	INSERT INTO interconnector_data
		(settlementdate, interconnectorid, meteredmwflow, mwflow, mwlosses, marginalvalue)
	VALUES ($1, $2, $3, $4, $5, $6)
	ON CONFLICT (settlementdate, interconnectorid) DO UPDATE SET
		meteredmwflow = EXCLUDED.meteredmwflow,
		mwflow = EXCLUDED.mwflow,
		mwlosses = EXCLUDED.mwlosses,
		marginalvalue = EXCLUDED.marginalvalue`

// UpsertInterconnectorFlows writes link flow rows in one batch. Empty input
// returns 0 without a round-trip.
func (s *Store) UpsertInterconnectorFlows(ctx context.Context, rows []models.InterconnectorFlow) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	b := &pgx.Batch{}
	for _, r := range rows {
		b.Queue(upsertInterconnectorSQL,
			r.SettlementDate, r.InterconnectorID, r.MeteredMWFlow, r.MWFlow, r.MWLoss, r.MarginalValue)
	}
	if err := s.sendBatch(ctx, b, len(rows)); err != nil {
		return 0, writeErr("upsert interconnector flows", err)
	}
	return len(rows), nil
}

const selectInterconnectorColumns = `settlementdate, interconnectorid, meteredmwflow, mwflow, mwlosses, marginalvalue`

func scanInterconnectors(rows pgx.Rows) ([]models.InterconnectorFlow, error) {
	defer rows.Close()
	var out []models.InterconnectorFlow
	for rows.Next() {
		var r models.InterconnectorFlow
		if err := rows.Scan(&r.SettlementDate, &r.InterconnectorID,
			&r.MeteredMWFlow, &r.MWFlow, &r.MWLoss, &r.MarginalValue); err != nil {
			return nil, err
		}
		r.SettlementDate = marketTime(r.SettlementDate)
		out = append(out, r)
	}
	return out, rows.Err()
}

// InterconnectorRange returns flows with inclusive bounds in ascending
// timestamp order. An empty id returns all links.
func (s *Store) InterconnectorRange(ctx context.Context, id string, start, end time.Time) ([]models.InterconnectorFlow, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if id != "" {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectInterconnectorColumns+` FROM interconnector_data
			WHERE settlementdate BETWEEN $1 AND $2 AND interconnectorid = $3
			ORDER BY settlementdate`, start, end, id)
	} else {
		rows, err = s.pool.Query(ctx, `
			SELECT `+selectInterconnectorColumns+` FROM interconnector_data
			WHERE settlementdate BETWEEN $1 AND $2
			ORDER BY settlementdate`, start, end)
	}
	if err != nil {
		return nil, err
	}
	return scanInterconnectors(rows)
}

// LatestInterconnectorFlows returns every link's row at the most recent
// settlement instant.
func (s *Store) LatestInterconnectorFlows(ctx context.Context) ([]models.InterconnectorFlow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+selectInterconnectorColumns+` FROM interconnector_data
		WHERE settlementdate = (SELECT MAX(settlementdate) FROM interconnector_data)
		ORDER BY interconnectorid`)
	if err != nil {
		return nil, err
	}
	return scanInterconnectors(rows)
}
