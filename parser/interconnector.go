package parser

import (
	"strings"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// InterconnectorFlows parses INTERCONNECTORRES rows from a dispatch report.
// Column positions come from the most recent header row, since the table has
// gained columns across report versions.
func InterconnectorFlows(raw []byte) ([]models.InterconnectorFlow, int, error) {
	var (
		flows   []models.InterconnectorFlow
		header  nemcsv.ColumnIndex
		skipped int
	)

	sc := lineScanner(raw)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "I,DISPATCH,INTERCONNECTORRES"):
			header = nemcsv.HeaderIndex(nemcsv.Fields(line))
			continue
		case !strings.HasPrefix(line, "D,DISPATCH,INTERCONNECTORRES"):
			continue
		}
		if header == nil {
			skipped++
			continue
		}

		fields := nemcsv.Fields(line)
		ts := header.Time(fields, "SETTLEMENTDATE")
		link := header.Field(fields, "INTERCONNECTORID")
		if ts.IsZero() || link == "" {
			skipped++
			continue
		}

		flows = append(flows, models.InterconnectorFlow{
			SettlementDate:   ts,
			InterconnectorID: link,
			MeteredMWFlow:    header.FloatOrZero(fields, "METEREDMWFLOW"),
			MWFlow:           header.FloatOrZero(fields, "MWFLOW"),
			MWLoss:           header.FloatOrZero(fields, "MWLOSSES"),
			MarginalValue:    header.FloatOrZero(fields, "MARGINALVALUE"),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}

	if len(flows) == 0 {
		return nil, skipped, ErrNoData
	}
	return flows, skipped, nil
}
