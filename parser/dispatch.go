package parser

import (
	"strings"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// Dispatch parses UNIT_SCADA telemetry rows out of a dispatch report. The
// second return value counts malformed lines that were skipped. The feed
// always carries (settlementdate, duid, scadavalue); the remaining telemetry
// fields fill in only when a header row names them.
func Dispatch(raw []byte) ([]models.DispatchReading, int, error) {
	var (
		readings []models.DispatchReading
		header   nemcsv.ColumnIndex
		skipped  int
	)

	sc := lineScanner(raw)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "I,DISPATCH,UNIT_SCADA"):
			header = nemcsv.HeaderIndex(nemcsv.Fields(line))
			continue
		case !strings.HasPrefix(line, "D,DISPATCH,UNIT_SCADA"):
			continue
		}

		fields := nemcsv.Fields(line)
		if len(fields) < 8 {
			skipped++
			continue
		}

		ts, err := nemcsv.ParseTime(fields[4])
		if err != nil {
			skipped++
			continue
		}
		duid := fields[5]
		if duid == "" {
			skipped++
			continue
		}

		r := models.DispatchReading{
			SettlementDate: ts,
			DUID:           duid,
			ScadaValue:     nemcsv.FloatOrZero(fields[6]),
		}
		if header != nil {
			r.UIGF = header.FloatOrZero(fields, "UIGF")
			r.TotalCleared = header.FloatOrZero(fields, "TOTALCLEARED")
			r.RampRate = header.FloatOrZero(fields, "RAMPRATE")
			r.Availability = header.FloatOrZero(fields, "AVAILABILITY")
			r.Raise1Sec = header.FloatOrZero(fields, "RAISE1SEC")
			r.Lower1Sec = header.FloatOrZero(fields, "LOWER1SEC")
		}
		readings = append(readings, r)
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}

	if len(readings) == 0 {
		return nil, skipped, ErrNoData
	}
	return readings, skipped, nil
}
