package parser

import (
	"sort"
	"strings"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// ReserveForecasts parses REGIONSOLUTION rows from a PDPASA or STPASA report.
// Column positions are entirely header-driven: the table has dozens of
// columns and their order differs between the two horizons. Duplicate
// (interval, region) rows keep the first occurrence, and output is sorted by
// interval timestamp.
func ReserveForecasts(raw []byte, horizon models.PASAHorizon) ([]models.ReserveForecast, int, error) {
	headerPrefix := "I," + string(horizon) + ",REGIONSOLUTION"
	dataPrefix := "D," + string(horizon) + ",REGIONSOLUTION"

	var (
		forecasts []models.ReserveForecast
		header    nemcsv.ColumnIndex
		skipped   int
	)
	type key struct {
		interval int64
		region   string
	}
	seen := map[key]bool{}

	sc := lineScanner(raw)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, headerPrefix):
			header = nemcsv.HeaderIndex(nemcsv.Fields(line))
			continue
		case !strings.HasPrefix(line, dataPrefix):
			continue
		}
		if header == nil {
			skipped++
			continue
		}

		fields := nemcsv.Fields(line)
		run := header.Time(fields, "RUN_DATETIME")
		interval := header.Time(fields, "INTERVAL_DATETIME")
		region := header.Field(fields, "REGIONID")
		if run.IsZero() || interval.IsZero() || region == "" {
			skipped++
			continue
		}

		k := key{interval: interval.Unix(), region: region}
		if seen[k] {
			continue
		}
		seen[k] = true

		forecasts = append(forecasts, models.ReserveForecast{
			RunDateTime:      run,
			IntervalDateTime: interval,
			RegionID:         region,
			Horizon:          horizon,

			Demand10:    header.Float(fields, "DEMAND10"),
			Demand50:    header.Float(fields, "DEMAND50"),
			Demand90:    header.Float(fields, "DEMAND90"),
			ReserveReq:  header.Float(fields, "RESERVEREQ"),
			CapacityReq: header.Float(fields, "CAPACITYREQ"),

			AggregateCapacityAvailable: header.Float(fields, "AGGREGATECAPACITYAVAILABLE"),
			AggregatePASAAvailability:  header.Float(fields, "AGGREGATEPASAAVAILABILITY"),
			SurplusReserve:             header.Float(fields, "SURPLUSRESERVE"),

			LORCondition: header.Int(fields, "LORCONDITION"),
			LOR1Level:    header.Float(fields, "CALCULATEDLOR1LEVEL"),
			LOR2Level:    header.Float(fields, "CALCULATEDLOR2LEVEL"),
		})
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}

	if len(forecasts) == 0 {
		return nil, skipped, ErrNoData
	}

	sort.Slice(forecasts, func(i, j int) bool {
		return forecasts[i].IntervalDateTime.Before(forecasts[j].IntervalDateTime)
	})
	return forecasts, skipped, nil
}
