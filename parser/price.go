package parser

import (
	"strconv"
	"strings"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// Prices parses regional reference prices from a dispatch, trading or public
// price report. Dispatch and trading reports carry demand in separate
// REGIONSUM rows keyed by region; public reports carry it inline on the
// DREGION row. Dispatch PRICE rows shift the RRP column one position to the
// right from version 5 on, when an INTERVENTION column was inserted.
func Prices(raw []byte, source models.PriceSource) ([]models.PriceRecord, int, error) {
	var pricePrefix, sumPrefix string
	switch source {
	case models.SourceDispatch:
		pricePrefix = "D,DISPATCH,PRICE"
		sumPrefix = "D,DISPATCH,REGIONSUM"
	case models.SourceTrading:
		pricePrefix = "D,TRADING,PRICE"
		sumPrefix = "D,TRADING,REGIONSUM"
	case models.SourcePublic:
		pricePrefix = "D,DREGION,"
	}

	var (
		records    []models.PriceRecord
		priceLines []string
		demand     = map[string]float64{}
		skipped    int
	)

	sc := lineScanner(raw)
	for sc.Scan() {
		line := sc.Text()
		if strings.HasPrefix(line, pricePrefix) {
			priceLines = append(priceLines, line)
			continue
		}
		if sumPrefix == "" || !strings.HasPrefix(line, sumPrefix) {
			continue
		}
		fields := nemcsv.Fields(line)
		if len(fields) < 10 {
			skipped++
			continue
		}
		region := models.MapRegion(fields[6])
		demand[region] = nemcsv.FloatOrZero(fields[9])
	}
	if err := sc.Err(); err != nil {
		return nil, skipped, err
	}

	for _, line := range priceLines {
		fields := nemcsv.Fields(line)
		rec, ok := decodePriceRow(fields, source, demand)
		if !ok {
			skipped++
			continue
		}
		records = append(records, rec)
	}

	if len(records) == 0 {
		return nil, skipped, ErrNoData
	}
	return records, skipped, nil
}

func decodePriceRow(fields []string, source models.PriceSource, demand map[string]float64) (models.PriceRecord, bool) {
	var rec models.PriceRecord

	switch source {
	case models.SourceDispatch:
		if len(fields) < 10 {
			return rec, false
		}
		ts, err := nemcsv.ParseTime(fields[4])
		if err != nil {
			return rec, false
		}
		region := models.MapRegion(fields[6])
		// Version 5 inserted INTERVENTION at position 8, pushing RRP to 9.
		rrpIdx := 8
		if v, err := strconv.Atoi(fields[3]); err == nil && v >= 5 {
			rrpIdx = 9
		}
		rec = models.PriceRecord{
			SettlementDate: ts,
			Region:         region,
			Price:          nemcsv.FloatOrZero(fields[rrpIdx]),
			TotalDemand:    demand[region],
			Source:         source,
		}

	case models.SourceTrading:
		if len(fields) < 9 {
			return rec, false
		}
		ts, err := nemcsv.ParseTime(fields[4])
		if err != nil {
			return rec, false
		}
		region := models.MapRegion(fields[6])
		rec = models.PriceRecord{
			SettlementDate: ts,
			Region:         region,
			Price:          nemcsv.FloatOrZero(fields[8]),
			TotalDemand:    demand[region],
			Source:         source,
		}

	case models.SourcePublic:
		if len(fields) < 14 {
			return rec, false
		}
		ts, err := nemcsv.ParseTime(fields[4])
		if err != nil {
			return rec, false
		}
		rec = models.PriceRecord{
			SettlementDate: ts,
			Region:         models.MapRegion(fields[6]),
			Price:          nemcsv.FloatOrZero(fields[8]),
			TotalDemand:    nemcsv.FloatOrZero(fields[13]),
			Source:         source,
		}

	default:
		return rec, false
	}

	return rec, true
}

// FilterPricesToDay keeps only records whose settlement date falls on the
// given market-zone calendar day, deduplicated on (timestamp, region) keeping
// the last occurrence. Public price files run 04:05 to 04:00 the next day, so
// assembling one calendar day takes two files whose rows overlap at the
// boundary.
func FilterPricesToDay(records []models.PriceRecord, year int, month int, day int) []models.PriceRecord {
	type key struct {
		ts     int64
		region string
	}
	seen := map[key]int{}
	var out []models.PriceRecord
	for _, rec := range records {
		t := rec.SettlementDate.In(nemcsv.MarketZone)
		if t.Year() != year || int(t.Month()) != month || t.Day() != day {
			continue
		}
		k := key{ts: rec.SettlementDate.Unix(), region: rec.Region}
		if i, ok := seen[k]; ok {
			out[i] = rec
			continue
		}
		seen[k] = len(out)
		out = append(out, rec)
	}
	return out
}

// DedupePrices removes duplicate (timestamp, region) rows keeping the last
// occurrence, preserving first-seen order.
func DedupePrices(records []models.PriceRecord) []models.PriceRecord {
	type key struct {
		ts     int64
		region string
	}
	seen := map[key]int{}
	var out []models.PriceRecord
	for _, rec := range records {
		k := key{ts: rec.SettlementDate.Unix(), region: rec.Region}
		if i, ok := seen[k]; ok {
			out[i] = rec
			continue
		}
		seen[k] = len(out)
		out = append(out, rec)
	}
	return out
}
