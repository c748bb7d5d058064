package parser

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

// SignificantIncrease is the minimum absolute sensitivity coefficient for a
// price-setting record to count as a genuine price setter rather than a
// constraint artifact. Rows below it are kept but flagged.
const SignificantIncrease = 0.01

// PriceSetters parses a daily price-setter archive: a ZIP of one XML file per
// 5-minute interval (288 per day). Only Energy-market records dispatched as a
// direct energy offer are kept. Duplicate (interval, region, unit) rows keep
// the first occurrence.
func PriceSetters(rawZip []byte) ([]models.PriceSetter, int, error) {
	zr, err := zip.NewReader(bytes.NewReader(rawZip), int64(len(rawZip)))
	if err != nil {
		return nil, 0, err
	}

	var (
		setters []models.PriceSetter
		skipped int
	)
	type key struct {
		period int64
		region string
		duid   string
	}
	seen := map[key]bool{}

	for _, f := range zr.File {
		if !strings.HasSuffix(strings.ToLower(f.Name), ".xml") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			skipped++
			continue
		}
		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			skipped++
			continue
		}

		records, bad := decodePriceSetterXML(content)
		skipped += bad
		for _, rec := range records {
			k := key{period: rec.PeriodID.Unix(), region: rec.Region, duid: rec.DUID}
			if seen[k] {
				continue
			}
			seen[k] = true
			setters = append(setters, rec)
		}
	}

	if len(setters) == 0 {
		return nil, skipped, ErrNoData
	}
	return setters, skipped, nil
}

// decodePriceSetterXML walks one interval file for PriceSetting elements.
// They sit at varying depths depending on solution version, so decoding uses
// a token scan rather than a fixed document struct.
func decodePriceSetterXML(content []byte) ([]models.PriceSetter, int) {
	var (
		records []models.PriceSetter
		skipped int
	)

	dec := xml.NewDecoder(bytes.NewReader(content))
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != "PriceSetting" {
			continue
		}

		attrs := map[string]string{}
		for _, a := range start.Attr {
			attrs[a.Name.Local] = a.Value
		}

		if attrs["Market"] != "Energy" || attrs["DispatchedMarket"] != "ENOF" {
			continue
		}
		region := attrs["RegionID"]
		if !models.KnownRegion(models.MapRegion(region)) {
			continue
		}

		// Unit may be a single DUID, a multi-unit triplet list
		// ("GSTONE5,ENOF,2,GSTONE6,ENOF,2") or an interconnector pair;
		// the first token is the attributed unit.
		duid := strings.TrimSpace(strings.SplitN(attrs["Unit"], ",", 2)[0])
		if duid == "" {
			continue
		}

		period, err := parsePeriodID(attrs["PeriodID"])
		if err != nil {
			skipped++
			continue
		}
		price, err := strconv.ParseFloat(attrs["Price"], 64)
		if err != nil {
			skipped++
			continue
		}

		increase := 0.0
		if v, err := strconv.ParseFloat(attrs["Increase"], 64); err == nil {
			increase = v
		}

		rec := models.PriceSetter{
			PeriodID:    period,
			Region:      models.MapRegion(region),
			Price:       price,
			DUID:        duid,
			Increase:    increase,
			Significant: math.Abs(increase) >= SignificantIncrease,
		}
		if v, err := strconv.ParseFloat(attrs["RRNBandPrice"], 64); err == nil {
			rec.BandPrice = &v
		}
		if v, err := strconv.Atoi(attrs["BandNo"]); err == nil {
			rec.BandNo = &v
		}
		records = append(records, rec)
	}

	return records, skipped
}

// parsePeriodID decodes the interval timestamp, which arrives with an
// explicit offset, and normalizes it into the market zone.
func parsePeriodID(raw string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.In(nemcsv.MarketZone), nil
}
