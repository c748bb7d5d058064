package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"sort"
	"testing"

	"github.com/tder311/nemflow/internal/nemcsv"
)

func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	names := make([]string, 0, len(files))
	for name := range files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating zip entry: %v", err)
		}
		if _, err := w.Write([]byte(files[name])); err != nil {
			t.Fatalf("writing zip entry: %v", err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return buf.Bytes()
}

const intervalXML = `<SolutionAnalysis>
  <PriceSetting PeriodID="2025-01-15T04:05:00+10:00" Market="Energy" RegionID="NSW1" Price="85.21" Unit="GSTONE5,ENOF,2,GSTONE6,ENOF,2" DispatchedMarket="ENOF" BandNo="4" Increase="1.0" RRNBandPrice="80.5"/>
  <PriceSetting PeriodID="2025-01-15T04:05:00+10:00" Market="Energy" RegionID="SA1" Price="42.10" Unit="AGLSOM" DispatchedMarket="ENOF" BandNo="2" Increase="0.002" RRNBandPrice="40.0"/>
  <PriceSetting PeriodID="2025-01-15T04:05:00+10:00" Market="Energy" RegionID="VIC1" Price="42.10" Unit="LOYYB1" DispatchedMarket="CONSTRAINT" BandNo="2" Increase="1.0" RRNBandPrice="40.0"/>
  <PriceSetting PeriodID="2025-01-15T04:05:00+10:00" Market="Raise6Sec" RegionID="QLD1" Price="1.0" Unit="STAN-1" DispatchedMarket="ENOF" BandNo="1" Increase="1.0" RRNBandPrice="1.0"/>
</SolutionAnalysis>`

const duplicateIntervalXML = `<SolutionAnalysis>
  <PriceSetting PeriodID="2025-01-15T04:05:00+10:00" Market="Energy" RegionID="NSW1" Price="999.0" Unit="GSTONE5" DispatchedMarket="ENOF" BandNo="9" Increase="5.0" RRNBandPrice="900.0"/>
</SolutionAnalysis>`

func TestPriceSetters(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"NemPriceSetter_20250115040500.xml": intervalXML,
		"NemPriceSetter_20250115041000.xml": duplicateIntervalXML,
		"manifest.txt":                      "not xml",
	})

	setters, _, err := PriceSetters(payload)
	if err != nil {
		t.Fatalf("PriceSetters failed: %v", err)
	}
	// Energy+ENOF rows only: NSW and SA from the first file; the second
	// file's NSW row is a duplicate key and must keep the first occurrence.
	if len(setters) != 2 {
		t.Fatalf("expected 2 setters, got %d", len(setters))
	}

	byRegion := map[string]int{}
	for i, s := range setters {
		byRegion[s.Region] = i
	}

	nsw := setters[byRegion["NSW"]]
	if nsw.DUID != "GSTONE5" {
		t.Fatalf("multi-unit string should attribute the first unit, got %q", nsw.DUID)
	}
	if nsw.Price != 85.21 {
		t.Fatalf("duplicate key should keep first occurrence, got price %v", nsw.Price)
	}
	if !nsw.Significant {
		t.Fatal("increase of 1.0 should be significant")
	}
	if nsw.BandNo == nil || *nsw.BandNo != 4 {
		t.Fatalf("band number wrong: %+v", nsw.BandNo)
	}
	want := nsw.PeriodID.In(nemcsv.MarketZone)
	if want.Hour() != 4 || want.Minute() != 5 {
		t.Fatalf("period not normalized to market zone: %v", nsw.PeriodID)
	}

	sa := setters[byRegion["SA"]]
	if sa.Significant {
		t.Fatal("increase below threshold should be flagged insignificant")
	}
}

func TestPriceSettersNoData(t *testing.T) {
	payload := buildZip(t, map[string]string{
		"empty.xml": `<SolutionAnalysis></SolutionAnalysis>`,
	})
	_, _, err := PriceSetters(payload)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestPriceSettersRejectsGarbageArchive(t *testing.T) {
	if _, _, err := PriceSetters([]byte("not a zip")); err == nil {
		t.Fatal("expected error for corrupt archive")
	}
}
