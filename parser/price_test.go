package parser

import (
	"errors"
	"testing"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

func TestPricesDispatchVersionSkew(t *testing.T) {
	// Version 5 inserted INTERVENTION before RRP; version 3 has RRP at the
	// INTERVENTION position. Both must decode to the same price.
	sample := `D,DISPATCH,REGIONSUM,6,"2025/01/15 04:05:00",1,NSW1,20250115001,0,7450.2
D,DISPATCH,PRICE,5,"2025/01/15 04:05:00",1,NSW1,20250115001,0,85.21,0,0
D,DISPATCH,PRICE,3,"2025/01/15 04:05:00",1,SA1,20250115001,42.10,0,0
`
	records, _, err := Prices([]byte(sample), models.SourceDispatch)
	if err != nil {
		t.Fatalf("Prices failed: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Region != "NSW" || records[0].Price != 85.21 {
		t.Fatalf("version 5 row decoded wrong: %+v", records[0])
	}
	if records[0].TotalDemand != 7450.2 {
		t.Fatalf("REGIONSUM demand not joined: %+v", records[0])
	}
	if records[1].Region != "SA" || records[1].Price != 42.10 {
		t.Fatalf("version 3 row decoded wrong: %+v", records[1])
	}
	if records[1].TotalDemand != 0 {
		t.Fatalf("SA has no REGIONSUM row, demand should default to 0: %+v", records[1])
	}
}

func TestPricesTrading(t *testing.T) {
	sample := `D,TRADING,PRICE,3,"2025/08/29 13:55:00",1,SA1,167,-98.93,0,0,"2025/08/29 13:50:12",-98.93
`
	records, _, err := Prices([]byte(sample), models.SourceTrading)
	if err != nil {
		t.Fatalf("Prices failed: %v", err)
	}
	if records[0].Region != "SA" || records[0].Price != -98.93 {
		t.Fatalf("trading row decoded wrong: %+v", records[0])
	}
	if records[0].Source != models.SourceTrading {
		t.Fatalf("source tag wrong: %v", records[0].Source)
	}
}

func TestPricesPublicInlineDemand(t *testing.T) {
	sample := `D,DREGION,,2,"2025/09/01 03:00:00",1,NSW1,0,107.84888,0,107.84888,0,0,7136.43,0,0
`
	records, _, err := Prices([]byte(sample), models.SourcePublic)
	if err != nil {
		t.Fatalf("Prices failed: %v", err)
	}
	rec := records[0]
	if rec.Region != "NSW" || rec.Price != 107.84888 || rec.TotalDemand != 7136.43 {
		t.Fatalf("public row decoded wrong: %+v", rec)
	}
}

func TestPricesNoData(t *testing.T) {
	_, _, err := Prices([]byte("C,NEMP.WORLD\n"), models.SourcePublic)
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestFilterPricesToDay(t *testing.T) {
	day := func(hh, mm int) time.Time {
		return time.Date(2025, 1, 15, hh, mm, 0, 0, nemcsv.MarketZone)
	}
	records := []models.PriceRecord{
		{SettlementDate: time.Date(2025, 1, 14, 23, 55, 0, 0, nemcsv.MarketZone), Region: "NSW", Price: 1},
		{SettlementDate: day(4, 0), Region: "NSW", Price: 10},
		{SettlementDate: day(4, 0), Region: "NSW", Price: 20}, // boundary duplicate from next file
		{SettlementDate: day(4, 5), Region: "NSW", Price: 30},
	}

	out := FilterPricesToDay(records, 2025, 1, 15)
	if len(out) != 2 {
		t.Fatalf("expected 2 records after filter+dedupe, got %d", len(out))
	}
	if out[0].Price != 20 {
		t.Fatalf("boundary duplicate should keep the last occurrence, got price %v", out[0].Price)
	}
}

func TestDedupePricesKeepsLast(t *testing.T) {
	ts := time.Date(2025, 1, 15, 12, 0, 0, 0, nemcsv.MarketZone)
	records := []models.PriceRecord{
		{SettlementDate: ts, Region: "VIC", Price: 5},
		{SettlementDate: ts, Region: "VIC", Price: 7},
		{SettlementDate: ts, Region: "QLD", Price: 9},
	}
	out := DedupePrices(records)
	if len(out) != 2 {
		t.Fatalf("expected 2 records, got %d", len(out))
	}
	if out[0].Price != 7 || out[0].Region != "VIC" {
		t.Fatalf("expected VIC row replaced in place with last value: %+v", out[0])
	}
}
