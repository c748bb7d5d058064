package store

import (
	"errors"
	"testing"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, nemcsv.MarketZone)
}

func TestMissingDates(t *testing.T) {
	present := map[string]bool{
		"2025-01-12": true,
		"2025-01-15": true,
	}

	got := missingDates(day(2025, time.January, 10), day(2025, time.January, 15), present)
	want := []time.Time{
		day(2025, time.January, 10),
		day(2025, time.January, 11),
		day(2025, time.January, 13),
		day(2025, time.January, 14),
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d missing dates, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if !got[i].Equal(want[i]) {
			t.Errorf("missing[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestMissingDatesAllPresent(t *testing.T) {
	present := map[string]bool{
		"2025-01-10": true,
		"2025-01-11": true,
	}
	got := missingDates(day(2025, time.January, 10), day(2025, time.January, 11), present)
	if len(got) != 0 {
		t.Fatalf("expected no missing dates, got %v", got)
	}
}

func TestMissingDatesIgnoresTimeOfDay(t *testing.T) {
	start := time.Date(2025, time.January, 10, 13, 45, 0, 0, nemcsv.MarketZone)
	end := time.Date(2025, time.January, 10, 23, 59, 0, 0, nemcsv.MarketZone)

	got := missingDates(start, end, nil)
	if len(got) != 1 {
		t.Fatalf("expected 1 missing date, got %d", len(got))
	}
	if !got[0].Equal(day(2025, time.January, 10)) {
		t.Errorf("missing date not normalized to midnight: %v", got[0])
	}
}

func TestStoreErrorUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := writeErr("upsert dispatch", cause)

	var storeErr *StoreError
	if !errors.As(err, &storeErr) {
		t.Fatal("expected StoreError")
	}
	if !errors.Is(err, cause) {
		t.Error("StoreError should unwrap to its cause")
	}
	if storeErr.Op != "upsert dispatch" {
		t.Errorf("unexpected op: %q", storeErr.Op)
	}
}

func TestPASATableRouting(t *testing.T) {
	if tbl, err := pasaTable("PDPASA"); err != nil || tbl != "pdpasa_data" {
		t.Errorf("PDPASA routed to %q, %v", tbl, err)
	}
	if tbl, err := pasaTable("STPASA"); err != nil || tbl != "stpasa_data" {
		t.Errorf("STPASA routed to %q, %v", tbl, err)
	}
	if _, err := pasaTable("LTPASA"); err == nil {
		t.Error("expected error for unknown horizon")
	}
}

func TestMarketTime(t *testing.T) {
	utc := time.Date(2025, time.January, 15, 4, 10, 0, 0, time.UTC)
	got := marketTime(utc)
	if got.Hour() != 4 || got.Minute() != 10 {
		t.Errorf("wall clock changed: %v", got)
	}
	if _, offset := got.Zone(); offset != 10*60*60 {
		t.Errorf("unexpected zone offset: %d", offset)
	}
}
