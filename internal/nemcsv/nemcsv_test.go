package nemcsv

import (
	"testing"
	"time"
)

func TestParseTime(t *testing.T) {
	got, err := ParseTime(`"2025/01/15 04:05:00"`)
	if err != nil {
		t.Fatalf("ParseTime failed: %v", err)
	}
	want := time.Date(2025, 1, 15, 4, 5, 0, 0, MarketZone)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	if _, off := got.Zone(); off != 10*60*60 {
		t.Fatalf("expected fixed +10:00 offset, got %d", off)
	}
}

func TestParseTimeRejectsGarbage(t *testing.T) {
	if _, err := ParseTime("not a date"); err == nil {
		t.Fatal("expected error for malformed timestamp")
	}
}

func TestFormatTimeRoundTrip(t *testing.T) {
	ts := time.Date(2025, 6, 1, 12, 30, 0, 0, MarketZone)
	back, err := ParseTime(FormatTime(ts))
	if err != nil {
		t.Fatalf("round trip failed: %v", err)
	}
	if !back.Equal(ts) {
		t.Fatalf("round trip mismatch: got %v, want %v", back, ts)
	}
}

func TestFields(t *testing.T) {
	fields := Fields(`D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:05:00",AGLHAL,93.5`)
	if len(fields) != 7 {
		t.Fatalf("expected 7 fields, got %d", len(fields))
	}
	if fields[4] != "2025/01/15 04:05:00" {
		t.Fatalf("quotes not stripped: %q", fields[4])
	}
	if fields[5] != "AGLHAL" {
		t.Fatalf("unexpected field: %q", fields[5])
	}
}

func TestFloatOrZero(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"93.5", 93.5},
		{`"93.5"`, 93.5},
		{"", 0},
		{"   ", 0},
		{"abc", 0},
		{"-12.25", -12.25},
	}
	for _, c := range cases {
		if got := FloatOrZero(c.in); got != c.want {
			t.Errorf("FloatOrZero(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestOptionalFloat(t *testing.T) {
	if got := OptionalFloat(""); got != nil {
		t.Fatalf("empty input should be nil, got %v", *got)
	}
	if got := OptionalFloat("bogus"); got != nil {
		t.Fatalf("non-numeric input should be nil, got %v", *got)
	}
	got := OptionalFloat("0")
	if got == nil || *got != 0 {
		t.Fatal("explicit zero must decode to a non-nil zero")
	}
}

func TestOptionalIntAcceptsFloatRendering(t *testing.T) {
	got := OptionalInt("2.0")
	if got == nil || *got != 2 {
		t.Fatalf("expected 2, got %v", got)
	}
	if OptionalInt("") != nil {
		t.Fatal("empty input should be nil")
	}
}

func TestHeaderIndexLookup(t *testing.T) {
	header := Fields("I,DISPATCH,PRICE,5,SETTLEMENTDATE,RUNNO,REGIONID,DISPATCHINTERVAL,INTERVENTION,RRP")
	idx := HeaderIndex(header)

	row := Fields(`D,DISPATCH,PRICE,5,"2025/01/15 04:05:00",1,NSW1,20250115001,0,85.21`)
	if got := idx.Field(row, "REGIONID"); got != "NSW1" {
		t.Fatalf("REGIONID = %q", got)
	}
	if got := idx.FloatOrZero(row, "RRP"); got != 85.21 {
		t.Fatalf("RRP = %v", got)
	}
	if got := idx.Field(row, "NO_SUCH_COLUMN"); got != "" {
		t.Fatalf("unknown column should be empty, got %q", got)
	}
	ts := idx.Time(row, "SETTLEMENTDATE")
	if ts.IsZero() {
		t.Fatal("SETTLEMENTDATE should decode")
	}
}

func TestHeaderIndexShortRow(t *testing.T) {
	idx := HeaderIndex([]string{"I", "X", "Y", "1", "A", "B"})
	short := []string{"D", "X", "Y", "1", "only-a"}
	if got := idx.Field(short, "B"); got != "" {
		t.Fatalf("short row should yield empty, got %q", got)
	}
}
