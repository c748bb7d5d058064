package parser

import (
	"errors"
	"testing"
)

const dispatchSample = `C,NEMP.WORLD,DISPATCHSCADA,AEMO,PUBLIC,2025/01/15,04:05:00
I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE,LASTCHANGED
D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:05:00",AGLHAL,93.5,"2025/01/15 04:05:02"
D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:05:00",BASTYAN
D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:05:00",ARWF1,120.25,"2025/01/15 04:05:02"
C,END OF REPORT
`

func TestDispatchSkipsMalformedLines(t *testing.T) {
	readings, skipped, err := Dispatch([]byte(dispatchSample))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if skipped != 1 {
		t.Fatalf("expected 1 skipped line, got %d", skipped)
	}
	if readings[0].DUID != "AGLHAL" || readings[0].ScadaValue != 93.5 {
		t.Fatalf("unexpected first reading: %+v", readings[0])
	}
	if readings[1].DUID != "ARWF1" || readings[1].ScadaValue != 120.25 {
		t.Fatalf("unexpected second reading: %+v", readings[1])
	}
}

func TestDispatchNoData(t *testing.T) {
	_, _, err := Dispatch([]byte("C,NEMP.WORLD,OTHER\nD,TRADING,PRICE,3,x\n"))
	if !errors.Is(err, ErrNoData) {
		t.Fatalf("expected ErrNoData, got %v", err)
	}
}

func TestDispatchHeaderDrivenExtras(t *testing.T) {
	sample := `I,DISPATCH,UNIT_SCADA,2,SETTLEMENTDATE,DUID,SCADAVALUE,UIGF,TOTALCLEARED,RAMPRATE,AVAILABILITY,RAISE1SEC,LOWER1SEC
D,DISPATCH,UNIT_SCADA,2,"2025/01/15 04:10:00",ARWF1,118.0,130.5,120.0,3.0,240.0,1.5,1.5
`
	readings, _, err := Dispatch([]byte(sample))
	if err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	r := readings[0]
	if r.UIGF != 130.5 || r.TotalCleared != 120.0 || r.Availability != 240.0 {
		t.Fatalf("header-named fields not decoded: %+v", r)
	}
	if r.Raise1Sec != 1.5 || r.Lower1Sec != 1.5 {
		t.Fatalf("reserve fields not decoded: %+v", r)
	}
}
