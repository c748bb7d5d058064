package nemweb

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
)

const dispatchCSV = `C,NEMP.WORLD,DISPATCHSCADA,AEMO,PUBLIC,2025/01/15,04:10:05,0000000412345679,,0000000412345678
I,DISPATCH,UNIT_SCADA,1,SETTLEMENTDATE,DUID,SCADAVALUE,LASTCHANGED
D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:10:00",AGLHAL,142.50,"2025/01/15 04:10:02"
D,DISPATCH,UNIT_SCADA,1,"2025/01/15 04:10:00",ARWF1,88.25,"2025/01/15 04:10:02"
C,"END OF REPORT",6
`

func TestCurrentDispatch(t *testing.T) {
	const fileName = "PUBLIC_DISPATCHSCADA_202501150410_0000000412345679.zip"
	payload := zipWithEntry(t, "PUBLIC_DISPATCHSCADA_202501150410.CSV", []byte(dispatchCSV))

	mux := http.NewServeMux()
	mux.HandleFunc("/Reports/Current/Dispatch_SCADA/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<a href="` + fileName + `">` + fileName + `</a>`))
	})
	mux.HandleFunc("/Reports/Current/Dispatch_SCADA/"+fileName, func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	})

	client, _ := testClient(t, mux)
	readings, err := client.CurrentDispatch(context.Background())
	if err != nil {
		t.Fatalf("CurrentDispatch failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if readings[0].DUID != "AGLHAL" || readings[0].ScadaValue != 142.50 {
		t.Errorf("unexpected first reading: %+v", readings[0])
	}
	want := time.Date(2025, 1, 15, 4, 10, 0, 0, nemcsv.MarketZone)
	if !readings[0].SettlementDate.Equal(want) {
		t.Errorf("unexpected settlement date: %v", readings[0].SettlementDate)
	}
}

func TestHistoricalDispatchNotYetPublished(t *testing.T) {
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, nemcsv.MarketZone)
	_, err := client.HistoricalDispatch(context.Background(), date)
	if !errors.Is(err, ErrNotYetPublished) {
		t.Fatalf("expected ErrNotYetPublished, got %v", err)
	}
}

func TestHistoricalDispatch(t *testing.T) {
	inner := zipWithEntry(t, "PUBLIC_DISPATCHSCADA_202501150410.CSV", []byte(dispatchCSV))
	outer := zipWithEntry(t, "PUBLIC_DISPATCHSCADA_202501150410_0000000412345679.zip", inner)

	var gotPath string
	client, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write(outer)
	}))

	date := time.Date(2025, 1, 15, 0, 0, 0, 0, nemcsv.MarketZone)
	readings, err := client.HistoricalDispatch(context.Background(), date)
	if err != nil {
		t.Fatalf("HistoricalDispatch failed: %v", err)
	}
	if len(readings) != 2 {
		t.Fatalf("expected 2 readings, got %d", len(readings))
	}
	if gotPath != "/Reports/Archive/Dispatch_SCADA/2025/DISPATCH_SCADA_20250115.zip" {
		t.Errorf("unexpected archive path: %s", gotPath)
	}
}
