package writer

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

func TestPriceKeyPartitioning(t *testing.T) {
	batchDate := time.Date(2025, time.January, 15, 4, 5, 0, 0, nemcsv.MarketZone)
	uploaded := time.Date(2025, time.January, 16, 10, 30, 0, 0, time.UTC)

	key := priceKey(batchDate, uploaded)
	if !strings.HasPrefix(key, "prices/year=2025/month=01/day=15/") {
		t.Errorf("unexpected partition prefix: %s", key)
	}
	if !strings.HasSuffix(key, "prices_20250116103000.parquet") {
		t.Errorf("unexpected filename: %s", key)
	}
}

func TestExportPricesNilExporter(t *testing.T) {
	var e *Exporter
	rows := []models.PriceRecord{{
		SettlementDate: time.Date(2025, time.January, 15, 4, 5, 0, 0, nemcsv.MarketZone),
		Region:         "NSW",
		Price:          100,
		Source:         models.SourceDispatch,
	}}
	if err := e.ExportPrices(context.Background(), rows); err != nil {
		t.Fatalf("nil exporter should be a no-op, got %v", err)
	}
}

func TestEncodePrices(t *testing.T) {
	rows := []models.PriceRecord{
		{
			SettlementDate: time.Date(2025, time.January, 15, 4, 5, 0, 0, nemcsv.MarketZone),
			Region:         "NSW",
			Price:          102.5,
			TotalDemand:    7500,
			Source:         models.SourcePublic,
		},
		{
			SettlementDate: time.Date(2025, time.January, 15, 4, 10, 0, 0, nemcsv.MarketZone),
			Region:         "VIC",
			Price:          98.7,
			TotalDemand:    5200,
			Source:         models.SourcePublic,
		},
	}

	data, err := encodePrices(rows)
	if err != nil {
		t.Fatalf("encodePrices failed: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty parquet payload")
	}
	// Parquet files start and end with the PAR1 magic bytes.
	if string(data[:4]) != "PAR1" || string(data[len(data)-4:]) != "PAR1" {
		t.Error("payload missing parquet magic bytes")
	}
}
