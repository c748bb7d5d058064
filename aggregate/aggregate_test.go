package aggregate

import (
	"testing"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
)

func TestBucketWidth(t *testing.T) {
	cases := []struct {
		hours int
		want  int
	}{
		{1, 5},
		{47, 5},
		{48, 30},
		{168, 30},
		{169, 60},
		{720, 60},
		{721, 1440},
		{2160, 1440},
		{2161, 10080},
		{8760, 10080},
	}
	for _, c := range cases {
		if got := BucketWidth(c.hours); got != c.want {
			t.Errorf("BucketWidth(%d) = %d, want %d", c.hours, got, c.want)
		}
	}
}

func priceRow(ts time.Time, price float64, source models.PriceSource) models.PriceRecord {
	return models.PriceRecord{
		SettlementDate: ts,
		Region:         "NSW",
		Price:          price,
		TotalDemand:    7000,
		Source:         source,
	}
}

func TestAggregatePricesSampleCounts(t *testing.T) {
	// 24 hours of 5-minute rows into 60-minute buckets: 24 buckets of 12.
	start := time.Date(2025, time.January, 15, 0, 0, 0, 0, nemcsv.MarketZone)
	var rows []models.PriceRecord
	for i := 0; i < 24*12; i++ {
		rows = append(rows, priceRow(start.Add(time.Duration(i)*5*time.Minute), 100, models.SourceDispatch))
	}

	buckets := AggregatePrices(rows, 60)
	if len(buckets) != 24 {
		t.Fatalf("expected 24 buckets, got %d", len(buckets))
	}
	for i, b := range buckets {
		if b.SampleCount != 12 {
			t.Errorf("bucket %d sample count = %d, want 12", i, b.SampleCount)
		}
		if b.Price != 100 {
			t.Errorf("bucket %d price = %f, want 100", i, b.Price)
		}
	}
}

func TestAggregatePricesAbsoluteAnchor(t *testing.T) {
	// Rows starting at 00:25 must land in the bucket anchored at 00:00, not
	// one anchored at the first row.
	ts := time.Date(2025, time.January, 15, 0, 25, 0, 0, nemcsv.MarketZone)
	buckets := AggregatePrices([]models.PriceRecord{priceRow(ts, 50, models.SourceDispatch)}, 60)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	want := time.Date(2025, time.January, 15, 0, 0, 0, 0, nemcsv.MarketZone)
	if !buckets[0].Period.Equal(want) {
		t.Errorf("bucket anchored at %v, want %v", buckets[0].Period, want)
	}
}

func TestAggregatePricesAverages(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, nemcsv.MarketZone)
	rows := []models.PriceRecord{
		priceRow(base, 80, models.SourceDispatch),
		priceRow(base.Add(5*time.Minute), 120, models.SourceDispatch),
	}
	buckets := AggregatePrices(rows, 60)
	if len(buckets) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Price != 100 {
		t.Errorf("average price = %f, want 100", buckets[0].Price)
	}
	if buckets[0].SampleCount != 2 {
		t.Errorf("sample count = %d, want 2", buckets[0].SampleCount)
	}
}

func TestAggregatePricesEmpty(t *testing.T) {
	if got := AggregatePrices(nil, 60); got != nil {
		t.Errorf("expected nil for empty input, got %v", got)
	}
}

func TestMergePriceHistoryPrefersPublic(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, nemcsv.MarketZone)
	public := []models.PriceRecord{
		priceRow(base, 90, models.SourcePublic),
	}
	dispatch := []models.PriceRecord{
		priceRow(base, 95, models.SourceDispatch),
		priceRow(base.Add(5*time.Minute), 98, models.SourceDispatch),
	}

	merged := MergePriceHistory(public, dispatch)
	if len(merged) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(merged))
	}
	if merged[0].Source != models.SourcePublic || merged[0].Price != 90 {
		t.Errorf("overlapping timestamp not taken from PUBLIC: %+v", merged[0])
	}
	if merged[1].Source != models.SourceDispatch {
		t.Errorf("fill row not tagged DISPATCH: %+v", merged[1])
	}
}

func TestMergePriceHistorySingleSource(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, nemcsv.MarketZone)
	dispatch := []models.PriceRecord{
		priceRow(base, 95, models.SourceDispatch),
		priceRow(base.Add(5*time.Minute), 98, models.SourceDispatch),
	}

	merged := MergePriceHistory(nil, dispatch)
	if len(merged) != len(dispatch) {
		t.Fatalf("expected %d rows, got %d", len(dispatch), len(merged))
	}
	for _, r := range merged {
		if r.Source != models.SourceDispatch {
			t.Errorf("row not tagged with its source: %+v", r)
		}
	}
}

func TestMergePriceHistorySorted(t *testing.T) {
	base := time.Date(2025, time.January, 15, 10, 0, 0, 0, nemcsv.MarketZone)
	public := []models.PriceRecord{
		priceRow(base.Add(30*time.Minute), 90, models.SourcePublic),
	}
	dispatch := []models.PriceRecord{
		priceRow(base, 95, models.SourceDispatch),
		priceRow(base.Add(1*time.Hour), 99, models.SourceDispatch),
	}

	merged := MergePriceHistory(public, dispatch)
	for i := 1; i < len(merged); i++ {
		if merged[i].SettlementDate.Before(merged[i-1].SettlementDate) {
			t.Fatalf("merged output not sorted at %d: %v", i, merged)
		}
	}
}
