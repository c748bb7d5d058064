package aggregate

import (
	"context"
	"time"

	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/store"
)

// Engine serves query-side aggregation over the store. Reads are stateless
// and safe to run concurrently with ingestion.
type Engine struct {
	store *store.Store
}

// NewEngine wraps a store for aggregation queries.
func NewEngine(s *store.Store) *Engine {
	return &Engine{store: s}
}

// MergedPrices returns the merged PUBLIC-over-DISPATCH price history for one
// region over the trailing window, at raw resolution.
func (e *Engine) MergedPrices(ctx context.Context, region string, hours int) ([]models.PriceRecord, error) {
	public, err := e.store.RegionPriceHistory(ctx, region, hours, models.SourcePublic)
	if err != nil {
		return nil, err
	}
	dispatch, err := e.store.RegionPriceHistory(ctx, region, hours, models.SourceDispatch)
	if err != nil {
		return nil, err
	}
	return MergePriceHistory(public, dispatch), nil
}

// PriceHistory returns one region's price history at the adaptive resolution
// for the span. Spans bucketed at 30 minutes or finer return the merged raw
// series unchanged; wider spans are averaged into buckets.
func (e *Engine) PriceHistory(ctx context.Context, region string, hours int) ([]models.PriceRecord, []Bucket, error) {
	width := BucketWidth(hours)

	merged, err := e.MergedPrices(ctx, region, hours)
	if err != nil {
		return nil, nil, err
	}
	if width <= 30 {
		return merged, nil, nil
	}
	return nil, AggregatePrices(merged, width), nil
}

// GenerationHistory returns one region's generation by fuel source at the
// adaptive resolution for the span.
func (e *Engine) GenerationHistory(ctx context.Context, region string, hours int) ([]store.GenerationBucket, error) {
	return e.store.RegionGenerationHistory(ctx, region, hours, BucketWidth(hours))
}

// GenerationByFuel totals generation per fuel source across all regions for
// an explicit time range.
func (e *Engine) GenerationByFuel(ctx context.Context, start, end time.Time) ([]store.FuelGeneration, error) {
	return e.store.GenerationByFuel(ctx, start, end)
}

// RegionFuelMix returns each fuel source's share of one region's current
// generation.
func (e *Engine) RegionFuelMix(ctx context.Context, region string) ([]store.FuelMixEntry, error) {
	return e.store.RegionFuelMix(ctx, region)
}
