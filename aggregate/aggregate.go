// Package aggregate reduces raw time-series rows to fixed-width buckets and
// merges the provisional and settlement-grade price series.
package aggregate

import (
	"sort"
	"time"

	"github.com/tder311/nemflow/models"
)

// BucketWidth maps a query span in hours to a bucket width in minutes. The
// step function keeps response sizes roughly constant across spans; each
// boundary value belongs to the narrower bucket.
func BucketWidth(hours int) int {
	switch {
	case hours < 48:
		return 5
	case hours <= 168:
		return 30
	case hours <= 720:
		return 60
	case hours <= 2160:
		return 1440
	default:
		return 10080
	}
}

// Bucket is one fixed-width window of averaged price rows. SampleCount lets
// callers tell a sparse bucket from a dense one.
type Bucket struct {
	Period      time.Time `json:"period"`
	Price       float64   `json:"price"`
	TotalDemand float64   `json:"totaldemand"`
	SampleCount int       `json:"sample_count"`
}

// AggregatePrices groups rows into bucketMinutes-wide windows anchored to
// absolute time, not to the first row, and averages the numeric fields.
// Output is ascending by period.
func AggregatePrices(rows []models.PriceRecord, bucketMinutes int) []Bucket {
	if len(rows) == 0 || bucketMinutes <= 0 {
		return nil
	}

	width := int64(bucketMinutes) * 60
	sums := map[int64]*Bucket{}
	for _, r := range rows {
		anchor := r.SettlementDate.Unix() / width * width
		b, ok := sums[anchor]
		if !ok {
			b = &Bucket{Period: time.Unix(anchor, 0).In(r.SettlementDate.Location())}
			sums[anchor] = b
		}
		b.Price += r.Price
		b.TotalDemand += r.TotalDemand
		b.SampleCount++
	}

	out := make([]Bucket, 0, len(sums))
	for _, b := range sums {
		b.Price /= float64(b.SampleCount)
		b.TotalDemand /= float64(b.SampleCount)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Period.Before(out[j].Period) })
	return out
}
