package aggregate

import (
	"sort"

	"github.com/tder311/nemflow/models"
)

// MergePriceHistory combines the two price series, preferring the
// settlement-grade PUBLIC row wherever both cover a timestamp and filling
// the rest from DISPATCH. Every output row keeps the Source of the series
// that satisfied it, so consumers can tell definitive from provisional data.
// Output is ascending by settlement date.
func MergePriceHistory(public, dispatch []models.PriceRecord) []models.PriceRecord {
	covered := make(map[int64]bool, len(public))
	for _, r := range public {
		covered[r.SettlementDate.Unix()] = true
	}

	merged := make([]models.PriceRecord, 0, len(public)+len(dispatch))
	merged = append(merged, public...)
	for _, r := range dispatch {
		if covered[r.SettlementDate.Unix()] {
			continue
		}
		merged = append(merged, r)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].SettlementDate.Before(merged[j].SettlementDate)
	})
	return merged
}
