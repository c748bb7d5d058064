package nemweb

import (
	"context"

	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

// CurrentInterconnectorFlows fetches the latest link flows. They ride in the
// same dispatch report as the 5-minute prices, as a separate sub-table.
func (c *Client) CurrentInterconnectorFlows(ctx context.Context) ([]models.InterconnectorFlow, error) {
	dirURL := c.baseURL + dispatchPriceDir
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	latest := latestMatch(listing, dispatchPricePattern)
	if latest == "" {
		return nil, parser.ErrNoData
	}

	payload, err := c.get(ctx, dirURL+latest)
	if err != nil {
		return nil, err
	}
	csv, err := firstCSV(payload)
	if err != nil {
		return nil, err
	}

	flows, skipped, err := parser.InterconnectorFlows(csv)
	c.logParse("interconnector", latest, len(flows), skipped)
	return flows, err
}
