package nemweb

import (
	"context"
	"fmt"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

// DailyPriceSetters fetches the price-setter attributions for one day from
// the solver archive: a ZIP of one XML file per 5-minute interval. The
// archive lags publication, so a missing day is a normal negative result.
func (c *Client) DailyPriceSetters(ctx context.Context, date time.Time) ([]models.PriceSetter, error) {
	date = date.In(nemcsv.MarketZone)
	url := fmt.Sprintf(
		"%s/Data_Archive/Wholesale_Electricity/NEMDE/%d/NEMDE_%d_%02d/NEMDE_Market_Data/NEMDE_Files/NemPriceSetter_%s_xml.zip",
		c.baseURL, date.Year(), date.Year(), int(date.Month()), date.Format("20060102"),
	)

	payload, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	setters, skipped, err := parser.PriceSetters(payload)
	c.logParse("price_setter", date.Format("2006-01-02"), len(setters), skipped)
	return setters, err
}
