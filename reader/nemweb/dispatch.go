package nemweb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/tder311/nemflow/logger"
	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

var dispatchFilePattern = regexp.MustCompile(`PUBLIC_DISPATCHSCADA_\d{12}_\d{16}\.zip`)

// CurrentDispatch fetches the most recent telemetry snapshot from the
// near-real-time directory.
func (c *Client) CurrentDispatch(ctx context.Context) ([]models.DispatchReading, error) {
	dirURL := c.baseURL + "/Reports/Current/Dispatch_SCADA/"
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, err
	}

	latest := latestMatch(listing, dispatchFilePattern)
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

	readings, skipped, err := parser.Dispatch(csv)
	c.logParse("dispatch", latest, len(readings), skipped)
	return readings, err
}

// HistoricalDispatch fetches one archived day of telemetry. The archive is
// keyed by year and date and becomes available after the publication delay.
func (c *Client) HistoricalDispatch(ctx context.Context, date time.Time) ([]models.DispatchReading, error) {
	dateStr := date.Format("20060102")
	url := fmt.Sprintf("%s/Reports/Archive/Dispatch_SCADA/%d/DISPATCH_SCADA_%s.zip",
		c.baseURL, date.Year(), dateStr)

	payload, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}
	csv, err := csvFromNestedZip(payload, dateStr)
	if err != nil {
		return nil, err
	}

	readings, skipped, err := parser.Dispatch(csv)
	c.logParse("dispatch_archive", dateStr, len(readings), skipped)
	return readings, err
}

func (c *Client) logParse(feed string, source string, records int, skipped int) {
	entry := c.log.WithComponent("nemweb_client").WithFields(logger.Fields{
		"feed":    feed,
		"source":  source,
		"records": records,
	})
	if skipped > 0 {
		entry.WithFields(logger.Fields{"skipped": skipped}).Warn("parsed feed with skipped lines")
		return
	}
	entry.Info("parsed feed")
}
