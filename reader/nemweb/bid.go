package nemweb

import (
	"context"
	"errors"
	"regexp"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

// DailyBids fetches one day of generator offers: daily price bands plus
// per-interval band availability. The near-real-time window covers roughly
// three days; older dates come from the monthly archive, whose container ZIP
// nests one daily ZIP per day.
func (c *Client) DailyBids(ctx context.Context, date time.Time) ([]models.BidDayOffer, []models.BidIntervalOffer, error) {
	date = date.In(nemcsv.MarketZone)

	day, interval, err := c.bidsFromCurrent(ctx, date)
	if err == nil {
		return day, interval, nil
	}
	if !errors.Is(err, ErrNotYetPublished) && !errors.Is(err, parser.ErrNoData) {
		return nil, nil, err
	}
	return c.bidsFromArchive(ctx, date)
}

func (c *Client) bidsFromCurrent(ctx context.Context, date time.Time) ([]models.BidDayOffer, []models.BidIntervalOffer, error) {
	dirURL := c.baseURL + "/Reports/Current/Bidmove_Complete/"
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, nil, err
	}

	pattern := regexp.MustCompile(`PUBLIC_BIDMOVE_COMPLETE_` + date.Format("20060102") + `_\d{16}\.zip`)
	latest := latestMatch(listing, pattern)
	if latest == "" {
		return nil, nil, parser.ErrNoData
	}

	payload, err := c.get(ctx, dirURL+latest)
	if err != nil {
		return nil, nil, err
	}
	return c.parseBidArchive(payload, date, latest)
}

func (c *Client) bidsFromArchive(ctx context.Context, date time.Time) ([]models.BidDayOffer, []models.BidIntervalOffer, error) {
	dirURL := c.baseURL + "/Reports/Archive/Bidmove_Complete/"
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, nil, err
	}

	// Monthly container files carry a day-of-month suffix that varies, so
	// the directory listing decides the exact name.
	pattern := regexp.MustCompile(`PUBLIC_BIDMOVE_COMPLETE_` + date.Format("200601") + `\d{2}\.zip`)
	latest := latestMatch(listing, pattern)
	if latest == "" {
		return nil, nil, ErrNotYetPublished
	}

	payload, err := c.get(ctx, dirURL+latest)
	if err != nil {
		return nil, nil, err
	}
	return c.parseBidArchive(payload, date, latest)
}

// parseBidArchive handles both shapes: a plain report ZIP with CSVs inside,
// and a monthly container whose daily ZIP is selected by date substring.
func (c *Client) parseBidArchive(payload []byte, date time.Time, source string) ([]models.BidDayOffer, []models.BidIntervalOffer, error) {
	csv, err := csvFromNestedZip(payload, date.Format("20060102"))
	if err != nil {
		return nil, nil, err
	}

	day, interval, skipped, err := parser.Bids(csv)
	c.logParse("bids", source, len(day)+len(interval), skipped)
	return day, interval, err
}
