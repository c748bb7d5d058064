package nemweb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

var (
	dispatchPricePattern = regexp.MustCompile(`PUBLIC_DISPATCHIS_(\d{12})_\d{16}\.zip`)
	tradingPricePattern  = regexp.MustCompile(`PUBLIC_TRADINGIS_(\d{12})_\d{16}\.zip`)
)

const (
	dispatchPriceDir = "/Reports/Current/DispatchIS_Reports/"
	tradingPriceDir  = "/Reports/Current/TradingIS_Reports/"
	publicPriceDir   = "/Reports/Current/Public_Prices/"
	publicArchiveDir = "/Reports/Archive/Public_Prices/"
)

// CurrentDispatchPrices fetches the latest provisional 5-minute prices.
func (c *Client) CurrentDispatchPrices(ctx context.Context) ([]models.PriceRecord, error) {
	return c.latestPriceFile(ctx, dispatchPriceDir, dispatchPricePattern, models.SourceDispatch)
}

// CurrentTradingPrices fetches the latest 30-minute trading prices.
func (c *Client) CurrentTradingPrices(ctx context.Context) ([]models.PriceRecord, error) {
	return c.latestPriceFile(ctx, tradingPriceDir, tradingPricePattern, models.SourceTrading)
}

func (c *Client) latestPriceFile(ctx context.Context, dir string, pattern *regexp.Regexp, source models.PriceSource) ([]models.PriceRecord, error) {
	dirURL := c.baseURL + dir
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, err
	}
	latest := latestMatch(listing, pattern)
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

	records, skipped, err := parser.Prices(csv, source)
	c.logParse(string(source)+"_price", latest, len(records), skipped)
	return records, err
}

// DailyPublicPrices assembles one calendar day of settlement-grade prices.
// Public price files run 04:05 to 04:00 the next market day, so a calendar
// day needs the target day's file plus the previous day's, filtered and
// deduplicated at the boundary. The near-real-time window is tried first,
// then the monthly archive.
func (c *Client) DailyPublicPrices(ctx context.Context, date time.Time) ([]models.PriceRecord, error) {
	date = date.In(nemcsv.MarketZone)
	records, err := c.dailyPublicFromCurrent(ctx, date)
	if err == nil && len(records) > 0 {
		return records, nil
	}
	if err != nil && !errors.Is(err, ErrNotYetPublished) && !errors.Is(err, parser.ErrNoData) {
		return nil, err
	}
	return c.dailyPublicFromArchive(ctx, date)
}

func (c *Client) dailyPublicFromCurrent(ctx context.Context, date time.Time) ([]models.PriceRecord, error) {
	dirURL := c.baseURL + publicPriceDir
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, err
	}

	var combined []models.PriceRecord
	for _, day := range []time.Time{date.AddDate(0, 0, -1), date} {
		pattern := regexp.MustCompile(`PUBLIC_PRICES_` + day.Format("20060102") + `0000_\d{14}\.zip`)
		latest := latestMatch(listing, pattern)
		if latest == "" {
			continue
		}
		payload, err := c.get(ctx, dirURL+latest)
		if err != nil {
			continue
		}
		csv, err := firstCSV(payload)
		if err != nil {
			continue
		}
		records, skipped, err := parser.Prices(csv, models.SourcePublic)
		if err != nil {
			continue
		}
		c.logParse("public_price", latest, len(records), skipped)
		combined = append(combined, records...)
	}

	out := parser.FilterPricesToDay(combined, date.Year(), int(date.Month()), date.Day())
	if len(out) == 0 {
		return nil, parser.ErrNoData
	}
	return out, nil
}

func (c *Client) dailyPublicFromArchive(ctx context.Context, date time.Time) ([]models.PriceRecord, error) {
	prev := date.AddDate(0, 0, -1)

	// The two market-day files may live in different monthly archives.
	months := []time.Time{prev, date}
	fetched := map[string]bool{}

	var combined []models.PriceRecord
	for _, m := range months {
		monthKey := m.Format("200601")
		if fetched[monthKey] {
			continue
		}
		fetched[monthKey] = true

		url := fmt.Sprintf("%s%sPUBLIC_PRICES_%s01.zip", c.baseURL, publicArchiveDir, monthKey)
		payload, err := c.get(ctx, url)
		if errors.Is(err, ErrNotYetPublished) {
			continue
		}
		if err != nil {
			return nil, err
		}

		inner, err := innerZipsByDate(payload, prev.Format("20060102")+"0000", date.Format("20060102")+"0000")
		if err != nil {
			continue
		}
		for _, nested := range inner {
			csv, err := firstCSV(nested)
			if err != nil {
				continue
			}
			records, _, err := parser.Prices(csv, models.SourcePublic)
			if err != nil {
				continue
			}
			combined = append(combined, records...)
		}
	}

	out := parser.FilterPricesToDay(combined, date.Year(), int(date.Month()), date.Day())
	if len(out) == 0 {
		return nil, parser.ErrNoData
	}
	c.logParse("public_price_archive", date.Format("2006-01-02"), len(out), 0)
	return out, nil
}

// MonthlyPublicPrices fetches one whole month of settlement-grade prices
// from the archive in a single download, far cheaper than day-by-day pulls.
func (c *Client) MonthlyPublicPrices(ctx context.Context, year int, month time.Month) ([]models.PriceRecord, error) {
	url := fmt.Sprintf("%s%sPUBLIC_PRICES_%04d%02d01.zip", c.baseURL, publicArchiveDir, year, int(month))
	payload, err := c.get(ctx, url)
	if err != nil {
		return nil, err
	}

	inner, err := innerZipsByDate(payload)
	if err != nil {
		return nil, err
	}

	var combined []models.PriceRecord
	for _, nested := range inner {
		csv, err := firstCSV(nested)
		if err != nil {
			continue
		}
		records, _, err := parser.Prices(csv, models.SourcePublic)
		if err != nil {
			continue
		}
		combined = append(combined, records...)
	}

	out := parser.DedupePrices(combined)
	if len(out) == 0 {
		return nil, parser.ErrNoData
	}
	c.logParse("public_price_month", fmt.Sprintf("%04d-%02d", year, int(month)), len(out), 0)
	return out, nil
}

// AllCurrentDispatchPrices fetches every dispatch price file in the
// near-real-time window newer than since, oldest first. A zero since fetches
// the whole window (roughly three days of 5-minute files).
func (c *Client) AllCurrentDispatchPrices(ctx context.Context, since time.Time) ([]models.PriceRecord, error) {
	return c.allCurrentPrices(ctx, dispatchPriceDir, dispatchPricePattern, models.SourceDispatch, since)
}

// AllCurrentTradingPrices is the trading-price counterpart of
// AllCurrentDispatchPrices.
func (c *Client) AllCurrentTradingPrices(ctx context.Context, since time.Time) ([]models.PriceRecord, error) {
	return c.allCurrentPrices(ctx, tradingPriceDir, tradingPricePattern, models.SourceTrading, since)
}

func (c *Client) allCurrentPrices(ctx context.Context, dir string, pattern *regexp.Regexp, source models.PriceSource, since time.Time) ([]models.PriceRecord, error) {
	dirURL := c.baseURL + dir
	listing, err := c.listing(ctx, dirURL)
	if err != nil {
		return nil, err
	}

	type datedFile struct {
		name  string
		stamp time.Time
	}
	var files []datedFile
	for _, name := range allMatches(listing, pattern) {
		stamp, ok := fileTimestamp(name, pattern)
		if !ok {
			continue
		}
		if !since.IsZero() && !stamp.After(since) {
			continue
		}
		files = append(files, datedFile{name: name, stamp: stamp})
	}
	if len(files) == 0 {
		return nil, parser.ErrNoData
	}
	sort.Slice(files, func(i, j int) bool { return files[i].stamp.Before(files[j].stamp) })

	var combined []models.PriceRecord
	for _, f := range files {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		payload, err := c.get(ctx, dirURL+f.name)
		if err != nil {
			continue
		}
		csv, err := firstCSV(payload)
		if err != nil {
			continue
		}
		records, _, err := parser.Prices(csv, source)
		if err != nil {
			continue
		}
		combined = append(combined, records...)
	}

	out := parser.DedupePrices(combined)
	if len(out) == 0 {
		return nil, parser.ErrNoData
	}
	c.logParse(string(source)+"_price_window", fmt.Sprintf("%d files", len(files)), len(out), 0)
	return out, nil
}
