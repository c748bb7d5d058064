package nemweb

import (
	"context"
	"regexp"

	"github.com/tder311/nemflow/models"
	"github.com/tder311/nemflow/parser"
)

var (
	pdpasaFilePattern = regexp.MustCompile(`PUBLIC_PDPASA_\d+_\d+\.zip`)
	stpasaFilePattern = regexp.MustCompile(`PUBLIC_STPASA_\d+_\d+\.zip`)
)

// LatestReserveForecasts fetches the most recent reserve-adequacy run for
// one horizon: the pre-dispatch run covers roughly the next 6 hours, the
// short-term run roughly the next 6 days.
func (c *Client) LatestReserveForecasts(ctx context.Context, horizon models.PASAHorizon) ([]models.ReserveForecast, error) {
	var dir string
	var pattern *regexp.Regexp
	switch horizon {
	case models.HorizonPreDispatch:
		dir = "/Reports/Current/PDPASA/"
		pattern = pdpasaFilePattern
	case models.HorizonShortTerm:
		dir = "/Reports/Current/Short_Term_PASA_Reports/"
		pattern = stpasaFilePattern
	default:
		return nil, parser.ErrNoData
	}

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

	forecasts, skipped, err := parser.ReserveForecasts(csv, horizon)
	c.logParse(string(horizon), latest, len(forecasts), skipped)
	return forecasts, err
}
