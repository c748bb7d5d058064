// Package nemweb locates and retrieves market reports from the publisher's
// file server. Near-real-time feeds live under Reports/Current as directory
// listings of timestamped ZIP files; historical feeds live under
// Reports/Archive at deterministic year/month paths that become available
// roughly two days after the fact.
package nemweb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/tder311/nemflow/config"
	"github.com/tder311/nemflow/internal/nemcsv"
	"github.com/tder311/nemflow/logger"
)

// ErrNotYetPublished reports a 404 for a resource whose publication delay has
// not elapsed. It is a normal negative result, not a transport failure.
var ErrNotYetPublished = errors.New("resource not yet published")

// StatusError reports a non-success HTTP status other than 404.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d fetching %s", e.Status, e.URL)
}

// Client fetches report files with a shared rate limiter so sequential
// archive pulls stay under the publisher's tolerance.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	log       *logger.Log
}

// NewClient builds a Client from the source configuration. RequestDelayMs
// spaces consecutive requests; the publisher throttles aggressive crawlers.
func NewClient(cfg *config.Config) *Client {
	delay := time.Duration(cfg.Source.RequestDelayMs) * time.Millisecond
	if delay <= 0 {
		delay = time.Second
	}

	client := &Client{
		baseURL:   strings.TrimRight(cfg.Source.BaseURL, "/"),
		userAgent: cfg.Source.UserAgent,
		http: &http.Client{
			Timeout: time.Duration(cfg.Source.TimeoutSeconds) * time.Second,
		},
		limiter: rate.NewLimiter(rate.Every(delay), 1),
		log:     logger.GetLogger(),
	}

	client.log.WithComponent("nemweb_client").WithFields(logger.Fields{
		"base_url":      client.baseURL,
		"timeout_s":     cfg.Source.TimeoutSeconds,
		"request_delay": delay.String(),
	}).Info("nemweb client initialized")

	return client
}

// get fetches one resource, waiting on the rate limiter first. A 404 maps to
// ErrNotYetPublished so callers can treat it as a normal negative result.
func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotYetPublished
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{URL: url, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	logger.LogPerformanceEntry(
		c.log.WithComponent("nemweb_client"),
		"nemweb_client", "fetch", time.Since(start),
		logger.Fields{"url": url, "bytes": len(body)},
	)
	return body, nil
}

// listing fetches a directory listing page as text.
func (c *Client) listing(ctx context.Context, dirURL string) (string, error) {
	body, err := c.get(ctx, dirURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// latestMatch returns the lexicographically greatest filename matching the
// pattern. Report filenames embed a sortable timestamp, so lexicographic
// order equals chronological order.
func latestMatch(listing string, pattern *regexp.Regexp) string {
	matches := pattern.FindAllString(listing, -1)
	if len(matches) == 0 {
		return ""
	}
	sort.Strings(matches)
	return matches[len(matches)-1]
}

// allMatches returns every distinct filename matching the pattern, in
// ascending name order. Listing pages repeat each filename in both the href
// and the link text, so matches are deduplicated.
func allMatches(listing string, pattern *regexp.Regexp) []string {
	seen := map[string]bool{}
	var files []string
	for _, m := range pattern.FindAllString(listing, -1) {
		if seen[m] {
			continue
		}
		seen[m] = true
		files = append(files, m)
	}
	sort.Strings(files)
	return files
}

// fileTimestamp extracts the YYYYMMDDHHmm publication stamp embedded in a
// report filename via the pattern's first capture group.
func fileTimestamp(name string, pattern *regexp.Regexp) (time.Time, bool) {
	groups := pattern.FindStringSubmatch(name)
	if len(groups) < 2 {
		return time.Time{}, false
	}
	t, err := time.ParseInLocation("200601021504", groups[1], nemcsv.MarketZone)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
