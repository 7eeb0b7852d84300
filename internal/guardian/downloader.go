package guardian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/cognicore/textlab/pkg/textlab/internalerr"
	"github.com/cognicore/textlab/pkg/textlab/logging"
)

const (
	DefaultEndpoint    = "https://content.guardianapis.com/search"
	DefaultPageSize    = 200
	DefaultConcurrency = 4

	dayLayout = "2006-01-02"
)

// Downloader fetches every article of a date range into Dir, one file per
// day named YYYY-MM-DD.json. Days already on disk are skipped.
type Downloader struct {
	Client      *http.Client
	Endpoint    string
	APIKey      string
	Dir         string
	PageSize    int
	Concurrency int
	Logger      *logrus.Entry
}

type searchResponse struct {
	Response struct {
		Status  string            `json:"status"`
		Message string            `json:"message"`
		Pages   int               `json:"pages"`
		Results []json.RawMessage `json:"results"`
	} `json:"response"`
}

// Download fetches the days from..to inclusive and returns how many day
// files were written.
func (d *Downloader) Download(ctx context.Context, from, to time.Time) (int, error) {
	from, to = truncateDay(from), truncateDay(to)
	if to.Before(from) {
		return 0, fmt.Errorf("%w: end date %s before start date %s", internalerr.ErrInvalidInput, to.Format(dayLayout), from.Format(dayLayout))
	}
	if err := os.MkdirAll(d.Dir, 0755); err != nil {
		return 0, fmt.Errorf("create %s: %w", d.Dir, err)
	}

	log := d.logger()
	limit := d.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for day := from; !day.After(to); day = day.AddDate(0, 0, 1) {
		path := filepath.Join(d.Dir, day.Format(dayLayout)+".json")
		if _, err := os.Stat(path); err == nil {
			log.WithField("day", day.Format(dayLayout)).Debug("already cached")
			continue
		}
		g.Go(func() error {
			results, err := d.fetchDay(gctx, day)
			if err != nil {
				return fmt.Errorf("day %s: %w", day.Format(dayLayout), err)
			}
			if err := writeDay(path, results); err != nil {
				return err
			}
			written.Add(1)
			log.WithFields(logrus.Fields{
				"day":      day.Format(dayLayout),
				"articles": len(results),
			}).Info("day downloaded")
			return nil
		})
	}
	err := g.Wait()
	return int(written.Load()), err
}

// fetchDay follows response.pages until every page of the day is read.
func (d *Downloader) fetchDay(ctx context.Context, day time.Time) ([]json.RawMessage, error) {
	all := []json.RawMessage{}
	for page, pages := 1, 1; page <= pages; page++ {
		resp, err := d.fetchPage(ctx, day, page)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Response.Results...)
		pages = resp.Response.Pages
		d.logger().WithFields(logrus.Fields{
			"day":   day.Format(dayLayout),
			"page":  page,
			"pages": pages,
		}).Debug("page fetched")
	}
	return all, nil
}

func (d *Downloader) fetchPage(ctx context.Context, day time.Time, page int) (*searchResponse, error) {
	endpoint := d.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	pageSize := d.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	params := url.Values{}
	params.Set("from-date", day.Format(dayLayout))
	params.Set("to-date", day.Format(dayLayout))
	params.Set("order-by", "newest")
	params.Set("show-fields", "all")
	params.Set("page-size", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))
	params.Set("api-key", d.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	client := d.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	if sr.Response.Status != "" && sr.Response.Status != "ok" {
		return nil, fmt.Errorf("api status %q: %s", sr.Response.Status, sr.Response.Message)
	}
	return &sr, nil
}

// writeDay writes the results as an indented JSON array. The file appears
// under its final name only once complete.
func writeDay(path string, results []json.RawMessage) error {
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	return os.Rename(tmp, path)
}

func (d *Downloader) logger() *logrus.Entry {
	if d.Logger == nil {
		return logging.Discard()
	}
	return d.Logger
}

func truncateDay(t time.Time) time.Time {
	y, m, day := t.Date()
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}
