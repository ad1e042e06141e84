package holiday

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sort"
	"strings"
	"time"

	"kakeibo/internal/cache"
)

// DefaultBaseURL points at the public holidays-jp dataset.
const DefaultBaseURL = "https://holidays-jp.github.io/api/v1"

// Holiday is one Japanese public holiday.
type Holiday struct {
	Date string `json:"date"` // YYYY-MM-DD
	Name string `json:"name"`
}

// Client fetches Japanese public holidays per year and caches each year's
// result. The calendar view only decorates days, so lookup failures degrade
// to "no holidays" instead of failing the caller.
type Client struct {
	baseURL string
	http    *http.Client
	cache   *cache.TTLCache[[]Holiday]
}

func NewClient(baseURL string, ttl time.Duration) *Client {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
		// A handful of years is plenty; the calendar only ever asks for
		// the years on screen.
		cache: cache.New[[]Holiday](8, ttl),
	}
}

// Year returns the holidays of one year, sorted by date. The error is only
// returned for impossible years; fetch failures log and return an empty
// slice.
func (c *Client) Year(ctx context.Context, year int) ([]Holiday, error) {
	if year < 1 || year > 9999 {
		return nil, fmt.Errorf("invalid year %d", year)
	}

	key := fmt.Sprintf("%d", year)
	if cached, ok := c.cache.Get(key); ok {
		return cached, nil
	}

	holidays, err := c.fetchYear(ctx, year)
	if err != nil {
		slog.WarnContext(ctx, "Holiday lookup failed, treating year as holiday-free",
			"year", year, "error", err)
		return []Holiday{}, nil
	}

	c.cache.Set(key, holidays)
	return holidays, nil
}

// IsHoliday reports whether the given date is a public holiday and under
// which name.
func (c *Client) IsHoliday(ctx context.Context, date time.Time) (bool, string) {
	holidays, err := c.Year(ctx, date.Year())
	if err != nil {
		return false, ""
	}
	want := date.Format("2006-01-02")
	for _, h := range holidays {
		if h.Date == want {
			return true, h.Name
		}
	}
	return false, ""
}

// fetchYear hits {base}/{year}/date.json, which maps date strings to holiday
// names.
func (c *Client) fetchYear(ctx context.Context, year int) ([]Holiday, error) {
	url := fmt.Sprintf("%s/%d/date.json", c.baseURL, year)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: status %d", url, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var byDate map[string]string
	if err := json.Unmarshal(body, &byDate); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	holidays := make([]Holiday, 0, len(byDate))
	for date, name := range byDate {
		holidays = append(holidays, Holiday{Date: date, Name: name})
	}
	sort.Slice(holidays, func(i, j int) bool { return holidays[i].Date < holidays[j].Date })
	return holidays, nil
}
