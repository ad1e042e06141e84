package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, error) {
	raw := r.PathValue("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", raw)
	}
	return id, nil
}

// queryInt returns the named query parameter as an int, or fallback when the
// parameter is absent. A present but non-numeric value is an error.
func queryInt(q url.Values, name string, fallback int) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return fallback, nil
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q", name, v)
	}
	return i, nil
}

// queryInt64Ptr returns a pointer for optional numeric filters, nil when
// absent.
func queryInt64Ptr(q url.Values, name string) (*int64, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	return &i, nil
}

// queryDatePtr parses an optional YYYY-MM-DD query parameter.
func queryDatePtr(q url.Values, name string) (*time.Time, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", name, v)
	}
	t = t.UTC()
	return &t, nil
}

// yearMonth extracts year and month, defaulting to the current UTC month.
func yearMonth(q url.Values) (year, month int, err error) {
	now := time.Now().UTC()
	year, err = queryInt(q, "year", now.Year())
	if err != nil {
		return 0, 0, err
	}
	month, err = queryInt(q, "month", int(now.Month()))
	if err != nil {
		return 0, 0, err
	}
	return year, month, nil
}
