package listing

import (
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query carries the common listing parameters: pagination, free-text
// search, ordering and the soft-delete toggle. Repositories decide which
// fields search and ordering may touch.
type Query struct {
	Search          string
	Ordering        string
	Limit           int
	Offset          int
	IncludeInactive bool
	DateFrom        *time.Time
	DateTo          *time.Time
}

// Parse reads the shared listing parameters from a query string. Date
// bounds accept RFC 3339 or plain dates; a plain date_from means start of
// day and a plain date_to means end of day.
func Parse(values url.Values) Query {
	q := Query{
		Limit: DefaultLimit,
	}
	if v := values.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			q.Limit = parsed
		}
	}
	if v := values.Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			q.Offset = parsed
		}
	}
	q.Search = strings.TrimSpace(values.Get("search"))
	q.Ordering = strings.TrimSpace(values.Get("ordering"))
	q.IncludeInactive = strings.EqualFold(values.Get("include_inactive"), "true")
	q.DateFrom = parseBound(values.Get("date_from"), false)
	q.DateTo = parseBound(values.Get("date_to"), true)
	return q.Normalize()
}

// Normalize clamps pagination to sane bounds.
func (q Query) Normalize() Query {
	if q.Limit <= 0 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return q
}

// Column resolves the ordering parameter against an allow-list mapping
// parameter names to SQL columns. A leading minus flips the direction.
// Unknown orderings fall back to the provided default expression.
func (q Query) Column(allowed map[string]string, def string) string {
	name := q.Ordering
	desc := false
	if strings.HasPrefix(name, "-") {
		desc = true
		name = name[1:]
	}
	column, ok := allowed[name]
	if !ok {
		return def
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

func parseBound(value string, end bool) *time.Time {
	if value == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t
	}
	if d, err := time.Parse("2006-01-02", value); err == nil {
		if end {
			d = d.Add(24*time.Hour - time.Nanosecond)
		}
		return &d
	}
	return nil
}
