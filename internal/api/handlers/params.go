package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
	"github.com/dvloznov/moneyflow/internal/service"
)

// TimezoneHeader carries the caller's IANA timezone when no tz parameter is sent.
const TimezoneHeader = "X-Timezone"

// requestLocation resolves the caller's timezone from the tz query parameter or
// the X-Timezone header, falling back to def.
func requestLocation(r *http.Request, def *time.Location) (*time.Location, error) {
	name := r.URL.Query().Get("tz")
	if name == "" {
		name = r.Header.Get(TimezoneHeader)
	}
	if name == "" {
		return def, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, domain.Invalid("tz", "unknown timezone %q", name)
	}
	return loc, nil
}

// parseTime accepts RFC 3339 timestamps or YYYY-MM-DD dates. Dates are
// midnight in loc; with endOfDay they become the following midnight, which
// makes an end date inclusive in a half-open range.
func parseTime(field, value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		if endOfDay {
			return t.Add(time.Nanosecond), nil
		}
		return t, nil
	}
	d, err := civil.ParseDate(value)
	if err != nil {
		return time.Time{}, domain.Invalid(field, "must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	if endOfDay {
		d = d.AddDays(1)
	}
	return d.In(loc), nil
}

// parseDate reads a calendar date, taking the date part of timestamps.
func parseDate(field, value string) (civil.Date, error) {
	if d, err := civil.ParseDate(value); err == nil {
		return d, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return civil.DateOf(t), nil
	}
	return civil.Date{}, domain.Invalid(field, "must be YYYY-MM-DD or an RFC 3339 timestamp")
}

// parseRange reads a required inclusive date range from two query parameters.
func parseRange(r *http.Request, startKey, endKey string, loc *time.Location) (service.DateRange, error) {
	q := r.URL.Query()
	start, end := q.Get(startKey), q.Get(endKey)
	if start == "" || end == "" {
		return service.DateRange{}, domain.Invalid("", "Missing required parameters: %s, %s", startKey, endKey)
	}
	from, err := parseTime(startKey, start, loc, false)
	if err != nil {
		return service.DateRange{}, err
	}
	to, err := parseTime(endKey, end, loc, true)
	if err != nil {
		return service.DateRange{}, err
	}
	return service.DateRange{From: from, To: to}, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, domain.Invalid(key, "must be an integer")
	}
	return n, nil
}
