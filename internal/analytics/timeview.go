// Package analytics turns ledger transactions into the cash-flow aggregates shown
// on the dashboard: today's totals, time series and category breakdowns.
package analytics

import (
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/moneyflow/internal/domain"
)

// TimeView is the bucket granularity of a time series.
type TimeView string

const (
	Daily   TimeView = "daily"
	Weekly  TimeView = "weekly"
	Monthly TimeView = "monthly"
)

// ParseTimeView validates a time view from a query parameter.
func ParseTimeView(s string) (TimeView, error) {
	switch v := TimeView(s); v {
	case Daily, Weekly, Monthly:
		return v, nil
	}
	return "", domain.Invalid("timeView", "invalid timeView. Must be: daily, weekly, or monthly")
}

// LocalDate returns the calendar date of t as seen in loc.
func LocalDate(t time.Time, loc *time.Location) civil.Date {
	if loc == nil {
		loc = time.Local
	}
	return civil.DateOf(t.In(loc))
}

// WeekStart returns the Monday on or before date. It works purely on calendar
// fields, so the result does not depend on any UTC offset.
func WeekStart(date civil.Date) civil.Date {
	wd := date.In(time.UTC).Weekday()
	back := (int(wd) + 6) % 7 // Monday=0 ... Sunday=6
	return date.AddDays(-back)
}

// BucketKey returns the period key of t for view, computed in loc.
func BucketKey(t time.Time, view TimeView, loc *time.Location) string {
	date := LocalDate(t, loc)
	switch view {
	case Weekly:
		return WeekStart(date).String()
	case Monthly:
		return fmt.Sprintf("%04d-%02d", date.Year, int(date.Month))
	default:
		return date.String()
	}
}

// nextBucket advances a bucket key by one period. Used when densifying a series.
func nextBucket(key string, view TimeView) (string, error) {
	switch view {
	case Monthly:
		t, err := time.Parse("2006-01", key)
		if err != nil {
			return "", fmt.Errorf("nextBucket: %w", err)
		}
		return t.AddDate(0, 1, 0).Format("2006-01"), nil
	case Weekly, Daily:
		date, err := civil.ParseDate(key)
		if err != nil {
			return "", fmt.Errorf("nextBucket: %w", err)
		}
		if view == Weekly {
			return date.AddDays(7).String(), nil
		}
		return date.AddDays(1).String(), nil
	}
	return "", fmt.Errorf("nextBucket: unknown view %q", view)
}
