package services

import (
	"context"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

func ensureContext(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return ctx
}

func parseDate(value string) (time.Time, error) {
	return time.Parse(dateLayout, strings.TrimSpace(value))
}

func formatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// addDays shifts a calendar date string by the given number of days.
func addDays(date string, days int) (string, error) {
	t, err := parseDate(date)
	if err != nil {
		return "", err
	}
	return formatDate(t.AddDate(0, 0, days)), nil
}

// isoWeekday maps a date to the Monday=1..Sunday=7 convention used by week
// template items.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// mondayOf validates that the supplied date string is a Monday and returns it
// parsed.
func mondayOf(value string) (time.Time, error) {
	t, err := parseDate(value)
	if err != nil {
		return time.Time{}, err
	}
	if t.Weekday() != time.Monday {
		return time.Time{}, ErrNotMonday
	}
	return t, nil
}

func defaultIfEmpty(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func normalisePagination(page, limit int) (int, int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit, (page - 1) * limit
}

func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, exists := seen[value]; exists {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
