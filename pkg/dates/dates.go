// Package dates parses and formats the DD/MM/YYYY calendar dates used
// throughout the collection document. Dates are structured time.Time
// values internally; the string form exists only at the storage and API
// boundary.
package dates

import (
	"fmt"
	"time"
)

const Layout = "02/01/2006"

func Parse(s string) (time.Time, error) {
	t, err := time.ParseInLocation(Layout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}

func Format(t time.Time) string {
	return t.Format(Layout)
}

// AddMonths returns s plus n calendar months, in the same DD/MM/YYYY
// form. Overflow follows time.AddDate normalization (31/01 + 1 month
// lands in early March).
func AddMonths(s string, n int) (string, error) {
	t, err := Parse(s)
	if err != nil {
		return "", err
	}
	return Format(t.AddDate(0, n, 0)), nil
}

// Today formats now as a local calendar date.
func Today(now time.Time) string {
	return Format(now.Local())
}
