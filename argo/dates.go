package argo

import (
	"regexp"
	"time"
)

// DateShift corrects the known off-by-one-day artifact in upstream due
// dates, which appear truncated to the previous day by a timezone conversion
// somewhere upstream. Whether the artifact holds for every school has not
// been verified against live data, so the offset is a policy value rather
// than a constant; set Days to 0 to disable the correction entirely.
type DateShift struct {
	// Days is the number of calendar days added to matching dates.
	Days int
}

// DefaultDateShift compensates the observed one-day truncation.
var DefaultDateShift = DateShift{Days: 1}

var isoDate = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Normalize shifts strings matching YYYY-MM-DD by the policy's day offset.
// Anything else, including empty strings and malformed dates, passes through
// unchanged. Normalize is pure and never fails.
func (d DateShift) Normalize(s string) string {
	if d.Days == 0 || !isoDate.MatchString(s) {
		return s
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		// Matches the pattern but is not a real date ("2024-13-99").
		return s
	}
	return t.AddDate(0, 0, d.Days).Format("2006-01-02")
}
