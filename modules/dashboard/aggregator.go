package dashboard

import (
	"fmt"
	"time"

	"github.com/example/worklog-dashboard/domain/entry"
)

// Granularity is the width of an aggregation bucket.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// maxBuckets bounds the zero-filled walk; about three years of days. A
// wider range must use a coarser granularity.
const maxBuckets = 1100

// ParseGranularity validates a granularity string from a request.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", fmt.Errorf("%w: unknown granularity %q", entry.ErrValidation, s)
	}
}

// BucketSummary is the aggregate for one time bucket: per-status counts and
// their total. Start identifies the bucket by its UTC start time.
type BucketSummary struct {
	Start  time.Time      `json:"start"`
	Counts map[string]int `json:"counts"`
	Total  int            `json:"total"`
}

// Bucket boundaries are fixed in UTC so two callers asking about the same
// day always get the same day, regardless of their local time. Weeks start
// Monday 00:00 UTC, months on the 1st 00:00 UTC.

// BucketStart truncates t to the start of its bucket.
func BucketStart(t time.Time, g Granularity) time.Time {
	t = t.UTC()
	switch g {
	case GranularityWeek:
		weekday := int(t.Weekday())
		if weekday == 0 { // Sunday belongs to the week that started the previous Monday
			weekday = 7
		}
		return time.Date(t.Year(), t.Month(), t.Day()-(weekday-1), 0, 0, 0, 0, time.UTC)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}

// NextBucket returns the start of the bucket after start.
func NextBucket(start time.Time, g Granularity) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// Summarize buckets entries by CreatedAt over [from, to], producing one
// summary per bucket in chronological order. Buckets with no activity are
// zero-filled so charting consumers never see a missing point, and every
// entry lands in exactly one bucket regardless of later status changes.
//
// Summarize is a pure function of its inputs; it performs no I/O.
func Summarize(entries []entry.TaskEntry, g Granularity, from, to time.Time) ([]BucketSummary, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: time range is inverted", entry.ErrValidation)
	}

	first := BucketStart(from, g)
	last := BucketStart(to, g)

	index := make(map[time.Time]int)
	var buckets []BucketSummary
	for start := first; !start.After(last); start = NextBucket(start, g) {
		if len(buckets) >= maxBuckets {
			return nil, fmt.Errorf("%w: range spans more than %d %s buckets", entry.ErrValidation, maxBuckets, g)
		}
		index[start] = len(buckets)
		buckets = append(buckets, BucketSummary{
			Start:  start,
			Counts: zeroCounts(),
		})
	}

	for i := range entries {
		start := BucketStart(entries[i].CreatedAt, g)
		pos, ok := index[start]
		if !ok {
			// Outside the requested range; the store query should already
			// have excluded it.
			continue
		}
		buckets[pos].Counts[string(entries[i].Status)]++
		buckets[pos].Total++
	}

	return buckets, nil
}

// zeroCounts returns a counts map with every known status present at zero.
func zeroCounts() map[string]int {
	counts := make(map[string]int, len(entry.Statuses()))
	for _, s := range entry.Statuses() {
		counts[string(s)] = 0
	}
	return counts
}
