package analytics

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/riskibarqy/student-tracker/internal/domain/profile"
)

// DateLayout is the calendar key format used by heatmaps.
const DateLayout = "2006-01-02"

var leadingNumberRegex = regexp.MustCompile(`^\D*?(\d+)`)

type BucketPoint struct {
	Label string
	Count int
}

// RatingBucketsToSeries orders the histogram by each band's numeric lower bound.
// Labels without a number go last, ordered by label.
func RatingBucketsToSeries(buckets map[string]int) []BucketPoint {
	out := make([]BucketPoint, 0, len(buckets))
	for label, count := range buckets {
		out = append(out, BucketPoint{Label: label, Count: count})
	}

	sort.Slice(out, func(i, j int) bool {
		li, okI := bucketLowerBound(out[i].Label)
		lj, okJ := bucketLowerBound(out[j].Label)
		switch {
		case okI && okJ && li != lj:
			return li < lj
		case okI != okJ:
			return okI
		default:
			return out[i].Label < out[j].Label
		}
	})

	return out
}

func bucketLowerBound(label string) (int, bool) {
	match := leadingNumberRegex.FindStringSubmatch(label)
	if len(match) < 2 {
		return 0, false
	}
	value, err := strconv.Atoi(match[1])
	if err != nil {
		return 0, false
	}
	return value, true
}

type HeatmapPoint struct {
	Date      string
	Count     int
	Intensity int
}

// HeatmapToSeries expands the sparse heatmap into one point per calendar day of
// [today-windowDays, today], inclusive on both ends.
func HeatmapToSeries(heatmap map[string]int, windowDays int, today time.Time) []HeatmapPoint {
	if windowDays < 0 {
		windowDays = 0
	}

	end := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())
	start := end.AddDate(0, 0, -windowDays)

	out := make([]HeatmapPoint, 0, windowDays+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		key := day.Format(DateLayout)
		count := heatmap[key]
		out = append(out, HeatmapPoint{
			Date:      key,
			Count:     count,
			Intensity: HeatmapIntensity(count),
		})
	}

	return out
}

// HeatmapIntensity buckets a daily submission count into the calendar's 0-4 color scale.
func HeatmapIntensity(count int) int {
	switch {
	case count <= 0:
		return 0
	case count > 5:
		return 4
	case count > 3:
		return 3
	case count > 1:
		return 2
	default:
		return 1
	}
}

// ContestsChronological returns a date-ascending copy. The sort is stable so contests on the
// same date keep the server order in both the chart and the table.
func ContestsChronological(contests []profile.Contest) []profile.Contest {
	out := make([]profile.Contest, len(contests))
	copy(out, contests)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.Before(out[j].Date)
	})
	return out
}

type RatingPoint struct {
	Date   time.Time
	Rating int
}

// RatingSeries is the time-series projection plotted by the rating chart.
func RatingSeries(contests []profile.Contest) []RatingPoint {
	ordered := ContestsChronological(contests)
	out := make([]RatingPoint, 0, len(ordered))
	for _, c := range ordered {
		out = append(out, RatingPoint{Date: c.Date, Rating: c.NewRating})
	}
	return out
}

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

func DeltaTrend(delta int) Trend {
	switch {
	case delta > 0:
		return TrendUp
	case delta < 0:
		return TrendDown
	default:
		return TrendFlat
	}
}

// FormatDelta renders a rating change with an explicit plus sign for gains.
func FormatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	}
	return strconv.Itoa(delta)
}
