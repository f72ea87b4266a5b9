package profile

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Window is the number of days of history a snapshot covers.
type Window int

const (
	WindowMonth   Window = 30
	WindowQuarter Window = 90
	WindowYear    Window = 365

	DefaultWindow = WindowQuarter
)

// Windows lists the selectable windows in display order.
func Windows() []Window {
	return []Window{WindowMonth, WindowQuarter, WindowYear}
}

func (w Window) Days() int {
	return int(w)
}

func (w Window) Valid() bool {
	switch w {
	case WindowMonth, WindowQuarter, WindowYear:
		return true
	default:
		return false
	}
}

// ParseWindow parses a day count; empty input yields DefaultWindow.
func ParseWindow(raw string) (Window, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return DefaultWindow, nil
	}

	days, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("window must be a number of days: %w", err)
	}
	w := Window(days)
	if !w.Valid() {
		return 0, fmt.Errorf("unsupported window %d days, valid values are 30, 90, 365", days)
	}

	return w, nil
}

// Contest is one rated contest participation inside a snapshot.
type Contest struct {
	ContestID     string
	Date          time.Time
	Name          string
	Rank          int
	Delta         int
	NewRating     int
	UnsolvedCount int
}

// Snapshot is the analytics payload for one student over one window. It is replaced, never patched.
type Snapshot struct {
	TotalSolved    int
	HardestProblem string
	AvgRating      float64
	AvgPerDay      float64
	Contests       []Contest
	RatingBuckets  map[string]int
	Heatmap        map[string]int
}
