package student

// Stats holds the aggregate cards shown above the roster table.
type Stats struct {
	Count int
	// AverageRating is the mean CurrentRating over students that have one; nil when none do.
	AverageRating *float64
	// Top is the student with the highest CurrentRating; ties keep the first in list order.
	Top *Student
}

func ComputeStats(students []Student) Stats {
	stats := Stats{Count: len(students)}

	var (
		sum   int
		rated int
	)
	for i := range students {
		rating := students[i].CurrentRating
		if rating == nil {
			continue
		}
		sum += *rating
		rated++
		if stats.Top == nil || *rating > *stats.Top.CurrentRating {
			top := students[i]
			stats.Top = &top
		}
	}
	if rated > 0 {
		avg := float64(sum) / float64(rated)
		stats.AverageRating = &avg
	}

	return stats
}
