package scanner

import "time"

// Summary describes one Gather pass.
type Summary struct {
	// Paths is the number of paths looked up.
	Paths int
	// Failed is the number of lookups that failed.
	Failed int
	// StartTime is when the pass began.
	StartTime time.Time
	// Duration is how long the pass took.
	Duration time.Duration
}

// PathsPerSecond returns the lookup rate.
func (s Summary) PathsPerSecond() float64 {
	if s.Duration.Seconds() == 0 {
		return 0
	}
	return float64(s.Paths) / s.Duration.Seconds()
}
