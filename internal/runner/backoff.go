package runner

import "time"

// Backoff returns the delay before the next iteration. With no failures it
// is the poll interval; otherwise the interval doubles per consecutive
// failure, capped at interval*multiplier and at max.
func Backoff(interval time.Duration, failures, multiplier int, max time.Duration) time.Duration {
	if failures <= 0 || interval <= 0 {
		return interval
	}
	if multiplier < 1 {
		multiplier = 1
	}
	limit := interval * time.Duration(multiplier)
	if max > 0 && limit > max {
		limit = max
	}

	delay := interval
	for i := 0; i < failures && delay < limit; i++ {
		delay *= 2
	}
	if delay > limit {
		delay = limit
	}
	return delay
}
