package convert

import "time"

// Progress is a snapshot of a running conversion.
type Progress struct {
	Line     int
	Total    int
	Elements int
	Vertices int
}

// Percent returns the share of lines processed, 0 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return 100 * float64(p.Line) / float64(p.Total)
}

// Reporter rate-limits progress reports to one per interval.
type Reporter struct {
	interval time.Duration
	now      func() time.Time
	last     time.Time
	emit     func(Progress)
}

// NewReporter creates a reporter that calls emit at most once per interval.
// A zero interval reports every call.
func NewReporter(interval time.Duration, emit func(Progress)) *Reporter {
	return &Reporter{interval: interval, now: time.Now, emit: emit}
}

// SetClock replaces the time source.
func (r *Reporter) SetClock(now func() time.Time) {
	r.now = now
}

// Report emits p if the interval has elapsed since the last report or if
// force is set. It reports whether p was emitted.
func (r *Reporter) Report(p Progress, force bool) bool {
	if r == nil || r.emit == nil {
		return false
	}
	now := r.now()
	if !force && !r.last.IsZero() && now.Sub(r.last) < r.interval {
		return false
	}
	r.last = now
	r.emit(p)
	return true
}
