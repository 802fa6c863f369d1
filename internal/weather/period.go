package weather

import "time"

// Period is the coarse time-of-day bucket that drives report cadence and
// forms part of the deduplication key.
type Period string

const (
	PeriodNone    Period = ""
	PeriodMorning Period = "morning"
	PeriodMidday  Period = "midday"
	PeriodEvening Period = "evening"
)

// PeriodWindow maps the local hours [Start, End) to a period.
type PeriodWindow struct {
	Period Period
	Start  int
	End    int
}

// PeriodSchedule is an ordered list of windows; the first match wins.
type PeriodSchedule []PeriodWindow

// DefaultPeriods returns morning 06-11, midday 11-17 and evening 17-23.
func DefaultPeriods() PeriodSchedule {
	return PeriodSchedule{
		{Period: PeriodMorning, Start: 6, End: 11},
		{Period: PeriodMidday, Start: 11, End: 17},
		{Period: PeriodEvening, Start: 17, End: 23},
	}
}

// At returns the period for the wall-clock hour of t, which must already be
// in the location's time zone. Hours outside every window yield PeriodNone.
func (s PeriodSchedule) At(t time.Time) Period {
	h := t.Hour()
	for _, w := range s {
		if h >= w.Start && h < w.End {
			return w.Period
		}
	}
	return PeriodNone
}

// WeeklyOutlook reports whether the run at t closes the week: the Sunday
// evening report carries the outlook for the days ahead.
func WeeklyOutlook(t time.Time, p Period) bool {
	return p == PeriodEvening && t.Weekday() == time.Sunday
}
