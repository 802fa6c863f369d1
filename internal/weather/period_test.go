package weather

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPeriodSchedule_At(t *testing.T) {
	s := DefaultPeriods()
	at := func(h int) time.Time { return time.Date(2026, 3, 4, h, 15, 0, 0, time.UTC) }

	assert.Equal(t, PeriodNone, s.At(at(3)))
	assert.Equal(t, PeriodMorning, s.At(at(6)))
	assert.Equal(t, PeriodMorning, s.At(at(10)))
	assert.Equal(t, PeriodMidday, s.At(at(11)))
	assert.Equal(t, PeriodEvening, s.At(at(22)))
	assert.Equal(t, PeriodNone, s.At(at(23)))
}

func TestWeeklyOutlook(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 20, 0, 0, 0, time.UTC)
	assert.True(t, WeeklyOutlook(sunday, PeriodEvening))
	assert.False(t, WeeklyOutlook(sunday, PeriodMorning))
	assert.False(t, WeeklyOutlook(sunday.AddDate(0, 0, 1), PeriodEvening))
}
