package weather

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptrs(vals ...float64) []*float64 {
	out := make([]*float64, len(vals))
	for i := range vals {
		v := vals[i]
		out[i] = &v
	}
	return out
}

func TestNewSeries_Window(t *testing.T) {
	s, err := NewSeries(ptrs(0, 1, 2, 3, 4, 5, 6), 3, 2, 2)
	require.NoError(t, err)

	assert.Equal(t, 2, s.Past())
	assert.Equal(t, 2, s.Future())

	v, ok := s.At(0)
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	v, ok = s.At(-2)
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = s.At(-3)
	assert.False(t, ok, "values outside the requested window are dropped")
	_, ok = s.At(3)
	assert.False(t, ok)
}

func TestNewSeries_Rejects(t *testing.T) {
	gap := ptrs(0, 1, 2, 3, 4)
	gap[1] = nil

	tests := []struct {
		name   string
		raw    []*float64
		anchor int
	}{
		{"too few past values", ptrs(0, 1, 2), 1},
		{"too few future values", ptrs(0, 1, 2, 3), 3},
		{"anchor out of range", ptrs(0, 1, 2), 7},
		{"null inside window", gap, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSeries(tt.raw, tt.anchor, 2, 1)
			assert.ErrorIs(t, err, ErrShortSeries)
		})
	}
}

func TestSeries_ZeroValue(t *testing.T) {
	var s Series
	assert.False(t, s.Available())
	_, ok := s.At(0)
	assert.False(t, ok)
	assert.Equal(t, Measure{}, s.Measure(0))
	assert.Zero(t, s.Past())
	assert.Zero(t, s.Future())
}

func TestDailySummary_Day(t *testing.T) {
	days := []Day{
		{TemperatureMax: Some(1)},
		{TemperatureMax: Some(2)},
		{TemperatureMax: Some(3)},
	}
	d := NewDailySummary(days, 1)

	tomorrow, ok := d.Day(1)
	require.True(t, ok)
	assert.Equal(t, Some(3), tomorrow.TemperatureMax)
	assert.Equal(t, 1, d.Ahead())

	_, ok = d.Day(2)
	assert.False(t, ok)

	assert.Zero(t, NewDailySummary(days, 5).Ahead())
}

func TestConditionFromWMO(t *testing.T) {
	assert.Equal(t, ConditionClear, ConditionFromWMO(0))
	assert.Equal(t, ConditionFog, ConditionFromWMO(45))
	assert.Equal(t, ConditionFreezing, ConditionFromWMO(66))
	assert.Equal(t, ConditionSnow, ConditionFromWMO(73))
	assert.Equal(t, ConditionStorm, ConditionFromWMO(95))
	assert.Equal(t, ConditionUnknown, ConditionFromWMO(42))
}
