package kiosk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clockAt(hour, minute int) time.Time {
	return time.Date(2024, 3, 14, hour, minute, 0, 0, time.Local)
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		want    int
		wantErr bool
	}{
		{name: "midnight", value: "00:00", want: 0},
		{name: "morning", value: "08:00", want: 480},
		{name: "last_minute", value: "23:59", want: 1439},
		{name: "empty", value: "", wantErr: true},
		{name: "words", value: "noon", wantErr: true},
		{name: "hour_out_of_range", value: "24:00", wantErr: true},
		{name: "minute_out_of_range", value: "12:60", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseClock(tt.value)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldBeAwake(t *testing.T) {
	tests := []struct {
		name  string
		start string
		end   string
		now   time.Time
		want  bool
	}{
		// Same-day window, e.g. a lobby display on business hours
		{name: "same_day_inside", start: "08:00", end: "18:00", now: clockAt(10, 0), want: true},
		{name: "same_day_evening", start: "08:00", end: "18:00", now: clockAt(20, 0), want: false},
		{name: "same_day_just_before_start", start: "08:00", end: "18:00", now: clockAt(7, 59), want: false},
		{name: "same_day_start_inclusive", start: "08:00", end: "18:00", now: clockAt(8, 0), want: true},
		{name: "same_day_last_minute", start: "08:00", end: "18:00", now: clockAt(17, 59), want: true},
		{name: "same_day_end_exclusive", start: "08:00", end: "18:00", now: clockAt(18, 0), want: false},

		// Overnight window, e.g. a NOC display for the night shift
		{name: "overnight_before_midnight", start: "22:00", end: "06:00", now: clockAt(23, 30), want: true},
		{name: "overnight_after_midnight", start: "22:00", end: "06:00", now: clockAt(5, 0), want: true},
		{name: "overnight_midday", start: "22:00", end: "06:00", now: clockAt(12, 0), want: false},
		{name: "overnight_start_inclusive", start: "22:00", end: "06:00", now: clockAt(22, 0), want: true},
		{name: "overnight_end_exclusive", start: "22:00", end: "06:00", now: clockAt(6, 0), want: false},
		{name: "overnight_last_minute", start: "22:00", end: "06:00", now: clockAt(5, 59), want: true},

		// Equal bounds wrap the whole day
		{name: "equal_bounds_midnight", start: "09:00", end: "09:00", now: clockAt(0, 0), want: true},
		{name: "equal_bounds_at_bound", start: "09:00", end: "09:00", now: clockAt(9, 0), want: true},
		{name: "equal_bounds_midday", start: "09:00", end: "09:00", now: clockAt(12, 0), want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := shouldBeAwake(tt.start, tt.end, tt.now)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestShouldBeAwake_MalformedWindow(t *testing.T) {
	awake, err := shouldBeAwake("soon", "18:00", clockAt(3, 0))
	assert.Error(t, err)
	assert.True(t, awake, "a window that cannot be parsed must not blank the display")
}

func TestScheduleAwakeAt_FailsOpen(t *testing.T) {
	s := Schedule{Enabled: true, Start: "late", End: "later"}
	assert.True(t, s.awakeAt(clockAt(2, 30)))
}

func TestScheduleValidate(t *testing.T) {
	assert.NoError(t, Schedule{Start: "08:00", End: "18:00"}.Validate())
	assert.Error(t, Schedule{Start: "08:00", End: "18-00"}.Validate())
	assert.Error(t, Schedule{Start: "", End: "18:00"}.Validate())
}
