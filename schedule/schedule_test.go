package schedule

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f[key]
	return v, ok, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestWindowCutoff(t *testing.T) {
	settings := fakeSettings{
		"EventTimeZone":         "UTC",
		"PreStartBufferMinutes": "60",
	}
	rs := NewResolver(settings)

	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	window, err := rs.Window(context.Background(), start)
	require.NoError(t, err)

	assert.Equal(t, time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC), window.Cutoff)
	assert.Equal(t, 60, window.BufferMinutes)
}

func TestIsRegistrationOpenBoundary(t *testing.T) {
	settings := fakeSettings{
		"EventTimeZone":         "UTC",
		"PreStartBufferMinutes": "60",
	}
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		now  time.Time
		open bool
	}{
		{"one second before cutoff", time.Date(2025, 6, 1, 18, 59, 59, 0, time.UTC), true},
		{"exactly at cutoff", time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC), false},
		{"after cutoff", time.Date(2025, 6, 1, 19, 0, 1, 0, time.UTC), false},
		{"well before", time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rs := NewResolverAt(settings, fixedClock(tc.now))
			open, err := rs.IsRegistrationOpen(context.Background(), start)
			require.NoError(t, err)
			assert.Equal(t, tc.open, open)
		})
	}
}

// Once closed, registration never reopens as time advances.
func TestIsRegistrationOpenMonotonic(t *testing.T) {
	settings := fakeSettings{
		"EventTimeZone":         "Asia/Tokyo",
		"PreStartBufferMinutes": "30",
	}
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	closed := false
	now := time.Date(2025, 6, 1, 19, 0, 0, 0, time.UTC)
	for i := 0; i < 120; i++ {
		rs := NewResolverAt(settings, fixedClock(now))
		open, err := rs.IsRegistrationOpen(context.Background(), start)
		require.NoError(t, err)
		if closed {
			assert.False(t, open, "reopened at %s", now)
		}
		if !open {
			closed = true
		}
		now = now.Add(time.Minute)
	}
	assert.True(t, closed)
}

func TestZeroBufferClosesAtStart(t *testing.T) {
	settings := fakeSettings{
		"EventTimeZone":         "UTC",
		"PreStartBufferMinutes": "0",
	}
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

	rs := NewResolverAt(settings, fixedClock(start.Add(-time.Second)))
	open, err := rs.IsRegistrationOpen(context.Background(), start)
	require.NoError(t, err)
	assert.True(t, open)

	rs = NewResolverAt(settings, fixedClock(start))
	open, err = rs.IsRegistrationOpen(context.Background(), start)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestMissingTimeZoneIsConfigError(t *testing.T) {
	settings := fakeSettings{"PreStartBufferMinutes": "60"}
	rs := NewResolver(settings)

	_, err := rs.EventTimeZone(context.Background())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "EventTimeZone", cfgErr.Key)

	// the open check must fail too, no silent UTC fallback
	_, err = rs.IsRegistrationOpen(context.Background(), time.Now().UTC())
	assert.True(t, errors.As(err, &cfgErr))
}

func TestUnknownTimeZoneIsConfigError(t *testing.T) {
	settings := fakeSettings{
		"EventTimeZone":         "Mars/Olympus_Mons",
		"PreStartBufferMinutes": "60",
	}
	rs := NewResolver(settings)

	_, err := rs.EventTimeZone(context.Background())
	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "Mars/Olympus_Mons")
}

func TestBadBufferIsConfigError(t *testing.T) {
	for _, bad := range []string{"abc", "-5", "1.5", ""} {
		settings := fakeSettings{
			"EventTimeZone":         "UTC",
			"PreStartBufferMinutes": bad,
		}
		rs := NewResolver(settings)
		_, err := rs.PreStartBufferMinutes(context.Background())
		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr, "value %q", bad)
		assert.Equal(t, "PreStartBufferMinutes", cfgErr.Key)
	}
}

func TestConvertToEventTime(t *testing.T) {
	settings := fakeSettings{"EventTimeZone": "America/New_York"}
	rs := NewResolver(settings)

	// July 1 UTC noon is 8am EDT
	summer := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	got, err := rs.ConvertToEventTime(context.Background(), summer)
	require.NoError(t, err)
	assert.Equal(t, 8, got.Hour())

	// January 1 UTC noon is 7am EST
	winter := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	got, err = rs.ConvertToEventTime(context.Background(), winter)
	require.NoError(t, err)
	assert.Equal(t, 7, got.Hour())
}
