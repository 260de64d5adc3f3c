package register

import (
	"context"
	"testing"
	"time"

	"commune/models"
	"commune/schedule"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSettings map[string]string

func (f fakeSettings) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := f[key]
	return v, ok, nil
}

type fakeSource struct {
	event    *models.Event
	sessions []models.EventSession
	counts   map[string]int
}

func (f *fakeSource) Event(_ context.Context, eventID string) (*models.Event, error) {
	if f.event == nil || f.event.EventID != eventID {
		return nil, ErrEventNotFound
	}
	return f.event, nil
}

func (f *fakeSource) Sessions(_ context.Context, _ string) ([]models.EventSession, error) {
	return f.sessions, nil
}

func (f *fakeSource) Counts(_ context.Context, _ string) (map[string]int, error) {
	return f.counts, nil
}

var eventStart = time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)

func testCoordinator(t *testing.T, source *fakeSource, settings fakeSettings, now time.Time) *Coordinator {
	t.Helper()
	resolver := schedule.NewResolverAt(settings, func() time.Time { return now })
	return NewCoordinator(source, resolver)
}

func defaultSettings() fakeSettings {
	return fakeSettings{
		"EventTimeZone":         "UTC",
		"PreStartBufferMinutes": "60",
	}
}

func defaultSource() *fakeSource {
	return &fakeSource{
		event: &models.Event{EventID: "ev1", StartDateTime: eventStart},
		sessions: []models.EventSession{
			{SessionID: "s1", EventID: "ev1", Name: "Workshop", Capacity: 2, StartTime: eventStart},
			{SessionID: "s2", EventID: "ev1", Name: "Social", Capacity: 1, StartTime: eventStart},
		},
		counts: map[string]int{"s1": 1, "s2": 1},
	}
}

func TestCanRegisterOpenWithSpots(t *testing.T) {
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-2*time.Hour))

	ok, reason, err := c.CanRegister(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, reason)
}

func TestCanRegisterFullSession(t *testing.T) {
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-2*time.Hour))

	ok, reason, err := c.CanRegister(context.Background(), "ev1", "s2")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, "No spots remaining", reason)
}

func TestCanRegisterClosedWindow(t *testing.T) {
	// 30 minutes before start, inside the 60-minute buffer
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-30*time.Minute))

	ok, reason, err := c.CanRegister(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "Registration closed at")
	assert.Contains(t, reason, "2025-06-01T19:00:00Z")
}

// A closed window reports only the window reason, even for a full
// session, so callers do not conflate the two.
func TestClosedWindowWinsOverCapacity(t *testing.T) {
	source := defaultSource()
	source.counts = map[string]int{"s1": 2, "s2": 1} // s1 full too
	c := testCoordinator(t, source, defaultSettings(), eventStart.Add(-time.Minute))

	ok, reason, err := c.CanRegister(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Contains(t, reason, "Registration closed at")
	assert.NotContains(t, reason, "spots")
}

func TestCanRegisterClosedReasonInEventZone(t *testing.T) {
	settings := defaultSettings()
	settings["EventTimeZone"] = "America/New_York"
	c := testCoordinator(t, defaultSource(), settings, eventStart.Add(-time.Minute))

	ok, reason, err := c.CanRegister(context.Background(), "ev1", "s1")
	require.NoError(t, err)
	assert.False(t, ok)
	// 19:00 UTC renders as 15:00 EDT
	assert.Contains(t, reason, "2025-06-01T15:00:00-04:00")
	assert.Contains(t, reason, "America/New_York")
}

func TestCanRegisterUnknownSession(t *testing.T) {
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-2*time.Hour))

	_, _, err := c.CanRegister(context.Background(), "ev1", "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestCanRegisterUnknownEvent(t *testing.T) {
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-2*time.Hour))

	_, _, err := c.CanRegister(context.Background(), "nope", "s1")
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCanRegisterMissingConfigFails(t *testing.T) {
	c := testCoordinator(t, defaultSource(), fakeSettings{}, eventStart.Add(-2*time.Hour))

	_, _, err := c.CanRegister(context.Background(), "ev1", "s1")
	var cfgErr *schedule.ConfigError
	assert.ErrorAs(t, err, &cfgErr)
}

func TestAvailabilityOrderAndAnomaly(t *testing.T) {
	source := defaultSource()
	source.sessions = append(source.sessions, models.EventSession{
		SessionID: "s0", EventID: "ev1", Name: "Early", Capacity: 5,
		StartTime: eventStart.Add(-time.Hour),
	})
	source.counts["s2"] = 3 // overbooked, capacity 1

	c := testCoordinator(t, source, defaultSettings(), eventStart.Add(-2*time.Hour))
	infos, err := c.Availability(context.Background(), "ev1")
	require.NoError(t, err)
	require.Len(t, infos, 3)

	assert.Equal(t, "s0", infos[0].SessionID)
	for _, info := range infos {
		if info.SessionID == "s2" {
			assert.Equal(t, -2, info.Available)
			assert.True(t, info.Anomaly)
		}
	}
}

func TestWindowFromEvent(t *testing.T) {
	c := testCoordinator(t, defaultSource(), defaultSettings(), eventStart.Add(-2*time.Hour))

	window, err := c.Window(context.Background(), "ev1")
	require.NoError(t, err)
	assert.Equal(t, eventStart.Add(-time.Hour), window.Cutoff)
}
