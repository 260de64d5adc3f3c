package capacity

import (
	"testing"
	"time"

	"commune/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func session(id, name string, cap int, start time.Time) models.EventSession {
	return models.EventSession{SessionID: id, Name: name, Capacity: cap, StartTime: start}
}

func TestComputeAvailable(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	sessions := []models.EventSession{
		session("s1", "Workshop", 20, start),
		session("s2", "Social", 50, start.Add(time.Hour)),
	}
	counts := map[string]int{"s1": 12, "s2": 3}

	infos := Compute(sessions, counts)
	require.Len(t, infos, 2)

	assert.Equal(t, 8, infos[0].Available)
	assert.Equal(t, 12, infos[0].Registered)
	assert.False(t, infos[0].Anomaly)
	assert.Equal(t, 47, infos[1].Available)
}

func TestComputeFullSessionIsNotAnomaly(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	infos := Compute([]models.EventSession{session("s1", "Workshop", 20, start)}, map[string]int{"s1": 20})
	require.Len(t, infos, 1)
	assert.Equal(t, 0, infos[0].Available)
	assert.False(t, infos[0].Anomaly)
}

// Overbooked sessions report the negative number as-is so alerting
// can see the true extent.
func TestComputeOverbookedReportsNegative(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	infos := Compute([]models.EventSession{session("s1", "Workshop", 10, start)}, map[string]int{"s1": 13})
	require.Len(t, infos, 1)
	assert.Equal(t, -3, infos[0].Available)
	assert.True(t, infos[0].Anomaly)
}

func TestComputeMissingCountIsZero(t *testing.T) {
	start := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	infos := Compute([]models.EventSession{session("s1", "Workshop", 10, start)}, map[string]int{})
	require.Len(t, infos, 1)
	assert.Equal(t, 0, infos[0].Registered)
	assert.Equal(t, 10, infos[0].Available)
}

func TestComputeEmpty(t *testing.T) {
	infos := Compute(nil, nil)
	assert.NotNil(t, infos)
	assert.Empty(t, infos)
}

func TestComputeStableOrdering(t *testing.T) {
	early := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	late := time.Date(2025, 6, 1, 20, 0, 0, 0, time.UTC)
	sessions := []models.EventSession{
		session("s3", "Bravo", 10, late),
		session("s1", "Alpha", 10, late),
		session("s2", "Alpha", 10, late),
		session("s4", "Zulu", 10, early),
	}

	infos := Compute(sessions, nil)
	require.Len(t, infos, 4)

	// earliest start first, then name, then id breaks the tie
	assert.Equal(t, "s4", infos[0].SessionID)
	assert.Equal(t, "s1", infos[1].SessionID)
	assert.Equal(t, "s2", infos[2].SessionID)
	assert.Equal(t, "s3", infos[3].SessionID)
}
