package capacity

import (
	"sort"

	"commune/models"
)

// Compute pairs each session with its registration count and derives
// remaining capacity. Pure: no I/O, callers fetch sessions and counts
// themselves. Sessions with no registrations count as zero. A
// negative available means the session is overbooked; it is reported
// as-is with Anomaly set, never clamped, so callers can alert on it.
// Output order is stable: start time, then name, then id.
func Compute(sessions []models.EventSession, counts map[string]int) []models.SessionCapacityInfo {
	infos := make([]models.SessionCapacityInfo, 0, len(sessions))
	for _, s := range sessions {
		registered := counts[s.SessionID]
		available := s.Capacity - registered
		infos = append(infos, models.SessionCapacityInfo{
			SessionID:  s.SessionID,
			Name:       s.Name,
			StartTime:  s.StartTime,
			Capacity:   s.Capacity,
			Registered: registered,
			Available:  available,
			Anomaly:    available < 0,
		})
	}

	sort.SliceStable(infos, func(i, j int) bool {
		if !infos[i].StartTime.Equal(infos[j].StartTime) {
			return infos[i].StartTime.Before(infos[j].StartTime)
		}
		if infos[i].Name != infos[j].Name {
			return infos[i].Name < infos[j].Name
		}
		return infos[i].SessionID < infos[j].SessionID
	})
	return infos
}
