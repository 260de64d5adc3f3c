package models

import "time"

type Event struct {
	EventID          string    `json:"eventid" bson:"eventid"`
	Title            string    `json:"title" bson:"title"`
	Description      string    `json:"description" bson:"description"`
	Location         string    `json:"location" bson:"location"`
	CreatorID        string    `json:"creatorid" bson:"creatorid"`
	StartDateTime    time.Time `json:"start_date_time" bson:"start_date_time"`
	EndDateTime      time.Time `json:"end_date_time" bson:"end_date_time"`
	Category         string    `json:"category" bson:"category"`
	Banner           string    `json:"banner" bson:"banner"`
	Status           string    `json:"status" bson:"status"`
	Tags             []string  `json:"tags" bson:"tags"`
	OrganizerName    string    `json:"organizer_name" bson:"organizer_name"`
	OrganizerContact string    `json:"organizer_contact" bson:"organizer_contact"`
	CreatedAt        time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" bson:"updated_at"`
}

// EventSession is an atomic capacity unit within an event: a time
// slot or room registrations are counted against.
type EventSession struct {
	SessionID  string    `json:"sessionid" bson:"sessionid"`
	EventID    string    `json:"eventid" bson:"eventid"`
	Name       string    `json:"name" bson:"name"`
	Capacity   int       `json:"capacity" bson:"capacity"`
	Registered int       `json:"registered" bson:"registered"`
	StartTime  time.Time `json:"start_time" bson:"start_time"`
	EndTime    time.Time `json:"end_time" bson:"end_time"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" bson:"updated_at"`
}

// SessionCapacityInfo is derived, never persisted. Available may be
// negative; that means the session is overbooked and Anomaly is set
// so callers can alert instead of the number being clamped away.
type SessionCapacityInfo struct {
	SessionID  string    `json:"sessionid"`
	Name       string    `json:"name"`
	StartTime  time.Time `json:"start_time"`
	Capacity   int       `json:"capacity"`
	Registered int       `json:"registered"`
	Available  int       `json:"available"`
	Anomaly    bool      `json:"anomaly,omitempty"`
}

// RegistrationWindow is the computed cutoff for an event: start minus
// the configured pre-start buffer. Registration is open strictly
// before Cutoff; at the cutoff instant it is closed.
type RegistrationWindow struct {
	EventStart    time.Time `json:"event_start"`
	BufferMinutes int       `json:"buffer_minutes"`
	Cutoff        time.Time `json:"cutoff"`
}

func (w RegistrationWindow) OpenAt(t time.Time) bool {
	return t.Before(w.Cutoff)
}
