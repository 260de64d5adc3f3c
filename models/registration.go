package models

import "time"

type Registration struct {
	RegistrationID string    `json:"registrationid" bson:"registrationid"`
	EventID        string    `json:"eventid" bson:"eventid"`
	SessionID      string    `json:"sessionid" bson:"sessionid"`
	UserID         string    `json:"userid" bson:"userid"`
	UniqueCode     string    `json:"uniquecode" bson:"uniquecode"`
	Status         string    `json:"status" bson:"status"` // confirmed, cancelled
	CreatedAt      time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" bson:"updated_at"`
}

type CheckIn struct {
	EventID    string    `json:"eventid" bson:"eventid"`
	SessionID  string    `json:"sessionid" bson:"sessionid"`
	UserID     string    `json:"userid" bson:"userid"`
	UniqueCode string    `json:"uniquecode" bson:"uniquecode"`
	CheckedBy  string    `json:"checkedby" bson:"checkedby"`
	CheckedAt  time.Time `json:"checked_at" bson:"checked_at"`
}
