package models

import "time"

// Incident is a safety report filed by a member about an event or
// another member.
type Incident struct {
	IncidentID  string    `json:"incidentid,omitempty" bson:"incidentid"`
	ReportedBy  string    `json:"reportedBy" bson:"reportedBy"`
	EventID     string    `json:"eventid,omitempty" bson:"eventid,omitempty"`
	TargetID    string    `json:"targetId,omitempty" bson:"targetId,omitempty"`
	Category    string    `json:"category" bson:"category"`
	Description string    `json:"description" bson:"description"`
	Status      string    `json:"status" bson:"status"` // pending, reviewing, resolved, dismissed
	ReviewedBy  string    `json:"reviewedBy,omitempty" bson:"reviewedBy,omitempty"`
	ReviewNotes string    `json:"reviewNotes,omitempty" bson:"reviewNotes,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}
