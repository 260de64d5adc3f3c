package models

import "time"

// Member is a vetted community account. Only approved members may
// register for events.
type Member struct {
	UserID      string    `json:"userid" bson:"userid"`
	DisplayName string    `json:"display_name" bson:"display_name"`
	Pronouns    string    `json:"pronouns,omitempty" bson:"pronouns,omitempty"`
	Statement   string    `json:"statement,omitempty" bson:"statement,omitempty"`
	Status      string    `json:"status" bson:"status"` // applied, approved, rejected
	ReviewedBy  string    `json:"reviewedby,omitempty" bson:"reviewedby,omitempty"`
	ReviewNote  string    `json:"review_note,omitempty" bson:"review_note,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	MemberApplied  = "applied"
	MemberApproved = "approved"
	MemberRejected = "rejected"
)
