package models

import "time"

// Setting is one row of process-wide configuration. Keys are unique;
// values are opaque strings parsed by whoever consumes them.
type Setting struct {
	Key         string    `json:"key" bson:"key"`
	Value       string    `json:"value" bson:"value"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

const (
	MaxSettingKeyLen   = 100
	MaxSettingValueLen = 500
)

// Setting keys the scheduling code depends on.
const (
	SettingEventTimeZone         = "EventTimeZone"
	SettingPreStartBufferMinutes = "PreStartBufferMinutes"
)
