package schedule

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"commune/models"
)

// SettingsGetter is the slice of the settings store the resolver
// needs. A missing key is ok=false, not an error.
type SettingsGetter interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
}

// ConfigError means a required setting is unset or unparsable. There
// is deliberately no fallback: a misconfigured timezone or buffer
// must surface as a deployment bug, not silently reopen registration.
type ConfigError struct {
	Key    string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Key, e.Reason)
}

// Resolver computes registration windows from the configured event
// timezone and pre-start buffer. now is injectable for tests.
type Resolver struct {
	settings SettingsGetter
	now      func() time.Time
}

func NewResolver(settings SettingsGetter) *Resolver {
	return &Resolver{settings: settings, now: time.Now}
}

// NewResolverAt pins the clock; test constructor.
func NewResolverAt(settings SettingsGetter, now func() time.Time) *Resolver {
	return &Resolver{settings: settings, now: now}
}

// EventTimeZone resolves the configured IANA zone.
func (rs *Resolver) EventTimeZone(ctx context.Context) (*time.Location, error) {
	value, ok, err := rs.settings.Get(ctx, models.SettingEventTimeZone)
	if err != nil {
		return nil, err
	}
	if !ok || value == "" {
		return nil, &ConfigError{Key: models.SettingEventTimeZone, Reason: "not set"}
	}
	loc, err := time.LoadLocation(value)
	if err != nil {
		return nil, &ConfigError{Key: models.SettingEventTimeZone, Reason: "unknown time zone " + value}
	}
	return loc, nil
}

// PreStartBufferMinutes resolves the registration cutoff buffer.
func (rs *Resolver) PreStartBufferMinutes(ctx context.Context) (int, error) {
	value, ok, err := rs.settings.Get(ctx, models.SettingPreStartBufferMinutes)
	if err != nil {
		return 0, err
	}
	if !ok || value == "" {
		return 0, &ConfigError{Key: models.SettingPreStartBufferMinutes, Reason: "not set"}
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || minutes < 0 {
		return 0, &ConfigError{Key: models.SettingPreStartBufferMinutes, Reason: "not a non-negative integer: " + value}
	}
	return minutes, nil
}

// Window computes the registration window for an event start.
func (rs *Resolver) Window(ctx context.Context, eventStartUTC time.Time) (models.RegistrationWindow, error) {
	minutes, err := rs.PreStartBufferMinutes(ctx)
	if err != nil {
		return models.RegistrationWindow{}, err
	}
	start := eventStartUTC.UTC()
	return models.RegistrationWindow{
		EventStart:    start,
		BufferMinutes: minutes,
		Cutoff:        start.Add(-time.Duration(minutes) * time.Minute),
	}, nil
}

// IsRegistrationOpen reports whether registration is still open.
// Open strictly before the cutoff; at the cutoff instant it is
// closed. The timezone must resolve even though the comparison runs
// in UTC, so a missing zone fails here rather than at display time.
func (rs *Resolver) IsRegistrationOpen(ctx context.Context, eventStartUTC time.Time) (bool, error) {
	if _, err := rs.EventTimeZone(ctx); err != nil {
		return false, err
	}
	window, err := rs.Window(ctx, eventStartUTC)
	if err != nil {
		return false, err
	}
	return window.OpenAt(rs.now().UTC()), nil
}

// ConvertToEventTime renders a UTC instant in the configured zone,
// DST transitions included.
func (rs *Resolver) ConvertToEventTime(ctx context.Context, utc time.Time) (time.Time, error) {
	loc, err := rs.EventTimeZone(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return utc.In(loc), nil
}
