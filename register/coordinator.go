package register

import (
	"context"
	"errors"
	"fmt"
	"time"

	"commune/capacity"
	"commune/models"
	"commune/schedule"
)

var (
	ErrEventNotFound   = errors.New("event not found")
	ErrSessionNotFound = errors.New("session not found")
)

const ReasonNoSpots = "No spots remaining"

// EventSource supplies the state a registration decision needs.
type EventSource interface {
	Event(ctx context.Context, eventID string) (*models.Event, error)
	Sessions(ctx context.Context, eventID string) ([]models.EventSession, error)
	// Counts returns confirmed registrations per session id.
	Counts(ctx context.Context, eventID string) (map[string]int, error)
}

// Coordinator decides whether a registration attempt may proceed.
// Its answer is advisory only: two callers can both see a free spot,
// so the write path re-checks capacity atomically (see Register).
type Coordinator struct {
	source   EventSource
	resolver *schedule.Resolver
}

func NewCoordinator(source EventSource, resolver *schedule.Resolver) *Coordinator {
	return &Coordinator{source: source, resolver: resolver}
}

// CanRegister checks the registration window first; when the window
// is closed only that reason is reported and capacity is not
// consulted. Otherwise the requested session must have a spot left.
func (c *Coordinator) CanRegister(ctx context.Context, eventID, sessionID string) (bool, string, error) {
	event, err := c.source.Event(ctx, eventID)
	if err != nil {
		return false, "", err
	}

	open, err := c.resolver.IsRegistrationOpen(ctx, event.StartDateTime)
	if err != nil {
		return false, "", err
	}
	if !open {
		reason, err := c.closedReason(ctx, event.StartDateTime)
		if err != nil {
			return false, "", err
		}
		return false, reason, nil
	}

	infos, err := c.Availability(ctx, eventID)
	if err != nil {
		return false, "", err
	}
	for _, info := range infos {
		if info.SessionID == sessionID {
			if info.Available <= 0 {
				return false, ReasonNoSpots, nil
			}
			return true, "", nil
		}
	}
	return false, "", ErrSessionNotFound
}

// Availability returns the capacity picture for every session of the
// event, in stable order.
func (c *Coordinator) Availability(ctx context.Context, eventID string) ([]models.SessionCapacityInfo, error) {
	sessions, err := c.source.Sessions(ctx, eventID)
	if err != nil {
		return nil, err
	}
	counts, err := c.source.Counts(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return capacity.Compute(sessions, counts), nil
}

// Window exposes the computed cutoff for an event.
func (c *Coordinator) Window(ctx context.Context, eventID string) (models.RegistrationWindow, error) {
	event, err := c.source.Event(ctx, eventID)
	if err != nil {
		return models.RegistrationWindow{}, err
	}
	return c.resolver.Window(ctx, event.StartDateTime)
}

func (c *Coordinator) closedReason(ctx context.Context, eventStart time.Time) (string, error) {
	window, err := c.resolver.Window(ctx, eventStart)
	if err != nil {
		return "", err
	}
	local, err := c.resolver.ConvertToEventTime(ctx, window.Cutoff)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Registration closed at %s %s", local.Format(time.RFC3339), local.Location()), nil
}
