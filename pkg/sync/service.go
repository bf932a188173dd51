package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/event"
	"github.com/crewcal/crewcal/pkg/google"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/crewcal/crewcal/pkg/webhook"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

var (
	ErrNoSession = errors.New("no authenticated user")
	ErrNoToken   = errors.New("no Google access token for user")
	ErrNoEmail   = errors.New("user has no email address")
	// ErrProviderFetch wraps failures talking to the calendar provider.
	ErrProviderFetch = errors.New("failed to fetch events from provider")
	// ErrWebhookRegistration wraps failures registering the push channel.
	ErrWebhookRegistration = errors.New("failed to register webhook channel")
)

// Session carries everything a sync run needs about the requesting user.
type Session struct {
	User  user.User
	Token *oauth2.Token
}

// Service runs the full-replace synchronization for a single user: the push
// channel is (re)registered, events inside the sync window are fetched from
// the provider, normalized, and atomically replace the user's stored set.
type Service interface {
	SyncEvents(ctx context.Context, session Session) error
}

type ServiceImpl struct {
	registry webhook.Registry
	provider google.Client
	events   event.Service
	clock    utils.Clock
}

func NewService(registry webhook.Registry, provider google.Client, events event.Service, clock utils.Clock) *ServiceImpl {
	return &ServiceImpl{
		registry: registry,
		provider: provider,
		events:   events,
		clock:    clock,
	}
}

func (s *ServiceImpl) SyncEvents(ctx context.Context, session Session) error {
	if session.User.Id == 0 {
		return ErrNoSession
	}
	if session.Token == nil {
		return ErrNoToken
	}
	if session.User.Email == "" {
		return ErrNoEmail
	}

	// The push channel keeps the stored events fresh between manual syncs.
	// Without it a successful sync would silently go stale, so a registration
	// failure fails the whole run.
	if err := s.registry.EnsureActiveChannel(ctx, session.User, session.Token); err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookRegistration, err)
	}

	now := s.clock.Now()
	from := now.AddDate(0, -1, 0)
	to := now.AddDate(1, 0, 0)

	providerEvents, err := s.provider.ListEvents(ctx, session.Token, session.User.EffectiveCalendarId(), from, to)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderFetch, err)
	}

	normalized := make([]event.CalendarEvent, 0, len(providerEvents))
	for _, providerEvent := range providerEvents {
		calendarEvent, ok := normalizeEvent(providerEvent, session.User)
		if !ok {
			continue
		}
		normalized = append(normalized, calendarEvent)
	}

	if err := s.events.ReplaceForUser(ctx, session.User.Id, normalized); err != nil {
		return fmt.Errorf("failed to store synced events: %w", err)
	}

	log.Infof("synced %d events for user %d (%d received)", len(normalized), session.User.Id, len(providerEvents))
	return nil
}

// normalizeEvent converts a provider event to the stored shape. Events without
// any start information (cancelled placeholders) are dropped. All-day events
// are widened to cover the whole day in UTC.
func normalizeEvent(providerEvent google.ProviderEvent, owner user.User) (event.CalendarEvent, bool) {
	if providerEvent.StartDateTime == "" && providerEvent.StartDate == "" {
		return event.CalendarEvent{}, false
	}

	title := providerEvent.Summary
	if title == "" {
		title = event.UntitledEvent
	}

	startTime, err := parseEventTime(providerEvent.StartDateTime, providerEvent.StartDate, "T00:00:00Z")
	if err != nil {
		log.Warnf("skipping event %s with unparseable start: %v", providerEvent.Id, err)
		return event.CalendarEvent{}, false
	}
	endTime, err := parseEventTime(providerEvent.EndDateTime, providerEvent.EndDate, "T23:59:59Z")
	if err != nil {
		log.Warnf("skipping event %s with unparseable end: %v", providerEvent.Id, err)
		return event.CalendarEvent{}, false
	}

	return event.CalendarEvent{
		UserId:    owner.Id,
		Email:     owner.Email,
		Title:     title,
		StartTime: startTime,
		EndTime:   endTime,
	}, true
}

func parseEventTime(dateTime string, date string, dayBoundary string) (time.Time, error) {
	if dateTime != "" {
		return time.Parse(time.RFC3339, dateTime)
	}
	return time.Parse(time.RFC3339, date+dayBoundary)
}
