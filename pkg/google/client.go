package google

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// eventPageSize is the maximum number of events requested per sync.
const eventPageSize = 100

// ProviderEvent is a calendar event as returned by Google, before any
// normalization. Timed events carry StartDateTime/EndDateTime (RFC3339),
// all-day events carry StartDate/EndDate (yyyy-mm-dd). Cancelled placeholders
// may carry neither.
type ProviderEvent struct {
	Id            string
	Summary       string
	StartDateTime string
	StartDate     string
	EndDateTime   string
	EndDate       string
}

// Channel describes a push notification subscription to be registered with
// the provider.
type Channel struct {
	Id      string
	Address string
	Expiry  time.Time
}

// Client is the outbound interface to the Google Calendar API.
type Client interface {
	// ListEvents returns up to eventPageSize single (non-recurring-expanded)
	// events of the calendar within [from, to], ordered by start time.
	ListEvents(ctx context.Context, token *oauth2.Token, calendarId string, from, to time.Time) ([]ProviderEvent, error)
	// WatchEvents registers a web_hook push channel on the calendar.
	WatchEvents(ctx context.Context, token *oauth2.Token, calendarId string, channel Channel) error
	// StopChannel tears down a previously registered push channel.
	StopChannel(ctx context.Context, token *oauth2.Token, channelId string, resourceId string) error
}

type ClientImpl struct {
	auth *GoogleAuth
}

func NewClient(auth *GoogleAuth) *ClientImpl {
	return &ClientImpl{auth: auth}
}

func (c *ClientImpl) calendarService(ctx context.Context, token *oauth2.Token) (*gcal.Service, error) {
	service, err := gcal.NewService(ctx, option.WithHTTPClient(c.auth.httpClient(ctx, token)))
	if err != nil {
		err := fmt.Errorf("unable to create Calendar client: %w", err)
		log.Error(err)
		return nil, err
	}
	return service, nil
}

func (c *ClientImpl) ListEvents(ctx context.Context, token *oauth2.Token, calendarId string, from, to time.Time) ([]ProviderEvent, error) {
	service, err := c.calendarService(ctx, token)
	if err != nil {
		return nil, err
	}

	googleEvents, err := service.Events.List(calendarId).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		MaxResults(eventPageSize).
		SingleEvents(true).
		OrderBy("startTime").
		Context(ctx).
		Do()
	if err != nil {
		err := fmt.Errorf("unable to retrieve events from Google Calendar: %w", err)
		log.Error(err)
		return nil, err
	}

	events := make([]ProviderEvent, 0, len(googleEvents.Items))
	for _, item := range googleEvents.Items {
		event := ProviderEvent{
			Id:      item.Id,
			Summary: item.Summary,
		}
		if item.Start != nil {
			event.StartDateTime = item.Start.DateTime
			event.StartDate = item.Start.Date
		}
		if item.End != nil {
			event.EndDateTime = item.End.DateTime
			event.EndDate = item.End.Date
		}
		events = append(events, event)
	}
	return events, nil
}

func (c *ClientImpl) WatchEvents(ctx context.Context, token *oauth2.Token, calendarId string, channel Channel) error {
	service, err := c.calendarService(ctx, token)
	if err != nil {
		return err
	}

	_, err = service.Events.Watch(calendarId, &gcal.Channel{
		Id:         channel.Id,
		Type:       "web_hook",
		Address:    channel.Address,
		Expiration: channel.Expiry.UnixMilli(),
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to register webhook channel with Google Calendar: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (c *ClientImpl) StopChannel(ctx context.Context, token *oauth2.Token, channelId string, resourceId string) error {
	service, err := c.calendarService(ctx, token)
	if err != nil {
		return err
	}

	err = service.Channels.Stop(&gcal.Channel{
		Id:         channelId,
		ResourceId: resourceId,
	}).Context(ctx).Do()
	if err != nil {
		err := fmt.Errorf("unable to stop webhook channel %s: %w", channelId, err)
		log.Error(err)
		return err
	}
	return nil
}
