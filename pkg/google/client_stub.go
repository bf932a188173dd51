package google

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// StopCall records one StopChannel invocation made against the stub.
type StopCall struct {
	ChannelId  string
	ResourceId string
}

// WatchCall records one WatchEvents invocation made against the stub.
type WatchCall struct {
	CalendarId string
	Channel    Channel
}

// ListCall records one ListEvents invocation made against the stub.
type ListCall struct {
	CalendarId string
	From       time.Time
	To         time.Time
}

// ClientStub is an in-memory Client used in tests.
type ClientStub struct {
	mu sync.Mutex

	Events   []ProviderEvent
	ListErr  error
	WatchErr error
	StopErr  error

	ListCalls  []ListCall
	WatchCalls []WatchCall
	StopCalls  []StopCall
}

func NewClientStub() *ClientStub {
	return &ClientStub{}
}

func (c *ClientStub) ListEvents(ctx context.Context, token *oauth2.Token, calendarId string, from, to time.Time) ([]ProviderEvent, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ListCalls = append(c.ListCalls, ListCall{CalendarId: calendarId, From: from, To: to})
	if c.ListErr != nil {
		return nil, c.ListErr
	}
	events := make([]ProviderEvent, len(c.Events))
	copy(events, c.Events)
	return events, nil
}

func (c *ClientStub) WatchEvents(ctx context.Context, token *oauth2.Token, calendarId string, channel Channel) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.WatchCalls = append(c.WatchCalls, WatchCall{CalendarId: calendarId, Channel: channel})
	return c.WatchErr
}

func (c *ClientStub) StopChannel(ctx context.Context, token *oauth2.Token, channelId string, resourceId string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.StopCalls = append(c.StopCalls, StopCall{ChannelId: channelId, ResourceId: resourceId})
	return c.StopErr
}

func (c *ClientStub) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Events = nil
	c.ListErr = nil
	c.WatchErr = nil
	c.StopErr = nil
	c.ListCalls = nil
	c.WatchCalls = nil
	c.StopCalls = nil
}
