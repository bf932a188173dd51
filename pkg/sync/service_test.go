package sync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/event"
	"github.com/crewcal/crewcal/pkg/google"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

// registryStub satisfies webhook.Registry for sync tests.
type registryStub struct {
	err   error
	calls int
}

func (r *registryStub) EnsureActiveChannel(ctx context.Context, u user.User, token *oauth2.Token) error {
	r.calls++
	return r.err
}

type syncFixture struct {
	service  *ServiceImpl
	registry *registryStub
	provider *google.ClientStub
	events   *event.RepositoryStub
	clock    *utils.MockClock
}

func newSyncFixture(t *testing.T) *syncFixture {
	t.Helper()
	registry := &registryStub{}
	provider := google.NewClientStub()
	events := event.NewRepositoryStub()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	return &syncFixture{
		service:  NewService(registry, provider, event.NewService(events), clock),
		registry: registry,
		provider: provider,
		events:   events,
		clock:    clock,
	}
}

func testSession() Session {
	return Session{
		User:  user.User{Id: 1, Uid: "uid-1", Email: "alice@example.com"},
		Token: &oauth2.Token{AccessToken: "token"},
	}
}

func TestSyncEventsRejectsIncompleteSessions(t *testing.T) {
	f := newSyncFixture(t)

	err := f.service.SyncEvents(context.Background(), Session{Token: &oauth2.Token{}})
	assert.ErrorIs(t, err, ErrNoSession)

	err = f.service.SyncEvents(context.Background(), Session{User: user.User{Id: 1, Email: "a@b.c"}})
	assert.ErrorIs(t, err, ErrNoToken)

	err = f.service.SyncEvents(context.Background(), Session{User: user.User{Id: 1}, Token: &oauth2.Token{}})
	assert.ErrorIs(t, err, ErrNoEmail)

	assert.Equal(t, 0, f.registry.calls)
	assert.Empty(t, f.provider.ListCalls)
}

func TestSyncEventsUsesOneMonthBackOneYearForwardWindow(t *testing.T) {
	f := newSyncFixture(t)

	require.NoError(t, f.service.SyncEvents(context.Background(), testSession()))

	require.Len(t, f.provider.ListCalls, 1)
	listed := f.provider.ListCalls[0]
	now := f.clock.Now()
	assert.Equal(t, now.AddDate(0, -1, 0), listed.From)
	assert.Equal(t, now.AddDate(1, 0, 0), listed.To)
	assert.Equal(t, user.DefaultCalendarId, listed.CalendarId)
}

func TestSyncEventsStoresNormalizedEvents(t *testing.T) {
	f := newSyncFixture(t)
	f.provider.Events = []google.ProviderEvent{
		{
			Id:            "timed",
			Summary:       "Standup",
			StartDateTime: "2024-03-11T09:00:00Z",
			EndDateTime:   "2024-03-11T09:15:00Z",
		},
		{
			Id:        "all-day",
			Summary:   "Conference",
			StartDate: "2024-03-12",
			EndDate:   "2024-03-12",
		},
		{
			Id:            "untitled",
			StartDateTime: "2024-03-13T10:00:00Z",
			EndDateTime:   "2024-03-13T11:00:00Z",
		},
		{
			// Cancelled placeholder without start information.
			Id:      "cancelled",
			Summary: "Gone",
		},
	}

	require.NoError(t, f.service.SyncEvents(context.Background(), testSession()))

	stored, err := f.events.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, "Standup", stored[0].Title)
	assert.Equal(t, "alice@example.com", stored[0].Email)
	assert.Equal(t, time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC), stored[0].StartTime)

	assert.Equal(t, "Conference", stored[1].Title)
	assert.Equal(t, time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC), stored[1].StartTime)
	assert.Equal(t, time.Date(2024, 3, 12, 23, 59, 59, 0, time.UTC), stored[1].EndTime)

	assert.Equal(t, event.UntitledEvent, stored[2].Title)
}

func TestSyncEventsReplacesPreviousSet(t *testing.T) {
	f := newSyncFixture(t)
	f.provider.Events = []google.ProviderEvent{
		{Id: "old", Summary: "Old", StartDateTime: "2024-03-11T09:00:00Z", EndDateTime: "2024-03-11T10:00:00Z"},
	}
	require.NoError(t, f.service.SyncEvents(context.Background(), testSession()))

	f.provider.Events = []google.ProviderEvent{
		{Id: "new", Summary: "New", StartDateTime: "2024-03-12T09:00:00Z", EndDateTime: "2024-03-12T10:00:00Z"},
	}
	require.NoError(t, f.service.SyncEvents(context.Background(), testSession()))

	stored, err := f.events.ListForUser(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	assert.Equal(t, "New", stored[0].Title)
	assert.Equal(t, 2, f.events.ReplaceCalls)
}

func TestSyncEventsFailsWhenChannelRegistrationFails(t *testing.T) {
	f := newSyncFixture(t)
	f.registry.err = errors.New("watch rejected")

	err := f.service.SyncEvents(context.Background(), testSession())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWebhookRegistration)
	assert.Empty(t, f.provider.ListCalls)
	assert.Equal(t, 0, f.events.ReplaceCalls)
}

func TestSyncEventsWrapsProviderFailure(t *testing.T) {
	f := newSyncFixture(t)
	f.provider.ListErr = errors.New("backend unavailable")

	err := f.service.SyncEvents(context.Background(), testSession())

	assert.ErrorIs(t, err, ErrProviderFetch)
	assert.Equal(t, 0, f.events.ReplaceCalls)
}
