package user

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBootstrapUserCreatesUserOnFirstSignIn(t *testing.T) {
	repo := NewRepoStub()
	service := NewUserService(repo, StaticAdminPolicy("boss@example.com"))

	created, err := service.BootstrapUser(context.Background(), "alice@example.com", "Alice")

	require.NoError(t, err)
	assert.NotZero(t, created.Id)
	assert.NotEmpty(t, created.Uid)
	assert.Equal(t, "alice@example.com", created.Email)
	assert.Equal(t, "Alice", created.DisplayName)
	assert.Equal(t, RoleUser, created.Role)
	assert.Equal(t, DefaultCalendarId, created.CalendarId)
}

func TestBootstrapUserGrantsAdminToConfiguredEmail(t *testing.T) {
	repo := NewRepoStub()
	service := NewUserService(repo, StaticAdminPolicy("boss@example.com"))

	created, err := service.BootstrapUser(context.Background(), "boss@example.com", "Boss")

	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, created.Role)
}

func TestBootstrapUserReturnsExistingUser(t *testing.T) {
	repo := NewRepoStub()
	service := NewUserService(repo, StaticAdminPolicy("boss@example.com"))

	first, err := service.BootstrapUser(context.Background(), "alice@example.com", "Alice")
	require.NoError(t, err)

	again, err := service.BootstrapUser(context.Background(), "alice@example.com", "Alice Renamed")
	require.NoError(t, err)

	assert.Equal(t, first.Id, again.Id)
	assert.Equal(t, first.Uid, again.Uid)
	// Display name is set at first sign-in only.
	assert.Equal(t, "Alice", again.DisplayName)

	all, err := service.GetAllUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestBootstrapUserRequiresEmail(t *testing.T) {
	service := NewUserService(NewRepoStub(), StaticAdminPolicy(""))

	_, err := service.BootstrapUser(context.Background(), "", "Nameless")

	assert.Error(t, err)
}

func TestWebhookSubscriptionActive(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.False(t, WebhookSubscription{}.Active(now))
	assert.False(t, WebhookSubscription{ChannelId: "c", Expiry: now}.Active(now))
	assert.False(t, WebhookSubscription{ChannelId: "c", Expiry: now.Add(-time.Second)}.Active(now))
	assert.True(t, WebhookSubscription{ChannelId: "c", Expiry: now.Add(time.Second)}.Active(now))
	assert.False(t, WebhookSubscription{Expiry: now.Add(time.Hour)}.Active(now))
}
