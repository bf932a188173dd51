package webhook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewcal/crewcal/internal/event_bus"
	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handlerFixture(t *testing.T) (*Handler, *user.RepoStub, *event_bus.EventBus, *utils.MockClock) {
	t.Helper()
	repo := user.NewRepoStub()
	bus := event_bus.NewEventBus()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)}
	users := user.NewUserService(repo, user.StaticAdminPolicy(""))
	return NewHandler(users, bus, clock), repo, bus, clock
}

func TestNotifyWithoutChannelIdReturnsBadRequest(t *testing.T) {
	handler, _, _, _ := handlerFixture(t)
	req := httptest.NewRequest("POST", "/api/webhook/google", nil)
	rec := httptest.NewRecorder()

	handler.Notify(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Missing channel ID", body["error"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNotifyWithUnknownChannelReturnsNotFound(t *testing.T) {
	handler, _, _, _ := handlerFixture(t)
	req := httptest.NewRequest("POST", "/api/webhook/google", nil)
	req.Header.Set("X-Goog-Channel-ID", "unknown-channel")
	rec := httptest.NewRecorder()

	handler.Notify(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "User not found", body["error"])
}

func TestNotifyAcknowledgesKnownChannel(t *testing.T) {
	handler, repo, bus, clock := handlerFixture(t)
	_, err := repo.CreateUser(context.Background(), user.User{
		Uid:   "uid-1",
		Email: "alice@example.com",
		Webhook: user.WebhookSubscription{
			ChannelId: "channel-1",
			Expiry:    clock.Now().Add(time.Hour),
		},
	})
	require.NoError(t, err)

	var published []event_bus.Event
	bus.Subscribe(event_bus.CalendarChangedEvent, func(e event_bus.Event) error {
		published = append(published, e)
		return nil
	})

	req := httptest.NewRequest("POST", "/api/webhook/google", nil)
	req.Header.Set("X-Goog-Channel-ID", "channel-1")
	req.Header.Set("X-Goog-Resource-State", "exists")
	rec := httptest.NewRecorder()

	handler.Notify(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var ack notificationAck
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &ack))
	assert.True(t, ack.Success)
	assert.Equal(t, "uid-1", ack.UserId)
	assert.Equal(t, "channel-1", ack.ChannelId)
	assert.Equal(t, "exists", ack.ResourceState)
	assert.Equal(t, clock.Now().UTC().Format(time.RFC3339), ack.Timestamp)

	require.Len(t, published, 1)
	change, ok := published[0].Data.(event_bus.CalendarChanged)
	require.True(t, ok)
	assert.Equal(t, "uid-1", change.UserUid)
	assert.Equal(t, "channel-1", change.ChannelId)
}

func TestPreflightAnswersWithCORSHeaders(t *testing.T) {
	handler, _, _, _ := handlerFixture(t)
	req := httptest.NewRequest("OPTIONS", "/api/webhook/google", nil)
	rec := httptest.NewRecorder()

	handler.Preflight(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "X-Goog-Channel-ID")
}
