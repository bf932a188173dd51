package webhook

import (
	"context"
	"fmt"
	"time"

	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/google"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// channelTTL is how long a push notification channel is registered for.
const channelTTL = 7 * 24 * time.Hour

// Registry manages the single push notification channel each user holds with
// Google Calendar.
type Registry interface {
	// EnsureActiveChannel makes sure the user has a live push channel for
	// their calendar. It is idempotent: with an unexpired channel in place it
	// does nothing. An expired channel is stopped best-effort before a
	// replacement is registered; channel id and expiry are persisted only
	// after the provider accepted the registration.
	EnsureActiveChannel(ctx context.Context, u user.User, token *oauth2.Token) error
}

type RegistryImpl struct {
	users           user.Service
	provider        google.Client
	clock           utils.Clock
	callbackAddress string
}

func NewRegistry(users user.Service, provider google.Client, clock utils.Clock, callbackAddress string) *RegistryImpl {
	return &RegistryImpl{
		users:           users,
		provider:        provider,
		clock:           clock,
		callbackAddress: callbackAddress,
	}
}

func (r *RegistryImpl) EnsureActiveChannel(ctx context.Context, u user.User, token *oauth2.Token) error {
	now := r.clock.Now()
	calendarId := u.EffectiveCalendarId()

	if u.Webhook.Active(now) {
		log.Debugf("webhook channel %s for user %d still active until %s", u.Webhook.ChannelId, u.Id, u.Webhook.Expiry)
		return nil
	}

	// A dead remote channel is not fatal, only wasteful.
	if u.Webhook.ChannelId != "" {
		if err := r.provider.StopChannel(ctx, token, u.Webhook.ChannelId, calendarId); err != nil {
			log.Warnf("failed to stop expired webhook channel %s for user %d: %v", u.Webhook.ChannelId, u.Id, err)
		}
	}

	channel := google.Channel{
		Id:      uuid.New().String(),
		Address: r.callbackAddress,
		Expiry:  now.Add(channelTTL),
	}
	if err := r.provider.WatchEvents(ctx, token, calendarId, channel); err != nil {
		return fmt.Errorf("failed to register webhook channel: %w", err)
	}

	if err := r.users.UpdateWebhookSubscription(ctx, u.Id, calendarId, channel.Id, channel.Expiry); err != nil {
		return fmt.Errorf("failed to persist webhook subscription: %w", err)
	}

	log.Infof("registered webhook channel %s for user %d, expires %s", channel.Id, u.Id, channel.Expiry)
	return nil
}
