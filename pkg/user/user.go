package user

import "time"

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// DefaultCalendarId is the Google Calendar that is synced when the user has
// no explicit calendar configured.
const DefaultCalendarId = "primary"

type User struct {
	Id          int
	Uid         string
	Email       string
	DisplayName string
	Role        Role
	// CalendarId is the provider calendar this user's events are synced from.
	CalendarId string
	Webhook    WebhookSubscription
}

// WebhookSubscription is the push notification channel state for a user.
// At most one channel is active (not expired) per user at any time.
type WebhookSubscription struct {
	ChannelId string
	Expiry    time.Time
}

// Active reports whether the subscription has a channel that is not expired at
// the given instant.
func (w WebhookSubscription) Active(now time.Time) bool {
	return w.ChannelId != "" && w.Expiry.After(now)
}

// EffectiveCalendarId returns the calendar to sync for this user.
func (u User) EffectiveCalendarId() string {
	if u.CalendarId != "" {
		return u.CalendarId
	}
	return DefaultCalendarId
}

// RolePolicy decides the role assigned to an identity at first sign-in.
type RolePolicy func(email string) Role

// StaticAdminPolicy grants the admin role to exactly one configured email and
// the user role to everyone else.
func StaticAdminPolicy(adminEmail string) RolePolicy {
	return func(email string) Role {
		if adminEmail != "" && email == adminEmail {
			return RoleAdmin
		}
		return RoleUser
	}
}
