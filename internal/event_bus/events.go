package event_bus

// CalendarChangedEvent is published by the webhook receiver after a Google
// push notification has been acknowledged. Nothing subscribes a re-sync to it
// yet; it marks the place where one would be attached.
const CalendarChangedEvent EventType = "google.calendar.changed"

type CalendarChanged struct {
	UserId        int
	UserUid       string
	ChannelId     string
	ResourceState string
}
