package event

import (
	"time"

	"github.com/google/uuid"
)

// CalendarEvent is one synced provider event. Events are owned wholesale by
// the store: every sync replaces the user's full set, they are never patched.
type CalendarEvent struct {
	Id        uuid.UUID
	UserId    int
	Email     string
	Title     string
	StartTime time.Time
	EndTime   time.Time
	// UserName is the owner's display name, populated only on admin listings.
	UserName string
}

// UntitledEvent is the title stored for provider events without a summary.
const UntitledEvent = "Untitled Event"
