package event

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// RepositoryStub is an in-memory Repository used in tests.
type RepositoryStub struct {
	mu     sync.RWMutex
	events map[int][]CalendarEvent // userId -> events
	// UserNames supplies display names for ListAll, keyed by userId.
	UserNames map[int]string

	ReplaceErr error
	// ReplaceCalls counts ReplaceForUser invocations, for assertions.
	ReplaceCalls int
}

func NewRepositoryStub() *RepositoryStub {
	return &RepositoryStub{
		events:    make(map[int][]CalendarEvent),
		UserNames: make(map[int]string),
	}
}

func (r *RepositoryStub) ReplaceForUser(ctx context.Context, userId int, events []CalendarEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ReplaceCalls++
	if r.ReplaceErr != nil {
		return r.ReplaceErr
	}

	stored := make([]CalendarEvent, 0, len(events))
	for _, event := range events {
		if event.Id == uuid.Nil {
			event.Id = uuid.New()
		}
		event.UserId = userId
		stored = append(stored, event)
	}
	r.events[userId] = stored
	return nil
}

func (r *RepositoryStub) ListForUser(ctx context.Context, userId int) ([]CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	events := make([]CalendarEvent, len(r.events[userId]))
	copy(events, r.events[userId])
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (r *RepositoryStub) ListAll(ctx context.Context) ([]CalendarEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var events []CalendarEvent
	for userId, userEvents := range r.events {
		for _, event := range userEvents {
			event.UserName = r.UserNames[userId]
			events = append(events, event)
		}
	}
	sort.Slice(events, func(i, j int) bool { return events[i].StartTime.Before(events[j].StartTime) })
	return events, nil
}

func (r *RepositoryStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = make(map[int][]CalendarEvent)
	r.UserNames = make(map[int]string)
	r.ReplaceErr = nil
	r.ReplaceCalls = 0
}
