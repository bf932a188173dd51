package user

import (
	"context"
	"sync"
	"time"
)

// RepoStub is an in-memory Repo used in tests.
type RepoStub struct {
	mu     sync.RWMutex
	users  map[int]User
	nextId int

	// WebhookUpdates counts UpdateWebhookSubscription calls, for assertions.
	WebhookUpdates int
}

func NewRepoStub() *RepoStub {
	return &RepoStub{
		users:  make(map[int]User),
		nextId: 1,
	}
}

func (r *RepoStub) CreateUser(ctx context.Context, user User) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user.Id = r.nextId
	if user.CalendarId == "" {
		user.CalendarId = DefaultCalendarId
	}
	r.users[user.Id] = user
	r.nextId++
	return user.Id, nil
}

func (r *RepoStub) GetUser(ctx context.Context, id int) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[id]
	if !ok {
		return User{}, ErrUserNotFound
	}
	return user, nil
}

func (r *RepoStub) GetUserByUid(ctx context.Context, uid string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Uid == uid {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *RepoStub) GetUserByEmail(ctx context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *RepoStub) GetUserByWebhookChannel(ctx context.Context, channelId string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if user.Webhook.ChannelId == channelId && channelId != "" {
			return user, nil
		}
	}
	return User{}, ErrUserNotFound
}

func (r *RepoStub) GetAllUsers(ctx context.Context) ([]User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]User, 0, len(r.users))
	for id := 1; id < r.nextId; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *RepoStub) UpdateWebhookSubscription(ctx context.Context, userId int, calendarId string, channelId string, expiry time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[userId]
	if !ok {
		return ErrUserNotFound
	}
	user.CalendarId = calendarId
	user.Webhook.ChannelId = channelId
	user.Webhook.Expiry = expiry
	r.users[userId] = user
	r.WebhookUpdates++
	return nil
}

func (r *RepoStub) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.users = make(map[int]User)
	r.nextId = 1
	r.WebhookUpdates = 0
}
