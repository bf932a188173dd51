package user

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type Service interface {
	GetCurrentUser(ctx context.Context) (User, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByWebhookChannel(ctx context.Context, channelId string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	// BootstrapUser returns the user for the given identity, creating it on
	// first sign-in with the role decided by the configured role policy.
	BootstrapUser(ctx context.Context, email string, displayName string) (User, error)
	UpdateWebhookSubscription(ctx context.Context, userId int, calendarId string, channelId string, expiry time.Time) error
}

type UserServiceImpl struct {
	repo   Repo
	policy RolePolicy
}

func NewUserService(repo Repo, policy RolePolicy) *UserServiceImpl {
	return &UserServiceImpl{repo: repo, policy: policy}
}

func (u *UserServiceImpl) GetCurrentUser(ctx context.Context) (User, error) {
	userId, err := CurrentId(ctx)
	if err != nil {
		return User{}, fmt.Errorf("failed to get current user: %w", err)
	}
	return u.repo.GetUser(ctx, userId)
}

func (u *UserServiceImpl) GetUser(ctx context.Context, id int) (User, error) {
	return u.repo.GetUser(ctx, id)
}

func (u *UserServiceImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	return u.repo.GetUserByUid(ctx, uid)
}

func (u *UserServiceImpl) GetUserByWebhookChannel(ctx context.Context, channelId string) (User, error) {
	return u.repo.GetUserByWebhookChannel(ctx, channelId)
}

func (u *UserServiceImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	return u.repo.GetAllUsers(ctx)
}

func (u *UserServiceImpl) BootstrapUser(ctx context.Context, email string, displayName string) (User, error) {
	if email == "" {
		return User{}, fmt.Errorf("cannot bootstrap user without an email")
	}

	existing, err := u.repo.GetUserByEmail(ctx, email)
	if err == nil {
		// Role is assigned once at first sign-in and never revisited here.
		return existing, nil
	}
	if err != ErrUserNotFound {
		return User{}, fmt.Errorf("failed to look up user by email: %w", err)
	}

	newUser := User{
		Uid:         uuid.NewString(),
		Email:       email,
		DisplayName: displayName,
		Role:        u.policy(email),
		CalendarId:  DefaultCalendarId,
	}
	id, err := u.repo.CreateUser(ctx, newUser)
	if err != nil {
		return User{}, fmt.Errorf("failed to create user: %w", err)
	}
	newUser.Id = id
	log.Infof("bootstrapped user %s with role %s", newUser.Uid, newUser.Role)
	return newUser, nil
}

func (u *UserServiceImpl) UpdateWebhookSubscription(ctx context.Context, userId int, calendarId string, channelId string, expiry time.Time) error {
	return u.repo.UpdateWebhookSubscription(ctx, userId, calendarId, channelId, expiry)
}
