package event

import (
	"context"
	"errors"
	"fmt"

	"github.com/crewcal/crewcal/pkg/user"
)

// ErrForbidden is returned when a non-admin requests the composite view.
var ErrForbidden = errors.New("admin role required")

type Service interface {
	// GetOwnEvents returns the current user's synced events.
	GetOwnEvents(ctx context.Context) ([]CalendarEvent, error)
	// GetAllEvents returns every user's events. Admin only.
	GetAllEvents(ctx context.Context) ([]CalendarEvent, error)
	// ReplaceForUser stores a freshly synced event set for the user.
	ReplaceForUser(ctx context.Context, userId int, events []CalendarEvent) error
}

type ServiceImpl struct {
	repo Repository
}

func NewService(repo Repository) *ServiceImpl {
	return &ServiceImpl{repo: repo}
}

func (s *ServiceImpl) GetOwnEvents(ctx context.Context) ([]CalendarEvent, error) {
	userId, err := user.CurrentId(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	return s.repo.ListForUser(ctx, userId)
}

func (s *ServiceImpl) GetAllEvents(ctx context.Context) ([]CalendarEvent, error) {
	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get current user: %w", err)
	}
	if currentUser.Role != user.RoleAdmin {
		return nil, ErrForbidden
	}
	return s.repo.ListAll(ctx)
}

func (s *ServiceImpl) ReplaceForUser(ctx context.Context, userId int, events []CalendarEvent) error {
	return s.repo.ReplaceForUser(ctx, userId, events)
}
