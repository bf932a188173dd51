package event

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/crewcal/crewcal/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetEventsWithoutSessionReturnsUnauthorized(t *testing.T) {
	handler := NewHandler(NewService(NewRepositoryStub()))
	req := httptest.NewRequest("GET", "/api/event", nil)
	rec := httptest.NewRecorder()

	handler.GetEvents(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "No active session found")
}

func TestGetAllEventsForbiddenForRegularUser(t *testing.T) {
	handler := NewHandler(NewService(NewRepositoryStub()))
	req := httptest.NewRequest("GET", "/api/admin/event", nil)
	req = req.WithContext(user.WithUser(req.Context(), user.User{Id: 1, Role: user.RoleUser}))
	rec := httptest.NewRecorder()

	handler.GetAllEvents(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestExportICSRendersCalendarFeed(t *testing.T) {
	repo := NewRepositoryStub()
	require.NoError(t, repo.ReplaceForUser(context.Background(), 1, []CalendarEvent{
		{
			Email:     "alice@example.com",
			Title:     "Standup",
			StartTime: time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2024, 3, 11, 9, 15, 0, 0, time.UTC),
		},
	}))
	handler := NewHandler(NewService(repo))

	req := httptest.NewRequest("GET", "/api/event/export.ics", nil)
	req = req.WithContext(user.WithUser(req.Context(), user.User{Id: 1, Uid: "uid-1"}))
	rec := httptest.NewRecorder()

	handler.ExportICS(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/calendar", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.True(t, strings.HasPrefix(body, "BEGIN:VCALENDAR"))
	assert.Contains(t, body, "BEGIN:VEVENT")
	assert.Contains(t, body, "SUMMARY:Standup")
}
