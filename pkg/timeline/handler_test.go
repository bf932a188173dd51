package timeline

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/event"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func handlerFixture(t *testing.T, repo *event.RepositoryStub) (*Handler, *utils.MockClock) {
	t.Helper()
	clock := &utils.MockClock{FixedNow: time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC)}
	return NewHandler(event.NewService(repo), clock), clock
}

func adminRequest(target string) *http.Request {
	req := httptest.NewRequest("GET", target, nil)
	return req.WithContext(user.WithUser(req.Context(), user.User{Id: 1, Role: user.RoleAdmin}))
}

func TestGetDayLayoutDefaultsToClockDay(t *testing.T) {
	repo := event.NewRepositoryStub()
	handler, clock := handlerFixture(t, repo)
	require.NoError(t, repo.ReplaceForUser(context.Background(), 1, []event.CalendarEvent{
		{
			Email:     "alice@example.com",
			Title:     "Today",
			StartTime: clock.Now().Add(-time.Hour),
			EndTime:   clock.Now(),
		},
		{
			Email:     "alice@example.com",
			Title:     "Tomorrow",
			StartTime: clock.Now().Add(24 * time.Hour),
			EndTime:   clock.Now().Add(25 * time.Hour),
		},
	}))

	rec := httptest.NewRecorder()
	handler.GetDayLayout(rec, adminRequest("/api/admin/timeline"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var layout []UserColumn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	require.Len(t, layout, 1)
	require.Len(t, layout[0].Blocks, 1)
	assert.Equal(t, "Today", layout[0].Blocks[0].Title)
}

func TestGetDayLayoutWithExplicitDate(t *testing.T) {
	repo := event.NewRepositoryStub()
	handler, _ := handlerFixture(t, repo)
	require.NoError(t, repo.ReplaceForUser(context.Background(), 1, []event.CalendarEvent{
		{
			Email:     "alice@example.com",
			Title:     "Meeting",
			StartTime: time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC),
			EndTime:   time.Date(2024, 3, 20, 10, 0, 0, 0, time.UTC),
		},
	}))

	rec := httptest.NewRecorder()
	handler.GetDayLayout(rec, adminRequest("/api/admin/timeline?date=2024-03-20"))

	assert.Equal(t, http.StatusOK, rec.Code)
	var layout []UserColumn
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	require.Len(t, layout, 1)
}

func TestGetDayLayoutRejectsMalformedDate(t *testing.T) {
	handler, _ := handlerFixture(t, event.NewRepositoryStub())

	rec := httptest.NewRecorder()
	handler.GetDayLayout(rec, adminRequest("/api/admin/timeline?date=20-03-2024"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetDayLayoutForbiddenForRegularUser(t *testing.T) {
	handler, _ := handlerFixture(t, event.NewRepositoryStub())
	req := httptest.NewRequest("GET", "/api/admin/timeline", nil)
	req = req.WithContext(user.WithUser(req.Context(), user.User{Id: 2, Role: user.RoleUser}))

	rec := httptest.NewRecorder()
	handler.GetDayLayout(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
