package timeline

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewcal/crewcal/internal/rest"
	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/event"
	"github.com/crewcal/crewcal/pkg/user"
	log "github.com/sirupsen/logrus"
)

type Handler struct {
	events event.Service
	clock  utils.Clock
}

func NewHandler(events event.Service, clock utils.Clock) *Handler {
	return &Handler{events: events, clock: clock}
}

// GetDayLayout returns the positioned day view across all users for the date
// given as ?date=yyyy-mm-dd (defaulting to today, UTC). Admin only, enforced
// by the event service.
func (h *Handler) GetDayLayout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	day := h.clock.Now().UTC()
	if dateParam := r.URL.Query().Get("date"); dateParam != "" {
		parsed, err := time.Parse("2006-01-02", dateParam)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Invalid date", Details: "expected yyyy-mm-dd"})
			return
		}
		day = parsed
	}

	events, err := h.events.GetAllEvents(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, user.ErrNoUser):
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "No active session found"})
		case errors.Is(err, event.ErrForbidden):
			w.WriteHeader(http.StatusForbidden)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Admin role required"})
		default:
			log.Errorf("failed to load events for timeline: %v", err)
			w.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to load timeline"})
		}
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(DayLayout(events, day, DefaultSlotHeight)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
