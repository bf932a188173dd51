package event

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewcal/crewcal/internal/rest"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/emersion/go-ical"
	log "github.com/sirupsen/logrus"
)

type EventDTO struct {
	Id        string    `json:"id"`
	Email     string    `json:"email"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	UserName  string    `json:"userName,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// GetEvents returns the current user's synced events.
func (h *Handler) GetEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events, err := h.service.GetOwnEvents(r.Context())
	if err != nil {
		writeEventsError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toEventDTOs(events)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// GetAllEvents returns the composite view across all users. Admin only.
func (h *Handler) GetAllEvents(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	events, err := h.service.GetAllEvents(r.Context())
	if err != nil {
		writeEventsError(w, err)
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toEventDTOs(events)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// ExportICS renders the current user's events as an iCalendar feed.
func (h *Handler) ExportICS(w http.ResponseWriter, r *http.Request) {
	events, err := h.service.GetOwnEvents(r.Context())
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		writeEventsError(w, err)
		return
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, "-//crewcal//EN")
	for _, event := range events {
		ve := ical.NewComponent(ical.CompEvent)
		ve.Props.SetText(ical.PropUID, event.Id.String())
		ve.Props.SetText(ical.PropSummary, event.Title)
		ve.Props.SetDateTime(ical.PropDateTimeStamp, time.Now().UTC())
		ve.Props.SetDateTime(ical.PropDateTimeStart, event.StartTime)
		ve.Props.SetDateTime(ical.PropDateTimeEnd, event.EndTime)
		cal.Children = append(cal.Children, ve)
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Content-Disposition", `attachment; filename="crewcal.ics"`)
	if err := ical.NewEncoder(w).Encode(cal); err != nil {
		log.Errorf("failed to encode iCalendar feed: %v", err)
		http.Error(w, "failed to encode calendar", http.StatusInternalServerError)
	}
}

func writeEventsError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, user.ErrNoUser):
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "No active session found"})
	case errors.Is(err, ErrForbidden):
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Admin role required"})
	default:
		log.Errorf("failed to load events: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to load events. Please try refreshing."})
	}
}

func toEventDTOs(events []CalendarEvent) []EventDTO {
	dtos := make([]EventDTO, 0, len(events))
	for _, event := range events {
		dtos = append(dtos, toEventDTO(event))
	}
	return dtos
}

func toEventDTO(e CalendarEvent) EventDTO {
	return EventDTO{
		Id:        e.Id.String(),
		Email:     e.Email,
		Title:     e.Title,
		StartTime: e.StartTime,
		EndTime:   e.EndTime,
		UserName:  e.UserName,
	}
}
