package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewcal/crewcal/internal/rest"
	log "github.com/sirupsen/logrus"
)

type UserDTO struct {
	Uid           string     `json:"uid"`
	Email         string     `json:"email"`
	DisplayName   string     `json:"displayName,omitempty"`
	Role          string     `json:"role"`
	CalendarId    string     `json:"calendarId"`
	WebhookExpiry *time.Time `json:"webhookExpiry,omitempty"`
}

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// CurrentUser returns the authenticated user's profile.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	currentUser, err := h.service.GetCurrentUser(r.Context())
	if err != nil {
		if errors.Is(err, ErrNoUser) {
			w.WriteHeader(http.StatusUnauthorized)
			_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "No active session found"})
			return
		}
		log.Errorf("failed to get current user: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to load user"})
		return
	}

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(toUserDTO(currentUser)); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func toUserDTO(u User) UserDTO {
	dto := UserDTO{
		Uid:         u.Uid,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		CalendarId:  u.EffectiveCalendarId(),
	}
	if !u.Webhook.Expiry.IsZero() {
		expiry := u.Webhook.Expiry
		dto.WebhookExpiry = &expiry
	}
	return dto
}
