package webhook

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/crewcal/crewcal/internal/event_bus"
	"github.com/crewcal/crewcal/internal/rest"
	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/user"
	log "github.com/sirupsen/logrus"
)

const (
	channelIdHeader     = "X-Goog-Channel-ID"
	resourceStateHeader = "X-Goog-Resource-State"
)

// Google delivers push notifications without credentials we control, so the
// endpoint answers with permissive CORS headers on every response.
var corsHeaders = map[string]string{
	"Access-Control-Allow-Origin":  "*",
	"Access-Control-Allow-Methods": "POST, OPTIONS",
	"Access-Control-Allow-Headers": "Content-Type, Authorization, X-Goog-Channel-ID, X-Goog-Resource-ID, X-Goog-Resource-State, X-Goog-Channel-Expiration, X-Goog-Channel-Token, X-Goog-Message-Number",
}

type notificationAck struct {
	Success       bool   `json:"success"`
	UserId        string `json:"userId"`
	ChannelId     string `json:"channelId"`
	ResourceState string `json:"resourceState,omitempty"`
	Timestamp     string `json:"timestamp"`
}

// Handler is the inbound endpoint Google POSTs change notifications to.
// It resolves the channel to a user and acknowledges; it does not trigger a
// re-sync itself. After the ack it publishes CalendarChangedEvent on the bus,
// which is where a re-sync would subscribe.
type Handler struct {
	users user.Service
	bus   *event_bus.EventBus
	clock utils.Clock
}

func NewHandler(users user.Service, bus *event_bus.EventBus, clock utils.Clock) *Handler {
	return &Handler{users: users, bus: bus, clock: clock}
}

// Preflight answers the CORS preflight request.
func (h *Handler) Preflight(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// Notify handles a provider push notification. The push protocol carries all
// meaning in headers; the body is ignored.
func (h *Handler) Notify(w http.ResponseWriter, r *http.Request) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")

	channelId := r.Header.Get(channelIdHeader)
	resourceState := r.Header.Get(resourceStateHeader)

	if channelId == "" {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Missing channel ID"})
		return
	}

	notifiedUser, err := h.users.GetUserByWebhookChannel(r.Context(), channelId)
	if errors.Is(err, user.ErrUserNotFound) {
		// Unknown channel: possibly stale or revoked.
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "User not found"})
		return
	} else if err != nil {
		log.Errorf("webhook channel lookup failed: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Internal server error"})
		return
	}

	w.WriteHeader(http.StatusOK)
	ack := notificationAck{
		Success:       true,
		UserId:        notifiedUser.Uid,
		ChannelId:     channelId,
		ResourceState: resourceState,
		Timestamp:     h.clock.Now().UTC().Format(time.RFC3339),
	}
	if err := json.NewEncoder(w).Encode(ack); err != nil {
		log.Errorf("failed to encode webhook ack: %v", err)
		return
	}

	if h.bus != nil {
		err := h.bus.Publish(event_bus.NewEvent(r.Context(), event_bus.CalendarChangedEvent, event_bus.CalendarChanged{
			UserId:        notifiedUser.Id,
			UserUid:       notifiedUser.Uid,
			ChannelId:     channelId,
			ResourceState: resourceState,
		}))
		if err != nil {
			log.Warnf("calendar changed event delivery failed: %v", err)
		}
	}
}

func setCORSHeaders(w http.ResponseWriter) {
	for key, value := range corsHeaders {
		w.Header().Set(key, value)
	}
}
