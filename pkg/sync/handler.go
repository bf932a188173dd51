package sync

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crewcal/crewcal/internal/rest"
	"github.com/crewcal/crewcal/pkg/user"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

// TokenProvider looks up the stored Google OAuth token for a user.
// Implemented by google.GoogleAuth.
type TokenProvider interface {
	Token(ctx context.Context, userId int) (*oauth2.Token, error)
}

type Handler struct {
	service Service
	tokens  TokenProvider
}

func NewHandler(service Service, tokens TokenProvider) *Handler {
	return &Handler{service: service, tokens: tokens}
}

// Sync triggers a full synchronization of the current user's calendar.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	currentUser, err := user.CurrentUser(ctx)
	if err != nil {
		writeSyncError(w, ErrNoSession)
		return
	}

	token, err := h.tokens.Token(ctx, currentUser.Id)
	if err != nil {
		log.Errorf("failed to load token for user %d: %v", currentUser.Id, err)
		writeSyncError(w, err)
		return
	}
	if token == nil {
		writeSyncError(w, ErrNoToken)
		return
	}

	if err := h.service.SyncEvents(ctx, Session{User: currentUser, Token: token}); err != nil {
		log.Errorf("sync failed for user %d: %v", currentUser.Id, err)
		writeSyncError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func writeSyncError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	switch {
	case errors.Is(err, ErrNoSession):
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "No active session found"})
	case errors.Is(err, ErrNoToken):
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Google account is not connected"})
	case errors.Is(err, ErrNoEmail):
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "No email address on record"})
	case errors.Is(err, ErrProviderFetch), errors.Is(err, ErrWebhookRegistration):
		w.WriteHeader(http.StatusBadGateway)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to load events. Please try refreshing."})
	default:
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{Error: "Failed to synchronize calendar"})
	}
}
