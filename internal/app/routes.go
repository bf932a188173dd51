package app

import (
	"github.com/crewcal/crewcal/internal/config"
	"github.com/gorilla/mux"
)

// RegisterRoutes registers all API endpoints.
func RegisterRoutes(r *mux.Router, deps *Dependencies, cfg config.Application) {

	// Google sign-in
	r.HandleFunc("/api/auth/google/login", deps.GoogleAuth.OAuthLogin).Methods("GET")
	r.HandleFunc("/api/auth/google/callback", deps.GoogleAuth.OAuthCallback).Methods("GET")
	r.HandleFunc("/api/auth/google/logout", deps.GoogleAuth.OAuthLogout).Methods("DELETE")

	// User management
	r.HandleFunc("/api/user/current", deps.UserHandler.CurrentUser).Methods("GET")

	// Calendar sync
	r.HandleFunc("/api/sync", deps.SyncHandler.Sync).Methods("POST")

	// Synced events
	r.HandleFunc("/api/event", deps.EventHandler.GetEvents).Methods("GET")
	r.HandleFunc("/api/event/export.ics", deps.EventHandler.ExportICS).Methods("GET")

	// Admin views
	r.HandleFunc("/api/admin/event", deps.EventHandler.GetAllEvents).Methods("GET")
	r.HandleFunc("/api/admin/timeline", deps.TimelineHandler.GetDayLayout).Methods("GET")

	// Google push notifications
	r.HandleFunc("/api/webhook/google", deps.WebhookHandler.Notify).Methods("POST")
	r.HandleFunc("/api/webhook/google", deps.WebhookHandler.Preflight).Methods("OPTIONS")
}
