package app

import (
	"github.com/crewcal/crewcal/internal/config"
	"github.com/crewcal/crewcal/internal/event_bus"
	"github.com/crewcal/crewcal/internal/utils"
	"github.com/crewcal/crewcal/pkg/event"
	"github.com/crewcal/crewcal/pkg/google"
	"github.com/crewcal/crewcal/pkg/sync"
	"github.com/crewcal/crewcal/pkg/timeline"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/crewcal/crewcal/pkg/webhook"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	UserService user.Service
	UserHandler *user.Handler

	GoogleAuth   *google.GoogleAuth
	GoogleClient google.Client

	EventService event.Service
	EventHandler *event.Handler

	WebhookRegistry webhook.Registry
	WebhookHandler  *webhook.Handler

	SyncService sync.Service
	SyncHandler *sync.Handler

	TimelineHandler *timeline.Handler

	EventBus *event_bus.EventBus
	Clock    utils.Clock
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = &utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db), user.StaticAdminPolicy(cfg.Admin.Email))
	deps.UserHandler = user.NewHandler(deps.UserService)

	deps.GoogleAuth = google.NewGoogleAuth(db, deps.UserService, cfg)
	deps.GoogleClient = google.NewClient(deps.GoogleAuth)

	deps.EventService = event.NewService(event.NewRepository(db))
	deps.EventHandler = event.NewHandler(deps.EventService)

	deps.WebhookRegistry = webhook.NewRegistry(deps.UserService, deps.GoogleClient, deps.Clock, cfg.CallbackAddress())
	deps.WebhookHandler = webhook.NewHandler(deps.UserService, deps.EventBus, deps.Clock)

	deps.SyncService = sync.NewService(deps.WebhookRegistry, deps.GoogleClient, deps.EventService, deps.Clock)
	deps.SyncHandler = sync.NewHandler(deps.SyncService, deps.GoogleAuth)

	deps.TimelineHandler = timeline.NewHandler(deps.EventService, deps.Clock)

	// Change notifications are acknowledged by the webhook handler; for now
	// the subscriber only records them.
	deps.EventBus.Subscribe(event_bus.CalendarChangedEvent, func(e event_bus.Event) error {
		if change, ok := e.Data.(event_bus.CalendarChanged); ok {
			log.Infof("calendar changed for user %s (state %s)", change.UserUid, change.ResourceState)
		}
		return nil
	})

	return deps
}
