package google

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/crewcal/crewcal/internal/config"
	"github.com/crewcal/crewcal/internal/rest"
	"github.com/crewcal/crewcal/pkg/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	goauth2 "google.golang.org/api/oauth2/v2"
	"google.golang.org/api/option"
)

type googleAuthRedirect struct {
	RedirectUrl string `json:"redirectUrl"`
}

// GoogleAuth handles the OAuth sign-in flow and stores the provider tokens
// per user. Sign-in doubles as user bootstrap: unknown identities are created
// with the role decided by the configured role policy.
type GoogleAuth struct {
	db          *pgxpool.Pool
	userService user.Service
	oauthConfig *oauth2.Config
}

func NewGoogleAuth(db *pgxpool.Pool, userService user.Service, cfg config.Application) *GoogleAuth {
	oauthConfig := &oauth2.Config{
		ClientID:     cfg.Google.ClientId,
		ClientSecret: cfg.Google.ClientSecret,
		Endpoint:     google.Endpoint,
		RedirectURL:  cfg.Host + "/api/auth/google/callback",
		Scopes: []string{
			gcal.CalendarReadonlyScope,
			goauth2.UserinfoEmailScope,
			goauth2.UserinfoProfileScope,
		},
	}

	return &GoogleAuth{db: db, userService: userService, oauthConfig: oauthConfig}
}

func (g *GoogleAuth) OAuthLogin(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	stateNonce := uuid.New().String()
	finalUrl := r.URL.Query().Get("finalUrl")

	// The nonce row is claimed by a user only after the callback succeeds.
	_, err := g.db.Exec(r.Context(), "INSERT INTO google_calendar_auth (nonce) VALUES ($1)", stateNonce)
	if err != nil {
		log.Errorf("failed to store Google auth nonce: %v", err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		return
	}

	log.Tracef("Redirecting to Google auth URL with nonce: %s", stateNonce)
	u := g.oauthConfig.AuthCodeURL(finalUrl+"|"+stateNonce, oauth2.AccessTypeOffline, oauth2.ApprovalForce)

	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(googleAuthRedirect{RedirectUrl: u}); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (g *GoogleAuth) OAuthCallback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	code := r.FormValue("code")
	state := r.FormValue("state")

	parts := strings.SplitN(state, "|", 2)
	if len(parts) != 2 {
		http.Error(w, "invalid state", http.StatusBadRequest)
		return
	}
	finalUrl := parts[0]
	nonce := parts[1]

	token, err := g.oauthConfig.Exchange(ctx, code)
	if err != nil {
		log.Errorf("unable to exchange code for token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	identity, err := g.fetchIdentity(ctx, token)
	if err != nil {
		log.Errorf("unable to fetch Google identity: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	signedInUser, err := g.userService.BootstrapUser(ctx, identity.Email, identity.Name)
	if err != nil {
		log.Errorf("unable to bootstrap user for %s: %v", identity.Email, err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	if err := g.storeToken(ctx, signedInUser.Id, nonce, token); err != nil {
		log.Errorf("unable to store Google auth token: %v", err)
		http.Redirect(w, r, finalUrl+"?success=false", http.StatusFound)
		return
	}

	log.Debugf("Successfully signed in user %s", signedInUser.Uid)
	http.Redirect(w, r, finalUrl+"?success=true&uid="+url.QueryEscape(signedInUser.Uid), http.StatusFound)
}

func (g *GoogleAuth) OAuthLogout(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	userId, err := user.CurrentId(r.Context())
	if err != nil {
		log.Error("unable to retrieve current user: ", err)
		http.Error(w, "unable to retrieve current user", http.StatusUnauthorized)
		return
	}
	_, err = g.db.Exec(r.Context(), "DELETE FROM google_calendar_auth WHERE user_id = $1", userId)
	if err != nil {
		log.Errorf("failed to delete Google auth row for user %d: %v", userId, err)
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(rest.ErrorResponse{
			Error: "Failed to handle Google authentication",
		})
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type identity struct {
	Email string
	Name  string
}

func (g *GoogleAuth) fetchIdentity(ctx context.Context, token *oauth2.Token) (identity, error) {
	svc, err := goauth2.NewService(ctx, option.WithTokenSource(g.oauthConfig.TokenSource(ctx, token)))
	if err != nil {
		return identity{}, fmt.Errorf("unable to create userinfo client: %w", err)
	}
	info, err := svc.Userinfo.Get().Context(ctx).Do()
	if err != nil {
		return identity{}, fmt.Errorf("unable to fetch userinfo: %w", err)
	}
	return identity{Email: info.Email, Name: info.Name}, nil
}

func (g *GoogleAuth) storeToken(ctx context.Context, userId int, nonce string, token *oauth2.Token) error {
	// One token row per user; the nonce row created at login becomes it.
	_, err := g.db.Exec(ctx, "DELETE FROM google_calendar_auth WHERE user_id = $1", userId)
	if err != nil {
		return err
	}
	result, err := g.db.Exec(ctx,
		"UPDATE google_calendar_auth SET user_id = $1, access_token = $2, refresh_token = $3, expiry = $4 WHERE nonce = $5",
		userId, token.AccessToken, token.RefreshToken, token.Expiry.Unix(), nonce)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("unknown auth nonce")
	}
	return nil
}

// Token returns the stored provider token for the user, or nil when the user
// has never completed the OAuth flow.
func (g *GoogleAuth) Token(ctx context.Context, userId int) (*oauth2.Token, error) {
	var token oauth2.Token
	var accessToken, refreshToken sql.NullString
	var expiryTimestamp sql.NullInt64
	err := g.db.QueryRow(ctx, "SELECT access_token, refresh_token, expiry FROM google_calendar_auth WHERE user_id = $1", userId).
		Scan(&accessToken, &refreshToken, &expiryTimestamp)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	} else if err != nil {
		return nil, fmt.Errorf("unable to retrieve Google auth token: %w", err)
	}
	if !accessToken.Valid {
		return nil, nil
	}

	token.AccessToken = accessToken.String
	token.RefreshToken = refreshToken.String
	if expiryTimestamp.Valid {
		token.Expiry = time.Unix(expiryTimestamp.Int64, 0)
	}
	return &token, nil
}

// httpClient returns an HTTP client that authenticates with the given token
// and refreshes it transparently when possible.
func (g *GoogleAuth) httpClient(ctx context.Context, token *oauth2.Token) *http.Client {
	return g.oauthConfig.Client(ctx, token)
}
