package user

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

var ErrUserNotFound = errors.New("user not found")

type Repo interface {
	CreateUser(ctx context.Context, user User) (int, error)
	GetUser(ctx context.Context, id int) (User, error)
	GetUserByUid(ctx context.Context, uid string) (User, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
	GetUserByWebhookChannel(ctx context.Context, channelId string) (User, error)
	GetAllUsers(ctx context.Context) ([]User, error)
	UpdateWebhookSubscription(ctx context.Context, userId int, calendarId string, channelId string, expiry time.Time) error
}

type UserRepoImpl struct {
	db *pgxpool.Pool
}

func NewUserRepo(db *pgxpool.Pool) *UserRepoImpl {
	return &UserRepoImpl{db: db}
}

const userColumns = `id, uid, email, display_name, role, calendar_id, webhook_channel_id, webhook_expiry`

func (u *UserRepoImpl) CreateUser(ctx context.Context, user User) (int, error) {
	calendarId := user.CalendarId
	if calendarId == "" {
		calendarId = DefaultCalendarId
	}
	query := `INSERT INTO users (uid, email, display_name, role, calendar_id) VALUES ($1, $2, $3, $4, $5) RETURNING id`
	var id int
	err := u.db.QueryRow(ctx, query,
		user.Uid,
		user.Email,
		user.DisplayName,
		user.Role,
		calendarId,
	).Scan(&id)
	if err != nil {
		log.Errorf("failed to create user: %v", err)
		return 0, err
	}
	return id, nil
}

func scanUser(row pgx.Row) (User, error) {
	var user User
	var displayName sql.NullString
	var channelId sql.NullString
	var expiry sql.NullTime
	err := row.Scan(
		&user.Id,
		&user.Uid,
		&user.Email,
		&displayName,
		&user.Role,
		&user.CalendarId,
		&channelId,
		&expiry,
	)
	if err != nil {
		return User{}, err
	}
	user.DisplayName = displayName.String
	user.Webhook.ChannelId = channelId.String
	if expiry.Valid {
		user.Webhook.Expiry = expiry.Time
	}
	return user, nil
}

func (u *UserRepoImpl) GetUser(ctx context.Context, id int) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with id %d not found", id)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByUid(ctx context.Context, uid string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE uid = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, uid))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Infof("user with uid %s not found", uid)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByEmail(ctx context.Context, email string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, email))
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user by email: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetUserByWebhookChannel(ctx context.Context, channelId string) (User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE webhook_channel_id = $1`
	user, err := scanUser(u.db.QueryRow(ctx, query, channelId))
	if errors.Is(err, pgx.ErrNoRows) {
		log.Debugf("no user for webhook channel %s", channelId)
		return User{}, ErrUserNotFound
	} else if err != nil {
		log.Errorf("failed to get user by webhook channel: %v", err)
		return User{}, err
	}
	return user, nil
}

func (u *UserRepoImpl) GetAllUsers(ctx context.Context) ([]User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`
	rows, err := u.db.Query(ctx, query)
	if err != nil {
		log.Errorf("failed to get users: %v", err)
		return nil, err
	}
	defer rows.Close()
	users := make([]User, 0, 10)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			log.Errorf("failed to scan user: %v", err)
			return nil, err
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		log.Errorf("error iterating over rows: %v", err)
		return nil, err
	}
	return users, nil
}

// UpdateWebhookSubscription persists calendar id, channel id and expiry in a
// single statement so a registered channel is never stored partially.
func (u *UserRepoImpl) UpdateWebhookSubscription(ctx context.Context, userId int, calendarId string, channelId string, expiry time.Time) error {
	query := `UPDATE users SET calendar_id = $1, webhook_channel_id = $2, webhook_expiry = $3 WHERE id = $4`
	result, err := u.db.Exec(ctx, query, calendarId, channelId, expiry, userId)
	if err != nil {
		log.Errorf("failed to update webhook subscription for user %d: %v", userId, err)
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}
