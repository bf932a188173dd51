package event

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

type Repository interface {
	// ReplaceForUser deletes all stored events of the user and inserts the
	// given set in a single transaction, so a failed sync never leaves the
	// user's calendar half-written.
	ReplaceForUser(ctx context.Context, userId int, events []CalendarEvent) error
	ListForUser(ctx context.Context, userId int) ([]CalendarEvent, error)
	// ListAll returns every user's events with the owner's display name, for
	// the admin composite view.
	ListAll(ctx context.Context) ([]CalendarEvent, error)
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) ReplaceForUser(ctx context.Context, userId int, events []CalendarEvent) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `DELETE FROM calendar_events WHERE user_id = $1`, userId)
	if err != nil {
		err := fmt.Errorf("could not delete events for user %d: %w", userId, err)
		log.Error(err)
		return err
	}

	const insert = `INSERT INTO calendar_events (id, user_id, email, title, start_time, end_time)
					VALUES ($1, $2, $3, $4, $5, $6)`
	for _, event := range events {
		id := event.Id
		if id == uuid.Nil {
			id = uuid.New()
		}
		_, err = tx.Exec(ctx, insert, id, userId, event.Email, event.Title, event.StartTime, event.EndTime)
		if err != nil {
			err := fmt.Errorf("could not insert event: %w", err)
			log.Error(err)
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (r *RepositoryImpl) ListForUser(ctx context.Context, userId int) ([]CalendarEvent, error) {
	query := `SELECT id, user_id, email, title, start_time, end_time
			  FROM calendar_events
			  WHERE user_id = $1
			  ORDER BY start_time`

	rows, err := r.db.Query(ctx, query, userId)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]CalendarEvent, 0, 10)
	for rows.Next() {
		var event CalendarEvent
		err := rows.Scan(&event.Id, &event.UserId, &event.Email, &event.Title, &event.StartTime, &event.EndTime)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}

func (r *RepositoryImpl) ListAll(ctx context.Context) ([]CalendarEvent, error) {
	query := `SELECT e.id, e.user_id, e.email, e.title, e.start_time, e.end_time, u.display_name
			  FROM calendar_events e
			  JOIN users u ON u.id = e.user_id
			  ORDER BY e.start_time`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not query calendar events: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	events := make([]CalendarEvent, 0, 10)
	for rows.Next() {
		var event CalendarEvent
		var userName sql.NullString
		err := rows.Scan(&event.Id, &event.UserId, &event.Email, &event.Title, &event.StartTime, &event.EndTime, &userName)
		if err != nil {
			err := fmt.Errorf("could not scan row: %w", err)
			log.Error(err)
			return nil, err
		}
		event.UserName = userName.String
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return events, nil
}
