package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/db"
)

// querier is satisfied by both the pool and a transaction
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// EventRepository handles database operations for events
type EventRepository struct {
	db *db.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *db.DB) *EventRepository {
	return &EventRepository{db: db}
}

const eventSelect = `
	SELECT e.id, e.agenda_id, a.name, e.name, e.description, e.sort_order,
	       e.created_at, e.updated_at,
	       (SELECT COUNT(*) FROM votes v WHERE v.event_id = e.id) AS votes
	FROM events e
	JOIN agendas a ON a.id = e.agenda_id
`

func scanEvent(row pgx.Row) (*models.Event, error) {
	ev := &models.Event{}
	err := row.Scan(
		&ev.ID,
		&ev.AgendaID,
		&ev.AgendaName,
		&ev.Name,
		&ev.Description,
		&ev.SortOrder,
		&ev.CreatedAt,
		&ev.UpdatedAt,
		&ev.Count.Votes,
	)
	return ev, err
}

func listEvents(ctx context.Context, q querier, agendaID *int64) ([]*models.Event, error) {
	query := eventSelect + `
		WHERE $1::BIGINT IS NULL OR e.agenda_id = $1
		ORDER BY a.sort_order ASC, a.id ASC, e.sort_order ASC, e.id ASC
	`

	rows, err := q.Query(ctx, query, agendaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	defer rows.Close()

	events := make([]*models.Event, 0)
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		events = append(events, ev)
	}

	return events, rows.Err()
}

// List returns events with agenda names and vote counts, optionally for one agenda
func (r *EventRepository) List(ctx context.Context, agendaID *int64) ([]*models.Event, error) {
	return listEvents(ctx, r.db, agendaID)
}

// Get retrieves an event by id
func (r *EventRepository) Get(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := scanEvent(r.db.QueryRow(ctx, eventSelect+` WHERE e.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}

	return ev, nil
}

// Create inserts a new event under an existing agenda
func (r *EventRepository) Create(ctx context.Context, in models.EventInput) (*models.Event, error) {
	query := `
		INSERT INTO events (agenda_id, name, description, sort_order)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`

	var id int64
	err := r.db.QueryRow(ctx, query, in.AgendaID, in.Name, in.Description, in.SortOrder).Scan(&id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, models.ErrAgendaNotFound
		}
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return r.Get(ctx, id)
}

// Delete removes an event and its votes
func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrEventNotFound
	}

	return nil
}
