package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/db"
)

// AgendaRepository handles database operations for agendas
type AgendaRepository struct {
	db *db.DB
}

// NewAgendaRepository creates a new agenda repository
func NewAgendaRepository(db *db.DB) *AgendaRepository {
	return &AgendaRepository{db: db}
}

// List returns every agenda with its events and their vote counts
func (r *AgendaRepository) List(ctx context.Context) ([]*models.Agenda, error) {
	query := `
		SELECT id, name, description, sort_order, created_at, updated_at
		FROM agendas
		ORDER BY sort_order ASC, id ASC
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list agendas: %w", err)
	}
	defer rows.Close()

	agendas := make([]*models.Agenda, 0)
	byID := make(map[int64]*models.Agenda)
	for rows.Next() {
		a := &models.Agenda{Events: make([]*models.Event, 0)}
		if err := rows.Scan(&a.ID, &a.Name, &a.Description, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan agenda: %w", err)
		}
		agendas = append(agendas, a)
		byID[a.ID] = a
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list agendas: %w", err)
	}

	events, err := listEvents(ctx, r.db, nil)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		if a, ok := byID[ev.AgendaID]; ok {
			ev.AgendaName = ""
			a.Events = append(a.Events, ev)
		}
	}

	return agendas, nil
}

// Get retrieves one agenda with its events
func (r *AgendaRepository) Get(ctx context.Context, id int64) (*models.Agenda, error) {
	query := `
		SELECT id, name, description, sort_order, created_at, updated_at
		FROM agendas
		WHERE id = $1
	`

	a := &models.Agenda{}
	err := r.db.QueryRow(ctx, query, id).Scan(&a.ID, &a.Name, &a.Description, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrAgendaNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agenda: %w", err)
	}

	events, err := listEvents(ctx, r.db, &id)
	if err != nil {
		return nil, err
	}
	for _, ev := range events {
		ev.AgendaName = ""
	}
	a.Events = events

	return a, nil
}

// Exists reports whether an agenda exists
func (r *AgendaRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM agendas WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check agenda: %w", err)
	}
	return exists, nil
}

// Create inserts a new agenda
func (r *AgendaRepository) Create(ctx context.Context, in models.AgendaInput) (*models.Agenda, error) {
	query := `
		INSERT INTO agendas (name, description, sort_order)
		VALUES ($1, $2, $3)
		RETURNING id, name, description, sort_order, created_at, updated_at
	`

	a := &models.Agenda{Events: make([]*models.Event, 0)}
	err := r.db.QueryRow(ctx, query, in.Name, in.Description, in.SortOrder).
		Scan(&a.ID, &a.Name, &a.Description, &a.SortOrder, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create agenda: %w", err)
	}

	return a, nil
}

// Update replaces the writable fields of an agenda
func (r *AgendaRepository) Update(ctx context.Context, id int64, in models.AgendaInput) error {
	query := `
		UPDATE agendas
		SET name = $2, description = $3, sort_order = $4, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(ctx, query, id, in.Name, in.Description, in.SortOrder)
	if err != nil {
		return fmt.Errorf("failed to update agenda: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAgendaNotFound
	}

	return nil
}

// Delete removes an agenda. Events and votes cascade.
func (r *AgendaRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM agendas WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete agenda: %w", err)
	}
	if result.RowsAffected() == 0 {
		return models.ErrAgendaNotFound
	}

	return nil
}

// Seed inserts an agenda with a fixed id and its events in one transaction.
// An agenda that already exists is left untouched and reported as not inserted.
func (r *AgendaRepository) Seed(ctx context.Context, id int64, in models.AgendaInput, events []models.EventInput) (bool, error) {
	inserted := false

	err := r.db.WithTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			INSERT INTO agendas (id, name, description, sort_order)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (id) DO NOTHING
		`, id, in.Name, in.Description, in.SortOrder)
		if err != nil {
			return fmt.Errorf("failed to seed agenda %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return nil
		}
		inserted = true

		for _, ev := range events {
			if _, err := tx.Exec(ctx, `
				INSERT INTO events (agenda_id, name, description, sort_order)
				VALUES ($1, $2, $3, $4)
			`, id, ev.Name, ev.Description, ev.SortOrder); err != nil {
				return fmt.Errorf("failed to seed event %q: %w", ev.Name, err)
			}
		}

		// Explicit ids bypass the sequence; move it past them.
		_, err = tx.Exec(ctx, `
			SELECT setval(pg_get_serial_sequence('agendas', 'id'), (SELECT MAX(id) FROM agendas))
		`)
		if err != nil {
			return fmt.Errorf("failed to advance agenda sequence: %w", err)
		}
		return nil
	})

	return inserted, err
}
