package repository

import (
	"context"
	"fmt"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/db"
)

// VoteRepository handles database operations for votes
type VoteRepository struct {
	db *db.DB
}

// NewVoteRepository creates a new vote repository
func NewVoteRepository(db *db.DB) *VoteRepository {
	return &VoteRepository{db: db}
}

// Insert records a vote. It returns false when the user already voted on the
// agenda; the unique constraint decides, so concurrent submits cannot both land.
func (r *VoteRepository) Insert(ctx context.Context, userID, agendaID, eventID int64) (bool, error) {
	query := `
		INSERT INTO votes (user_id, agenda_id, event_id)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT votes_user_agenda_key DO NOTHING
	`

	result, err := r.db.Exec(ctx, query, userID, agendaID, eventID)
	if err != nil {
		return false, fmt.Errorf("failed to insert vote: %w", err)
	}

	return result.RowsAffected() == 1, nil
}

// ListByUser returns the agenda/event pairs a user voted for
func (r *VoteRepository) ListByUser(ctx context.Context, userID int64) ([]models.VoteRef, error) {
	rows, err := r.db.Query(ctx, `
		SELECT agenda_id, event_id
		FROM votes
		WHERE user_id = $1
		ORDER BY agenda_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	defer rows.Close()

	votes := make([]models.VoteRef, 0)
	for rows.Next() {
		var v models.VoteRef
		if err := rows.Scan(&v.AgendaID, &v.EventID); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}

// ListDetailedByUser returns a user's votes with agenda and event names, newest first
func (r *VoteRepository) ListDetailedByUser(ctx context.Context, userID int64) ([]models.UserVote, error) {
	rows, err := r.db.Query(ctx, `
		SELECT v.id, v.agenda_id, a.name, v.event_id, e.name, v.created_at
		FROM votes v
		JOIN agendas a ON a.id = v.agenda_id
		JOIN events e ON e.id = v.event_id
		WHERE v.user_id = $1
		ORDER BY v.created_at DESC, v.id DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user votes: %w", err)
	}
	defer rows.Close()

	votes := make([]models.UserVote, 0)
	for rows.Next() {
		var v models.UserVote
		if err := rows.Scan(&v.ID, &v.AgendaID, &v.AgendaName, &v.EventID, &v.EventName, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan user vote: %w", err)
		}
		votes = append(votes, v)
	}

	return votes, rows.Err()
}
