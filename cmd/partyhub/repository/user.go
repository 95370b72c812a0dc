package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/db"
)

// ErrDuplicate wraps unique-constraint violations on insert
var ErrDuplicate = errors.New("duplicate value")

// UserRepository handles database operations for participants
type UserRepository struct {
	db *db.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *db.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, player_number, name, department, session_token, created_at`

func scanUser(row pgx.Row) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID,
		&u.PlayerNumber,
		&u.Name,
		&u.Department,
		&u.SessionToken,
		&u.CreatedAt,
	)
	return u, err
}

// Create inserts a new user. A clash on player number or session token
// returns an error wrapping ErrDuplicate.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (player_number, name, department, session_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.PlayerNumber,
		user.Name,
		user.Department,
		user.SessionToken,
	).Scan(&user.ID, &user.CreatedAt)

	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("failed to create user: %w", ErrDuplicate)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by id
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetBySessionToken resolves a session token to its user
func (r *UserRepository) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE session_token = $1`

	u, err := scanUser(r.db.QueryRow(ctx, query, token))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by session: %w", err)
	}

	return u, nil
}

// PlayerNumberExists reports whether a player number is taken
func (r *UserRepository) PlayerNumberExists(ctx context.Context, playerNumber string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE player_number = $1)`,
		playerNumber,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check player number: %w", err)
	}
	return exists, nil
}

// SessionTokenExists reports whether a session token is taken
func (r *UserRepository) SessionTokenExists(ctx context.Context, token string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE session_token = $1)`,
		token,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check session token: %w", err)
	}
	return exists, nil
}

// Count returns the number of registered users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return n, nil
}

// List returns the newest users with their vote counts.
// Search matches name or player number, case-insensitively.
func (r *UserRepository) List(ctx context.Context, q models.UserQuery) ([]models.UserSummary, error) {
	query := `
		SELECT u.id, u.player_number, u.name, u.department, u.created_at,
		       (SELECT COUNT(*) FROM votes v WHERE v.user_id = u.id) AS vote_count
		FROM users u
		WHERE $1 = '' OR u.name ILIKE '%' || $1 || '%' OR u.player_number ILIKE '%' || $1 || '%'
		ORDER BY u.created_at DESC, u.id DESC
		LIMIT $2
	`

	rows, err := r.db.Query(ctx, query, q.Search, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := make([]models.UserSummary, 0)
	for rows.Next() {
		var u models.UserSummary
		if err := rows.Scan(
			&u.ID,
			&u.PlayerNumber,
			&u.Name,
			&u.Department,
			&u.CreatedAt,
			&u.VoteCount,
		); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}

	return users, rows.Err()
}
