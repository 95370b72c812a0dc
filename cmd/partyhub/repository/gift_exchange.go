package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/db"
)

// ExchangeTx is the set of reads and writes a gift-exchange transition performs
// inside one transaction.
type ExchangeTx interface {
	// LockOwner serializes transitions for one owner until the transaction ends
	LockOwner(ctx context.Context, ownerID int64) error
	// GetForUpdate returns the owner's record with a row lock, or nil when none exists
	GetForUpdate(ctx context.Context, ownerID int64) (*models.GiftExchange, error)
	// CountCandidates counts users whose id is not in exclude
	CountCandidates(ctx context.Context, exclude []int64) (int, error)
	// CandidateAt returns the offset-th candidate ordered by id
	CandidateAt(ctx context.Context, exclude []int64, offset int) (*models.User, error)
	// Upsert creates the record or overwrites target and status
	Upsert(ctx context.Context, ownerID, targetID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error)
	// UpdateTarget replaces the target of an existing record
	UpdateTarget(ctx context.Context, ownerID, targetID int64, at time.Time) (*models.GiftExchange, error)
	// UpdateStatus changes the status of an existing record
	UpdateStatus(ctx context.Context, ownerID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error)
	// GetUser loads a user inside the transaction
	GetUser(ctx context.Context, id int64) (*models.User, error)
}

// GiftExchangeRepository handles database operations for gift exchanges
type GiftExchangeRepository struct {
	db *db.DB
}

// NewGiftExchangeRepository creates a new gift exchange repository
func NewGiftExchangeRepository(db *db.DB) *GiftExchangeRepository {
	return &GiftExchangeRepository{db: db}
}

// exchangeLockSpace keeps exchange advisory locks apart from other lock users
const exchangeLockSpace = 0x67696674 // "gift"

const exchangeColumns = `id, user_id, target_user_id, status, version, created_at, updated_at`

func scanExchange(row pgx.Row) (*models.GiftExchange, error) {
	ex := &models.GiftExchange{}
	err := row.Scan(
		&ex.ID,
		&ex.UserID,
		&ex.TargetUserID,
		&ex.Status,
		&ex.Version,
		&ex.CreatedAt,
		&ex.UpdatedAt,
	)
	return ex, err
}

// RunInTx runs fn in a single transaction. Any error rolls back every write.
func (r *GiftExchangeRepository) RunInTx(ctx context.Context, fn func(tx ExchangeTx) error) error {
	return r.db.WithTx(ctx, func(tx pgx.Tx) error {
		return fn(&exchangeTx{tx: tx})
	})
}

// GetByOwner returns the owner's record, or nil when none exists
func (r *GiftExchangeRepository) GetByOwner(ctx context.Context, ownerID int64) (*models.GiftExchange, error) {
	ex, err := scanExchange(r.db.QueryRow(ctx,
		`SELECT `+exchangeColumns+` FROM gift_exchanges WHERE user_id = $1`, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get gift exchange: %w", err)
	}
	return ex, nil
}

// GetUser loads a user by id
func (r *GiftExchangeRepository) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, r.db, id)
}

// Summary lists every exchange with giver and receiver names, most recently updated first
func (r *GiftExchangeRepository) Summary(ctx context.Context) ([]models.ExchangeRow, error) {
	rows, err := r.db.Query(ctx, `
		SELECT g.name, g.player_number, t.name, t.player_number, x.status, x.updated_at
		FROM gift_exchanges x
		JOIN users g ON g.id = x.user_id
		LEFT JOIN users t ON t.id = x.target_user_id
		ORDER BY x.updated_at DESC, x.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift exchanges: %w", err)
	}
	defer rows.Close()

	out := make([]models.ExchangeRow, 0)
	for rows.Next() {
		var (
			row            models.ExchangeRow
			receiver       *string
			receiverNumber *string
		)
		if err := rows.Scan(&row.Giver, &row.GiverPlayerNumber, &receiver, &receiverNumber, &row.Status, &row.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan gift exchange: %w", err)
		}
		row.Receiver = models.ReceiverNotAssigned
		if receiver != nil {
			row.Receiver = *receiver
		}
		row.ReceiverPlayerNumber = models.ReceiverNumberNotAssigned
		if receiverNumber != nil {
			row.ReceiverPlayerNumber = *receiverNumber
		}
		out = append(out, row)
	}

	return out, rows.Err()
}

// CountByStatus aggregates exchanges by status
func (r *GiftExchangeRepository) CountByStatus(ctx context.Context) (models.ExchangeStats, error) {
	var stats models.ExchangeStats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'searching'),
		       COUNT(*) FILTER (WHERE status = 'completed')
		FROM gift_exchanges
	`).Scan(&stats.Total, &stats.Searching, &stats.Completed)
	if err != nil {
		return stats, fmt.Errorf("failed to count gift exchanges: %w", err)
	}
	return stats, nil
}

func getUser(ctx context.Context, q querier, id int64) (*models.User, error) {
	u, err := scanUser(q.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return u, nil
}

// exchangeTx implements ExchangeTx on a pgx transaction
type exchangeTx struct {
	tx pgx.Tx
}

func (t *exchangeTx) LockOwner(ctx context.Context, ownerID int64) error {
	// Two-key form: (lock space, owner). Owner ids are folded into int4.
	_, err := t.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1::INT, ($2::BIGINT % 2147483647)::INT)`,
		int32(exchangeLockSpace), ownerID)
	if err != nil {
		return fmt.Errorf("failed to lock gift exchange owner %d: %w", ownerID, err)
	}
	return nil
}

func (t *exchangeTx) GetForUpdate(ctx context.Context, ownerID int64) (*models.GiftExchange, error) {
	ex, err := scanExchange(t.tx.QueryRow(ctx,
		`SELECT `+exchangeColumns+` FROM gift_exchanges WHERE user_id = $1 FOR UPDATE`, ownerID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock gift exchange: %w", err)
	}
	return ex, nil
}

func (t *exchangeTx) CountCandidates(ctx context.Context, exclude []int64) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM users WHERE NOT (id = ANY($1))`, exclude).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count candidates: %w", err)
	}
	return n, nil
}

func (t *exchangeTx) CandidateAt(ctx context.Context, exclude []int64, offset int) (*models.User, error) {
	u, err := scanUser(t.tx.QueryRow(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE NOT (id = ANY($1))
		ORDER BY id ASC
		OFFSET $2 LIMIT 1
	`, exclude, offset))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNoCandidates
	}
	if err != nil {
		return nil, fmt.Errorf("failed to pick candidate: %w", err)
	}
	return u, nil
}

func (t *exchangeTx) Upsert(ctx context.Context, ownerID, targetID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error) {
	ex, err := scanExchange(t.tx.QueryRow(ctx, `
		INSERT INTO gift_exchanges (user_id, target_user_id, status, version, created_at, updated_at)
		VALUES ($1, $2, $3, 1, $4, $4)
		ON CONFLICT (user_id) DO UPDATE
		SET target_user_id = EXCLUDED.target_user_id,
		    status = EXCLUDED.status,
		    version = gift_exchanges.version + 1,
		    updated_at = EXCLUDED.updated_at
		RETURNING `+exchangeColumns,
		ownerID, targetID, status, at))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert gift exchange: %w", err)
	}
	return ex, nil
}

func (t *exchangeTx) UpdateTarget(ctx context.Context, ownerID, targetID int64, at time.Time) (*models.GiftExchange, error) {
	ex, err := scanExchange(t.tx.QueryRow(ctx, `
		UPDATE gift_exchanges
		SET target_user_id = $2, version = version + 1, updated_at = $3
		WHERE user_id = $1
		RETURNING `+exchangeColumns,
		ownerID, targetID, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotStarted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update gift exchange target: %w", err)
	}
	return ex, nil
}

func (t *exchangeTx) UpdateStatus(ctx context.Context, ownerID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error) {
	ex, err := scanExchange(t.tx.QueryRow(ctx, `
		UPDATE gift_exchanges
		SET status = $2, version = version + 1, updated_at = $3
		WHERE user_id = $1
		RETURNING `+exchangeColumns,
		ownerID, status, at))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrNotStarted
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update gift exchange status: %w", err)
	}
	return ex, nil
}

func (t *exchangeTx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return getUser(ctx, t.tx, id)
}
