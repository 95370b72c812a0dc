package repository

import (
	"context"
	"testing"
	"time"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGiftExchangeRepository_Transitions(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	repo := NewGiftExchangeRepository(database)
	ctx := context.Background()

	a := createUser(t, users, "101", "A")
	b := createUser(t, users, "102", "B")
	c := createUser(t, users, "103", "C")

	missing, err := repo.GetByOwner(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)

	at := time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC)

	err = repo.RunInTx(ctx, func(tx ExchangeTx) error {
		require.NoError(t, tx.LockOwner(ctx, a.ID))

		ex, err := tx.GetForUpdate(ctx, a.ID)
		require.NoError(t, err)
		assert.Nil(t, ex)

		n, err := tx.CountCandidates(ctx, []int64{a.ID})
		require.NoError(t, err)
		assert.Equal(t, 2, n)

		first, err := tx.CandidateAt(ctx, []int64{a.ID}, 0)
		require.NoError(t, err)
		assert.Equal(t, b.ID, first.ID)

		second, err := tx.CandidateAt(ctx, []int64{a.ID}, 1)
		require.NoError(t, err)
		assert.Equal(t, c.ID, second.ID)

		_, err = tx.CandidateAt(ctx, []int64{a.ID}, 2)
		assert.ErrorIs(t, err, models.ErrNoCandidates)

		ex, err = tx.Upsert(ctx, a.ID, b.ID, models.ExchangeSearching, at)
		require.NoError(t, err)
		assert.Equal(t, int64(1), ex.Version)
		return nil
	})
	require.NoError(t, err)

	err = repo.RunInTx(ctx, func(tx ExchangeTx) error {
		ex, err := tx.UpdateTarget(ctx, a.ID, c.ID, at.Add(time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(2), ex.Version)
		require.NotNil(t, ex.TargetUserID)
		assert.Equal(t, c.ID, *ex.TargetUserID)

		ex, err = tx.UpdateStatus(ctx, a.ID, models.ExchangeCompleted, at.Add(2*time.Minute))
		require.NoError(t, err)
		assert.Equal(t, int64(3), ex.Version)
		return nil
	})
	require.NoError(t, err)

	stats, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.ExchangeStats{Total: 1, Completed: 1}, stats)

	rows, err := repo.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Giver)
	assert.Equal(t, "C", rows[0].Receiver)
	assert.Equal(t, "103", rows[0].ReceiverPlayerNumber)
}

func TestGiftExchangeRepository_RollbackOnError(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	repo := NewGiftExchangeRepository(database)
	ctx := context.Background()

	a := createUser(t, users, "101", "A")
	b := createUser(t, users, "102", "B")

	err := repo.RunInTx(ctx, func(tx ExchangeTx) error {
		_, err := tx.Upsert(ctx, a.ID, b.ID, models.ExchangeSearching, time.Now())
		require.NoError(t, err)
		return models.ErrInvalidState
	})
	assert.ErrorIs(t, err, models.ErrInvalidState)

	ex, err := repo.GetByOwner(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, ex, "failed transitions leave no partial write")
}

func TestGiftExchangeRepository_SelfAssignmentRejected(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	repo := NewGiftExchangeRepository(database)
	ctx := context.Background()

	a := createUser(t, users, "101", "A")

	err := repo.RunInTx(ctx, func(tx ExchangeTx) error {
		_, err := tx.Upsert(ctx, a.ID, a.ID, models.ExchangeSearching, time.Now())
		return err
	})
	assert.Error(t, err)
}

func TestGiftExchangeRepository_SummaryWithoutReceiver(t *testing.T) {
	database := setupTestDB(t)
	users := NewUserRepository(database)
	repo := NewGiftExchangeRepository(database)
	ctx := context.Background()

	a := createUser(t, users, "101", "A")
	b := createUser(t, users, "102", "B")

	require.NoError(t, repo.RunInTx(ctx, func(tx ExchangeTx) error {
		_, err := tx.Upsert(ctx, a.ID, b.ID, models.ExchangeSearching, time.Now())
		return err
	}))

	// Deleting the receiver nulls the target
	_, err := database.Exec(ctx, `DELETE FROM users WHERE id = $1`, b.ID)
	require.NoError(t, err)

	rows, err := repo.Summary(ctx)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, models.ReceiverNotAssigned, rows[0].Receiver)
	assert.Equal(t, models.ReceiverNumberNotAssigned, rows[0].ReceiverPlayerNumber)
}
