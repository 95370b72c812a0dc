package service

import (
	"context"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/repository"
)

// Storage seams. The repository package provides the Postgres implementations;
// tests substitute in-memory fakes.

// UserStore persists participants
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetBySessionToken(ctx context.Context, token string) (*models.User, error)
	PlayerNumberExists(ctx context.Context, playerNumber string) (bool, error)
	SessionTokenExists(ctx context.Context, token string) (bool, error)
	Count(ctx context.Context) (int, error)
	List(ctx context.Context, q models.UserQuery) ([]models.UserSummary, error)
}

// AgendaStore persists agendas
type AgendaStore interface {
	List(ctx context.Context) ([]*models.Agenda, error)
	Get(ctx context.Context, id int64) (*models.Agenda, error)
	Exists(ctx context.Context, id int64) (bool, error)
	Create(ctx context.Context, in models.AgendaInput) (*models.Agenda, error)
	Update(ctx context.Context, id int64, in models.AgendaInput) error
	Delete(ctx context.Context, id int64) error
}

// EventStore persists events
type EventStore interface {
	List(ctx context.Context, agendaID *int64) ([]*models.Event, error)
	Get(ctx context.Context, id int64) (*models.Event, error)
	Create(ctx context.Context, in models.EventInput) (*models.Event, error)
	Delete(ctx context.Context, id int64) error
}

// VoteStore persists votes
type VoteStore interface {
	Insert(ctx context.Context, userID, agendaID, eventID int64) (bool, error)
	ListByUser(ctx context.Context, userID int64) ([]models.VoteRef, error)
	ListDetailedByUser(ctx context.Context, userID int64) ([]models.UserVote, error)
}

// ExchangeStore persists gift-exchange assignments
type ExchangeStore interface {
	RunInTx(ctx context.Context, fn func(tx repository.ExchangeTx) error) error
	GetByOwner(ctx context.Context, ownerID int64) (*models.GiftExchange, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	Summary(ctx context.Context) ([]models.ExchangeRow, error)
	CountByStatus(ctx context.Context) (models.ExchangeStats, error)
}

var (
	_ UserStore     = (*repository.UserRepository)(nil)
	_ AgendaStore   = (*repository.AgendaRepository)(nil)
	_ EventStore    = (*repository.EventRepository)(nil)
	_ VoteStore     = (*repository.VoteRepository)(nil)
	_ ExchangeStore = (*repository.GiftExchangeRepository)(nil)
)
