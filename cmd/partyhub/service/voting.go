package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/cache"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
)

const agendasCacheKey = "agendas:list"

// VotingService lists agendas and records one vote per participant per agenda
type VotingService struct {
	agendas  AgendaStore
	events   EventStore
	votes    VoteStore
	listing  *cache.Guard
	metrics  *metrics.PartyMetrics
	log      *logger.Logger
}

// NewVotingService creates a new voting service. c and m may be nil.
func NewVotingService(agendas AgendaStore, events EventStore, votes VoteStore, c cache.Cache, cacheTTL time.Duration, m *metrics.PartyMetrics, log *logger.Logger) *VotingService {
	return &VotingService{
		agendas:  agendas,
		events:   events,
		votes:    votes,
		listing:  cache.NewGuard(c, agendasCacheKey, cacheTTL),
		metrics:  m,
		log:      log,
	}
}

// ListAgendas returns every agenda with its events and live vote counts
func (s *VotingService) ListAgendas(ctx context.Context) ([]*models.Agenda, error) {
	var cached []*models.Agenda
	ok, gen, err := s.listing.Get(ctx, &cached)
	if err != nil {
		s.log.Warn("failed to read cached agendas", "error", err)
	} else if ok {
		return cached, nil
	}

	agendas, err := s.agendas.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agendas: %w", err)
	}

	if _, err := s.listing.Fill(ctx, gen, agendas); err != nil {
		s.log.Warn("failed to cache agendas", "error", err)
	}
	return agendas, nil
}

// History returns the caller's votes
func (s *VotingService) History(ctx context.Context, user *models.User) ([]models.VoteRef, error) {
	if user == nil {
		return nil, models.ErrUnauthenticated
	}

	votes, err := s.votes.ListByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	if votes == nil {
		votes = []models.VoteRef{}
	}
	return votes, nil
}

// Submit records user's vote for eventID within agendaID.
// A second vote in the same agenda fails with models.ErrAlreadyVoted.
func (s *VotingService) Submit(ctx context.Context, user *models.User, agendaID, eventID int64) error {
	if user == nil {
		return models.ErrUnauthenticated
	}
	if agendaID <= 0 || eventID <= 0 {
		return apperrors.ValidationError("eventId and agendaId are required")
	}

	event, err := s.events.Get(ctx, eventID)
	if errors.Is(err, models.ErrEventNotFound) {
		return apperrors.NotFoundError("Event not found").WithContext("event_id", eventID)
	}
	if err != nil {
		return fmt.Errorf("failed to load event: %w", err)
	}
	if event.AgendaID != agendaID {
		return apperrors.ValidationError("Event does not belong to the specified agenda").
			WithContext("event_id", eventID).
			WithContext("agenda_id", agendaID)
	}

	inserted, err := s.votes.Insert(ctx, user.ID, agendaID, eventID)
	if err != nil {
		return fmt.Errorf("failed to record vote: %w", err)
	}
	if !inserted {
		return models.ErrAlreadyVoted
	}

	s.InvalidateAgendas(ctx)
	if s.metrics != nil {
		s.metrics.VotesTotal.WithLabelValues(strconv.FormatInt(agendaID, 10)).Inc()
	}
	s.log.WithContext(ctx).WithUserID(user.ID).Info("vote recorded",
		"agenda_id", agendaID,
		"event_id", eventID,
	)
	return nil
}

// InvalidateAgendas drops the cached agenda listing. A listing loaded
// before the call is not cached.
func (s *VotingService) InvalidateAgendas(ctx context.Context) {
	if err := s.listing.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate agenda cache", "error", err)
	}
}
