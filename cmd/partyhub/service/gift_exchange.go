package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/repository"
	"github.com/staffparty/partyhub/common/cache"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/queue"
)

// ExchangeEventsTopic carries models.ExchangeEvent payloads
const ExchangeEventsTopic = "exchange.events"

const exchangeSummaryKey = "gift_exchange:summary"

// Picker returns a uniformly distributed integer in [0, n)
type Picker func(n int) int

// GiftExchangeService runs the gift-exchange state machine:
//
//	not_started --start--> searching --reassign--> searching
//	                          |
//	                       confirm
//	                          v
//	                      completed (terminal)
//
// Every transition runs in one transaction holding a per-owner lock, so
// concurrent calls for the same owner apply one after the other.
type GiftExchangeService struct {
	store      ExchangeStore
	events     queue.Queue
	cache      cache.Cache
	summaryTTL time.Duration
	summary    *cache.Guard
	clock      clockwork.Clock
	pick       Picker
	log        *logger.Logger
}

// GiftExchangeOption customizes the service
type GiftExchangeOption func(*GiftExchangeService)

// WithPicker replaces the random source used to choose targets
func WithPicker(p Picker) GiftExchangeOption {
	return func(s *GiftExchangeService) { s.pick = p }
}

// WithEvents publishes transitions on q
func WithEvents(q queue.Queue) GiftExchangeOption {
	return func(s *GiftExchangeService) { s.events = q }
}

// WithSummaryCache caches the admin summary in c for ttl
func WithSummaryCache(c cache.Cache, ttl time.Duration) GiftExchangeOption {
	return func(s *GiftExchangeService) {
		s.cache = c
		s.summaryTTL = ttl
	}
}

// NewGiftExchangeService creates a new gift exchange service
func NewGiftExchangeService(store ExchangeStore, clock clockwork.Clock, log *logger.Logger, opts ...GiftExchangeOption) *GiftExchangeService {
	s := &GiftExchangeService{
		store: store,
		clock: clock,
		pick:  rand.IntN,
		log:   log,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.summary = cache.NewGuard(s.cache, exchangeSummaryKey, s.summaryTTL)
	return s
}

// Start assigns a random target to owner and moves the exchange to searching.
// Calling Start again while searching draws a fresh target from everyone but the owner.
func (s *GiftExchangeService) Start(ctx context.Context, owner *models.User) (*models.Participant, error) {
	if owner == nil {
		return nil, models.ErrUnauthenticated
	}

	var (
		target *models.User
		ex     *models.GiftExchange
	)
	err := s.store.RunInTx(ctx, func(tx repository.ExchangeTx) error {
		current, err := s.lockAndLoad(ctx, tx, owner.ID)
		if err != nil {
			return err
		}
		if current != nil && current.Status == models.ExchangeCompleted {
			return models.ErrAlreadyCompleted
		}

		target, err = s.pickTarget(ctx, tx, []int64{owner.ID})
		if err != nil {
			return err
		}

		ex, err = tx.Upsert(ctx, owner.ID, target.ID, models.ExchangeSearching, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, models.ExchangeStarted, ex)
	s.log.WithContext(ctx).WithUserID(owner.ID).Info("gift exchange started",
		"target_id", target.ID,
		"version", ex.Version,
	)

	p := target.Participant()
	return &p, nil
}

// Reassign draws a new target that differs from both the owner and the current target.
// The stored status is left as it is.
func (s *GiftExchangeService) Reassign(ctx context.Context, owner *models.User) (*models.Participant, error) {
	if owner == nil {
		return nil, models.ErrUnauthenticated
	}

	var (
		target *models.User
		ex     *models.GiftExchange
	)
	err := s.store.RunInTx(ctx, func(tx repository.ExchangeTx) error {
		current, err := s.lockAndLoad(ctx, tx, owner.ID)
		if err != nil {
			return err
		}
		if err := requireStarted(current); err != nil {
			return err
		}

		exclude := []int64{owner.ID}
		if current.TargetUserID != nil {
			exclude = append(exclude, *current.TargetUserID)
		}

		target, err = s.pickTarget(ctx, tx, exclude)
		if err != nil {
			return err
		}

		ex, err = tx.UpdateTarget(ctx, owner.ID, target.ID, s.clock.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	s.committed(ctx, models.ExchangeReassigned, ex)
	s.log.WithContext(ctx).WithUserID(owner.ID).Info("gift exchange reassigned",
		"target_id", target.ID,
		"version", ex.Version,
	)

	p := target.Participant()
	return &p, nil
}

// Confirm freezes the current target. It succeeds once; later calls fail with ErrAlreadyCompleted.
// Only a searching exchange can be confirmed; any other stored status is ErrInvalidState.
func (s *GiftExchangeService) Confirm(ctx context.Context, owner *models.User) error {
	if owner == nil {
		return models.ErrUnauthenticated
	}

	var ex *models.GiftExchange
	err := s.store.RunInTx(ctx, func(tx repository.ExchangeTx) error {
		current, err := s.lockAndLoad(ctx, tx, owner.ID)
		if err != nil {
			return err
		}
		if err := requireStarted(current); err != nil {
			return err
		}
		if current.Status != models.ExchangeSearching {
			return models.ErrInvalidState
		}
		if current.TargetUserID == nil {
			// Receiver was removed; the owner must draw again first
			return models.ErrInvalidState
		}

		ex, err = tx.UpdateStatus(ctx, owner.ID, models.ExchangeCompleted, s.clock.Now())
		return err
	})
	if err != nil {
		return err
	}

	s.committed(ctx, models.ExchangeConfirmed, ex)
	s.log.WithContext(ctx).WithUserID(owner.ID).Info("gift exchange confirmed",
		"target_id", *ex.TargetUserID,
		"version", ex.Version,
	)

	return nil
}

// Status reports the owner's exchange without modifying it
func (s *GiftExchangeService) Status(ctx context.Context, owner *models.User) (*models.ExchangeView, error) {
	if owner == nil {
		return nil, models.ErrUnauthenticated
	}

	ex, err := s.store.GetByOwner(ctx, owner.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gift exchange: %w", err)
	}

	if ex == nil {
		return &models.ExchangeView{Status: models.ExchangeNotStarted}, nil
	}

	view := &models.ExchangeView{Status: ex.Status}

	if ex.TargetUserID != nil {
		target, err := s.store.GetUser(ctx, *ex.TargetUserID)
		switch {
		case errors.Is(err, models.ErrUserNotFound):
		case err != nil:
			return nil, fmt.Errorf("failed to load gift target: %w", err)
		default:
			p := target.Participant()
			view.TargetUser = &p
		}
	}

	if ex.Status == models.ExchangeCompleted {
		completedAt := ex.UpdatedAt
		view.CompletedAt = &completedAt
	}

	return view, nil
}

// Summary lists every pairing with aggregate counts for the admin view
func (s *GiftExchangeService) Summary(ctx context.Context) (*models.ExchangeSummary, error) {
	var cached models.ExchangeSummary
	ok, gen, err := s.summary.Get(ctx, &cached)
	if err != nil {
		s.log.Warn("failed to read cached exchange summary", "error", err)
	} else if ok {
		return &cached, nil
	}

	rows, err := s.store.Summary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list gift exchanges: %w", err)
	}
	if rows == nil {
		rows = []models.ExchangeRow{}
	}

	summary := &models.ExchangeSummary{Exchanges: rows}
	for _, row := range rows {
		summary.Stats.Total++
		switch row.Status {
		case models.ExchangeSearching:
			summary.Stats.Searching++
		case models.ExchangeCompleted:
			summary.Stats.Completed++
		}
	}

	if _, err := s.summary.Fill(ctx, gen, summary); err != nil {
		s.log.Warn("failed to cache exchange summary", "error", err)
	}

	return summary, nil
}

// InvalidateSummary drops the cached admin summary. Summary reads already
// in flight will not store what they loaded.
func (s *GiftExchangeService) InvalidateSummary(ctx context.Context) {
	if err := s.summary.Invalidate(ctx); err != nil {
		s.log.Warn("failed to invalidate exchange summary", "error", err)
	}
}

func (s *GiftExchangeService) lockAndLoad(ctx context.Context, tx repository.ExchangeTx, ownerID int64) (*models.GiftExchange, error) {
	if err := tx.LockOwner(ctx, ownerID); err != nil {
		return nil, err
	}
	return tx.GetForUpdate(ctx, ownerID)
}

// pickTarget draws uniformly from all users not in exclude, against the live pool
func (s *GiftExchangeService) pickTarget(ctx context.Context, tx repository.ExchangeTx, exclude []int64) (*models.User, error) {
	n, err := tx.CountCandidates(ctx, exclude)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, models.ErrNoCandidates
	}

	offset := s.pick(n)
	if offset < 0 || offset >= n {
		return nil, fmt.Errorf("picker returned %d for a pool of %d", offset, n)
	}

	return tx.CandidateAt(ctx, exclude, offset)
}

// requireStarted rejects a missing record and a completed one.
// A stored not_started row counts as started.
func requireStarted(ex *models.GiftExchange) error {
	switch {
	case ex == nil:
		return models.ErrNotStarted
	case ex.Status == models.ExchangeCompleted:
		return models.ErrAlreadyCompleted
	}
	return nil
}

// committed runs after a transition's transaction commits. The summary is
// invalidated before returning so the caller's next admin read sees the change.
func (s *GiftExchangeService) committed(ctx context.Context, kind models.ExchangeEventKind, ex *models.GiftExchange) {
	s.InvalidateSummary(ctx)
	s.publish(ctx, kind, ex)
}

// publish announces a committed transition. Delivery failures are logged only.
func (s *GiftExchangeService) publish(ctx context.Context, kind models.ExchangeEventKind, ex *models.GiftExchange) {
	if s.events == nil || ex == nil {
		return
	}

	event := models.ExchangeEvent{
		Kind:    kind,
		OwnerID: ex.UserID,
		Version: ex.Version,
		At:      ex.UpdatedAt,
	}
	if ex.TargetUserID != nil {
		event.TargetID = *ex.TargetUserID
	}

	payload, err := json.Marshal(event)
	if err != nil {
		s.log.Error("failed to encode exchange event", "error", err)
		return
	}

	if err := s.events.Publish(ctx, ExchangeEventsTopic, strconv.FormatInt(ex.UserID, 10), payload); err != nil {
		s.log.Warn("failed to publish exchange event", "kind", kind, "error", err)
	}
}
