package service

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/repository"
)

// fakeExchangeStore keeps users and exchanges in memory. Transactions hold the
// store mutex for their whole duration and restore a snapshot on error.
type fakeExchangeStore struct {
	mu        sync.Mutex
	users     map[int64]*models.User
	exchanges map[int64]*models.GiftExchange
	nextID    int64

	// failAfterWrite makes the next Upsert/UpdateTarget/UpdateStatus write and then fail
	failAfterWrite error
}

func newFakeExchangeStore(users ...*models.User) *fakeExchangeStore {
	s := &fakeExchangeStore{
		users:     make(map[int64]*models.User),
		exchanges: make(map[int64]*models.GiftExchange),
	}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *fakeExchangeStore) RunInTx(ctx context.Context, fn func(tx repository.ExchangeTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := make(map[int64]models.GiftExchange, len(s.exchanges))
	for k, v := range s.exchanges {
		snapshot[k] = *v
	}

	if err := fn(&fakeExchangeTx{s: s}); err != nil {
		s.exchanges = make(map[int64]*models.GiftExchange, len(snapshot))
		for k, v := range snapshot {
			ex := v
			s.exchanges[k] = &ex
		}
		return err
	}
	return nil
}

func (s *fakeExchangeStore) GetByOwner(ctx context.Context, ownerID int64) (*models.GiftExchange, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ex, ok := s.exchanges[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *ex
	return &cp, nil
}

func (s *fakeExchangeStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userLocked(id)
}

func (s *fakeExchangeStore) userLocked(id int64) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (s *fakeExchangeStore) Summary(ctx context.Context) ([]models.ExchangeRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows := make([]models.ExchangeRow, 0, len(s.exchanges))
	for _, ex := range s.exchanges {
		giver := s.users[ex.UserID]
		row := models.ExchangeRow{
			Giver:                giver.Name,
			GiverPlayerNumber:    giver.PlayerNumber,
			Receiver:             models.ReceiverNotAssigned,
			ReceiverPlayerNumber: models.ReceiverNumberNotAssigned,
			Status:               ex.Status,
			UpdatedAt:            ex.UpdatedAt,
		}
		if ex.TargetUserID != nil {
			if r, ok := s.users[*ex.TargetUserID]; ok {
				row.Receiver = r.Name
				row.ReceiverPlayerNumber = r.PlayerNumber
			}
		}
		rows = append(rows, row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].UpdatedAt.After(rows[j].UpdatedAt) })
	return rows, nil
}

func (s *fakeExchangeStore) CountByStatus(ctx context.Context) (models.ExchangeStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats models.ExchangeStats
	for _, ex := range s.exchanges {
		stats.Total++
		switch ex.Status {
		case models.ExchangeSearching:
			stats.Searching++
		case models.ExchangeCompleted:
			stats.Completed++
		}
	}
	return stats, nil
}

// putExchange stores ex as is, bypassing the state machine
func (s *fakeExchangeStore) putExchange(ex models.GiftExchange) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	ex.ID = s.nextID
	s.exchanges[ex.UserID] = &ex
}

func (s *fakeExchangeStore) removeUser(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, id)
	delete(s.exchanges, id)
	for _, ex := range s.exchanges {
		if ex.TargetUserID != nil && *ex.TargetUserID == id {
			ex.TargetUserID = nil
		}
	}
}

type fakeExchangeTx struct {
	s *fakeExchangeStore
}

func (t *fakeExchangeTx) LockOwner(ctx context.Context, ownerID int64) error {
	return nil
}

func (t *fakeExchangeTx) GetForUpdate(ctx context.Context, ownerID int64) (*models.GiftExchange, error) {
	ex, ok := t.s.exchanges[ownerID]
	if !ok {
		return nil, nil
	}
	cp := *ex
	return &cp, nil
}

func (t *fakeExchangeTx) candidates(exclude []int64) []int64 {
	ids := make([]int64, 0, len(t.s.users))
	for id := range t.s.users {
		if !slices.Contains(exclude, id) {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (t *fakeExchangeTx) CountCandidates(ctx context.Context, exclude []int64) (int, error) {
	return len(t.candidates(exclude)), nil
}

func (t *fakeExchangeTx) CandidateAt(ctx context.Context, exclude []int64, offset int) (*models.User, error) {
	ids := t.candidates(exclude)
	if offset < 0 || offset >= len(ids) {
		return nil, models.ErrNoCandidates
	}
	return t.s.userLocked(ids[offset])
}

func (t *fakeExchangeTx) Upsert(ctx context.Context, ownerID, targetID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error) {
	ex, ok := t.s.exchanges[ownerID]
	if !ok {
		t.s.nextID++
		ex = &models.GiftExchange{ID: t.s.nextID, UserID: ownerID, CreatedAt: at}
		t.s.exchanges[ownerID] = ex
	}
	target := targetID
	ex.TargetUserID = &target
	ex.Status = status
	ex.Version++
	ex.UpdatedAt = at
	return t.result(ex)
}

func (t *fakeExchangeTx) UpdateTarget(ctx context.Context, ownerID, targetID int64, at time.Time) (*models.GiftExchange, error) {
	ex, ok := t.s.exchanges[ownerID]
	if !ok {
		return nil, models.ErrNotStarted
	}
	target := targetID
	ex.TargetUserID = &target
	ex.Version++
	ex.UpdatedAt = at
	return t.result(ex)
}

func (t *fakeExchangeTx) UpdateStatus(ctx context.Context, ownerID int64, status models.ExchangeStatus, at time.Time) (*models.GiftExchange, error) {
	ex, ok := t.s.exchanges[ownerID]
	if !ok {
		return nil, models.ErrNotStarted
	}
	ex.Status = status
	ex.Version++
	ex.UpdatedAt = at
	return t.result(ex)
}

func (t *fakeExchangeTx) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return t.s.userLocked(id)
}

func (t *fakeExchangeTx) result(ex *models.GiftExchange) (*models.GiftExchange, error) {
	if err := t.s.failAfterWrite; err != nil {
		t.s.failAfterWrite = nil
		return nil, err
	}
	cp := *ex
	return &cp, nil
}

// fakeUserStore is an in-memory UserStore
type fakeUserStore struct {
	mu     sync.Mutex
	users  []*models.User
	votes  map[int64]int
	nextID int64
	now    time.Time

	// createErr, when set, is returned by the next createErrTimes calls to Create
	createErr      error
	createErrTimes int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{
		votes: make(map[int64]int),
		now:   time.Date(2025, 12, 20, 18, 0, 0, 0, time.UTC),
	}
}

func (s *fakeUserStore) Create(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.createErrTimes > 0 {
		s.createErrTimes--
		return s.createErr
	}
	for _, u := range s.users {
		if u.PlayerNumber == user.PlayerNumber || u.SessionToken == user.SessionToken {
			return fmt.Errorf("insert user: %w", repository.ErrDuplicate)
		}
	}

	s.nextID++
	user.ID = s.nextID
	user.CreatedAt = s.now.Add(time.Duration(s.nextID) * time.Second)
	cp := *user
	s.users = append(s.users, &cp)
	return nil
}

func (s *fakeUserStore) find(match func(*models.User) bool) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, models.ErrUserNotFound
}

func (s *fakeUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.ID == id })
}

func (s *fakeUserStore) GetBySessionToken(ctx context.Context, token string) (*models.User, error) {
	return s.find(func(u *models.User) bool { return u.SessionToken == token })
}

func (s *fakeUserStore) PlayerNumberExists(ctx context.Context, playerNumber string) (bool, error) {
	_, err := s.find(func(u *models.User) bool { return u.PlayerNumber == playerNumber })
	return err == nil, nil
}

func (s *fakeUserStore) SessionTokenExists(ctx context.Context, token string) (bool, error) {
	_, err := s.find(func(u *models.User) bool { return u.SessionToken == token })
	return err == nil, nil
}

func (s *fakeUserStore) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.users), nil
}

func (s *fakeUserStore) List(ctx context.Context, q models.UserQuery) ([]models.UserSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	search := strings.ToLower(q.Search)
	out := []models.UserSummary{}
	for i := len(s.users) - 1; i >= 0 && len(out) < q.Limit; i-- {
		u := s.users[i]
		if search != "" &&
			!strings.Contains(strings.ToLower(u.Name), search) &&
			!strings.Contains(u.PlayerNumber, search) {
			continue
		}
		out = append(out, models.UserSummary{
			ID:           u.ID,
			PlayerNumber: u.PlayerNumber,
			Name:         u.Name,
			Department:   u.Department,
			CreatedAt:    u.CreatedAt,
			VoteCount:    s.votes[u.ID],
		})
	}
	return out, nil
}

// votingData backs the agenda, event and vote fakes
type votingData struct {
	mu       sync.Mutex
	agendas  map[int64]*models.Agenda
	events   map[int64]*models.Event
	votes    []models.Vote
	nextID   int64
	listHits int
}

func newVotingData() *votingData {
	return &votingData{
		agendas: make(map[int64]*models.Agenda),
		events:  make(map[int64]*models.Event),
	}
}

func (d *votingData) addAgenda(name string, sortOrder int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.agendas[d.nextID] = &models.Agenda{ID: d.nextID, Name: name, SortOrder: sortOrder}
	return d.nextID
}

func (d *votingData) addEvent(agendaID int64, name string, sortOrder int) int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.nextID++
	d.events[d.nextID] = &models.Event{
		ID:         d.nextID,
		AgendaID:   agendaID,
		AgendaName: d.agendas[agendaID].Name,
		Name:       name,
		SortOrder:  sortOrder,
	}
	return d.nextID
}

func (d *votingData) eventLocked(e *models.Event) *models.Event {
	cp := *e
	cp.Count.Votes = 0
	for _, v := range d.votes {
		if v.EventID == e.ID {
			cp.Count.Votes++
		}
	}
	return &cp
}

func (d *votingData) eventsLocked(agendaID *int64) []*models.Event {
	out := []*models.Event{}
	for _, e := range d.events {
		if agendaID == nil || e.AgendaID == *agendaID {
			out = append(out, d.eventLocked(e))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out
}

type fakeAgendaStore struct{ d *votingData }

func (s fakeAgendaStore) List(ctx context.Context) ([]*models.Agenda, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	s.d.listHits++

	out := []*models.Agenda{}
	for _, a := range s.d.agendas {
		cp := *a
		id := a.ID
		cp.Events = s.d.eventsLocked(&id)
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].SortOrder != out[j].SortOrder {
			return out[i].SortOrder < out[j].SortOrder
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s fakeAgendaStore) Get(ctx context.Context, id int64) (*models.Agenda, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a, ok := s.d.agendas[id]
	if !ok {
		return nil, models.ErrAgendaNotFound
	}
	cp := *a
	cp.Events = s.d.eventsLocked(&id)
	return &cp, nil
}

func (s fakeAgendaStore) Exists(ctx context.Context, id int64) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	_, ok := s.d.agendas[id]
	return ok, nil
}

func (s fakeAgendaStore) Create(ctx context.Context, in models.AgendaInput) (*models.Agenda, error) {
	id := s.d.addAgenda(in.Name, in.SortOrder)
	s.d.mu.Lock()
	s.d.agendas[id].Description = in.Description
	s.d.mu.Unlock()
	return s.Get(ctx, id)
}

func (s fakeAgendaStore) Update(ctx context.Context, id int64, in models.AgendaInput) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	a, ok := s.d.agendas[id]
	if !ok {
		return models.ErrAgendaNotFound
	}
	a.Name = in.Name
	a.Description = in.Description
	a.SortOrder = in.SortOrder
	return nil
}

func (s fakeAgendaStore) Delete(ctx context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.agendas[id]; !ok {
		return models.ErrAgendaNotFound
	}
	delete(s.d.agendas, id)
	for eid, e := range s.d.events {
		if e.AgendaID == id {
			delete(s.d.events, eid)
		}
	}
	s.d.votes = slices.DeleteFunc(s.d.votes, func(v models.Vote) bool { return v.AgendaID == id })
	return nil
}

type fakeEventStore struct{ d *votingData }

func (s fakeEventStore) List(ctx context.Context, agendaID *int64) ([]*models.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	return s.d.eventsLocked(agendaID), nil
}

func (s fakeEventStore) Get(ctx context.Context, id int64) (*models.Event, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	e, ok := s.d.events[id]
	if !ok {
		return nil, models.ErrEventNotFound
	}
	return s.d.eventLocked(e), nil
}

func (s fakeEventStore) Create(ctx context.Context, in models.EventInput) (*models.Event, error) {
	s.d.mu.Lock()
	_, ok := s.d.agendas[in.AgendaID]
	s.d.mu.Unlock()
	if !ok {
		return nil, models.ErrAgendaNotFound
	}
	id := s.d.addEvent(in.AgendaID, in.Name, in.SortOrder)
	return s.Get(ctx, id)
}

func (s fakeEventStore) Delete(ctx context.Context, id int64) error {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	if _, ok := s.d.events[id]; !ok {
		return models.ErrEventNotFound
	}
	delete(s.d.events, id)
	s.d.votes = slices.DeleteFunc(s.d.votes, func(v models.Vote) bool { return v.EventID == id })
	return nil
}

type fakeVoteStore struct{ d *votingData }

func (s fakeVoteStore) Insert(ctx context.Context, userID, agendaID, eventID int64) (bool, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	for _, v := range s.d.votes {
		if v.UserID == userID && v.AgendaID == agendaID {
			return false, nil
		}
	}
	s.d.nextID++
	s.d.votes = append(s.d.votes, models.Vote{
		ID:       s.d.nextID,
		UserID:   userID,
		AgendaID: agendaID,
		EventID:  eventID,
	})
	return true, nil
}

func (s fakeVoteStore) ListByUser(ctx context.Context, userID int64) ([]models.VoteRef, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []models.VoteRef
	for _, v := range s.d.votes {
		if v.UserID == userID {
			out = append(out, models.VoteRef{AgendaID: v.AgendaID, EventID: v.EventID})
		}
	}
	return out, nil
}

func (s fakeVoteStore) ListDetailedByUser(ctx context.Context, userID int64) ([]models.UserVote, error) {
	s.d.mu.Lock()
	defer s.d.mu.Unlock()
	var out []models.UserVote
	for i := len(s.d.votes) - 1; i >= 0; i-- {
		v := s.d.votes[i]
		if v.UserID != userID {
			continue
		}
		out = append(out, models.UserVote{
			ID:         v.ID,
			AgendaID:   v.AgendaID,
			AgendaName: s.d.agendas[v.AgendaID].Name,
			EventID:    v.EventID,
			EventName:  s.d.events[v.EventID].Name,
		})
	}
	return out, nil
}

// fakeSessionCache is a map-backed SessionCache
type fakeSessionCache struct {
	mu      sync.Mutex
	entries map[string]models.User
	getErr  error
}

func newFakeSessionCache() *fakeSessionCache {
	return &fakeSessionCache{entries: make(map[string]models.User)}
}

func (c *fakeSessionCache) Get(ctx context.Context, token string) (*models.User, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	u, ok := c.entries[token]
	if !ok {
		return nil, false, nil
	}
	return &u, true, nil
}

func (c *fakeSessionCache) Set(ctx context.Context, token string, user *models.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[token] = *user
	return nil
}

func participants(n int) []*models.User {
	users := make([]*models.User, 0, n)
	for i := 1; i <= n; i++ {
		users = append(users, &models.User{
			ID:           int64(i),
			PlayerNumber: fmt.Sprintf("%d", 100+i),
			Name:         fmt.Sprintf("Player %d", i),
		})
	}
	return users
}
