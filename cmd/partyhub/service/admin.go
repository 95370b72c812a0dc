package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/validation"
)

const (
	defaultSortOrder = 1

	DefaultUserLimit = 20
	MaxUserLimit     = 100
)

// PatchKind selects how an agenda PATCH body is interpreted
type PatchKind int

const (
	// MergePatch is an RFC 7396 merge patch
	MergePatch PatchKind = iota
	// JSONPatch is an RFC 6902 operation list
	JSONPatch
)

// UserListing is the admin user overview
type UserListing struct {
	Total int                  `json:"total"`
	Users []models.UserSummary `json:"users"`
}

// UserVotes is one participant with their votes
type UserVotes struct {
	User  *models.User      `json:"user"`
	Votes []models.UserVote `json:"votes"`
}

// agendaPatchPaths are the AgendaInput fields a JSON Patch may touch
var agendaPatchPaths = []string{"/name", "/description", "/sortOrder"}

// AdminService manages agendas and events and reports on participants
type AdminService struct {
	users   UserStore
	agendas AgendaStore
	events  EventStore
	votes   VoteStore
	filter  *EventFilter
	voting  *VotingService
	patches *validation.PatchValidator
	log     *logger.Logger
}

// NewAdminService creates a new admin service. Mutations invalidate voting's agenda cache.
func NewAdminService(users UserStore, agendas AgendaStore, events EventStore, votes VoteStore, filter *EventFilter, voting *VotingService, log *logger.Logger) *AdminService {
	return &AdminService{
		users:   users,
		agendas: agendas,
		events:  events,
		votes:   votes,
		filter:  filter,
		voting:  voting,
		patches: validation.NewPatchValidator(agendaPatchPaths...),
		log:     log,
	}
}

func (s *AdminService) ListAgendas(ctx context.Context) ([]*models.Agenda, error) {
	return s.agendas.List(ctx)
}

func (s *AdminService) GetAgenda(ctx context.Context, id int64) (*models.Agenda, error) {
	return s.agendas.Get(ctx, id)
}

// CreateAgenda validates in and stores a new agenda
func (s *AdminService) CreateAgenda(ctx context.Context, in models.AgendaInput) (*models.Agenda, error) {
	in, err := normalizeAgenda(in)
	if err != nil {
		return nil, err
	}

	agenda, err := s.agendas.Create(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("failed to create agenda: %w", err)
	}

	s.invalidate(ctx)
	s.log.WithContext(ctx).Info("agenda created", "agenda_id", agenda.ID, "name", agenda.Name)
	return agenda, nil
}

// PatchAgenda applies patch to the writable fields of agenda id
func (s *AdminService) PatchAgenda(ctx context.Context, id int64, kind PatchKind, patch []byte) (*models.Agenda, error) {
	current, err := s.agendas.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	doc, err := json.Marshal(models.AgendaInput{
		Name:        current.Name,
		Description: current.Description,
		SortOrder:   current.SortOrder,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode agenda: %w", err)
	}

	patched, err := s.applyPatch(kind, doc, patch)
	if err != nil {
		return nil, apperrors.ValidationError("Invalid patch document").WithContext("reason", err.Error())
	}

	var in models.AgendaInput
	if err := json.Unmarshal(patched, &in); err != nil {
		return nil, apperrors.ValidationError("Patched agenda is invalid").WithContext("reason", err.Error())
	}
	in, err = normalizeAgenda(in)
	if err != nil {
		return nil, err
	}

	if err := s.agendas.Update(ctx, id, in); err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithContext(ctx).Info("agenda updated", "agenda_id", id)
	return s.agendas.Get(ctx, id)
}

// DeleteAgenda removes an agenda with its events and votes
func (s *AdminService) DeleteAgenda(ctx context.Context, id int64) error {
	if err := s.agendas.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.WithContext(ctx).Info("agenda deleted", "agenda_id", id)
	return nil
}

// ListEvents returns events, optionally restricted to one agenda and a CEL filter
func (s *AdminService) ListEvents(ctx context.Context, q models.EventQuery) ([]*models.Event, error) {
	filter := strings.TrimSpace(q.Filter)
	if filter != "" {
		if err := s.filter.Compile(filter); err != nil {
			return nil, apperrors.ValidationError("Invalid filter expression").WithContext("reason", err.Error())
		}
	}

	events, err := s.events.List(ctx, q.AgendaID)
	if err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	if events == nil {
		events = []*models.Event{}
	}
	if filter == "" {
		return events, nil
	}

	matched, err := s.filter.Apply(filter, events)
	if err != nil {
		return nil, apperrors.ValidationError("Filter evaluation failed").WithContext("reason", err.Error())
	}
	return matched, nil
}

// CreateEvent stores a new event under an existing agenda
func (s *AdminService) CreateEvent(ctx context.Context, in models.EventInput) (*models.Event, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.AgendaID <= 0 {
		return nil, apperrors.ValidationError("Name and agendaId are required")
	}
	if in.SortOrder == 0 {
		in.SortOrder = defaultSortOrder
	}

	event, err := s.events.Create(ctx, in)
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.log.WithContext(ctx).Info("event created",
		"event_id", event.ID,
		"agenda_id", event.AgendaID,
	)
	return event, nil
}

func (s *AdminService) DeleteEvent(ctx context.Context, id int64) error {
	if err := s.events.Delete(ctx, id); err != nil {
		return err
	}

	s.invalidate(ctx)
	s.log.WithContext(ctx).Info("event deleted", "event_id", id)
	return nil
}

// ListUsers returns the participant count and the latest registrations
func (s *AdminService) ListUsers(ctx context.Context, q models.UserQuery) (*UserListing, error) {
	switch {
	case q.Limit <= 0:
		q.Limit = DefaultUserLimit
	case q.Limit > MaxUserLimit:
		q.Limit = MaxUserLimit
	}
	q.Search = strings.TrimSpace(q.Search)

	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	users, err := s.users.List(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	if users == nil {
		users = []models.UserSummary{}
	}

	return &UserListing{Total: total, Users: users}, nil
}

// UserVotes returns a participant and their votes, newest first
func (s *AdminService) UserVotes(ctx context.Context, userID int64) (*UserVotes, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	votes, err := s.votes.ListDetailedByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list votes: %w", err)
	}
	if votes == nil {
		votes = []models.UserVote{}
	}

	return &UserVotes{User: user, Votes: votes}, nil
}

func (s *AdminService) invalidate(ctx context.Context) {
	if s.voting != nil {
		s.voting.InvalidateAgendas(ctx)
	}
}

func normalizeAgenda(in models.AgendaInput) (models.AgendaInput, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return in, apperrors.ValidationError("Name is required")
	}
	if in.SortOrder == 0 {
		in.SortOrder = defaultSortOrder
	}
	return in, nil
}

func (s *AdminService) applyPatch(kind PatchKind, doc, patch []byte) ([]byte, error) {
	switch kind {
	case JSONPatch:
		if err := s.patches.Validate(patch); err != nil {
			return nil, err
		}
		ops, err := jsonpatch.DecodePatch(patch)
		if err != nil {
			return nil, err
		}
		return ops.Apply(doc)
	default:
		return jsonpatch.MergePatch(doc, patch)
	}
}
