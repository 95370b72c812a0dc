package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	mrand "math/rand/v2"
	"strconv"
	"strings"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/repository"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
)

const (
	// MaxGenerationAttempts bounds the draws for a unique player number and token
	MaxGenerationAttempts = 50

	playerNumberMin   = 100
	playerNumberRange = 150 // 100-249
	sessionTokenBytes = 32
)

// SessionCache caches resolved sessions. Implementations may be best effort.
type SessionCache interface {
	Get(ctx context.Context, token string) (*models.User, bool, error)
	Set(ctx context.Context, token string, user *models.User) error
}

// Generators produce candidate values for registration
type Generators struct {
	PlayerNumber func() string
	SessionToken func() (string, error)
}

// DefaultGenerators draws player numbers uniformly from 100-249 and
// session tokens from 32 bytes of crypto/rand, hex encoded.
func DefaultGenerators() Generators {
	return Generators{
		PlayerNumber: func() string {
			return strconv.Itoa(playerNumberMin + mrand.IntN(playerNumberRange))
		},
		SessionToken: func() (string, error) {
			b := make([]byte, sessionTokenBytes)
			if _, err := rand.Read(b); err != nil {
				return "", fmt.Errorf("failed to read random bytes: %w", err)
			}
			return hex.EncodeToString(b), nil
		},
	}
}

// SessionService registers participants and resolves session tokens
type SessionService struct {
	users   UserStore
	cache   SessionCache
	gen     Generators
	metrics *metrics.PartyMetrics
	log     *logger.Logger
}

// NewSessionService creates a new session service. cache and m may be nil.
func NewSessionService(users UserStore, cache SessionCache, gen Generators, m *metrics.PartyMetrics, log *logger.Logger) *SessionService {
	return &SessionService{
		users:   users,
		cache:   cache,
		gen:     gen,
		metrics: m,
		log:     log,
	}
}

// Register creates a participant with a fresh player number and session token
func (s *SessionService) Register(ctx context.Context, name string, department *string) (*models.User, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ValidationError("Name is required")
	}

	var dept *string
	if department != nil {
		if d := strings.TrimSpace(*department); d != "" {
			dept = &d
		}
	}

	for attempt := 1; attempt <= MaxGenerationAttempts; attempt++ {
		user, err := s.tryRegister(ctx, name, dept)
		if err != nil {
			return nil, err
		}
		if user == nil {
			continue
		}

		if s.metrics != nil {
			s.metrics.RegistrationsTotal.Inc()
		}
		s.log.WithContext(ctx).WithUserID(user.ID).Info("participant registered",
			"player_number", user.PlayerNumber,
			"attempts", attempt,
		)
		return user, nil
	}

	s.log.WithContext(ctx).Warn("player number space exhausted", "attempts", MaxGenerationAttempts)
	return nil, models.ErrGenerationExhausted
}

// tryRegister performs one draw. A nil user with nil error means the draw was taken.
func (s *SessionService) tryRegister(ctx context.Context, name string, dept *string) (*models.User, error) {
	number := s.gen.PlayerNumber()
	taken, err := s.users.PlayerNumberExists(ctx, number)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, nil
	}

	token, err := s.gen.SessionToken()
	if err != nil {
		return nil, err
	}
	taken, err = s.users.SessionTokenExists(ctx, token)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, nil
	}

	user := &models.User{
		PlayerNumber: number,
		Name:         name,
		Department:   dept,
		SessionToken: token,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Lost a race with a concurrent registration
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nil
		}
		return nil, err
	}

	s.cacheSession(ctx, user)
	return user, nil
}

// Resolve maps a session token to its participant.
// Unknown or empty tokens return models.ErrUserNotFound.
func (s *SessionService) Resolve(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, models.ErrUserNotFound
	}

	if s.cache != nil {
		user, ok, err := s.cache.Get(ctx, token)
		if err != nil {
			s.log.WithContext(ctx).Warn("session cache read failed", "error", err)
		} else if ok {
			return user, nil
		}
	}

	user, err := s.users.GetBySessionToken(ctx, token)
	if err != nil {
		return nil, err
	}

	s.cacheSession(ctx, user)
	return user, nil
}

func (s *SessionService) cacheSession(ctx context.Context, user *models.User) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, user.SessionToken, user); err != nil {
		s.log.WithContext(ctx).Warn("session cache write failed", "error", err)
	}
}
