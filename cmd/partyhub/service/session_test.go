package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/cmd/partyhub/repository"
	"github.com/staffparty/partyhub/common/apperrors"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/staffparty/partyhub/common/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenSeq atomic.Int64

// sequenceGenerators cycles through numbers and hands out unique tokens
func sequenceGenerators(numbers ...string) (Generators, *atomic.Int64) {
	var calls atomic.Int64
	return Generators{
		PlayerNumber: func() string {
			i := calls.Add(1) - 1
			return numbers[int(i)%len(numbers)]
		},
		SessionToken: func() (string, error) {
			return fmt.Sprintf("token-%d", tokenSeq.Add(1)), nil
		},
	}, &calls
}

func TestRegisterCreatesParticipant(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessionCache()
	reg := prometheus.NewRegistry()
	m := metrics.NewPartyMetrics(reg)
	svc := NewSessionService(users, sessions, DefaultGenerators(), m, logger.Discard())

	dept := "  Engineering "
	user, err := svc.Register(context.Background(), "  Aung Aung ", &dept)
	require.NoError(t, err)

	assert.Equal(t, "Aung Aung", user.Name)
	require.NotNil(t, user.Department)
	assert.Equal(t, "Engineering", *user.Department)

	n, err := strconv.Atoi(user.PlayerNumber)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, 100)
	assert.LessOrEqual(t, n, 249)
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{64}$`), user.SessionToken)

	_, cached, err := sessions.Get(context.Background(), user.SessionToken)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationsTotal))
}

func TestRegisterRequiresName(t *testing.T) {
	svc := NewSessionService(newFakeUserStore(), nil, DefaultGenerators(), nil, logger.Discard())

	_, err := svc.Register(context.Background(), "   ", nil)
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.TypeValidation, appErr.Type)
	assert.Equal(t, "Name is required", appErr.Message)
}

func TestRegisterBlankDepartmentIsNil(t *testing.T) {
	svc := NewSessionService(newFakeUserStore(), nil, DefaultGenerators(), nil, logger.Discard())

	blank := "  "
	user, err := svc.Register(context.Background(), "Su Su", &blank)
	require.NoError(t, err)
	assert.Nil(t, user.Department)
}

func TestRegisterRetriesTakenPlayerNumbers(t *testing.T) {
	users := newFakeUserStore()
	ctx := context.Background()

	gen, _ := sequenceGenerators("101")
	first := NewSessionService(users, nil, gen, nil, logger.Discard())
	_, err := first.Register(ctx, "First", nil)
	require.NoError(t, err)

	gen, calls := sequenceGenerators("101", "101", "102")
	svc := NewSessionService(users, nil, gen, nil, logger.Discard())
	user, err := svc.Register(ctx, "Second", nil)
	require.NoError(t, err)
	assert.Equal(t, "102", user.PlayerNumber)
	assert.Equal(t, int64(3), calls.Load())
}

func TestRegisterExhaustsAttempts(t *testing.T) {
	users := newFakeUserStore()
	ctx := context.Background()

	gen, _ := sequenceGenerators("150")
	_, err := NewSessionService(users, nil, gen, nil, logger.Discard()).Register(ctx, "Holder", nil)
	require.NoError(t, err)

	gen, calls := sequenceGenerators("150")
	svc := NewSessionService(users, nil, gen, nil, logger.Discard())
	_, err = svc.Register(ctx, "Unlucky", nil)
	assert.ErrorIs(t, err, models.ErrGenerationExhausted)
	assert.Equal(t, int64(MaxGenerationAttempts), calls.Load())
}

func TestRegisterRetriesDuplicateInsert(t *testing.T) {
	users := newFakeUserStore()
	users.createErr = fmt.Errorf("insert user: %w", repository.ErrDuplicate)
	users.createErrTimes = 2

	gen, calls := sequenceGenerators("120", "121", "122")
	svc := NewSessionService(users, nil, gen, nil, logger.Discard())

	user, err := svc.Register(context.Background(), "Racer", nil)
	require.NoError(t, err)
	assert.Equal(t, "122", user.PlayerNumber)
	assert.Equal(t, int64(3), calls.Load())
}

func TestRegisterPropagatesStoreErrors(t *testing.T) {
	users := newFakeUserStore()
	users.createErr = errors.New("connection refused")
	users.createErrTimes = 1

	svc := NewSessionService(users, nil, DefaultGenerators(), nil, logger.Discard())
	_, err := svc.Register(context.Background(), "Nobody", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrGenerationExhausted)
}

func TestResolveUsesCacheThenStore(t *testing.T) {
	users := newFakeUserStore()
	sessions := newFakeSessionCache()
	ctx := context.Background()

	user := &models.User{PlayerNumber: "177", Name: "Cached", SessionToken: "abc"}
	require.NoError(t, users.Create(ctx, user))

	svc := NewSessionService(users, sessions, DefaultGenerators(), nil, logger.Discard())

	got, err := svc.Resolve(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, cached, err := sessions.Get(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, cached, "store hit back-fills the cache")

	sessions.getErr = errors.New("redis down")
	got, err = svc.Resolve(ctx, "abc")
	require.NoError(t, err, "cache failures fall back to the store")
	assert.Equal(t, "Cached", got.Name)
}

func TestResolveUnknownToken(t *testing.T) {
	svc := NewSessionService(newFakeUserStore(), nil, DefaultGenerators(), nil, logger.Discard())
	ctx := context.Background()

	_, err := svc.Resolve(ctx, "")
	assert.ErrorIs(t, err, models.ErrUserNotFound)

	_, err = svc.Resolve(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrUserNotFound)
}

func TestDefaultGeneratorsRange(t *testing.T) {
	gen := DefaultGenerators()
	seen := make(map[string]bool)
	for i := 0; i < 2000; i++ {
		n, err := strconv.Atoi(gen.PlayerNumber())
		require.NoError(t, err)
		require.GreaterOrEqual(t, n, 100)
		require.LessOrEqual(t, n, 249)
		seen[strconv.Itoa(n)] = true
	}
	assert.Greater(t, len(seen), 100)

	a, err := gen.SessionToken()
	require.NoError(t, err)
	b, err := gen.SessionToken()
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, b)
}
