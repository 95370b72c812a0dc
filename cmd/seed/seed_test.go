package main

import (
	"context"
	"errors"
	"testing"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/staffparty/partyhub/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSeeder struct {
	present map[int64]bool
	failOn  int64
	calls   []int64
}

func (f *fakeSeeder) Seed(ctx context.Context, id int64, in models.AgendaInput, events []models.EventInput) (bool, error) {
	f.calls = append(f.calls, id)
	if id == f.failOn {
		return false, errors.New("connection reset")
	}
	if f.present[id] {
		return false, nil
	}
	f.present[id] = true
	return true, nil
}

func TestSeedProgrammeSkipsPresentAgendas(t *testing.T) {
	prog, err := loadProgramme("")
	require.NoError(t, err)

	s := &fakeSeeder{present: map[int64]bool{2: true}}
	seeded, skipped, err := seedProgramme(context.Background(), s, prog, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, 1, seeded)
	assert.Equal(t, 1, skipped)
	assert.Equal(t, []int64{1, 2}, s.calls)

	seeded, skipped, err = seedProgramme(context.Background(), s, prog, logger.Discard())
	require.NoError(t, err)
	assert.Zero(t, seeded)
	assert.Equal(t, 2, skipped)
}

func TestSeedProgrammeStopsOnFailure(t *testing.T) {
	prog, err := loadProgramme("")
	require.NoError(t, err)

	s := &fakeSeeder{present: map[int64]bool{}, failOn: 1}
	seeded, _, err := seedProgramme(context.Background(), s, prog, logger.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to seed agenda 1")
	assert.Zero(t, seeded)
	assert.Equal(t, []int64{1}, s.calls)
}
