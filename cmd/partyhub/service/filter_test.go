package service

import (
	"testing"

	"github.com/staffparty/partyhub/cmd/partyhub/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventFilterMatch(t *testing.T) {
	f, err := NewEventFilter()
	require.NoError(t, err)

	desc := "Traditional dance"
	event := &models.Event{
		ID:          4,
		AgendaID:    1,
		AgendaName:  "Performances",
		Name:        "Dance",
		Description: &desc,
		SortOrder:   2,
		Count:       models.EventCount{Votes: 7},
	}

	tests := []struct {
		expr string
		want bool
	}{
		{"event.votes > 5", true},
		{"event.votes > 7", false},
		{"event.agendaId == 1 && event.sortOrder == 2", true},
		{`event.name.startsWith("Da")`, true},
		{`event.description.contains("dance")`, true},
		{`event.agendaName == "Drama"`, false},
		{"event.id in [1, 2, 3]", false},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := f.Match(tt.expr, event)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEventFilterNilDescription(t *testing.T) {
	f, err := NewEventFilter()
	require.NoError(t, err)

	ok, err := f.Match(`event.description == ""`, &models.Event{Name: "Quiz"})
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestEventFilterErrors(t *testing.T) {
	f, err := NewEventFilter()
	require.NoError(t, err)

	assert.Error(t, f.Compile("event.votes >"))
	assert.Error(t, f.Compile("unknown.field == 1"))

	_, err = f.Match(`event.name`, &models.Event{Name: "Quiz"})
	assert.ErrorContains(t, err, "did not return boolean")

	_, err = f.Match(`event.missing == 1`, &models.Event{})
	assert.Error(t, err)
}

func TestEventFilterCachesPrograms(t *testing.T) {
	f, err := NewEventFilter()
	require.NoError(t, err)

	events := []*models.Event{
		{ID: 1, Count: models.EventCount{Votes: 1}},
		{ID: 2, Count: models.EventCount{Votes: 3}},
		{ID: 3, Count: models.EventCount{Votes: 5}},
	}

	matched, err := f.Apply("event.votes >= 3", events)
	require.NoError(t, err)
	require.Len(t, matched, 2)
	assert.Equal(t, int64(2), matched[0].ID)
	assert.Equal(t, int64(3), matched[1].ID)

	_, err = f.Apply("event.votes >= 3", events)
	require.NoError(t, err)
	assert.Equal(t, 1, f.CacheSize())

	assert.Error(t, f.Compile("event.votes >"))
	assert.Equal(t, 1, f.CacheSize())
}
