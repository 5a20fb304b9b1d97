package store

import (
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func TestOpeners(t *testing.T) {
	st := testStore(t)

	_, ok, err := st.GetOpener(1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetOpener(1, 100))
	id, ok, err := st.GetOpener(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 100, id)

	// second write wins
	require.NoError(t, st.SetOpener(1, 200))
	id, _, _ = st.GetOpener(1)
	assert.EqualValues(t, 200, id)

	require.NoError(t, st.DeleteTicket(1))
	_, ok, _ = st.GetOpener(1)
	assert.False(t, ok)
}

func TestPrompts(t *testing.T) {
	st := testStore(t)

	require.NoError(t, st.SetPrompt(5, 500))
	id, ok, err := st.GetPrompt(5)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 500, id)

	require.NoError(t, st.DeletePrompt(5))
	_, ok, _ = st.GetPrompt(5)
	assert.False(t, ok)

	// delete of a missing row is not an error
	require.NoError(t, st.DeletePrompt(5))
}

func TestIgnoredUsers(t *testing.T) {
	st := testStore(t)

	ignored, err := st.IsIgnoredUser(7)
	require.NoError(t, err)
	assert.False(t, ignored)

	require.NoError(t, st.AddIgnoredUser(7, 1))
	require.NoError(t, st.AddIgnoredUser(7, 2)) // duplicate add is a no-op
	ignored, _ = st.IsIgnoredUser(7)
	assert.True(t, ignored)

	ids, err := st.ListIgnoredUsers()
	require.NoError(t, err)
	assert.Equal(t, []int64{7}, ids)

	existed, err := st.RemoveIgnoredUser(7)
	require.NoError(t, err)
	assert.True(t, existed)

	existed, err = st.RemoveIgnoredUser(7)
	require.NoError(t, err)
	assert.False(t, existed)
}

func TestEventLifecycle(t *testing.T) {
	st := testStore(t)

	ev, err := st.GetEvent(10)
	require.NoError(t, err)
	assert.Nil(t, ev)

	require.NoError(t, st.UpsertEvent(&Event{
		MessageID:       10,
		GuildID:         1,
		ChannelID:       2,
		CreatedBy:       3,
		Title:           "Рейд",
		MaxParticipants: sql.NullInt64{Int64: 2, Valid: true},
		StartAt:         1000,
		EndAt:           2000,
	}))

	ev, err = st.GetEvent(10)
	require.NoError(t, err)
	require.NotNil(t, ev)
	assert.Equal(t, "Рейд", ev.Title)
	assert.EqualValues(t, 2, ev.MaxParticipants.Int64)

	// an edit only touches the mutable columns
	ev.Title = "Рейд 2"
	ev.EndAt = 3000
	require.NoError(t, st.UpsertEvent(ev))
	ev, _ = st.GetEvent(10)
	assert.Equal(t, "Рейд 2", ev.Title)
	assert.EqualValues(t, 3000, ev.EndAt)
	assert.EqualValues(t, 1000, ev.StartAt)

	id, ok, err := st.ActiveEventForGuild(1, 2500)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 10, id)

	_, ok, err = st.ActiveEventForGuild(1, 3000)
	require.NoError(t, err)
	assert.False(t, ok)

	active, err := st.ListActiveEvents(2500)
	require.NoError(t, err)
	assert.Len(t, active, 1)

	require.NoError(t, st.SetEventResponse(10, 100, StatusAccepted))
	require.NoError(t, st.DeleteEvent(10))
	ev, _ = st.GetEvent(10)
	assert.Nil(t, ev)
	responses, _ := st.EventResponses(10)
	assert.Empty(t, responses)
}

func TestEventResponses(t *testing.T) {
	st := testStore(t)
	require.NoError(t, st.UpsertEvent(&Event{MessageID: 20, GuildID: 1, ChannelID: 2, CreatedBy: 3, Title: "x", EndAt: 100}))

	require.NoError(t, st.SetEventResponse(20, 100, StatusAccepted))
	require.NoError(t, st.SetEventResponse(20, 101, StatusAccepted))
	require.NoError(t, st.SetEventResponse(20, 102, StatusDeclined))

	n, err := st.CountStatus(20, StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// changing a response replaces the old one
	require.NoError(t, st.SetEventResponse(20, 101, StatusTentative))
	n, _ = st.CountStatus(20, StatusAccepted)
	assert.Equal(t, 1, n)

	responses, err := st.EventResponses(20)
	require.NoError(t, err)
	assert.Equal(t, map[int64]string{
		100: StatusAccepted,
		101: StatusTentative,
		102: StatusDeclined,
	}, responses)
}

func TestEventChannel(t *testing.T) {
	st := testStore(t)

	_, ok, err := st.GetEventChannel(1)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.SetEventChannel(1, 42))
	require.NoError(t, st.SetEventChannel(1, 43))
	id, ok, err := st.GetEventChannel(1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 43, id)
}
