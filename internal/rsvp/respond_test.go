package rsvp

import (
	"database/sql"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanbot/internal/config"
	"clanbot/internal/registry"
	"clanbot/internal/store"
)

func storedManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return NewManager(
		&config.Config{EventTZOffsetHours: 3},
		st,
		registry.New(time.Second),
		logger.WithField("component", "rsvp"),
	)
}

func cappedEvent(t *testing.T, m *Manager, max int64) *store.Event {
	t.Helper()
	ev := &store.Event{
		MessageID:       10,
		GuildID:         1,
		ChannelID:       2,
		CreatedBy:       3,
		Title:           "Рейд",
		MaxParticipants: sql.NullInt64{Int64: max, Valid: true},
		StartAt:         time.Now().Unix(),
		EndAt:           time.Now().Add(time.Hour).Unix(),
	}
	require.NoError(t, m.Store.UpsertEvent(ev))
	return ev
}

func TestRecordResponseCapacity(t *testing.T) {
	m := storedManager(t)
	ev := cappedEvent(t, m, 2)

	ok, _, err := m.recordResponse(ev, 100, store.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, _, err = m.recordResponse(ev, 101, store.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, accepted, err := m.recordResponse(ev, 102, store.StatusAccepted)
	require.NoError(t, err)
	assert.False(t, ok, "third accept must bounce off the limit")
	assert.Equal(t, 2, accepted)

	// a full event still takes declines and tentatives
	ok, _, err = m.recordResponse(ev, 102, store.StatusTentative)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRecordResponseIdempotent(t *testing.T) {
	m := storedManager(t)
	ev := cappedEvent(t, m, 2)

	require.NoError(t, m.Store.SetEventResponse(ev.MessageID, 100, store.StatusAccepted))
	require.NoError(t, m.Store.SetEventResponse(ev.MessageID, 101, store.StatusAccepted))

	// re-pressing accept while already in must not bounce even at capacity
	ok, _, err := m.recordResponse(ev, 100, store.StatusAccepted)
	require.NoError(t, err)
	assert.True(t, ok)

	n, err := m.Store.CountStatus(ev.MessageID, store.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestRecordResponseConcurrentAccepts(t *testing.T) {
	m := storedManager(t)
	ev := cappedEvent(t, m, 2)

	const pressers = 8
	start := make(chan struct{})
	results := make(chan bool, pressers)
	var wg sync.WaitGroup
	for u := int64(0); u < pressers; u++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			<-start
			ok, _, err := m.recordResponse(ev, userID, store.StatusAccepted)
			assert.NoError(t, err)
			results <- ok
		}(200 + u)
	}
	close(start)
	wg.Wait()
	close(results)

	admitted := 0
	for ok := range results {
		if ok {
			admitted++
		}
	}
	assert.Equal(t, 2, admitted, "simultaneous presses must not overshoot the limit")

	n, err := m.Store.CountStatus(ev.MessageID, store.StatusAccepted)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
