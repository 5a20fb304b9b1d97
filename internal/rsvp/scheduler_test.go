package rsvp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanbot/internal/store"
)

func TestHandleMessageDeleteAfterClose(t *testing.T) {
	m := storedManager(t)
	ev := cappedEvent(t, m, 2)
	require.NoError(t, m.Store.SetEventResponse(ev.MessageID, 100, store.StatusAccepted))

	// a closed event purges its row before deleting the announcement, so the
	// gateway echo of our own delete must find nothing and bail out before
	// touching the session (nil here; any REST call would panic)
	require.NoError(t, m.Store.DeleteEvent(ev.MessageID))
	assert.NotPanics(t, func() {
		m.HandleMessageDelete(nil, "10")
	})

	responses, err := m.Store.EventResponses(ev.MessageID)
	require.NoError(t, err)
	assert.Empty(t, responses)
}

func TestHandleMessageDeleteUnknownMessage(t *testing.T) {
	m := storedManager(t)

	assert.NotPanics(t, func() {
		m.HandleMessageDelete(nil, "999")
	})
}

func TestScheduleEventCloseRearm(t *testing.T) {
	m := storedManager(t)
	ev := cappedEvent(t, m, 2)
	ev.EndAt = time.Now().Add(time.Hour).Unix()

	// arming twice must be safe; the registry swaps the timer
	m.ScheduleEventClose(nil, ev)
	m.ScheduleEventClose(nil, ev)
	m.Reg.CancelClose(ev.MessageID)
}
