package rsvp

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanbot/internal/config"
)

func testManager() *Manager {
	return &Manager{Cfg: &config.Config{
		EventTZOffsetHours:   3,
		EventRoleWaitingID:   1,
		EventRoleAcceptedID:  2,
		EventRoleTentativeID: 3,
		EventRoleDeclinedID:  4,
	}}
}

func TestParseEndTime(t *testing.T) {
	m := testManager()

	got, err := m.ParseEndTime("2026-09-15 21:00")
	require.NoError(t, err)
	// 21:00 at UTC+3 is 18:00 UTC
	assert.Equal(t, time.Date(2026, 9, 15, 18, 0, 0, 0, time.UTC).Unix(), got.Unix())

	_, err = m.ParseEndTime("завтра вечером")
	assert.Error(t, err)

	_, err = m.ParseEndTime("2026-09-15")
	assert.Error(t, err)

	got, err = m.ParseEndTime("  2026-01-02 03:04 ")
	require.NoError(t, err)
	assert.Equal(t, 3, got.Hour())
}

func TestIsNoneIsCancel(t *testing.T) {
	for _, s := range []string{"none", "NONE", " нет ", "-"} {
		assert.True(t, isNone(s), s)
	}
	assert.False(t, isNone("нет описания"))

	for _, s := range []string{"cancel", "Отмена", " CANCEL "} {
		assert.True(t, isCancel(s), s)
	}
	assert.False(t, isCancel("отменять не буду"))
}

func TestShortList(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		assert.Equal(t, "-", shortList(nil))
	})

	t.Run("sorted with bar prefix", func(t *testing.T) {
		got := shortList([]string{"b", "a"})
		assert.Equal(t, "│ a\n│ b", got)
	})

	t.Run("long list truncated with a tail counter", func(t *testing.T) {
		var names []string
		for i := 0; i < 100; i++ {
			names = append(names, fmt.Sprintf("участник_с_длинным_ником_%02d", i))
		}
		got := shortList(names)
		assert.LessOrEqual(t, len(got), 1024, "must fit a field value")
		assert.Contains(t, got, "… и ещё")
	})
}

func TestGoogleCalendarLink(t *testing.T) {
	start := time.Date(2026, 9, 15, 18, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	link := googleCalendarLink("Рейд клана", "Сбор у базы", start, end)

	assert.True(t, strings.HasPrefix(link, "https://calendar.google.com/calendar/render?"))
	assert.Contains(t, link, "action=TEMPLATE")
	assert.Contains(t, link, "dates=20260915T180000Z%2F20260915T200000Z")
	assert.NotContains(t, link, " ", "spaces must be escaped")
}

func TestStatusRoleID(t *testing.T) {
	m := testManager()
	assert.EqualValues(t, 2, m.statusRoleID("accepted"))
	assert.EqualValues(t, 3, m.statusRoleID("tentative"))
	assert.EqualValues(t, 4, m.statusRoleID("declined"))
	assert.EqualValues(t, 0, m.statusRoleID("nope"))
}

func TestAttendanceRoleIDs(t *testing.T) {
	m := testManager()
	assert.Equal(t, []int64{1, 2, 3, 4}, m.attendanceRoleIDs())

	m.Cfg.EventRoleWaitingID = 0
	assert.Equal(t, []int64{2, 3, 4}, m.attendanceRoleIDs())
}
