package ticket

import (
	"path/filepath"
	"testing"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"clanbot/internal/config"
	"clanbot/internal/store"
)

func testTicketManager(t *testing.T) *Manager {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return &Manager{
		Cfg:   &config.Config{TicketsCategoryID: 500},
		Store: st,
		Log:   logger.WithField("component", "ticket"),
	}
}

func humanMessage(userID string) *discordgo.Message {
	user := &discordgo.User{ID: userID}
	return &discordgo.Message{
		Author: user,
		Member: &discordgo.Member{User: user},
	}
}

func TestMaybeRecordOpener(t *testing.T) {
	m := testTicketManager(t)
	ch := &discordgo.Channel{ID: "1000", GuildID: "1", ParentID: "500"}

	t.Run("first human author is stored", func(t *testing.T) {
		m.maybeRecordOpener(nil, humanMessage("111111111111111111"), ch)
		id, ok, err := m.Store.GetOpener(1000)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.EqualValues(t, 111111111111111111, id)
	})

	t.Run("later authors do not overwrite", func(t *testing.T) {
		m.maybeRecordOpener(nil, humanMessage("222222222222222222"), ch)
		id, _, _ := m.Store.GetOpener(1000)
		assert.EqualValues(t, 111111111111111111, id)
	})
}

func TestMaybeRecordOpenerSkipsBots(t *testing.T) {
	m := testTicketManager(t)
	ch := &discordgo.Channel{ID: "1001", GuildID: "1", ParentID: "500"}

	msg := humanMessage("111111111111111111")
	msg.Author.Bot = true
	msg.Member.User = msg.Author
	m.maybeRecordOpener(nil, msg, ch)

	_, ok, err := m.Store.GetOpener(1001)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMaybeRecordOpenerSkipsIgnored(t *testing.T) {
	m := testTicketManager(t)
	ch := &discordgo.Channel{ID: "1002", GuildID: "1", ParentID: "500"}

	require.NoError(t, m.Store.AddIgnoredUser(111111111111111111, 1))
	m.maybeRecordOpener(nil, humanMessage("111111111111111111"), ch)

	_, ok, err := m.Store.GetOpener(1002)
	require.NoError(t, err)
	assert.False(t, ok)

	// a non-ignored author still goes through afterwards
	m.maybeRecordOpener(nil, humanMessage("222222222222222222"), ch)
	id, ok, _ := m.Store.GetOpener(1002)
	assert.True(t, ok)
	assert.EqualValues(t, 222222222222222222, id)
}
