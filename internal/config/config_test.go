package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("DISCORD_TOKEN", "test-token")
	t.Setenv("TICKETS_CATEGORY_ID", "100")
	t.Setenv("ARCHIVE_CATEGORY_ID", "101")
	t.Setenv("ACCEPT_ADD_ROLE_ID", "102")
	t.Setenv("ACCEPT_REMOVE_ROLE_ID", "103")
	t.Setenv("PRIVATE_GUILD_ID", "104")
	t.Setenv("PRIVATE_SETUP_CHANNEL_ID", "105")
	t.Setenv("PRIVATE_REMOVE_ROLE_ID", "106")
	t.Setenv("PRIVATE_ADD_ROLE_ID", "107")
	t.Setenv("ADMIN_USER_ID", "108")
	t.Setenv("STAFF_ROLE_IDS", "201,202")
}

func TestLoad(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "test-token", cfg.Token)
	assert.EqualValues(t, 100, cfg.TicketsCategoryID)
	assert.Equal(t, []int64{201, 202}, cfg.StaffRoleIDs)
	assert.Equal(t, 30*time.Second, cfg.PromptCooldown)
	assert.Equal(t, 5*time.Minute, cfg.OpenerPingWindow)
	assert.Equal(t, "вы серьезно хотите закрыть данный тикет", cfg.TriggerPhrase)
	assert.Equal(t, 3, cfg.EventTZOffsetHours)
	assert.Equal(t, 1, cfg.InviteMaxUses)
}

func TestLoadMissingToken(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_TOKEN", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadMissingRequiredID(t *testing.T) {
	setRequired(t)
	t.Setenv("TICKETS_CATEGORY_ID", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TICKETS_CATEGORY_ID")
}

func TestLoadMissingStaffRoles(t *testing.T) {
	setRequired(t)
	t.Setenv("STAFF_ROLE_IDS", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STAFF_ROLE_IDS")
}

func TestTokenFallbackNames(t *testing.T) {
	setRequired(t)
	t.Setenv("DISCORD_TOKEN", "")
	t.Setenv("BOT_TOKEN", "fallback-token")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "fallback-token", cfg.Token)
}

func TestQuotedValues(t *testing.T) {
	setRequired(t)
	t.Setenv("TRIGGER_PHRASE", `"своя фраза"`)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "своя фраза", cfg.TriggerPhrase)
}

func TestEventTZ(t *testing.T) {
	setRequired(t)
	cfg, err := Load()
	require.NoError(t, err)

	_, offset := time.Now().In(cfg.EventTZ()).Zone()
	assert.Equal(t, 3*3600, offset)
}

func TestIsIgnoredOpenerID(t *testing.T) {
	setRequired(t)
	t.Setenv("IGNORED_OPENER_IDS", "1,2,3")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.IsIgnoredOpenerID(2))
	assert.False(t, cfg.IsIgnoredOpenerID(9))
}
