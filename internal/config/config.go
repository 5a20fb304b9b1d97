// Package config loads bot settings from the environment. A .env file next to
// the binary is honored when present (loaded by main via godotenv), so local
// runs and hosting panels behave the same.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Token env var names, checked in order.
var tokenEnvNames = []string{"DISCORD_TOKEN", "TOKEN", "BOT_TOKEN", "DISCORD_BOT_TOKEN"}

// Config carries every tunable of the bot. Required IDs missing from the
// environment make Load fail; everything else has a default matching the
// production deployment.
type Config struct {
	Token string

	// Ticket triage
	TicketsCategoryID int64
	ArchiveCategoryID int64
	StaffRoleIDs      []int64
	StaffPingRoleIDs  []int64
	LogChannelID      int64 // 0 = disabled
	TriggerPhrase     string
	PromptCooldown    time.Duration
	// Window after channel creation during which the ticket bot's opening
	// ping is trusted to identify the opener.
	OpenerPingWindow time.Duration

	// Decision side effects
	PermanentInviteLink string
	AcceptAddRoleID     int64
	AcceptRemoveRoleID  int64
	AcceptExtraDM       string
	WelcomeMessage      string

	// Private guild onboarding
	PrivateGuildID        int64
	PrivateSetupChannelID int64
	PrivateRemoveRoleID   int64
	PrivateAddRoleID      int64
	PrivateSetupMessage   string
	InviteMaxAge          time.Duration
	InviteMaxUses         int

	// Ticket opener ignore list (static part; the dynamic part lives in the store)
	IgnoredOpenerIDs     []int64
	IgnoredOpenerRoleIDs []int64
	AdminUserID          int64

	// RSVP
	EventManagerRoleIDs  []int64
	EventRoleWaitingID   int64
	EventRoleAcceptedID  int64
	EventRoleTentativeID int64
	EventRoleDeclinedID  int64
	EventTZOffsetHours   int
	EventDMTimeout       time.Duration
	EventBrandName       string
	EventBrandIconURL    string
	EventImageURL        string

	DBPath string
}

// Load reads the environment. It returns an error when the token or a required
// snowflake is absent so the caller can refuse to start (misconfiguration is
// fatal, degraded operation is not).
func Load() (*Config, error) {
	token := firstEnv(tokenEnvNames...)
	if token == "" {
		return nil, fmt.Errorf("bot token not set; expected one of %s", strings.Join(tokenEnvNames, ", "))
	}

	cfg := &Config{
		Token:          token,
		TriggerPhrase:  envString("TRIGGER_PHRASE", "вы серьезно хотите закрыть данный тикет"),
		PromptCooldown: envDuration("PROMPT_COOLDOWN_SECONDS", 30*time.Second),

		OpenerPingWindow: envDuration("OPENER_PING_WINDOW_SECONDS", 5*time.Minute),

		PermanentInviteLink: envString("PERMANENT_INVITE_LINK", "https://discord.gg/Pgs8uZffhr"),
		AcceptExtraDM:       envString("ACCEPT_EXTRA_DM", defaultAcceptExtraDM),
		WelcomeMessage:      envString("WELCOME_MESSAGE", defaultWelcomeMessage),
		PrivateSetupMessage: envString("PRIVATE_SETUP_MESSAGE", defaultPrivateSetupMessage),
		InviteMaxAge:        envDuration("PRIVATE_INVITE_MAX_AGE_SECONDS", 24*time.Hour),
		InviteMaxUses:       envInt("PRIVATE_INVITE_MAX_USES", 1),

		EventTZOffsetHours: envInt("EVENT_TZ_OFFSET_HOURS", 3),
		EventDMTimeout:     envDuration("EVENT_DM_TIMEOUT_SECONDS", 15*time.Minute),
		EventBrandName:     envString("EVENT_BRAND_NAME", "SH TEAM"),
		EventBrandIconURL:  envString("EVENT_BRAND_ICON_URL", ""),
		EventImageURL:      envString("EVENT_IMAGE_URL", ""),

		DBPath: envString("DB_PATH", "tickets.db"),
	}

	var err error
	required := func(dst *int64, name string) {
		if err != nil {
			return
		}
		*dst, err = requiredID(name)
	}
	required(&cfg.TicketsCategoryID, "TICKETS_CATEGORY_ID")
	required(&cfg.ArchiveCategoryID, "ARCHIVE_CATEGORY_ID")
	required(&cfg.AcceptAddRoleID, "ACCEPT_ADD_ROLE_ID")
	required(&cfg.AcceptRemoveRoleID, "ACCEPT_REMOVE_ROLE_ID")
	required(&cfg.PrivateGuildID, "PRIVATE_GUILD_ID")
	required(&cfg.PrivateSetupChannelID, "PRIVATE_SETUP_CHANNEL_ID")
	required(&cfg.PrivateRemoveRoleID, "PRIVATE_REMOVE_ROLE_ID")
	required(&cfg.PrivateAddRoleID, "PRIVATE_ADD_ROLE_ID")
	required(&cfg.AdminUserID, "ADMIN_USER_ID")
	if err != nil {
		return nil, err
	}

	cfg.LogChannelID = envID("LOG_CHANNEL_ID")
	cfg.StaffRoleIDs = envIDList("STAFF_ROLE_IDS")
	cfg.StaffPingRoleIDs = envIDList("STAFF_PING_ROLE_IDS")
	cfg.IgnoredOpenerIDs = envIDList("IGNORED_OPENER_IDS")
	cfg.IgnoredOpenerRoleIDs = envIDList("IGNORED_OPENER_ROLE_IDS")
	cfg.EventManagerRoleIDs = envIDList("EVENT_MANAGER_ROLE_IDS")
	cfg.EventRoleWaitingID = envID("EVENT_ROLE_WAITING_ID")
	cfg.EventRoleAcceptedID = envID("EVENT_ROLE_ACCEPTED_ID")
	cfg.EventRoleTentativeID = envID("EVENT_ROLE_TENTATIVE_ID")
	cfg.EventRoleDeclinedID = envID("EVENT_ROLE_DECLINED_ID")

	if len(cfg.StaffRoleIDs) == 0 {
		return nil, fmt.Errorf("STAFF_ROLE_IDS is empty; at least one staff role is required")
	}

	return cfg, nil
}

// EventTZ returns the fixed zone used to interpret wizard timestamps.
func (c *Config) EventTZ() *time.Location {
	return time.FixedZone(fmt.Sprintf("UTC%+d", c.EventTZOffsetHours), c.EventTZOffsetHours*3600)
}

// IsIgnoredOpenerID reports whether id is on the static ignore list.
func (c *Config) IsIgnoredOpenerID(id int64) bool {
	for _, v := range c.IgnoredOpenerIDs {
		if v == id {
			return true
		}
	}
	return false
}

func cleanValue(raw string) string {
	v := strings.TrimSpace(raw)
	if len(v) >= 2 {
		if (v[0] == '"' && v[len(v)-1] == '"') || (v[0] == '\'' && v[len(v)-1] == '\'') {
			v = strings.TrimSpace(v[1 : len(v)-1])
		}
	}
	return v
}

func firstEnv(names ...string) string {
	for _, n := range names {
		if v := cleanValue(os.Getenv(n)); v != "" {
			return v
		}
	}
	return ""
}

func envString(name, def string) string {
	if v := cleanValue(os.Getenv(name)); v != "" {
		return v
	}
	return def
}

func envInt(name string, def int) int {
	v := cleanValue(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

// envDuration reads a plain number of seconds.
func envDuration(name string, def time.Duration) time.Duration {
	v := cleanValue(os.Getenv(name))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return time.Duration(n) * time.Second
}

func envID(name string) int64 {
	v := cleanValue(os.Getenv(name))
	if v == "" {
		return 0
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func requiredID(name string) (int64, error) {
	v := cleanValue(os.Getenv(name))
	if v == "" {
		return 0, fmt.Errorf("%s is not set", name)
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid snowflake %q", name, v)
	}
	return id, nil
}

func envIDList(name string) []int64 {
	v := cleanValue(os.Getenv(name))
	if v == "" {
		return nil
	}
	var out []int64
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, id)
	}
	return out
}

const defaultAcceptExtraDM = "**Так же не забудьте поставить ник по форме в приватке, и добавить приписку в стим профиле!**\n" +
	"*Форма для стима: SH | nick*\n" +
	"*Форма для приватки: Ник | Имя*"

const defaultWelcomeMessage = "**Шаблон для подачи заявки в клан:** \n\n" +
	"```1) Возраст, имя, кол-во часов (на одном аккаунте, пиратки не считаются)\n" +
	"2) Ваши преимущества\n" +
	"3) Роль в клане\n" +
	"4) Играете ли вы час в день на юкн?\n" +
	"5) Был ли опыт в кланах? (если да то в каких)\n" +
	"6) Профиль стим (ТРЕБУЕТСЯ открытый стим аккаунт)\n" +
	"7) Ваш часовой пояс\n" +
	"8) Сколько играете в день\n" +
	"9) Откуда узнали о нас?\n" +
	"10) Ваша характеристика пк (кратко, основные компоненты)\n" +
	"11) Принимаете ли вы обоснованную критику в свою сторону?```\n\n" +
	"***Заполняйте свою заявку по форме выше!***"

const defaultPrivateSetupMessage = "**Приватка: установка ника**\n" +
	"Нажми кнопку ниже, заполни форму — и я автоматически поставлю тебе ник по формату " +
	"**`Ник в стиме | Настоящее имя`** и обновлю роли."
