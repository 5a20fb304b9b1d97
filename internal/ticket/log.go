package ticket

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
)

// LogEvent posts a plain line to the moderation log channel, if configured.
func (m *Manager) LogEvent(s *discordgo.Session, text string) {
	if m.Cfg.LogChannelID == 0 {
		return
	}
	if _, err := s.ChannelMessageSend(snowflake.Format(m.Cfg.LogChannelID), text); err != nil {
		m.Log.WithError(err).Warn("log channel send failed")
	}
}

// SendApplicationLog posts the decision audit entry and marks it with the
// matching reaction so the log channel scans at a glance.
func (m *Manager) SendApplicationLog(s *discordgo.Session, decision Decision, opener, moderator *discordgo.User, reason string, ch *discordgo.Channel, res *stepResults) {
	if m.Cfg.LogChannelID == 0 {
		return
	}

	emoji := "✅"
	if decision == DecisionReject {
		emoji = "❌"
	}

	who := "не определён"
	if opener != nil {
		who = fmt.Sprintf("<@%s> (`%s`, ID %s)", opener.ID, opener.Username, opener.ID)
	}

	lines := []string{
		fmt.Sprintf("%s **Заявка %s**", emoji, decisionWord(decision)),
		"Пользователь: " + who,
		fmt.Sprintf("Модератор: <@%s> (`%s`)", moderator.ID, moderator.Username),
		"Причина/комментарий: " + reason,
		fmt.Sprintf("Канал: `#%s`", ch.Name),
	}
	if decision == DecisionAccept {
		lines = append(lines,
			"Инвайт: "+res.Invite.Status(),
			"Роли: "+res.RoleAdd.Status()+" / "+res.RoleRemove.Status(),
		)
	}
	lines = append(lines, "ЛС: "+res.DM.Status())

	logChID := snowflake.Format(m.Cfg.LogChannelID)
	msg, err := s.ChannelMessageSendComplex(logChID, &discordgo.MessageSend{
		Content:         strings.Join(lines, "\n"),
		AllowedMentions: &discordgo.MessageAllowedMentions{},
	})
	if err != nil {
		m.Log.WithError(err).Warn("audit log send failed")
		return
	}
	if err := s.MessageReactionAdd(logChID, msg.ID, emoji); err != nil {
		m.Log.WithError(err).Warn("audit log reaction failed")
	}
}
