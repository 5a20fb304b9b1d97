package ticket

import (
	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
)

// InTicketCategory reports whether the channel is a live ticket.
func (m *Manager) InTicketCategory(ch *discordgo.Channel) bool {
	return ch != nil && snowflake.Parse(ch.ParentID) == m.Cfg.TicketsCategoryID
}

func (m *Manager) channel(s *discordgo.Session, channelID string) *discordgo.Channel {
	ch, err := s.State.Channel(channelID)
	if err == nil {
		return ch
	}
	ch, err = s.Channel(channelID)
	if err != nil {
		return nil
	}
	return ch
}

// HandleMessage is the MessageCreate hook for ticket channels. Automation
// messages feed the opener heuristic; the ticket bot's close-confirmation
// phrase summons the decision panel, at most once per cooldown window.
func (m *Manager) HandleMessage(s *discordgo.Session, msg *discordgo.Message) {
	ch := m.channel(s, msg.ChannelID)
	if !m.InTicketCategory(ch) {
		return
	}

	if FromAutomation(msg) {
		m.TrySetOpenerFromTicketBotPing(s, msg, ch)
	} else {
		m.maybeRecordOpener(s, msg, ch)
	}

	if !MessageContainsTrigger(msg, m.Cfg.TriggerPhrase) {
		return
	}
	// only the ticket bot may summon the panel; users quoting the phrase don't
	if !FromAutomation(msg) {
		return
	}
	if !m.Reg.PromptCooldownPassed(snowflake.Parse(ch.ID)) {
		return
	}
	m.EnsureDecisionPrompt(s, ch.ID, "trigger phrase")
}

// maybeRecordOpener eagerly stores the first valid human author as the
// ticket's opener, so the opener survives even if they leave or the channel
// history is purged before a decision is made. An already-stored opener wins.
func (m *Manager) maybeRecordOpener(s *discordgo.Session, msg *discordgo.Message, ch *discordgo.Channel) {
	if msg.Author == nil {
		return
	}
	if _, ok, err := m.Store.GetOpener(snowflake.Parse(ch.ID)); err != nil || ok {
		return
	}

	// MessageCreate carries the member without the user filled in
	member := msg.Member
	if member != nil && member.User == nil {
		mc := *member
		mc.User = msg.Author
		member = &mc
	}
	if member == nil {
		member = m.ensureMember(s, ch.GuildID, msg.Author.ID)
	}
	if member == nil || !m.IsValidOpener(s, ch.GuildID, member) {
		return
	}

	if err := m.Store.SetOpener(snowflake.Parse(ch.ID), snowflake.Parse(msg.Author.ID)); err != nil {
		m.Log.WithError(err).WithField("channel", ch.ID).Warn("opener store failed")
	}
}

// HandleChannelCreate greets a fresh ticket channel with the application
// template and pins it.
func (m *Manager) HandleChannelCreate(s *discordgo.Session, ch *discordgo.Channel) {
	if !m.InTicketCategory(ch) || m.Cfg.WelcomeMessage == "" {
		return
	}
	msg, err := s.ChannelMessageSend(ch.ID, m.Cfg.WelcomeMessage)
	if err != nil {
		m.Log.WithError(err).WithField("channel", ch.ID).Warn("welcome message failed")
		return
	}
	if err := s.ChannelMessagePin(ch.ID, msg.ID); err != nil {
		m.Log.WithError(err).WithField("channel", ch.ID).Warn("welcome pin failed")
	}
}
