package ticket

import (
	"regexp"
	"sort"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
)

var (
	mentionRE        = regexp.MustCompile(`<@!?(\d{15,25})>`)
	bareIDRE         = regexp.MustCompile(`\b(\d{15,25})\b`)
	leadingMentionRE = regexp.MustCompile(`^\s*<@!?(\d{15,25})>`)
)

// ExtractUserIDs pulls user IDs (mentions first, then bare numbers) out of
// free text, deduplicated, in document order.
func ExtractUserIDs(text string) []int64 {
	var ids []int64
	seen := make(map[int64]bool)
	add := func(raw string) {
		id := snowflake.Parse(raw)
		if id != 0 && !seen[id] {
			ids = append(ids, id)
			seen[id] = true
		}
	}
	for _, m := range mentionRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	for _, m := range bareIDRE.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return ids
}

// GetOpenerUser returns the ticket channel's opener, resolving and persisting
// it when not already stored. nil means unresolved; that is not an error and
// downstream steps degrade to best effort.
func (m *Manager) GetOpenerUser(s *discordgo.Session, ch *discordgo.Channel) *discordgo.User {
	storedID, ok, err := m.Store.GetOpener(snowflake.Parse(ch.ID))
	if err != nil {
		m.Log.WithError(err).WithField("channel", ch.ID).Warn("opener lookup failed")
	}
	if ok {
		// a stored opener that has since been ignored forces re-resolution
		if !m.IsIgnoredOpenerID(storedID) {
			uid := snowflake.Format(storedID)
			if member := m.ensureMember(s, ch.GuildID, uid); member != nil && m.IsValidOpener(s, ch.GuildID, member) {
				return member.User
			}
			if u, err := s.User(uid); err == nil {
				return u
			}
		}
	}

	opener := m.resolveFallback(s, ch)
	if opener != nil {
		if err := m.Store.SetOpener(snowflake.Parse(ch.ID), snowflake.Parse(opener.ID)); err != nil {
			m.Log.WithError(err).WithField("channel", ch.ID).Warn("opener write-back failed")
		}
	}
	return opener
}

// resolveFallback tries, in order: a user reference in the channel topic,
// a member-level view overwrite, and finally the first non-bot author in the
// oldest 200 messages.
func (m *Manager) resolveFallback(s *discordgo.Session, ch *discordgo.Channel) *discordgo.User {
	if ch.Topic != "" {
		for _, re := range []*regexp.Regexp{mentionRE, bareIDRE} {
			match := re.FindStringSubmatch(ch.Topic)
			if match == nil {
				continue
			}
			uid := snowflake.Parse(match[1])
			if uid == 0 || m.IsIgnoredOpenerID(uid) {
				continue
			}
			raw := snowflake.Format(uid)
			if member := m.ensureMember(s, ch.GuildID, raw); member != nil {
				if m.IsValidOpener(s, ch.GuildID, member) {
					return member.User
				}
				continue
			}
			if u, err := s.User(raw); err == nil {
				return u
			}
		}
	}

	for _, ow := range ch.PermissionOverwrites {
		if ow.Type != discordgo.PermissionOverwriteTypeMember {
			continue
		}
		if ow.Allow&discordgo.PermissionViewChannel == 0 {
			continue
		}
		if member := m.ensureMember(s, ch.GuildID, ow.ID); member != nil && m.IsValidOpener(s, ch.GuildID, member) {
			return member.User
		}
	}

	for _, msg := range m.oldestMessages(s, ch.ID, 200) {
		if msg.Author == nil || msg.Author.Bot {
			continue
		}
		if member := m.ensureMember(s, ch.GuildID, msg.Author.ID); member != nil {
			if m.IsValidOpener(s, ch.GuildID, member) {
				return member.User
			}
			continue
		}
		if !m.IsIgnoredOpenerID(snowflake.Parse(msg.Author.ID)) {
			return msg.Author
		}
	}

	return nil
}

// oldestMessages pages through channel history from the beginning, ascending.
func (m *Manager) oldestMessages(s *discordgo.Session, channelID string, limit int) []*discordgo.Message {
	var out []*discordgo.Message
	after := "0"
	for len(out) < limit {
		page := limit - len(out)
		if page > 100 {
			page = 100
		}
		msgs, err := s.ChannelMessages(channelID, page, "", after, "")
		if err != nil || len(msgs) == 0 {
			break
		}
		sort.Slice(msgs, func(i, j int) bool {
			return snowflake.Parse(msgs[i].ID) < snowflake.Parse(msgs[j].ID)
		})
		out = append(out, msgs...)
		after = msgs[len(msgs)-1].ID
	}
	return out
}

// TrySetOpenerFromTicketBotPing watches the ticket bot's opening message: it
// reliably pings the opener right after creating the channel, which makes it
// the strongest opener signal and may override an earlier wrong guess. Only
// messages from automation inside the configured early window count.
func (m *Manager) TrySetOpenerFromTicketBotPing(s *discordgo.Session, msg *discordgo.Message, ch *discordgo.Channel) {
	if !FromAutomation(msg) {
		return
	}

	if created, err := discordgo.SnowflakeTimestamp(ch.ID); err == nil {
		if msg.Timestamp.Sub(created) > m.Cfg.OpenerPingWindow {
			return
		}
	}

	var candidates []int64
	if match := leadingMentionRE.FindStringSubmatch(msg.Content); match != nil {
		candidates = append(candidates, snowflake.Parse(match[1]))
	}
	if len(candidates) == 0 {
		for _, u := range msg.Mentions {
			candidates = append(candidates, snowflake.Parse(u.ID))
		}
	}
	if len(candidates) == 0 && msg.Content != "" {
		candidates = ExtractUserIDs(msg.Content)
	}

	seen := make(map[int64]bool)
	for _, uid := range candidates {
		if uid == 0 || seen[uid] {
			continue
		}
		seen[uid] = true
		if m.IsIgnoredOpenerID(uid) {
			continue
		}
		member := m.ensureMember(s, ch.GuildID, snowflake.Format(uid))
		if member == nil || !m.IsValidOpener(s, ch.GuildID, member) {
			continue
		}
		// overwrite even if an opener was stored before; this source wins
		if err := m.Store.SetOpener(snowflake.Parse(ch.ID), uid); err != nil {
			m.Log.WithError(err).WithField("channel", ch.ID).Warn("opener store failed")
		}
		return
	}
}
