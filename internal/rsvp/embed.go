package rsvp

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

const (
	embedColor = 0xF1C40F
	// per-column budget; Discord caps a field value at 1024
	columnCharBudget = 900
)

// googleCalendarLink builds an "Add to Google Calendar" template URL.
func googleCalendarLink(title, description string, start, end time.Time) string {
	const layout = "20060102T150405Z"
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", title)
	if description != "" {
		v.Set("details", description)
	}
	v.Set("dates", start.UTC().Format(layout)+"/"+end.UTC().Format(layout))
	return "https://calendar.google.com/calendar/render?" + v.Encode()
}

// shortList renders one attendance column: names sorted, one per line with a
// bar prefix, truncated with a tail counter when the column budget runs out.
func shortList(names []string) string {
	if len(names) == 0 {
		return "-"
	}
	sort.Strings(names)

	var b strings.Builder
	shown := 0
	for _, name := range names {
		line := "│ " + name
		if shown > 0 {
			line = "\n" + line
		}
		if b.Len()+len(line) > columnCharBudget {
			break
		}
		b.WriteString(line)
		shown++
	}
	if rest := len(names) - shown; rest > 0 {
		fmt.Fprintf(&b, "\n… и ещё %d чел.", rest)
	}
	return b.String()
}

// displayName resolves how the member shows up in the guild, degrading to the
// bare username and finally the raw ID.
func (m *Manager) displayName(s *discordgo.Session, guildID string, userID int64) string {
	raw := snowflake.Format(userID)
	member, err := s.State.Member(guildID, raw)
	if err != nil || member == nil {
		member, _ = s.GuildMember(guildID, raw)
	}
	if member != nil {
		if member.Nick != "" {
			return member.Nick
		}
		if member.User != nil && member.User.Username != "" {
			return member.User.Username
		}
	}
	if u, err := s.User(raw); err == nil && u.Username != "" {
		return u.Username
	}
	return raw
}

// BuildEventEmbed renders the announcement embed from the stored event and the
// current responses.
func (m *Manager) BuildEventEmbed(s *discordgo.Session, ev *store.Event, responses map[int64]string) *discordgo.MessageEmbed {
	guildID := snowflake.Format(ev.GuildID)

	byStatus := map[string][]string{}
	for uid, status := range responses {
		byStatus[status] = append(byStatus[status], m.displayName(s, guildID, uid))
	}

	acceptedTitle := fmt.Sprintf("✅ Accepted (%d)", len(byStatus[store.StatusAccepted]))
	if ev.MaxParticipants.Valid {
		acceptedTitle = fmt.Sprintf("✅ Accepted (%d/%d)", len(byStatus[store.StatusAccepted]), ev.MaxParticipants.Int64)
	}

	start := time.Unix(ev.StartAt, 0)
	end := time.Unix(ev.EndAt, 0)
	timeValue := fmt.Sprintf("<t:%d:F>\n<t:%d:R>\n[Добавить в Google Календарь](%s)",
		ev.EndAt, ev.EndAt, googleCalendarLink(ev.Title, ev.Description, start, end))

	embed := &discordgo.MessageEmbed{
		Title:       ev.Title,
		Description: ev.Description,
		Color:       embedColor,
		Author:      &discordgo.MessageEmbedAuthor{Name: m.Cfg.EventBrandName, IconURL: m.Cfg.EventBrandIconURL},
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Время", Value: timeValue},
			{Name: acceptedTitle, Value: shortList(byStatus[store.StatusAccepted]), Inline: true},
			{Name: "❌ Declined", Value: shortList(byStatus[store.StatusDeclined]), Inline: true},
			{Name: "❓ Tentative", Value: shortList(byStatus[store.StatusTentative]), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Created by " + m.displayName(s, guildID, ev.CreatedBy),
		},
	}
	if m.Cfg.EventImageURL != "" {
		embed.Image = &discordgo.MessageEmbedImage{URL: m.Cfg.EventImageURL}
	}
	return embed
}

func eventComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "✅"}, Style: discordgo.SecondaryButton, CustomID: CustomIDAccept},
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "❌"}, Style: discordgo.SecondaryButton, CustomID: CustomIDDecline},
			discordgo.Button{Emoji: &discordgo.ComponentEmoji{Name: "❓"}, Style: discordgo.SecondaryButton, CustomID: CustomIDTentative},
		}},
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{Label: "Изменить", Emoji: &discordgo.ComponentEmoji{Name: "✏️"}, Style: discordgo.SecondaryButton, CustomID: CustomIDEdit},
			discordgo.Button{Label: "Удалить", Emoji: &discordgo.ComponentEmoji{Name: "🗑️"}, Style: discordgo.DangerButton, CustomID: CustomIDDelete},
		}},
	}
}

// RefreshEventMessage re-renders the announcement after an RSVP or an edit.
func (m *Manager) RefreshEventMessage(s *discordgo.Session, ev *store.Event) {
	responses, err := m.Store.EventResponses(ev.MessageID)
	if err != nil {
		m.Log.WithError(err).WithField("event", ev.MessageID).Warn("responses load failed")
		return
	}
	embed := m.BuildEventEmbed(s, ev, responses)
	_, err = s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:      snowflake.Format(ev.MessageID),
		Channel: snowflake.Format(ev.ChannelID),
		Embeds:  &[]*discordgo.MessageEmbed{embed},
	})
	if err != nil {
		m.Log.WithError(err).WithField("event", ev.MessageID).Warn("announcement edit failed")
	}
}
