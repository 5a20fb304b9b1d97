package rsvp

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// ScheduleEventClose arms the auto-close timer for the event.
func (m *Manager) ScheduleEventClose(s *discordgo.Session, ev *store.Event) {
	messageID := ev.MessageID
	d := time.Until(time.Unix(ev.EndAt, 0))
	m.Reg.ScheduleClose(messageID, d, func() {
		m.CloseEvent(s, messageID)
	})
}

// LoadAndScheduleActive rebuilds close timers after a restart. Events already
// past their end close immediately.
func (m *Manager) LoadAndScheduleActive(s *discordgo.Session) {
	evs, err := m.Store.ListActiveEvents(0)
	if err != nil {
		m.Log.WithError(err).Error("active event load failed")
		return
	}
	for _, ev := range evs {
		m.ScheduleEventClose(s, ev)
	}
	if len(evs) > 0 {
		m.Log.WithField("events", len(evs)).Info("close timers rebuilt")
	}
}

// CloseEvent converges the event to closed: announcement gone, roles stripped,
// rows purged, timer cancelled. Every step is independent so a partial earlier
// close finishes here.
func (m *Manager) CloseEvent(s *discordgo.Session, messageID int64) {
	ev, err := m.Store.GetEvent(messageID)
	if err != nil {
		m.Log.WithError(err).WithField("event", messageID).Error("event load failed on close")
		return
	}
	if ev == nil {
		m.Reg.CancelClose(messageID)
		return
	}
	log := m.Log.WithFields(map[string]any{"event": messageID, "guild": ev.GuildID})

	// purge the row first: deleting the announcement echoes back as a
	// MessageDelete gateway event, and HandleMessageDelete must find nothing
	// or it starts a second role-strip fanout
	if err := m.Store.DeleteEvent(messageID); err != nil {
		log.WithError(err).Error("event row purge failed")
	}
	m.Reg.CancelClose(messageID)

	if err := s.ChannelMessageDelete(snowflake.Format(ev.ChannelID), snowflake.Format(messageID)); err != nil {
		// already deleted is fine, anything else is logged and skipped
		log.WithError(err).Warn("announcement delete failed")
	}

	m.RemoveAttendanceRolesFromAll(s, snowflake.Format(ev.GuildID))
	log.Info("event closed")
}

// HandleMessageDelete reacts to the announcement being removed by hand: the
// event is closed as if the timer fired, minus the already-gone message.
func (m *Manager) HandleMessageDelete(s *discordgo.Session, messageID string) {
	id := snowflake.Parse(messageID)
	ev, err := m.Store.GetEvent(id)
	if err != nil || ev == nil {
		return
	}
	m.Log.WithField("event", id).Info("announcement deleted externally, closing event")
	m.RemoveAttendanceRolesFromAll(s, snowflake.Format(ev.GuildID))
	if err := m.Store.DeleteEvent(id); err != nil {
		m.Log.WithError(err).WithField("event", id).Error("event row purge failed")
	}
	m.Reg.CancelClose(id)
}
