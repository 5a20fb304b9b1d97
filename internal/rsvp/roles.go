package rsvp

import (
	"time"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// attendanceRoleIDs returns every configured event role, waiting included.
func (m *Manager) attendanceRoleIDs() []int64 {
	var out []int64
	for _, rid := range []int64{
		m.Cfg.EventRoleWaitingID,
		m.Cfg.EventRoleAcceptedID,
		m.Cfg.EventRoleTentativeID,
		m.Cfg.EventRoleDeclinedID,
	} {
		if rid != 0 {
			out = append(out, rid)
		}
	}
	return out
}

func (m *Manager) statusRoleID(status string) int64 {
	switch status {
	case store.StatusAccepted:
		return m.Cfg.EventRoleAcceptedID
	case store.StatusTentative:
		return m.Cfg.EventRoleTentativeID
	case store.StatusDeclined:
		return m.Cfg.EventRoleDeclinedID
	}
	return 0
}

func hasRole(member *discordgo.Member, roleID int64) bool {
	raw := snowflake.Format(roleID)
	for _, r := range member.Roles {
		if r == raw {
			return true
		}
	}
	return false
}

func (m *Manager) hasAnyAttendanceRole(member *discordgo.Member) bool {
	for _, rid := range m.attendanceRoleIDs() {
		if hasRole(member, rid) {
			return true
		}
	}
	return false
}

// ApplyStatusRole moves the member onto the role matching their RSVP: every
// other attendance role comes off first.
func (m *Manager) ApplyStatusRole(s *discordgo.Session, guildID, userID string, status string) {
	target := m.statusRoleID(status)
	member, err := s.State.Member(guildID, userID)
	if err != nil || member == nil {
		member, _ = s.GuildMember(guildID, userID)
	}

	for _, rid := range m.attendanceRoleIDs() {
		if rid == target {
			continue
		}
		if member != nil && !hasRole(member, rid) {
			continue
		}
		if err := s.GuildMemberRoleRemove(guildID, userID, snowflake.Format(rid)); err != nil {
			m.Log.WithError(err).WithField("user", userID).Warn("attendance role remove failed")
		}
	}
	if target == 0 {
		return
	}
	if member != nil && hasRole(member, target) {
		return
	}
	if err := s.GuildMemberRoleAdd(guildID, userID, snowflake.Format(target)); err != nil {
		m.Log.WithError(err).WithField("user", userID).Warn("attendance role add failed")
	}
}

// allMembers pages through the full member list.
func (m *Manager) allMembers(s *discordgo.Session, guildID string) []*discordgo.Member {
	var out []*discordgo.Member
	after := ""
	for {
		page, err := s.GuildMembers(guildID, after, 1000)
		if err != nil {
			m.Log.WithError(err).WithField("guild", guildID).Warn("member page fetch failed")
			break
		}
		if len(page) == 0 {
			break
		}
		out = append(out, page...)
		after = page[len(page)-1].User.ID
		if len(page) < 1000 {
			break
		}
	}
	return out
}

// AssignWaitingRoleToAll hands the waiting role to every human member that has
// not responded yet. Spread out to stay under the rate limit.
func (m *Manager) AssignWaitingRoleToAll(s *discordgo.Session, guildID string) {
	waiting := m.Cfg.EventRoleWaitingID
	if waiting == 0 {
		return
	}
	assigned := 0
	for _, member := range m.allMembers(s, guildID) {
		if member.User == nil || member.User.Bot {
			continue
		}
		if m.hasAnyAttendanceRole(member) {
			continue
		}
		if err := s.GuildMemberRoleAdd(guildID, member.User.ID, snowflake.Format(waiting)); err != nil {
			m.Log.WithError(err).WithField("user", member.User.ID).Warn("waiting role add failed")
			continue
		}
		assigned++
		if assigned%20 == 0 {
			time.Sleep(time.Second)
		}
	}
	m.Log.WithFields(map[string]any{"guild": guildID, "assigned": assigned}).Info("waiting role fanout done")
}

// RemoveAttendanceRolesFromAll strips every event role from every member when
// the event closes.
func (m *Manager) RemoveAttendanceRolesFromAll(s *discordgo.Session, guildID string) {
	removed := 0
	for _, member := range m.allMembers(s, guildID) {
		if member.User == nil {
			continue
		}
		for _, rid := range m.attendanceRoleIDs() {
			if !hasRole(member, rid) {
				continue
			}
			if err := s.GuildMemberRoleRemove(guildID, member.User.ID, snowflake.Format(rid)); err != nil {
				m.Log.WithError(err).WithField("user", member.User.ID).Warn("attendance role strip failed")
				continue
			}
			removed++
			if removed%20 == 0 {
				time.Sleep(time.Second)
			}
		}
	}
	m.Log.WithFields(map[string]any{"guild": guildID, "removed": removed}).Info("attendance roles cleared")
}

// HandleMemberJoin gives a newcomer the waiting role while an event is live,
// unless they somehow already carry an attendance role.
func (m *Manager) HandleMemberJoin(s *discordgo.Session, member *discordgo.Member, guildID string) {
	if member.User == nil || member.User.Bot || m.Cfg.EventRoleWaitingID == 0 {
		return
	}
	if _, ok, _ := m.Store.ActiveEventForGuild(snowflake.Parse(guildID), time.Now().Unix()); !ok {
		return
	}
	if m.hasAnyAttendanceRole(member) {
		return
	}
	if err := s.GuildMemberRoleAdd(guildID, member.User.ID, snowflake.Format(m.Cfg.EventRoleWaitingID)); err != nil {
		m.Log.WithError(err).WithField("user", member.User.ID).Warn("waiting role on join failed")
	}
}
