package ticket

import (
	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"clanbot/internal/config"
	"clanbot/internal/registry"
	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// Manager drives the ticket lifecycle: opener resolution, trigger handling,
// the decision panel and the decision processor.
type Manager struct {
	Cfg   *config.Config
	Store *store.Store
	Reg   *registry.Registry
	Log   *logrus.Entry

	// CreateInvite makes the one-time private-guild invite on accept.
	// Wired from the private package; nil disables the invite step.
	CreateInvite func(s *discordgo.Session, openerID, moderatorID int64) (*discordgo.Invite, error)
}

// IsStaff reports whether the member holds administrator rights or one of the
// configured staff roles. perms is the interaction-provided permission set
// when available (0 otherwise).
func (m *Manager) IsStaff(s *discordgo.Session, guildID string, member *discordgo.Member, perms int64) bool {
	if member == nil {
		return false
	}
	if perms&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, rid := range member.Roles {
		id := snowflake.Parse(rid)
		for _, staff := range m.Cfg.StaffRoleIDs {
			if id == staff {
				return true
			}
		}
		if role := m.role(s, guildID, rid); role != nil && role.Permissions&discordgo.PermissionAdministrator != 0 {
			return true
		}
	}
	return false
}

func (m *Manager) role(s *discordgo.Session, guildID, roleID string) *discordgo.Role {
	role, err := s.State.Role(guildID, roleID)
	if err == nil {
		return role
	}
	roles, err := s.GuildRoles(guildID)
	if err != nil {
		return nil
	}
	for _, r := range roles {
		if r.ID == roleID {
			return r
		}
	}
	return nil
}

// IsIgnoredOpenerID checks the static list and the dynamic store-backed one.
func (m *Manager) IsIgnoredOpenerID(userID int64) bool {
	if m.Cfg.IsIgnoredOpenerID(userID) {
		return true
	}
	ignored, err := m.Store.IsIgnoredUser(userID)
	if err != nil {
		m.Log.WithError(err).Warn("ignore-list lookup failed")
		return false
	}
	return ignored
}

func (m *Manager) isIgnoredOpenerMember(member *discordgo.Member) bool {
	if member.User != nil && m.IsIgnoredOpenerID(snowflake.Parse(member.User.ID)) {
		return true
	}
	for _, rid := range member.Roles {
		id := snowflake.Parse(rid)
		for _, ign := range m.Cfg.IgnoredOpenerRoleIDs {
			if id == ign {
				return true
			}
		}
	}
	return false
}

// IsValidOpener reports whether the member may be recorded as a ticket
// opener: not a bot, not staff, not on the ignore list.
func (m *Manager) IsValidOpener(s *discordgo.Session, guildID string, member *discordgo.Member) bool {
	if member == nil || member.User == nil || member.User.Bot {
		return false
	}
	if m.IsStaff(s, guildID, member, 0) {
		return false
	}
	return !m.isIgnoredOpenerMember(member)
}

// ensureMember returns the guild member, from cache when possible, REST
// otherwise. nil means not a member (or unfetchable).
func (m *Manager) ensureMember(s *discordgo.Session, guildID, userID string) *discordgo.Member {
	member, err := s.State.Member(guildID, userID)
	if err == nil && member != nil && member.User != nil {
		return member
	}
	member, err = s.GuildMember(guildID, userID)
	if err != nil {
		return nil
	}
	return member
}
