package ticket

import (
	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
)

// ArchiveAndLock is the fallback when the ticket channel cannot be deleted:
// hide it from everyone including the opener, keep staff access, and move it
// under the archive category.
func (m *Manager) ArchiveAndLock(s *discordgo.Session, ch *discordgo.Channel, opener *discordgo.User) error {
	overwrites := []*discordgo.PermissionOverwrite{
		{
			// @everyone shares the guild's ID
			ID:   ch.GuildID,
			Type: discordgo.PermissionOverwriteTypeRole,
			Deny: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		},
	}
	if opener != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:   opener.ID,
			Type: discordgo.PermissionOverwriteTypeMember,
			Deny: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages,
		})
	}
	for _, rid := range m.Cfg.StaffPingRoleIDs {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    snowflake.Format(rid),
			Type:  discordgo.PermissionOverwriteTypeRole,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionReadMessageHistory,
		})
	}
	if s.State != nil && s.State.User != nil {
		overwrites = append(overwrites, &discordgo.PermissionOverwrite{
			ID:    s.State.User.ID,
			Type:  discordgo.PermissionOverwriteTypeMember,
			Allow: discordgo.PermissionViewChannel | discordgo.PermissionSendMessages | discordgo.PermissionManageChannels,
		})
	}

	_, err := s.ChannelEditComplex(ch.ID, &discordgo.ChannelEdit{
		ParentID:             snowflake.Format(m.Cfg.ArchiveCategoryID),
		PermissionOverwrites: overwrites,
	})
	return err
}
