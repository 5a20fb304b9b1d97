package private

import (
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"clanbot/internal/config"
	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// Component custom IDs for the nickname setup flow.
const (
	CustomIDOpenForm  = "sh_private_open_form"
	CustomIDNickModal = "sh_private_nick_modal"
)

// Manager owns the private-guild side: the pinned setup message, the nickname
// modal and one-time invites.
type Manager struct {
	Cfg   *config.Config
	Store *store.Store
	Log   *logrus.Entry
}

// EnsureSetupMessage posts the nickname-form message into the private setup
// channel exactly once. An already-stored live message is kept as is.
func (m *Manager) EnsureSetupMessage(s *discordgo.Session) {
	chID := snowflake.Format(m.Cfg.PrivateSetupChannelID)

	if msgID, ok, err := m.Store.GetPrivateSetupMessage(m.Cfg.PrivateSetupChannelID); err == nil && ok {
		if _, err := s.ChannelMessage(chID, snowflake.Format(msgID)); err == nil {
			return
		}
	}

	msg, err := s.ChannelMessageSendComplex(chID, &discordgo.MessageSend{
		Content: m.Cfg.PrivateSetupMessage,
		Components: []discordgo.MessageComponent{
			discordgo.ActionsRow{Components: []discordgo.MessageComponent{
				discordgo.Button{
					Label:    "Установить ник",
					Style:    discordgo.PrimaryButton,
					Emoji:    &discordgo.ComponentEmoji{Name: "📝"},
					CustomID: CustomIDOpenForm,
				},
			}},
		},
	})
	if err != nil {
		m.Log.WithError(err).WithField("channel", chID).Error("setup message send failed")
		return
	}
	if err := m.Store.SetPrivateSetupMessage(m.Cfg.PrivateSetupChannelID, snowflake.Parse(msg.ID)); err != nil {
		m.Log.WithError(err).Warn("setup message store failed")
	}
}

// HandleOpenForm answers the setup button with the nickname modal.
func (m *Manager) HandleOpenForm(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CustomIDNickModal,
			Title:    "Установка ника",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "steam",
						Label:       "Ник в стиме",
						Style:       discordgo.TextInputShort,
						Required:    true,
						MaxLength:   32,
						Placeholder: "Например: sh_player",
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "real",
						Label:       "Настоящее имя",
						Style:       discordgo.TextInputShort,
						Required:    true,
						MaxLength:   32,
						Placeholder: "Например: Иван",
					},
				}},
			},
		},
	})
}

// HandleNickModal applies the submitted form: set the formatted nickname and
// swap the onboarding roles. Each step degrades independently so a hierarchy
// problem with the nickname does not block the role swap.
func (m *Manager) HandleNickModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ModalSubmitData()
	steam := modalValue(&data, "steam")
	real := modalValue(&data, "real")
	if cleanOneLine(steam) == "" || cleanOneLine(real) == "" {
		respondEphemeral(s, i, "Оба поля должны быть заполнены.")
		return
	}

	nick := FormatNickname(steam, real)
	userID := i.Member.User.ID

	var problems []string
	if err := s.GuildMemberNickname(i.GuildID, userID, nick); err != nil {
		m.Log.WithError(err).WithField("user", userID).Warn("nickname set failed")
		problems = append(problems, "не удалось установить ник (не хватает прав?)")
	}
	if rid := m.Cfg.PrivateRemoveRoleID; rid != 0 {
		if err := s.GuildMemberRoleRemove(i.GuildID, userID, snowflake.Format(rid)); err != nil {
			m.Log.WithError(err).WithField("user", userID).Warn("onboarding role remove failed")
			problems = append(problems, "не удалось снять стартовую роль")
		}
	}
	if rid := m.Cfg.PrivateAddRoleID; rid != 0 {
		if err := s.GuildMemberRoleAdd(i.GuildID, userID, snowflake.Format(rid)); err != nil {
			m.Log.WithError(err).WithField("user", userID).Warn("member role add failed")
			problems = append(problems, "не удалось выдать роль участника")
		}
	}

	if len(problems) == 0 {
		respondEphemeral(s, i, fmt.Sprintf("Готово! Твой ник теперь **%s**, роли обновлены.", nick))
		return
	}
	text := fmt.Sprintf("Ник **%s** обработан, но не всё получилось:", nick)
	for _, p := range problems {
		text += "\n• " + p
	}
	respondEphemeral(s, i, text)
}

// CreateOneTimeInvite makes a single-use invite into the private guild for an
// accepted applicant. The setup channel is tried first, then any guild channel
// that allows invite creation.
func (m *Manager) CreateOneTimeInvite(s *discordgo.Session, openerID, moderatorID int64) (*discordgo.Invite, error) {
	maxAge := int(m.Cfg.InviteMaxAge / time.Second)
	params := discordgo.Invite{
		MaxAge:  maxAge,
		MaxUses: m.Cfg.InviteMaxUses,
		Unique:  true,
	}

	channels := []string{snowflake.Format(m.Cfg.PrivateSetupChannelID)}
	if chs, err := s.GuildChannels(snowflake.Format(m.Cfg.PrivateGuildID)); err == nil {
		for _, ch := range chs {
			if ch.Type == discordgo.ChannelTypeGuildText && ch.ID != channels[0] {
				channels = append(channels, ch.ID)
			}
		}
	}

	var lastErr error
	for _, chID := range channels {
		invite, err := s.ChannelInviteCreate(chID, params)
		if err != nil {
			lastErr = err
			continue
		}
		expires := time.Now().Add(m.Cfg.InviteMaxAge).Unix()
		if err := m.Store.LogInvite(invite.Code, openerID, moderatorID, snowflake.Parse(chID), expires); err != nil {
			m.Log.WithError(err).Warn("invite audit write failed")
		}
		return invite, nil
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("no channel accepts invites in guild %d", m.Cfg.PrivateGuildID)
	}
	return nil, lastErr
}

func modalValue(data *discordgo.ModalSubmitInteractionData, customID string) string {
	for _, row := range data.Components {
		ar, ok := row.(*discordgo.ActionsRow)
		if !ok {
			continue
		}
		for _, comp := range ar.Components {
			if ti, ok := comp.(*discordgo.TextInput); ok && ti.CustomID == customID {
				return ti.Value
			}
		}
	}
	return ""
}

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}
