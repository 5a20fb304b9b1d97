// Package commands defines the slash commands and the admin prefix commands,
// and keeps them registered per guild.
package commands

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"clanbot/internal/config"
	"clanbot/internal/rsvp"
	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// Confirm-view custom IDs for /del on a user that is not ignored yet.
const (
	CustomIDIgnoreAddConfirm = "sh_ignore_add_confirm"
	CustomIDIgnoreAddCancel  = "sh_ignore_add_cancel"
)

// Handler routes slash and prefix commands.
type Handler struct {
	Cfg   *config.Config
	Store *store.Store
	RSVP  *rsvp.Manager
	Log   *logrus.Entry
}

// Definitions returns every slash command the bot registers.
func Definitions() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "add",
			Description: "Добавить пользователя в игнор-лист открывателей тикетов",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Кого игнорировать",
				Required:    true,
			}},
		},
		{
			Name:        "del",
			Description: "Убрать пользователя из игнор-листа",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Кого убрать",
				Required:    true,
			}},
		},
		{
			Name:        "menu",
			Description: "Показать игнор-лист",
		},
		{
			Name:        "kanal",
			Description: "Назначить канал для событий",
			Options: []*discordgo.ApplicationCommandOption{{
				Type:        discordgo.ApplicationCommandOptionChannel,
				Name:        "channel",
				Description: "Канал, куда публикуются события",
				Required:    true,
				ChannelTypes: []discordgo.ChannelType{
					discordgo.ChannelTypeGuildText,
					discordgo.ChannelTypeGuildNews,
				},
			}},
		},
		{
			Name:        "sobytie",
			Description: "Создать событие (анкета в личных сообщениях)",
		},
	}
}

// Sync bulk-overwrites the command set in every joined guild. Per-guild
// registration shows up instantly, unlike the global hour-long propagation.
func (h *Handler) Sync(s *discordgo.Session) {
	defs := Definitions()
	for _, g := range s.State.Guilds {
		if _, err := s.ApplicationCommandBulkOverwrite(s.State.User.ID, g.ID, defs); err != nil {
			h.Log.WithError(err).WithField("guild", g.ID).Error("command sync failed")
			continue
		}
		h.Log.WithField("guild", g.ID).Debug("commands synced")
	}
}

func (h *Handler) isAdmin(userID string) bool {
	return snowflake.Parse(userID) == h.Cfg.AdminUserID
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

// HandleCommand dispatches an application command interaction.
func (h *Handler) HandleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "add":
		h.handleAdd(s, i, data)
	case "del":
		h.handleDel(s, i, data)
	case "menu":
		h.handleMenu(s, i)
	case "kanal":
		h.handleKanal(s, i, data)
	case "sobytie":
		h.handleSobytie(s, i)
	}
}

func optionUser(s *discordgo.Session, data discordgo.ApplicationCommandInteractionData) *discordgo.User {
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionUser {
			return opt.UserValue(s)
		}
	}
	return nil
}

func optionChannel(s *discordgo.Session, data discordgo.ApplicationCommandInteractionData) *discordgo.Channel {
	for _, opt := range data.Options {
		if opt.Type == discordgo.ApplicationCommandOptionChannel {
			return opt.ChannelValue(s)
		}
	}
	return nil
}

func (h *Handler) handleAdd(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.isAdmin(i.Member.User.ID) {
		respondEphemeral(s, i, "Эта команда доступна только администратору бота.")
		return
	}
	user := optionUser(s, data)
	if user == nil {
		respondEphemeral(s, i, "Не удалось определить пользователя.")
		return
	}
	if err := h.Store.AddIgnoredUser(snowflake.Parse(user.ID), snowflake.Parse(i.Member.User.ID)); err != nil {
		h.Log.WithError(err).Error("ignore add failed")
		respondEphemeral(s, i, "Не удалось добавить в игнор-лист.")
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("<@%s> добавлен в игнор-лист: бот больше не будет считать его открывателем тикетов.", user.ID))
}

func (h *Handler) handleDel(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.isAdmin(i.Member.User.ID) {
		respondEphemeral(s, i, "Эта команда доступна только администратору бота.")
		return
	}
	user := optionUser(s, data)
	if user == nil {
		respondEphemeral(s, i, "Не удалось определить пользователя.")
		return
	}
	existed, err := h.Store.RemoveIgnoredUser(snowflake.Parse(user.ID))
	if err != nil {
		h.Log.WithError(err).Error("ignore remove failed")
		respondEphemeral(s, i, "Не удалось убрать из игнор-листа.")
		return
	}
	if existed {
		respondEphemeral(s, i, fmt.Sprintf("<@%s> убран из игнор-листа.", user.ID))
		return
	}

	// not on the list; offer to add instead, a common mix-up of the two commands
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: fmt.Sprintf("<@%s> и так не в игнор-листе. Добавить его туда?", user.ID),
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Добавить",
						Style:    discordgo.PrimaryButton,
						CustomID: fmt.Sprintf("%s:%s", CustomIDIgnoreAddConfirm, user.ID),
					},
					discordgo.Button{
						Label:    "Отмена",
						Style:    discordgo.SecondaryButton,
						CustomID: CustomIDIgnoreAddCancel,
					},
				}},
			},
		},
	})
}

// HandleIgnoreAddConfirm finishes the /del confirm-add flow.
func (h *Handler) HandleIgnoreAddConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, userIDRaw string) {
	if !h.isAdmin(i.Member.User.ID) {
		respondEphemeral(s, i, "Эта кнопка доступна только администратору бота.")
		return
	}
	if err := h.Store.AddIgnoredUser(snowflake.Parse(userIDRaw), snowflake.Parse(i.Member.User.ID)); err != nil {
		h.Log.WithError(err).Error("ignore add failed")
		updateEphemeral(s, i, "Не удалось добавить в игнор-лист.")
		return
	}
	updateEphemeral(s, i, fmt.Sprintf("<@%s> добавлен в игнор-лист.", userIDRaw))
}

// HandleIgnoreAddCancel dismisses the confirm-add view.
func (h *Handler) HandleIgnoreAddCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	updateEphemeral(s, i, "Ок, ничего не меняю.")
}

func updateEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    text,
			Components: []discordgo.MessageComponent{},
		},
	})
}

func (h *Handler) handleMenu(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.isAdmin(i.Member.User.ID) {
		respondEphemeral(s, i, "Эта команда доступна только администратору бота.")
		return
	}
	ids, err := h.Store.ListIgnoredUsers()
	if err != nil {
		h.Log.WithError(err).Error("ignore list failed")
		respondEphemeral(s, i, "Не удалось получить игнор-лист.")
		return
	}
	if len(ids) == 0 && len(h.Cfg.IgnoredOpenerIDs) == 0 {
		respondEphemeral(s, i, "Игнор-лист пуст.")
		return
	}

	var b strings.Builder
	b.WriteString("**Игнор-лист открывателей тикетов**\n")
	for _, id := range ids {
		fmt.Fprintf(&b, "• <@%d> (`%d`)\n", id, id)
	}
	if len(h.Cfg.IgnoredOpenerIDs) > 0 {
		b.WriteString("\nЗашиты в конфиге:\n")
		for _, id := range h.Cfg.IgnoredOpenerIDs {
			fmt.Fprintf(&b, "• <@%d> (`%d`)\n", id, id)
		}
	}
	respondEphemeral(s, i, b.String())
}

func (h *Handler) handleKanal(s *discordgo.Session, i *discordgo.InteractionCreate, data discordgo.ApplicationCommandInteractionData) {
	if !h.RSVP.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Эта команда доступна только организаторам событий.")
		return
	}
	ch := optionChannel(s, data)
	if ch == nil {
		respondEphemeral(s, i, "Не удалось определить канал.")
		return
	}
	if err := h.Store.SetEventChannel(snowflake.Parse(i.GuildID), snowflake.Parse(ch.ID)); err != nil {
		h.Log.WithError(err).Error("event channel save failed")
		respondEphemeral(s, i, "Не удалось сохранить канал.")
		return
	}
	respondEphemeral(s, i, fmt.Sprintf("События теперь публикуются в <#%s>.", ch.ID))
}

func (h *Handler) handleSobytie(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !h.RSVP.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Эта команда доступна только организаторам событий.")
		return
	}
	respondEphemeral(s, i, "Анкета отправлена в личные сообщения. Убедитесь, что ЛС открыты.")
	go h.RSVP.RunCreateWizard(s, i.GuildID, i.Member.User.ID)
}

// HandlePrefix processes the admin-only !sync / !resync message commands.
func (h *Handler) HandlePrefix(s *discordgo.Session, m *discordgo.Message) bool {
	content := strings.TrimSpace(m.Content)
	if content != "!sync" && content != "!resync" {
		return false
	}
	if m.Author == nil || !h.isAdmin(m.Author.ID) {
		return false
	}
	h.Sync(s)
	if _, err := s.ChannelMessageSend(m.ChannelID, "Слэш-команды пересинхронизированы."); err != nil {
		h.Log.WithError(err).Warn("sync confirmation send failed")
	}
	return true
}
