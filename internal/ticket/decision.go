package ticket

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/outcome"
	"clanbot/internal/snowflake"
)

// Decision is a moderator's verdict on a ticket.
type Decision string

const (
	DecisionAccept Decision = "accept"
	DecisionReject Decision = "reject"
)

const reasonMaxLen = 700

// OpenDecisionModal answers a panel button press with the reason form.
func (m *Manager) OpenDecisionModal(s *discordgo.Session, i *discordgo.InteractionCreate, decision Decision) error {
	title := "Принятие заявки"
	label := "Комментарий для пользователя"
	if decision == DecisionReject {
		title = "Отклонение заявки"
		label = "Причина отказа"
	}
	return s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: CustomIDDecisionModal + ":" + string(decision),
			Title:    title,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "reason",
						Label:       label,
						Style:       discordgo.TextInputParagraph,
						Required:    true,
						MaxLength:   reasonMaxLen,
						Placeholder: "Будет отправлено пользователю в личные сообщения",
					},
				}},
			},
		},
	})
}

// stepResults collects the per-step statuses for the moderator summary and the
// audit entry.
type stepResults struct {
	Invite     outcome.Outcome
	DM         outcome.Outcome
	RoleAdd    outcome.Outcome
	RoleRemove outcome.Outcome
	Cleanup    outcome.Outcome
}

// ProcessDecision runs the full close sequence for a ticket. Every step is
// attempted even when earlier ones fail; the moderator gets a status line per
// step instead of an opaque error. The channel lock guarantees a single
// processing sequence per ticket.
func (m *Manager) ProcessDecision(s *discordgo.Session, i *discordgo.InteractionCreate, decision Decision, reason string) {
	chID := snowflake.Parse(i.ChannelID)

	if !m.IsStaff(s, i.GuildID, i.Member, i.Member.Permissions) {
		respondEphemeral(s, i, "Эта кнопка доступна только модераторам.")
		return
	}

	if !m.Reg.TryLockChannel(chID) {
		respondEphemeral(s, i, "Тикет уже обрабатывается другим модератором.")
		return
	}
	defer m.Reg.UnlockChannel(chID)

	// ack first: the sequence below can outlive the 3s interaction window
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		m.Log.WithError(err).WithField("channel", i.ChannelID).Error("decision ack failed")
		return
	}

	ch, err := s.Channel(i.ChannelID)
	if err != nil {
		m.Log.WithError(err).WithField("channel", i.ChannelID).Error("ticket channel fetch failed")
		followupEphemeral(s, i, "Не удалось получить канал тикета, обработка прервана.")
		return
	}

	opener := m.GetOpenerUser(s, ch)
	moderator := i.Member.User

	log := m.Log.WithFields(map[string]any{
		"channel":   ch.ID,
		"decision":  string(decision),
		"moderator": moderator.ID,
	})
	if opener != nil {
		log = log.WithField("opener", opener.ID)
	}
	log.Info("processing ticket decision")

	var res stepResults
	var invite *discordgo.Invite

	// 1. one-time invite into the private guild (accept only)
	res.Invite = outcome.Skipped
	if decision == DecisionAccept {
		if opener == nil || m.CreateInvite == nil {
			res.Invite = outcome.Outcome{OK: false, Detail: "member_not_found"}
		} else {
			res.Invite = outcome.Attempt(func() error {
				inv, ierr := m.CreateInvite(s, snowflake.Parse(opener.ID), snowflake.Parse(moderator.ID))
				if ierr != nil {
					return ierr
				}
				invite = inv
				return nil
			}, restDetail)
		}
	}

	// 2. DM the opener
	if opener == nil {
		res.DM = outcome.Outcome{OK: false, Detail: "member_not_found"}
	} else {
		res.DM = outcome.Attempt(func() error {
			return m.sendDecisionDM(s, opener, decision, reason, invite)
		}, func(err error) string {
			if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil && restErr.Message.Code == discordgo.ErrCodeCannotSendMessagesToThisUser {
				return "dm_closed"
			}
			return restDetail(err)
		})
	}

	// 3-4. role swap in the main guild (accept only)
	res.RoleAdd, res.RoleRemove = outcome.Skipped, outcome.Skipped
	if decision == DecisionAccept {
		if opener == nil || m.ensureMember(s, ch.GuildID, opener.ID) == nil {
			res.RoleAdd = outcome.Outcome{OK: false, Detail: "member_not_found"}
			res.RoleRemove = outcome.Outcome{OK: false, Detail: "member_not_found"}
		} else {
			res.RoleAdd = m.applyRole(s, ch.GuildID, opener.ID, m.Cfg.AcceptAddRoleID, true)
			res.RoleRemove = m.applyRole(s, ch.GuildID, opener.ID, m.Cfg.AcceptRemoveRoleID, false)
		}
	}

	// 5. retire the panel before the channel disappears
	m.RetirePanel(s, ch.ID)

	// 6. audit log
	m.SendApplicationLog(s, decision, opener, moderator, reason, ch, &res)

	// 7. purge bookkeeping
	res.Cleanup = outcome.Attempt(func() error {
		if err := m.Store.DeleteTicket(chID); err != nil {
			return err
		}
		return m.Store.DeletePrompt(chID)
	}, nil)
	m.Reg.ClearPromptCooldown(chID)

	// 8. ephemeral summary for the moderator, sent while the channel and the
	// interaction webhook still exist
	followupEphemeral(s, i, m.summaryText(decision, opener, reason, &res))

	// 9. remove the channel, or archive it when delete is forbidden
	auditReason := fmt.Sprintf("Тикет закрыт (%s) модератором %s", decisionWord(decision), moderator.Username)
	if _, err := s.ChannelDelete(ch.ID, discordgo.WithAuditLogReason(auditReason)); err != nil {
		log.WithError(err).Warn("channel delete failed, archiving instead")
		if aerr := m.ArchiveAndLock(s, ch, opener); aerr != nil {
			log.WithError(aerr).Error("archive fallback failed")
			m.LogEvent(s, fmt.Sprintf("⚠️ Не удалось ни удалить, ни заархивировать канал <#%s>.", ch.ID))
		}
	}

	log.Info("ticket decision processed")
}

// applyRole adds or removes a role, mapping Discord failures onto the status
// vocabulary the summary uses.
func (m *Manager) applyRole(s *discordgo.Session, guildID, userID string, roleID int64, add bool) outcome.Outcome {
	if roleID == 0 {
		return outcome.Outcome{OK: false, Detail: "roles_not_found"}
	}
	if m.role(s, guildID, snowflake.Format(roleID)) == nil {
		return outcome.Outcome{OK: false, Detail: "roles_not_found"}
	}
	op := s.GuildMemberRoleAdd
	if !add {
		op = s.GuildMemberRoleRemove
	}
	return outcome.Attempt(func() error {
		return op(guildID, userID, snowflake.Format(roleID))
	}, func(err error) string {
		if restErr, ok := err.(*discordgo.RESTError); ok && restErr.Message != nil {
			switch restErr.Message.Code {
			case discordgo.ErrCodeMissingPermissions, discordgo.ErrCodeMissingAccess:
				return "forbidden_manage_roles_or_hierarchy"
			case discordgo.ErrCodeUnknownMember:
				return "member_not_found"
			case discordgo.ErrCodeUnknownRole:
				return "roles_not_found"
			}
		}
		return "http_exception"
	})
}

func (m *Manager) sendDecisionDM(s *discordgo.Session, opener *discordgo.User, decision Decision, reason string, invite *discordgo.Invite) error {
	dm, err := s.UserChannelCreate(opener.ID)
	if err != nil {
		return err
	}

	var text string
	if decision == DecisionAccept {
		inviteURL := ""
		if invite != nil {
			inviteURL = "https://discord.gg/" + invite.Code
		}
		text = acceptDMText(opener.Mention(), reason, inviteURL)
	} else {
		text = rejectDMText(opener.Mention(), reason, m.Cfg.PermanentInviteLink)
	}
	if _, err := s.ChannelMessageSend(dm.ID, text); err != nil {
		return err
	}

	if decision == DecisionAccept && m.Cfg.AcceptExtraDM != "" {
		if _, err := s.ChannelMessageSend(dm.ID, m.Cfg.AcceptExtraDM); err != nil {
			m.Log.WithError(err).WithField("user", opener.ID).Warn("extra DM failed")
		}
	}
	return nil
}

// acceptDMText builds the acceptance DM. Without a freshly minted invite the
// user is pointed at a moderator instead of getting a mislabeled link.
func acceptDMText(mention, reason, inviteURL string) string {
	inviteLine := "**Ссылка в приватку:** *(не удалось создать автоматически — напишите модератору)*"
	if inviteURL != "" {
		inviteLine = fmt.Sprintf("**Персональная ссылка в приватку (1 раз, действует 24 часа):** %s", inviteURL)
	}
	return fmt.Sprintf(
		"**Приветствую %s ! Отличные новости — ваша заявка в клан SH была одобрена модератором.**\n"+
			"**Комментарий:** *%s*\n\n%s",
		mention, reason, inviteLine)
}

// rejectDMText builds the rejection DM: reason, a reapply encouragement and
// the permanent server link.
func rejectDMText(mention, reason, permanentLink string) string {
	return fmt.Sprintf(
		"**Приветствую %s ! Сожалеем, но ваша заявка в клан SH была отклонена модератором.**\n"+
			"**Причина:** *%s*\n\n"+
			"**Если хотите, то обязательно подавайте заявку повторно, мы вас обязательно ждем!**\n"+
			"**permanent link:** %s",
		mention, reason, permanentLink)
}

func (m *Manager) summaryText(decision Decision, opener *discordgo.User, reason string, res *stepResults) string {
	who := "не определён"
	if opener != nil {
		who = fmt.Sprintf("%s (<@%s>)", opener.Username, opener.ID)
	}
	lines := []string{
		fmt.Sprintf("**Заявка %s.**", decisionWord(decision)),
		"Пользователь: " + who,
		"Причина/комментарий: " + reason,
		"",
		"Инвайт: " + res.Invite.Status(),
		"ЛС: " + res.DM.Status(),
		"Выдача роли: " + res.RoleAdd.Status(),
		"Снятие роли: " + res.RoleRemove.Status(),
		"Очистка записей: " + res.Cleanup.Status(),
	}
	return strings.Join(lines, "\n")
}

func decisionWord(d Decision) string {
	if d == DecisionAccept {
		return "принята"
	}
	return "отклонена"
}

func restDetail(error) string {
	return "http_exception"
}

// ModalTextValue pulls a text input's value out of a submitted modal.
func ModalTextValue(data *discordgo.ModalSubmitInteractionData, customID string) string {
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

func followupEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_, _ = s.FollowupMessageCreate(i.Interaction, false, &discordgo.WebhookParams{
		Content: text,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
}
