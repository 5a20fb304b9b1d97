package rsvp

import (
	"database/sql"
	"fmt"
	"strconv"
	"time"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

func respondEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: text,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func statusWord(status string) string {
	switch status {
	case store.StatusAccepted:
		return "Вы записаны ✅"
	case store.StatusDeclined:
		return "Вы отказались ❌"
	case store.StatusTentative:
		return "Вы под вопросом ❓"
	}
	return "Ответ сохранён"
}

// HandleRSVP processes an attendance button press. Re-pressing the same button
// is a no-op beyond the confirmation; the capacity check only blocks users who
// are not already in.
func (m *Manager) HandleRSVP(s *discordgo.Session, i *discordgo.InteractionCreate, status string) {
	messageID := snowflake.Parse(i.Message.ID)
	userID := snowflake.Parse(i.Member.User.ID)

	ev, err := m.Store.GetEvent(messageID)
	if err != nil {
		m.Log.WithError(err).WithField("event", messageID).Error("event load failed")
		respondEphemeral(s, i, "Что-то пошло не так, попробуйте ещё раз.")
		return
	}
	if ev == nil || ev.EndAt <= time.Now().Unix() {
		respondEphemeral(s, i, "Событие не найдено или уже закрыто.")
		return
	}

	ok, accepted, err := m.recordResponse(ev, userID, status)
	if err != nil {
		m.Log.WithError(err).WithField("event", messageID).Error("response write failed")
		respondEphemeral(s, i, "Не удалось сохранить ответ, попробуйте ещё раз.")
		return
	}
	if !ok {
		respondEphemeral(s, i, fmt.Sprintf("Мест больше нет (%d/%d).", accepted, ev.MaxParticipants.Int64))
		return
	}

	m.ApplyStatusRole(s, i.GuildID, i.Member.User.ID, status)
	respondEphemeral(s, i, statusWord(status))
	m.RefreshEventMessage(s, ev)
}

// recordResponse persists the RSVP with the capacity check and the write under
// one lock. Gateway handlers each run in their own goroutine, so without the
// lock two simultaneous accepts could both pass the check and overshoot the
// limit. Returns ok=false (with the current accepted count) when the event is
// full; users already accepted pass regardless.
func (m *Manager) recordResponse(ev *store.Event, userID int64, status string) (bool, int, error) {
	m.Reg.LockEvent(ev.MessageID)
	defer m.Reg.UnlockEvent(ev.MessageID)

	if status == store.StatusAccepted && ev.MaxParticipants.Valid {
		responses, err := m.Store.EventResponses(ev.MessageID)
		if err != nil {
			return false, 0, err
		}
		if responses[userID] != store.StatusAccepted {
			accepted := 0
			for _, st := range responses {
				if st == store.StatusAccepted {
					accepted++
				}
			}
			if int64(accepted) >= ev.MaxParticipants.Int64 {
				return false, accepted, nil
			}
		}
	}

	if err := m.Store.SetEventResponse(ev.MessageID, userID, status); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

// HandleEditButton opens the edit modal, prefilled with the current event.
func (m *Manager) HandleEditButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Редактировать событие могут только организаторы.")
		return
	}
	messageID := snowflake.Parse(i.Message.ID)
	ev, err := m.Store.GetEvent(messageID)
	if err != nil || ev == nil {
		respondEphemeral(s, i, "Событие не найдено или уже закрыто.")
		return
	}

	maxValue := ""
	if ev.MaxParticipants.Valid {
		maxValue = strconv.FormatInt(ev.MaxParticipants.Int64, 10)
	}
	endValue := time.Unix(ev.EndAt, 0).In(m.Cfg.EventTZ()).Format(endTimeLayout)

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseModal,
		Data: &discordgo.InteractionResponseData{
			CustomID: fmt.Sprintf("%s:%d", CustomIDEditModal, messageID),
			Title:    "Изменение события",
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "title",
						Label:     "Название",
						Style:     discordgo.TextInputShort,
						Required:  true,
						MaxLength: titleMaxLen,
						Value:     ev.Title,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:  "description",
						Label:     "Описание",
						Style:     discordgo.TextInputParagraph,
						Required:  false,
						MaxLength: descriptionMaxLen,
						Value:     ev.Description,
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "max",
						Label:       "Максимум участников (пусто = без лимита)",
						Style:       discordgo.TextInputShort,
						Required:    false,
						MaxLength:   3,
						Value:       maxValue,
						Placeholder: "1..250",
					},
				}},
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.TextInput{
						CustomID:    "end",
						Label:       "Окончание (ГГГГ-ММ-ДД ЧЧ:ММ, МСК)",
						Style:       discordgo.TextInputShort,
						Required:    true,
						MaxLength:   len(endTimeLayout),
						Value:       endValue,
						Placeholder: "2026-09-15 21:00",
					},
				}},
			},
		},
	})
	if err != nil {
		m.Log.WithError(err).Warn("edit modal open failed")
	}
}

// HandleEditModal validates and applies an edit, then re-renders the
// announcement and re-arms the close timer.
func (m *Manager) HandleEditModal(s *discordgo.Session, i *discordgo.InteractionCreate, messageIDRaw string) {
	if !m.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Редактировать событие могут только организаторы.")
		return
	}
	messageID := snowflake.Parse(messageIDRaw)
	ev, err := m.Store.GetEvent(messageID)
	if err != nil || ev == nil {
		respondEphemeral(s, i, "Событие не найдено или уже закрыто.")
		return
	}

	data := i.ModalSubmitData()
	title := modalValue(&data, "title")
	description := modalValue(&data, "description")
	maxRaw := modalValue(&data, "max")
	endRaw := modalValue(&data, "end")

	if title == "" {
		respondEphemeral(s, i, "Название не может быть пустым.")
		return
	}

	maxParticipants := sql.NullInt64{}
	if maxRaw != "" && !isNone(maxRaw) {
		n, convErr := strconv.Atoi(maxRaw)
		if convErr != nil || n < maxParticipantsLo || n > maxParticipantsHi {
			respondEphemeral(s, i, fmt.Sprintf("Лимит участников должен быть числом от %d до %d.", maxParticipantsLo, maxParticipantsHi))
			return
		}
		maxParticipants = sql.NullInt64{Int64: int64(n), Valid: true}
	}

	end, parseErr := m.ParseEndTime(endRaw)
	if parseErr != nil {
		respondEphemeral(s, i, "Не понял дату окончания. Формат: `ГГГГ-ММ-ДД ЧЧ:ММ`.")
		return
	}
	if time.Until(end) < minLeadTime {
		respondEphemeral(s, i, "Время окончания уже прошло или наступает слишком скоро.")
		return
	}

	ev.Title = title
	ev.Description = description
	ev.MaxParticipants = maxParticipants
	ev.EndAt = end.Unix()
	if err := m.Store.UpsertEvent(ev); err != nil {
		m.Log.WithError(err).WithField("event", messageID).Error("event update failed")
		respondEphemeral(s, i, "Не удалось сохранить изменения.")
		return
	}

	m.RefreshEventMessage(s, ev)
	m.ScheduleEventClose(s, ev)
	respondEphemeral(s, i, "Событие обновлено.")
}

// HandleDeleteButton asks for confirmation before tearing the event down.
func (m *Manager) HandleDeleteButton(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if !m.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Удалять событие могут только организаторы.")
		return
	}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: "Удалить событие? Сообщение будет удалено, роли сняты, ответы очищены.",
			Flags:   discordgo.MessageFlagsEphemeral,
			Components: []discordgo.MessageComponent{
				discordgo.ActionsRow{Components: []discordgo.MessageComponent{
					discordgo.Button{
						Label:    "Да, удалить",
						Style:    discordgo.DangerButton,
						CustomID: fmt.Sprintf("%s:%s", CustomIDDeleteConfirm, i.Message.ID),
					},
					discordgo.Button{
						Label:    "Отмена",
						Style:    discordgo.SecondaryButton,
						CustomID: CustomIDDeleteCancel,
					},
				}},
			},
		},
	})
}

// HandleDeleteConfirm performs the teardown behind the confirmation button.
func (m *Manager) HandleDeleteConfirm(s *discordgo.Session, i *discordgo.InteractionCreate, messageIDRaw string) {
	if !m.IsEventManager(i.Member, i.Member.User.ID) {
		respondEphemeral(s, i, "Удалять событие могут только организаторы.")
		return
	}
	updateEphemeral(s, i, "Удаляю событие…")
	m.CloseEvent(s, snowflake.Parse(messageIDRaw))
}

// HandleDeleteCancel dismisses the confirmation.
func (m *Manager) HandleDeleteCancel(s *discordgo.Session, i *discordgo.InteractionCreate) {
	updateEphemeral(s, i, "Удаление отменено.")
}

func updateEphemeral(s *discordgo.Session, i *discordgo.InteractionCreate, text string) {
	empty := []discordgo.MessageComponent{}
	_ = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseUpdateMessage,
		Data: &discordgo.InteractionResponseData{
			Content:    text,
			Components: empty,
		},
	})
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
