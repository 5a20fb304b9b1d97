package rsvp

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// Wizard input limits.
const (
	titleMaxLen       = 200
	descriptionMaxLen = 1600
	maxParticipantsLo = 1
	maxParticipantsHi = 250
	// the event must end at least this far in the future
	minLeadTime = 30 * time.Second
)

const endTimeLayout = "2006-01-02 15:04"

var errWizardCancelled = errors.New("wizard cancelled")
var errWizardTimeout = errors.New("wizard timed out")

// ParseEndTime parses the wizard's "YYYY-MM-DD HH:MM" answer in the
// configured zone.
func (m *Manager) ParseEndTime(input string) (time.Time, error) {
	return time.ParseInLocation(endTimeLayout, strings.TrimSpace(input), m.Cfg.EventTZ())
}

func isNone(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "none", "нет", "-":
		return true
	}
	return false
}

func isCancel(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cancel", "отмена":
		return true
	}
	return false
}

// ask sends a question into the DM and waits for the next message. Timeout and
// an explicit cancel abort the whole wizard.
func (m *Manager) ask(s *discordgo.Session, dmID string, in chan *discordgo.Message, question string) (string, error) {
	if _, err := s.ChannelMessageSend(dmID, question); err != nil {
		return "", err
	}
	timer := time.NewTimer(m.Cfg.EventDMTimeout)
	defer timer.Stop()
	for {
		select {
		case msg := <-in:
			if msg.ChannelID != dmID {
				continue
			}
			if isCancel(msg.Content) {
				return "", errWizardCancelled
			}
			return strings.TrimSpace(msg.Content), nil
		case <-timer.C:
			return "", errWizardTimeout
		}
	}
}

// RunCreateWizard walks the invoker through the event form over DM and
// publishes the announcement. Call it from a goroutine; it blocks for the
// whole conversation.
func (m *Manager) RunCreateWizard(s *discordgo.Session, guildID, userID string) {
	gid := snowflake.Parse(guildID)
	log := m.Log.WithFields(map[string]any{"guild": guildID, "user": userID})

	dm, err := s.UserChannelCreate(userID)
	if err != nil {
		log.WithError(err).Warn("wizard DM open failed")
		return
	}

	if !m.Reg.TryLockGuild(gid) {
		s.ChannelMessageSend(dm.ID, "Создание события уже идёт, попробуйте позже.")
		return
	}
	defer m.Reg.UnlockGuild(gid)

	if id, ok, _ := m.Store.ActiveEventForGuild(gid, time.Now().Unix()); ok {
		s.ChannelMessageSend(dm.ID, fmt.Sprintf("В этом сервере уже есть активное событие (ID %d). Сначала закройте его.", id))
		return
	}

	chID, ok, err := m.Store.GetEventChannel(gid)
	if err != nil || !ok {
		s.ChannelMessageSend(dm.ID, "Канал для событий не настроен. Используйте команду `/kanal` на сервере.")
		return
	}

	in := m.openSession(userID)
	defer m.closeSession(userID)

	ev, err := m.collectEvent(s, dm.ID, in, gid, chID, snowflake.Parse(userID))
	switch {
	case err == errWizardCancelled:
		s.ChannelMessageSend(dm.ID, "Создание события отменено.")
		return
	case err == errWizardTimeout:
		s.ChannelMessageSend(dm.ID, "Время ожидания ответа вышло, создание события отменено.")
		return
	case err != nil:
		log.WithError(err).Warn("wizard failed")
		s.ChannelMessageSend(dm.ID, "Не удалось создать событие, попробуйте ещё раз.")
		return
	}

	// someone may have published while we were chatting
	if id, ok, _ := m.Store.ActiveEventForGuild(gid, time.Now().Unix()); ok {
		s.ChannelMessageSend(dm.ID, fmt.Sprintf("Пока вы заполняли форму, появилось другое активное событие (ID %d).", id))
		return
	}

	if err := m.publishEvent(s, ev); err != nil {
		log.WithError(err).Error("event publish failed")
		s.ChannelMessageSend(dm.ID, "Не удалось опубликовать событие в канале.")
		return
	}

	s.ChannelMessageSend(dm.ID, fmt.Sprintf("Событие **%s** опубликовано! Оно закроется <t:%d:R>.", ev.Title, ev.EndAt))
	log.WithField("event", ev.MessageID).Info("event published")
}

// collectEvent asks the four wizard questions and validates each answer,
// re-asking on bad input.
func (m *Manager) collectEvent(s *discordgo.Session, dmID string, in chan *discordgo.Message, guildID, channelID, createdBy int64) (*store.Event, error) {
	var title string
	for {
		answer, err := m.ask(s, dmID, in,
			fmt.Sprintf("**Создание события.** Напишите название (до %d символов).\nДля отмены напишите `отмена`.", titleMaxLen))
		if err != nil {
			return nil, err
		}
		if answer == "" || len([]rune(answer)) > titleMaxLen {
			s.ChannelMessageSend(dmID, fmt.Sprintf("Название должно быть от 1 до %d символов.", titleMaxLen))
			continue
		}
		title = answer
		break
	}

	var description string
	for {
		answer, err := m.ask(s, dmID, in,
			fmt.Sprintf("Напишите описание (до %d символов) или `нет`, если без описания.", descriptionMaxLen))
		if err != nil {
			return nil, err
		}
		if isNone(answer) {
			break
		}
		if len([]rune(answer)) > descriptionMaxLen {
			s.ChannelMessageSend(dmID, fmt.Sprintf("Описание длиннее %d символов, сократите.", descriptionMaxLen))
			continue
		}
		description = answer
		break
	}

	var maxParticipants sql.NullInt64
	for {
		answer, err := m.ask(s, dmID, in,
			fmt.Sprintf("Максимум участников (%d..%d) или `нет`, если без лимита.", maxParticipantsLo, maxParticipantsHi))
		if err != nil {
			return nil, err
		}
		if isNone(answer) {
			break
		}
		n, convErr := strconv.Atoi(answer)
		if convErr != nil || n < maxParticipantsLo || n > maxParticipantsHi {
			s.ChannelMessageSend(dmID, fmt.Sprintf("Нужно число от %d до %d, либо `нет`.", maxParticipantsLo, maxParticipantsHi))
			continue
		}
		maxParticipants = sql.NullInt64{Int64: int64(n), Valid: true}
		break
	}

	var end time.Time
	for {
		answer, err := m.ask(s, dmID, in,
			fmt.Sprintf("Когда событие закончится? Формат `ГГГГ-ММ-ДД ЧЧ:ММ` (московское время, UTC%+d).", m.Cfg.EventTZOffsetHours))
		if err != nil {
			return nil, err
		}
		t, parseErr := m.ParseEndTime(answer)
		if parseErr != nil {
			s.ChannelMessageSend(dmID, "Не понял дату. Пример: `2026-09-15 21:00`.")
			continue
		}
		if time.Until(t) < minLeadTime {
			s.ChannelMessageSend(dmID, "Это время уже прошло или наступает слишком скоро, укажите более позднее.")
			continue
		}
		end = t
		break
	}

	return &store.Event{
		GuildID:         guildID,
		ChannelID:       channelID,
		CreatedBy:       createdBy,
		Title:           title,
		Description:     description,
		MaxParticipants: maxParticipants,
		StartAt:         time.Now().Unix(),
		EndAt:           end.Unix(),
	}, nil
}

// publishEvent posts the @everyone announcement, persists the event under its
// message ID, fans the waiting role out and arms the close timer.
func (m *Manager) publishEvent(s *discordgo.Session, ev *store.Event) error {
	embed := m.BuildEventEmbed(s, ev, nil)
	msg, err := s.ChannelMessageSendComplex(snowflake.Format(ev.ChannelID), &discordgo.MessageSend{
		Content:    "@everyone",
		Embeds:     []*discordgo.MessageEmbed{embed},
		Components: eventComponents(),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeEveryone},
		},
	})
	if err != nil {
		return err
	}

	ev.MessageID = snowflake.Parse(msg.ID)
	if err := m.Store.UpsertEvent(ev); err != nil {
		// announcement without a row is worse than no announcement
		s.ChannelMessageDelete(snowflake.Format(ev.ChannelID), msg.ID)
		return err
	}

	go m.AssignWaitingRoleToAll(s, snowflake.Format(ev.GuildID))
	m.ScheduleEventClose(s, ev)
	return nil
}
