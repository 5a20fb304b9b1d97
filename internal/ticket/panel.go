package ticket

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/cenkalti/backoff/v4"

	"clanbot/internal/snowflake"
)

// Component custom IDs for the decision panel.
const (
	CustomIDAccept        = "sh_accept_with_reason"
	CustomIDReject        = "sh_reject_with_reason"
	CustomIDDecisionModal = "sh_decision_modal"
)

const panelClosedMarker = "**Закрыто.**"

func panelComponents() []discordgo.MessageComponent {
	return []discordgo.MessageComponent{
		discordgo.ActionsRow{Components: []discordgo.MessageComponent{
			discordgo.Button{
				Label:    "Принять с комментарием",
				Style:    discordgo.SuccessButton,
				CustomID: CustomIDAccept,
			},
			discordgo.Button{
				Label:    "Отклонить с причиной",
				Style:    discordgo.DangerButton,
				CustomID: CustomIDReject,
			},
		}},
	}
}

func (m *Manager) promptText() string {
	var mentions []string
	for _, rid := range m.Cfg.StaffPingRoleIDs {
		mentions = append(mentions, fmt.Sprintf("<@&%d>", rid))
	}
	text := "**Если вы хотите закрыть заявку с причиной/комментарием, нажмите на нужную кнопку ниже. " +
		"Пользователь получит сообщение в личные сообщения!**\n\n"
	if len(mentions) > 0 {
		text += "||" + strings.Join(mentions, " ") + "||"
	}
	return text
}

// EnsureDecisionPrompt posts the accept/reject panel once per channel. An
// existing live panel is left alone; a stale record is cleared and the panel
// reposted. Sends are retried with exponential backoff for up to a minute
// because permissions on a freshly created ticket channel can lag.
func (m *Manager) EnsureDecisionPrompt(s *discordgo.Session, channelID string, reason string) {
	cid := snowflake.Parse(channelID)

	existingID, ok, err := m.Store.GetPrompt(cid)
	if err != nil {
		m.Log.WithError(err).WithField("channel", channelID).Warn("prompt lookup failed")
	}
	if ok {
		_, err := s.ChannelMessage(channelID, snowflake.Format(existingID))
		if err == nil {
			return
		}
		if isNotFound(err) {
			if derr := m.Store.DeletePrompt(cid); derr != nil {
				m.Log.WithError(derr).WithField("channel", channelID).Warn("stale prompt cleanup failed")
			}
		}
		// on any other error we could not verify; fall through and let the
		// send below decide
	}

	send := &discordgo.MessageSend{
		Content:    m.promptText(),
		Components: panelComponents(),
		AllowedMentions: &discordgo.MessageAllowedMentions{
			Parse: []discordgo.AllowedMentionType{discordgo.AllowedMentionTypeRoles},
		},
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxElapsedTime = time.Minute

	var sent *discordgo.Message
	err = backoff.Retry(func() error {
		msg, serr := s.ChannelMessageSendComplex(channelID, send)
		if serr != nil {
			return serr
		}
		sent = msg
		return nil
	}, bo)
	if err != nil {
		m.Log.WithError(err).WithFields(map[string]any{
			"channel": channelID,
			"reason":  reason,
		}).Error("decision prompt send failed")
		return
	}

	if err := m.Store.SetPrompt(cid, snowflake.Parse(sent.ID)); err != nil {
		m.Log.WithError(err).WithField("channel", channelID).Warn("prompt store failed")
	}
}

// RetirePanel removes the live panel: delete the message when allowed,
// otherwise strip its buttons and replace the text with a closed marker.
// The record is dropped either way.
func (m *Manager) RetirePanel(s *discordgo.Session, channelID string) {
	cid := snowflake.Parse(channelID)
	msgID, ok, err := m.Store.GetPrompt(cid)
	if err != nil || !ok {
		return
	}
	raw := snowflake.Format(msgID)

	if _, err := s.ChannelMessage(channelID, raw); err != nil {
		if isNotFound(err) {
			m.Store.DeletePrompt(cid)
		}
		return
	}

	if err := s.ChannelMessageDelete(channelID, raw); err == nil {
		m.Store.DeletePrompt(cid)
		return
	}

	closed := panelClosedMarker
	empty := []discordgo.MessageComponent{}
	_, err = s.ChannelMessageEditComplex(&discordgo.MessageEdit{
		ID:         raw,
		Channel:    channelID,
		Content:    &closed,
		Components: &empty,
	})
	if err == nil {
		m.Store.DeletePrompt(cid)
	}
}

func isNotFound(err error) bool {
	restErr, ok := err.(*discordgo.RESTError)
	return ok && restErr.Response != nil && restErr.Response.StatusCode == 404
}
