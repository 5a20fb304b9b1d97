// Package bot assembles the discord session: intents, event handlers and the
// dispatch from interactions to the subsystem managers.
package bot

import (
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"clanbot/internal/commands"
	"clanbot/internal/config"
	"clanbot/internal/private"
	"clanbot/internal/registry"
	"clanbot/internal/rsvp"
	"clanbot/internal/store"
	"clanbot/internal/ticket"
)

// Bot holds the session and the subsystem managers.
type Bot struct {
	Session *discordgo.Session
	Log     *logrus.Entry

	Tickets *ticket.Manager
	Private *private.Manager
	RSVP    *rsvp.Manager
	Cmds    *commands.Handler
}

// New builds the session and wires every handler. The session is not yet open.
func New(cfg *config.Config, st *store.Store, reg *registry.Registry, logger *logrus.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	b := &Bot{
		Session: session,
		Log:     logger.WithField("component", "bot"),
		Private: &private.Manager{Cfg: cfg, Store: st, Log: logger.WithField("component", "private")},
		RSVP:    rsvp.NewManager(cfg, st, reg, logger.WithField("component", "rsvp")),
	}
	b.Tickets = &ticket.Manager{
		Cfg:          cfg,
		Store:        st,
		Reg:          reg,
		Log:          logger.WithField("component", "ticket"),
		CreateInvite: b.Private.CreateOneTimeInvite,
	}
	b.Cmds = &commands.Handler{
		Cfg:   cfg,
		Store: st,
		RSVP:  b.RSVP,
		Log:   logger.WithField("component", "commands"),
	}

	session.AddHandler(b.onReady)
	session.AddHandler(b.onMessageCreate)
	session.AddHandler(b.onChannelCreate)
	session.AddHandler(b.onGuildMemberAdd)
	session.AddHandler(b.onMessageDelete)
	session.AddHandler(b.onInteractionCreate)

	return b, nil
}

// Open connects the gateway.
func (b *Bot) Open() error {
	return b.Session.Open()
}

// Close disconnects.
func (b *Bot) Close() error {
	return b.Session.Close()
}

func (b *Bot) onReady(s *discordgo.Session, r *discordgo.Ready) {
	b.Log.WithFields(logrus.Fields{
		"user":   r.User.Username,
		"guilds": len(r.Guilds),
	}).Info("gateway ready")

	b.Cmds.Sync(s)
	b.Private.EnsureSetupMessage(s)
	b.RSVP.LoadAndScheduleActive(s)
}

func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author != nil && m.Author.ID == s.State.User.ID {
		return
	}

	// DMs only matter to a live wizard session
	if m.GuildID == "" {
		b.RSVP.HandleDMMessage(m.Message)
		return
	}

	if b.Cmds.HandlePrefix(s, m.Message) {
		return
	}
	b.Tickets.HandleMessage(s, m.Message)
}

func (b *Bot) onChannelCreate(s *discordgo.Session, c *discordgo.ChannelCreate) {
	b.Tickets.HandleChannelCreate(s, c.Channel)
}

func (b *Bot) onGuildMemberAdd(s *discordgo.Session, m *discordgo.GuildMemberAdd) {
	b.RSVP.HandleMemberJoin(s, m.Member, m.GuildID)
}

func (b *Bot) onMessageDelete(s *discordgo.Session, m *discordgo.MessageDelete) {
	b.RSVP.HandleMessageDelete(s, m.ID)
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		if i.Member == nil {
			return
		}
		b.Cmds.HandleCommand(s, i)
	case discordgo.InteractionMessageComponent:
		b.dispatchComponent(s, i)
	case discordgo.InteractionModalSubmit:
		b.dispatchModal(s, i)
	}
}

func (b *Bot) dispatchComponent(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil {
		return
	}
	customID := i.MessageComponentData().CustomID
	base, arg, _ := strings.Cut(customID, ":")

	switch base {
	case ticket.CustomIDAccept:
		if err := b.Tickets.OpenDecisionModal(s, i, ticket.DecisionAccept); err != nil {
			b.Log.WithError(err).Warn("decision modal open failed")
		}
	case ticket.CustomIDReject:
		if err := b.Tickets.OpenDecisionModal(s, i, ticket.DecisionReject); err != nil {
			b.Log.WithError(err).Warn("decision modal open failed")
		}
	case private.CustomIDOpenForm:
		if err := b.Private.HandleOpenForm(s, i); err != nil {
			b.Log.WithError(err).Warn("nickname modal open failed")
		}
	case rsvp.CustomIDAccept:
		b.RSVP.HandleRSVP(s, i, store.StatusAccepted)
	case rsvp.CustomIDDecline:
		b.RSVP.HandleRSVP(s, i, store.StatusDeclined)
	case rsvp.CustomIDTentative:
		b.RSVP.HandleRSVP(s, i, store.StatusTentative)
	case rsvp.CustomIDEdit:
		b.RSVP.HandleEditButton(s, i)
	case rsvp.CustomIDDelete:
		b.RSVP.HandleDeleteButton(s, i)
	case rsvp.CustomIDDeleteConfirm:
		b.RSVP.HandleDeleteConfirm(s, i, arg)
	case rsvp.CustomIDDeleteCancel:
		b.RSVP.HandleDeleteCancel(s, i)
	case commands.CustomIDIgnoreAddConfirm:
		b.Cmds.HandleIgnoreAddConfirm(s, i, arg)
	case commands.CustomIDIgnoreAddCancel:
		b.Cmds.HandleIgnoreAddCancel(s, i)
	}
}

func (b *Bot) dispatchModal(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Member == nil {
		return
	}
	customID := i.ModalSubmitData().CustomID
	base, arg, _ := strings.Cut(customID, ":")

	switch base {
	case ticket.CustomIDDecisionModal:
		data := i.ModalSubmitData()
		reason := strings.TrimSpace(ticket.ModalTextValue(&data, "reason"))
		if reason == "" {
			reason = "-"
		}
		decision := ticket.DecisionAccept
		if arg == string(ticket.DecisionReject) {
			decision = ticket.DecisionReject
		}
		b.Tickets.ProcessDecision(s, i, decision, reason)
	case private.CustomIDNickModal:
		b.Private.HandleNickModal(s, i)
	case rsvp.CustomIDEditModal:
		b.RSVP.HandleEditModal(s, i, arg)
	}
}
