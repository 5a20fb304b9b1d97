// Package rsvp runs guild events: a DM wizard that collects the event, an
// announcement embed with attendance buttons, attendance roles and a timed
// close.
package rsvp

import (
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/sirupsen/logrus"

	"clanbot/internal/config"
	"clanbot/internal/registry"
	"clanbot/internal/snowflake"
	"clanbot/internal/store"
)

// Component custom IDs on the announcement message.
const (
	CustomIDAccept    = "sh_event_accept"
	CustomIDDecline   = "sh_event_decline"
	CustomIDTentative = "sh_event_tentative"
	CustomIDEdit      = "sh_event_edit"
	CustomIDDelete    = "sh_event_delete"

	CustomIDEditModal     = "sh_event_edit_modal"
	CustomIDDeleteConfirm = "sh_event_delete_confirm"
	CustomIDDeleteCancel  = "sh_event_delete_cancel"
)

// Manager owns the RSVP subsystem. Wizard sessions are keyed by user ID; a DM
// from a user with a live session is routed into it instead of being treated
// as a command.
type Manager struct {
	Cfg   *config.Config
	Store *store.Store
	Reg   *registry.Registry
	Log   *logrus.Entry

	mu       sync.Mutex
	sessions map[string]chan *discordgo.Message
}

func NewManager(cfg *config.Config, st *store.Store, reg *registry.Registry, log *logrus.Entry) *Manager {
	return &Manager{
		Cfg:      cfg,
		Store:    st,
		Reg:      reg,
		Log:      log,
		sessions: make(map[string]chan *discordgo.Message),
	}
}

// HandleDMMessage feeds a direct message into the author's wizard session.
// Returns false when no session is waiting.
func (m *Manager) HandleDMMessage(msg *discordgo.Message) bool {
	if msg.Author == nil {
		return false
	}
	m.mu.Lock()
	ch := m.sessions[msg.Author.ID]
	m.mu.Unlock()
	if ch == nil {
		return false
	}
	select {
	case ch <- msg:
	default:
		// session busy, drop; the user is typing faster than the wizard asks
	}
	return true
}

func (m *Manager) openSession(userID string) chan *discordgo.Message {
	ch := make(chan *discordgo.Message, 1)
	m.mu.Lock()
	m.sessions[userID] = ch
	m.mu.Unlock()
	return ch
}

func (m *Manager) closeSession(userID string) {
	m.mu.Lock()
	delete(m.sessions, userID)
	m.mu.Unlock()
}

// IsEventManager reports whether the member may create and manage events.
func (m *Manager) IsEventManager(member *discordgo.Member, userID string) bool {
	if userID != "" && m.Cfg.AdminUserID != 0 && userID == snowflake.Format(m.Cfg.AdminUserID) {
		return true
	}
	if member == nil {
		return false
	}
	if member.Permissions&discordgo.PermissionAdministrator != 0 {
		return true
	}
	for _, rid := range member.Roles {
		for _, mgr := range m.Cfg.EventManagerRoleIDs {
			if rid == snowflake.Format(mgr) {
				return true
			}
		}
	}
	return false
}
