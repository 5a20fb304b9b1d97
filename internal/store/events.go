package store

import "database/sql"

// RSVP statuses. Absence of a row means "no response".
const (
	StatusAccepted  = "accepted"
	StatusTentative = "tentative"
	StatusDeclined  = "declined"
)

// Event is one RSVP event, keyed by its announcement message.
type Event struct {
	MessageID       int64         `db:"message_id"`
	GuildID         int64         `db:"guild_id"`
	ChannelID       int64         `db:"channel_id"`
	CreatedBy       int64         `db:"created_by"`
	Title           string        `db:"title"`
	Description     string        `db:"description"`
	MaxParticipants sql.NullInt64 `db:"max_participants"`
	StartAt         int64         `db:"start_at"`
	EndAt           int64         `db:"end_at"`
}

func (s *Store) SetEventChannel(guildID, channelID int64) error {
	return s.exec(
		`INSERT INTO guild_settings(guild_id, event_channel_id) VALUES(?, ?)
		 ON CONFLICT(guild_id) DO UPDATE SET event_channel_id=excluded.event_channel_id;`,
		guildID, channelID)
}

func (s *Store) GetEventChannel(guildID int64) (int64, bool, error) {
	return s.getInt64(`SELECT event_channel_id FROM guild_settings WHERE guild_id=?;`, guildID)
}

// UpsertEvent writes the full event row; edits go through here as well.
func (s *Store) UpsertEvent(ev *Event) error {
	return s.exec(
		`INSERT INTO events(message_id, guild_id, channel_id, created_by, title, description, max_participants, start_at, end_at)
		 VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(message_id) DO UPDATE SET
			title=excluded.title,
			description=excluded.description,
			max_participants=excluded.max_participants,
			end_at=excluded.end_at;`,
		ev.MessageID, ev.GuildID, ev.ChannelID, ev.CreatedBy,
		ev.Title, ev.Description, ev.MaxParticipants, ev.StartAt, ev.EndAt)
}

func (s *Store) GetEvent(messageID int64) (*Event, error) {
	var ev Event
	err := s.db.Get(&ev, `SELECT * FROM events WHERE message_id=?;`, messageID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ev, nil
}

// DeleteEvent removes the event and all its responses.
func (s *Store) DeleteEvent(messageID int64) error {
	if err := s.exec(`DELETE FROM events WHERE message_id=?;`, messageID); err != nil {
		return err
	}
	return s.exec(`DELETE FROM event_responses WHERE message_id=?;`, messageID)
}

// ListActiveEvents returns events whose end_at is still in the future.
func (s *Store) ListActiveEvents(nowTS int64) ([]*Event, error) {
	var evs []*Event
	err := s.db.Select(&evs, `SELECT * FROM events WHERE end_at > ?;`, nowTS)
	return evs, err
}

// ActiveEventForGuild returns the message ID of the guild's live event, if any.
// Attendance roles are guild-global, so at most one event should be live.
func (s *Store) ActiveEventForGuild(guildID, nowTS int64) (int64, bool, error) {
	return s.getInt64(
		`SELECT message_id FROM events WHERE guild_id=? AND end_at > ? ORDER BY end_at DESC LIMIT 1;`,
		guildID, nowTS)
}

// SetEventResponse upserts the user's RSVP; last write wins.
func (s *Store) SetEventResponse(messageID, userID int64, status string) error {
	return s.exec(
		`INSERT INTO event_responses(message_id, user_id, status, updated_at) VALUES(?, ?, ?, ?)
		 ON CONFLICT(message_id, user_id) DO UPDATE SET status=excluded.status, updated_at=excluded.updated_at;`,
		messageID, userID, status, now())
}

// EventResponses returns user→status for the event.
func (s *Store) EventResponses(messageID int64) (map[int64]string, error) {
	rows, err := s.db.Queryx(`SELECT user_id, status FROM event_responses WHERE message_id=?;`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[int64]string)
	for rows.Next() {
		var userID int64
		var status string
		if err := rows.Scan(&userID, &status); err != nil {
			return nil, err
		}
		out[userID] = status
	}
	return out, rows.Err()
}

func (s *Store) CountStatus(messageID int64, status string) (int, error) {
	var n int
	err := s.db.Get(&n, `SELECT COUNT(*) FROM event_responses WHERE message_id=? AND status=?;`, messageID, status)
	return n, err
}
