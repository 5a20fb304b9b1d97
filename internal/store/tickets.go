package store

// Ticket triage tables: channel→opener, channel→live panel message, the
// dynamic ignore list and the invite audit trail.

func (s *Store) SetOpener(channelID, openerID int64) error {
	return s.exec(
		`INSERT INTO tickets(channel_id, opener_id, created_at) VALUES(?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET opener_id=excluded.opener_id, created_at=excluded.created_at;`,
		channelID, openerID, now())
}

// GetOpener returns the stored opener for the channel, ok=false when none.
func (s *Store) GetOpener(channelID int64) (int64, bool, error) {
	return s.getInt64(`SELECT opener_id FROM tickets WHERE channel_id=?;`, channelID)
}

func (s *Store) DeleteTicket(channelID int64) error {
	return s.exec(`DELETE FROM tickets WHERE channel_id=?;`, channelID)
}

func (s *Store) SetPrompt(channelID, messageID int64) error {
	return s.exec(
		`INSERT INTO prompts(channel_id, prompt_message_id, created_at) VALUES(?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET prompt_message_id=excluded.prompt_message_id, created_at=excluded.created_at;`,
		channelID, messageID, now())
}

func (s *Store) GetPrompt(channelID int64) (int64, bool, error) {
	return s.getInt64(`SELECT prompt_message_id FROM prompts WHERE channel_id=?;`, channelID)
}

func (s *Store) DeletePrompt(channelID int64) error {
	return s.exec(`DELETE FROM prompts WHERE channel_id=?;`, channelID)
}

func (s *Store) SetPrivateSetupMessage(channelID, messageID int64) error {
	return s.exec(
		`INSERT INTO private_setup(channel_id, message_id, created_at) VALUES(?, ?, ?)
		 ON CONFLICT(channel_id) DO UPDATE SET message_id=excluded.message_id, created_at=excluded.created_at;`,
		channelID, messageID, now())
}

func (s *Store) GetPrivateSetupMessage(channelID int64) (int64, bool, error) {
	return s.getInt64(`SELECT message_id FROM private_setup WHERE channel_id=?;`, channelID)
}

func (s *Store) AddIgnoredUser(userID, addedBy int64) error {
	return s.exec(
		`INSERT OR IGNORE INTO ignored_users(user_id, added_by, added_at) VALUES(?, ?, ?);`,
		userID, addedBy, now())
}

func (s *Store) IsIgnoredUser(userID int64) (bool, error) {
	_, ok, err := s.getInt64(`SELECT 1 FROM ignored_users WHERE user_id=?;`, userID)
	return ok, err
}

// RemoveIgnoredUser deletes the row and reports whether it existed.
func (s *Store) RemoveIgnoredUser(userID int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM ignored_users WHERE user_id=?;`, userID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (s *Store) ListIgnoredUsers() ([]int64, error) {
	var ids []int64
	err := s.db.Select(&ids, `SELECT user_id FROM ignored_users ORDER BY added_at ASC;`)
	return ids, err
}

// LogInvite records a created invite for audit. Never read back into logic.
func (s *Store) LogInvite(code string, userID, moderatorID, channelID, expiresAt int64) error {
	return s.exec(
		`INSERT OR REPLACE INTO invite_logs(invite_code, user_id, moderator_id, channel_id, created_at, expires_at)
		 VALUES(?, ?, ?, ?, ?, ?);`,
		code, userID, moderatorID, channelID, now(), expiresAt)
}
