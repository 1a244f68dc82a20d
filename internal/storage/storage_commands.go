package storage

import "time"

type CommandHistory struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Command   string    `json:"command"`
	Param     string    `json:"param"`
	Datetime  time.Time `json:"datetime"`
}

// AppendCommandHistory records a command invocation, keeping the newest entries.
func (s *Storage) AppendCommandHistory(guildID string, entry CommandHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, _, err := s.getGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.CommandsHistory = append(record.CommandsHistory, entry)
	if len(record.CommandsHistory) > commandHistoryLimit {
		record.CommandsHistory = record.CommandsHistory[len(record.CommandsHistory)-commandHistoryLimit:]
	}
	return s.putGuildRecord(guildID, record)
}

func (s *Storage) GetCommandsHistory(guildID string) ([]CommandHistory, error) {
	record, _, err := s.getGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.CommandsHistory, nil
}
