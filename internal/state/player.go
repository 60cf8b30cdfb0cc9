package state

import "database/sql"

// PlayerState is the saved player settings.
type PlayerState struct {
	Volume  int
	Quality string
}

// GetPlayer returns the saved player settings, with defaults when nothing
// was saved yet.
func (m *Manager) GetPlayer() (*PlayerState, error) {
	var volume int
	var quality string

	row := m.db.QueryRow(`SELECT volume, quality FROM player_state WHERE id = 1`)
	err := row.Scan(&volume, &quality)
	if err == sql.ErrNoRows {
		return &PlayerState{Volume: 100}, nil
	}
	if err != nil {
		return nil, err
	}

	return &PlayerState{Volume: volume, Quality: quality}, nil
}

// SavePlayer persists the player settings.
func (m *Manager) SavePlayer(volume int, quality string) error {
	_, err := m.db.Exec(`
		INSERT INTO player_state (id, volume, quality)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			volume = excluded.volume,
			quality = excluded.quality
	`, volume, quality)
	return err
}
