package state

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/mlenormand/ebb/internal/session"
)

const (
	appName      = "ebb"
	dbFileName   = "ebb.db"
	saveDebounce = 500 * time.Millisecond
)

// Manager persists session tokens, the playback queue and player settings.
// Queue saves are debounced: rapid queue edits collapse into one write.
type Manager struct {
	db        *sql.DB
	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *QueueState
}

func Open() (*Manager, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Manager{db: db}, nil
}

// OpenMemory opens an in-memory manager, for tests.
func OpenMemory() (*Manager, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, err
	}
	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Manager{db: db}, nil
}

func (m *Manager) Close() error {
	m.saveMu.Lock()
	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}
	pending := m.pending
	m.pending = nil
	m.saveMu.Unlock()

	// Flush pending state
	if pending != nil {
		_ = saveQueue(m.db, *pending)
	}

	return m.db.Close()
}

// SaveRefreshToken persists a session's refresh token. An empty token
// removes the stored one.
func (m *Manager) SaveRefreshToken(kind session.Kind, token string) error {
	if token == "" {
		_, err := m.db.Exec(`DELETE FROM sessions WHERE kind = ?`, int(kind))
		return err
	}
	_, err := m.db.Exec(`
		INSERT INTO sessions (kind, refresh_token, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(kind) DO UPDATE SET
			refresh_token = excluded.refresh_token,
			updated_at = excluded.updated_at
	`, int(kind), token, time.Now().Unix())
	return err
}

// RefreshToken returns the stored refresh token for a session kind, empty
// when none is stored.
func (m *Manager) RefreshToken(kind session.Kind) (string, error) {
	var token string
	err := m.db.QueryRow(`SELECT refresh_token FROM sessions WHERE kind = ?`, int(kind)).Scan(&token)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return token, nil
}

// SaveQueue schedules a debounced queue write.
func (m *Manager) SaveQueue(state QueueState) {
	m.saveMu.Lock()
	defer m.saveMu.Unlock()

	m.pending = &state

	if m.saveTimer != nil {
		m.saveTimer.Stop()
	}

	m.saveTimer = time.AfterFunc(saveDebounce, func() {
		m.saveMu.Lock()
		pending := m.pending
		m.pending = nil
		m.saveMu.Unlock()

		if pending != nil {
			_ = saveQueue(m.db, *pending)
		}
	})
}

// GetQueue loads the saved queue.
func (m *Manager) GetQueue() (*QueueState, error) {
	return getQueue(m.db)
}

func (m *Manager) DB() *sql.DB {
	return m.db
}

func getDBPath() (string, error) {
	return xdg.DataFile(filepath.Join(appName, dbFileName))
}
