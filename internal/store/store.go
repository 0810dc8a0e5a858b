package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/drawspace/sync-server/internal/board"
)

// Store is the sqlite usage ledger: one row per room session, written when a
// room opens and finalized when it empties out. It feeds /api/stats and is
// never read back into live room state.
type Store struct {
	db  *sql.DB
	log *zap.Logger
}

var _ board.Recorder = (*Store)(nil)

func Open(path string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}

	if err := createTables(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("create tables: %w", err)
	}

	log.Info("usage ledger opened", zap.String("path", path))
	return &Store{db: db, log: log}, nil
}

func createTables(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS room_sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		opened_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		closed_at DATETIME,
		canvases INTEGER DEFAULT 0,
		strokes INTEGER DEFAULT 0,
		text_areas INTEGER DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_room_sessions_room_id ON room_sessions(room_id);
	`

	_, err := db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// RoomOpened starts a new session row. Recorder failures never reach the
// engine; they are logged and the session is simply missing from the ledger.
func (s *Store) RoomOpened(id board.RoomID) {
	_, err := s.db.Exec(
		"INSERT INTO room_sessions (room_id) VALUES (?)",
		string(id),
	)
	if err != nil {
		s.log.Warn("record room open", zap.String("room", string(id)), zap.Error(err))
	}
}

// RoomClosed finalizes the latest open session for the room with its final
// counters.
func (s *Store) RoomClosed(id board.RoomID, canvases, strokes, textAreas int) {
	_, err := s.db.Exec(`
		UPDATE room_sessions
		SET closed_at = CURRENT_TIMESTAMP, canvases = ?, strokes = ?, text_areas = ?
		WHERE id = (
			SELECT id FROM room_sessions
			WHERE room_id = ? AND closed_at IS NULL
			ORDER BY id DESC
			LIMIT 1
		)
	`, canvases, strokes, textAreas, string(id))
	if err != nil {
		s.log.Warn("record room close", zap.String("room", string(id)), zap.Error(err))
	}
}

type Totals struct {
	RoomsOpened    int `json:"rooms_opened"`
	SessionsClosed int `json:"sessions_closed"`
	Strokes        int `json:"strokes"`
	TextAreas      int `json:"text_areas"`
}

func (s *Store) Totals() (Totals, error) {
	var t Totals
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(closed_at), COALESCE(SUM(strokes), 0), COALESCE(SUM(text_areas), 0)
		FROM room_sessions
	`).Scan(&t.RoomsOpened, &t.SessionsClosed, &t.Strokes, &t.TextAreas)
	if err != nil {
		return Totals{}, fmt.Errorf("ledger totals: %w", err)
	}
	return t, nil
}
