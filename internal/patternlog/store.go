// Package patternlog persists classification results in an append-only
// SQLite log. Entries are never updated or deleted by this subsystem, so
// readers can snapshot-read while writers append.
package patternlog

// #region imports
import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
)

// #endregion

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS pattern_log (
	entry_id      TEXT PRIMARY KEY,
	session_id    TEXT NOT NULL,
	user_id       TEXT,
	label         TEXT NOT NULL,
	confidence    REAL NOT NULL,
	evidence_json TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_pattern_log_session
ON pattern_log(session_id, created_at);

CREATE INDEX IF NOT EXISTS idx_pattern_log_user
ON pattern_log(user_id, created_at);

CREATE TABLE IF NOT EXISTS intervention_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	tool_id       TEXT NOT NULL,
	kind          TEXT NOT NULL,
	display_mode  TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_intervention_events_session
ON intervention_events(session_id, tool_id);
`

// timeLayout is fixed-width (fractional seconds zero-padded, always UTC)
// so stored strings collate chronologically under SQLite's text ordering.
// RFC3339Nano would trim trailing zeros and break both ORDER BY and range
// comparisons.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #endregion schema

// #region entry

// Entry is one appended classification. Owned by the store once written.
type Entry struct {
	EntryID    string
	SessionID  string
	UserID     string
	Label      pattern.Pattern
	Confidence float64
	Evidence   []string
	CreatedAt  time.Time
}

// #endregion entry

// #region store

// Store manages the append-only pattern log in SQLite.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// #endregion store

// #region append

// Append writes one log entry. A zero EntryID or CreatedAt is filled in.
func (s *Store) Append(entry Entry) (Entry, error) {
	if entry.EntryID == "" {
		entry.EntryID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	evidenceJSON, err := json.Marshal(entry.Evidence)
	if err != nil {
		return Entry{}, fmt.Errorf("marshal evidence: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO pattern_log (entry_id, session_id, user_id, label, confidence, evidence_json, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.EntryID,
		entry.SessionID,
		nullIfEmpty(entry.UserID),
		string(entry.Label),
		entry.Confidence,
		string(evidenceJSON),
		entry.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Entry{}, fmt.Errorf("append entry: %w", err)
	}
	return entry, nil
}

// #endregion append

// #region read-range

// ReadRange returns entries for a session or user between from and to
// (inclusive), ordered by timestamp ascending. scopeID matches either the
// session id or the user id.
func (s *Store) ReadRange(scopeID string, from, to time.Time) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT entry_id, session_id, user_id, label, confidence, evidence_json, created_at
		 FROM pattern_log
		 WHERE (session_id = ? OR user_id = ?) AND created_at >= ? AND created_at <= ?
		 ORDER BY created_at ASC`,
		scopeID, scopeID,
		from.UTC().Format(timeLayout),
		to.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("read range: %w", err)
	}
	defer rows.Close()
	return scanEntries(rows)
}

// LastN returns the most recent n entries for a session, oldest first.
func (s *Store) LastN(sessionID string, n int) ([]Entry, error) {
	rows, err := s.db.Query(
		`SELECT entry_id, session_id, user_id, label, confidence, evidence_json, created_at
		 FROM pattern_log WHERE session_id = ?
		 ORDER BY created_at DESC LIMIT ?`,
		sessionID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("last n: %w", err)
	}
	defer rows.Close()

	entries, err := scanEntries(rows)
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(entries)-1; i < j; i, j = i+1, j-1 {
		entries[i], entries[j] = entries[j], entries[i]
	}
	return entries, nil
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		var userID sql.NullString
		var evidenceJSON sql.NullString
		var label, createdStr string

		if err := rows.Scan(&e.EntryID, &e.SessionID, &userID, &label,
			&e.Confidence, &evidenceJSON, &createdStr); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if userID.Valid {
			e.UserID = userID.String
		}
		e.Label = pattern.Pattern(label)
		if evidenceJSON.Valid && evidenceJSON.String != "" {
			if err := json.Unmarshal([]byte(evidenceJSON.String), &e.Evidence); err != nil {
				return nil, fmt.Errorf("unmarshal evidence: %w", err)
			}
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion read-range

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
