package patternlog

// #region imports
import (
	"fmt"
	"log"
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
)

// #endregion

// #region event-sink

// EventSink persists intervention events in the same database as the
// pattern log. It implements intervene.Sink; write failures are logged and
// swallowed so orchestration never fails on metrics.
type EventSink struct {
	store *Store
}

// NewEventSink creates a sink backed by the store.
func NewEventSink(store *Store) *EventSink {
	return &EventSink{store: store}
}

// Emit implements intervene.Sink.
func (s *EventSink) Emit(e intervene.Event) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := s.store.db.Exec(
		`INSERT INTO intervention_events (session_id, tool_id, kind, display_mode, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.SessionID,
		string(e.Tool),
		string(e.Kind),
		nullIfEmpty(string(e.Mode)),
		e.At.UTC().Format(timeLayout),
	)
	if err != nil {
		log.Printf("[STORE] failed to record intervention event: %v", err)
	}
}

// #endregion event-sink

// #region acknowledged

// Acknowledged returns the tool dispositions recorded for a session, for
// rebuilding dismissal suppression after a restart. Only the latest event
// per tool counts.
func (s *Store) Acknowledged(sessionID string) (map[intervene.ToolID]intervene.Disposition, error) {
	rows, err := s.db.Query(
		`SELECT tool_id, kind FROM intervention_events
		 WHERE session_id = ? AND kind IN (?, ?)
		 ORDER BY id ASC`,
		sessionID,
		string(intervene.EventDismissed),
		string(intervene.EventAcknowledged),
	)
	if err != nil {
		return nil, fmt.Errorf("read acknowledgments: %w", err)
	}
	defer rows.Close()

	out := make(map[intervene.ToolID]intervene.Disposition)
	for rows.Next() {
		var tool, kind string
		if err := rows.Scan(&tool, &kind); err != nil {
			return nil, fmt.Errorf("scan acknowledgment: %w", err)
		}
		switch intervene.EventKind(kind) {
		case intervene.EventDismissed:
			out[intervene.ToolID(tool)] = intervene.DispositionDismissed
		case intervene.EventAcknowledged:
			out[intervene.ToolID(tool)] = intervene.DispositionAcknowledged
		}
	}
	return out, rows.Err()
}

// #endregion acknowledged
