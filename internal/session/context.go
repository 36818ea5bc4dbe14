// Package session holds the explicit per-session context the pipeline
// threads through each cycle. One Context is created at session start and
// dropped at session end; there is no ambient shared state keyed by
// message or user.
package session

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region context

// Context is the session-scoped pipeline state. Single-writer: only the
// goroutine applying classification results and UI dismissal callbacks
// mutates it, so it carries no lock.
type Context struct {
	ID        string
	UserID    string
	JoinedAt  time.Time
	StartedAt time.Time

	// Turns is the conversation so far, oldest first.
	Turns []signals.Turn

	// SubmittedTurns is the turn count captured when the last
	// classification was submitted; used to detect stale results.
	SubmittedTurns int

	// ConsecutiveUnverified counts AI responses in a row the user
	// accepted without any verification signal.
	ConsecutiveUnverified int

	// LastEstimate is the most recent applied classification, nil before
	// the first one completes.
	LastEstimate *pattern.Estimate

	// LastTopTool is the previous cycle's pre-suppression top candidate.
	LastTopTool intervene.ToolID

	// Response carries the host-supplied trust inputs for the latest AI
	// response. Zero-valued when the host provides none.
	Response trust.Input

	dispositions map[intervene.ToolID]intervene.Disposition
}

// New creates a session context.
func New(id, userID string, joinedAt time.Time) *Context {
	return &Context{
		ID:           id,
		UserID:       userID,
		JoinedAt:     joinedAt,
		StartedAt:    time.Now().UTC(),
		dispositions: make(map[intervene.ToolID]intervene.Disposition),
	}
}

// #endregion context

// #region turns

// AppendTurns extends the conversation.
func (c *Context) AppendTurns(turns ...signals.Turn) {
	c.Turns = append(c.Turns, turns...)
	for _, t := range turns {
		if t.Role != signals.RoleUser {
			continue
		}
		// A verifying turn resets the unverified streak, any other user
		// turn after an AI response extends it.
		if verifies(t) {
			c.ConsecutiveUnverified = 0
		} else {
			c.ConsecutiveUnverified++
		}
	}
}

// verifies reports whether the turn carries a verification signal. It
// reuses the extractor's markers via a two-turn probe.
func verifies(t signals.Turn) bool {
	probe := []signals.Turn{t, {Role: signals.RoleAssistant}}
	sig := signals.NewExtractor().Extract(probe)
	return sig.VerificationAttempted || sig.OutputEvaluation
}

// #endregion turns

// #region dispositions

// Dismiss marks a tool dismissed and reports it to the sink.
func (c *Context) Dismiss(tool intervene.ToolID, sink intervene.Sink) {
	c.dispositions[tool] = intervene.DispositionDismissed
	if sink != nil {
		sink.Emit(intervene.Event{
			Kind:      intervene.EventDismissed,
			SessionID: c.ID,
			Tool:      tool,
			At:        time.Now().UTC(),
		})
	}
}

// Acknowledge marks a tool acknowledged and reports it to the sink.
func (c *Context) Acknowledge(tool intervene.ToolID, sink intervene.Sink) {
	c.dispositions[tool] = intervene.DispositionAcknowledged
	if sink != nil {
		sink.Emit(intervene.Event{
			Kind:      intervene.EventAcknowledged,
			SessionID: c.ID,
			Tool:      tool,
			At:        time.Now().UTC(),
		})
	}
}

// Dispositions returns the dismissal map for orchestration input.
func (c *Context) Dispositions() map[intervene.ToolID]intervene.Disposition {
	return c.dispositions
}

// RestoreDispositions seeds the dismissal map, e.g. from the event log
// after a restart.
func (c *Context) RestoreDispositions(saved map[intervene.ToolID]intervene.Disposition) {
	for tool, d := range saved {
		c.dispositions[tool] = d
	}
}

// #endregion dispositions

// #region estimate

// ApplyEstimate records a completed classification. A top-tool change
// clears dismissal suppression implicitly via the orchestrator; the
// dispositions themselves stay until the session ends.
func (c *Context) ApplyEstimate(est pattern.Estimate) {
	c.LastEstimate = &est
}

// Stale reports whether the conversation advanced past the turn count the
// in-flight classification was submitted with.
func (c *Context) Stale() bool {
	return len(c.Turns) > c.SubmittedTurns
}

// #endregion estimate
