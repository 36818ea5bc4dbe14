// Package engine coordinates the full per-turn pipeline: signal
// extraction, guarded classification (remote with local fallback),
// pattern-log append, trust scoring, and intervention orchestration.
package engine

// #region imports
import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/config"
	"github.com/danielpatrickdp/collab-sentinel/internal/guard"
	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/patternlog"
	"github.com/danielpatrickdp/collab-sentinel/internal/remote"
	"github.com/danielpatrickdp/collab-sentinel/internal/session"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region result

// TurnResult is what one completed classification cycle hands to the
// presentation layer.
type TurnResult struct {
	SessionID  string
	Signals    signals.BehavioralSignals
	Estimate   pattern.Estimate
	TrustScore float64
	Plan       intervene.Plan
	FromRemote bool
}

// #endregion result

// #region engine

// Engine is the top-level coordinator. One Engine serves many sessions;
// all session state lives in explicit session contexts.
type Engine struct {
	config       config.Config
	extractor    *signals.Extractor
	classifier   *pattern.Classifier
	remote       *remote.Client // nil: local rule cascade only
	store        *patternlog.Store
	orchestrator *intervene.Orchestrator
	sink         intervene.Sink
	guard        *guard.Guard
	onResult     func(TurnResult)

	mu       sync.Mutex
	sessions map[string]*session.Context
}

// New creates a fully wired engine. remoteClient may be nil to classify
// locally only; sink may be nil to discard events; clock may be nil for
// the wall clock; onResult may be nil.
func New(
	cfg config.Config,
	store *patternlog.Store,
	remoteClient *remote.Client,
	sink intervene.Sink,
	clock guard.Clock,
	onResult func(TurnResult),
) *Engine {
	if sink == nil {
		sink = intervene.NopSink{}
	}
	e := &Engine{
		config:       cfg,
		extractor:    signals.NewExtractor(),
		classifier:   pattern.NewClassifier(cfg.PatternConfig()),
		remote:       remoteClient,
		store:        store,
		orchestrator: intervene.NewOrchestrator(cfg.InterveneConfig(), sink),
		sink:         sink,
		onResult:     onResult,
		sessions:     make(map[string]*session.Context),
	}
	e.guard = guard.New(cfg.DebounceWindow(), clock, e.classify)
	return e
}

// #endregion engine

// #region sessions

// StartSession creates the session context, restoring dismissal state
// from the event log.
func (e *Engine) StartSession(id, userID string, joinedAt time.Time) *session.Context {
	sctx := session.New(id, userID, joinedAt)
	if saved, err := e.store.Acknowledged(id); err != nil {
		log.Printf("[ENGINE] restore dispositions for %s: %v", id, err)
	} else {
		sctx.RestoreDispositions(saved)
	}

	e.mu.Lock()
	e.sessions[id] = sctx
	e.mu.Unlock()
	return sctx
}

// EndSession cancels pending work and drops the session context. Pending
// debounce timers and in-flight classifications for the session are
// discarded without completing.
func (e *Engine) EndSession(id string) {
	e.guard.Cancel(id)
	e.mu.Lock()
	delete(e.sessions, id)
	e.mu.Unlock()
}

// Session returns the live context, or nil.
func (e *Engine) Session(id string) *session.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sessions[id]
}

// #endregion sessions

// #region turns

// AddTurns appends conversation turns and schedules a debounced
// classification.
func (e *Engine) AddTurns(sessionID string, turns ...signals.Turn) {
	e.mu.Lock()
	sctx := e.sessions[sessionID]
	if sctx == nil {
		e.mu.Unlock()
		log.Printf("[ENGINE] turns for unknown session %s dropped", sessionID)
		return
	}
	sctx.AppendTurns(turns...)
	e.mu.Unlock()

	e.guard.Trigger(sessionID)
}

// SetResponseContext records the host-supplied trust inputs for the
// latest AI response. Absent inputs stay zero-valued; nothing is invented
// in their place.
func (e *Engine) SetResponseContext(sessionID string, in trust.Input) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sctx := e.sessions[sessionID]; sctx != nil {
		sctx.Response = in
	}
}

// Flush classifies immediately, bypassing the debounce window. Used by
// synchronous callers such as the CLI run loop.
func (e *Engine) Flush(ctx context.Context, sessionID string) {
	e.guard.Flush(ctx, sessionID)
}

// #endregion turns

// #region classify

// classify is the guarded work function: one invocation per debounce
// cycle per session.
func (e *Engine) classify(ctx context.Context, sessionID string) {
	e.mu.Lock()
	sctx := e.sessions[sessionID]
	if sctx == nil {
		e.mu.Unlock()
		return
	}
	turns := make([]signals.Turn, len(sctx.Turns))
	copy(turns, sctx.Turns)
	sctx.SubmittedTurns = len(turns)
	responseIn := sctx.Response
	e.mu.Unlock()

	sig := e.extractor.Extract(turns)
	history := e.history(sessionID)

	est, fromRemote := e.estimate(ctx, sessionID, turns, sig, history)

	if ctx.Err() != nil {
		return // session cancelled: discard the result unapplied
	}

	if _, err := e.store.Append(patternlog.Entry{
		SessionID:  sessionID,
		UserID:     sctx.UserID,
		Label:      est.Label,
		Confidence: est.Confidence,
		Evidence:   est.Evidence,
	}); err != nil {
		log.Printf("[ENGINE] append pattern log: %v", err)
	}

	e.mu.Lock()
	if e.sessions[sessionID] != sctx {
		e.mu.Unlock()
		return // session ended while classifying
	}
	sctx.ApplyEstimate(est)
	stale := sctx.Stale()

	if responseIn.Verified || sig.VerificationAttempted {
		responseIn.Verified = true
	}
	if responseIn.Criticality == 0 {
		responseIn.Criticality = sig.TaskComplexity
	}
	score := trust.Score(responseIn, e.config.TrustConfig())

	in := intervene.Input{
		SessionID:             sessionID,
		Estimate:              est,
		TrustScore:            score,
		Criticality:           responseIn.Criticality,
		Modified:              responseIn.Modified,
		ConsecutiveUnverified: sctx.ConsecutiveUnverified,
		Dismissed:             sctx.Dispositions(),
		LastTopTool:           sctx.LastTopTool,
	}
	e.mu.Unlock()

	plan := e.orchestrator.Plan(in)

	e.mu.Lock()
	if e.sessions[sessionID] == sctx {
		sctx.LastTopTool = plan.TopTool
	}
	e.mu.Unlock()

	log.Printf("[ENGINE] session=%s label=%s confidence=%.2f trust=%.0f interventions=%d remote=%v",
		sessionID, est.Label, est.Confidence, score, len(plan.Active), fromRemote)

	if e.onResult != nil {
		e.onResult(TurnResult{
			SessionID:  sessionID,
			Signals:    sig,
			Estimate:   est,
			TrustScore: score,
			Plan:       plan,
			FromRemote: fromRemote,
		})
	}

	// A stale estimate is still applied (last writer wins on the log),
	// but the conversation has moved on: schedule one more cycle.
	if stale {
		e.guard.Trigger(sessionID)
	}
}

// estimate prefers the remote classifier and falls back to the local rule
// cascade on any remote failure.
func (e *Engine) estimate(
	ctx context.Context,
	sessionID string,
	turns []signals.Turn,
	sig signals.BehavioralSignals,
	history []pattern.Estimate,
) (pattern.Estimate, bool) {
	if e.remote != nil {
		res, ok := e.remote.Classify(ctx, remote.ClassifyRequest{
			SessionID:        sessionID,
			Turns:            turns,
			CurrentTurnIndex: len(turns) - 1,
		})
		if ok {
			return res.Estimate, true
		}
		log.Printf("[ENGINE] remote classify unavailable, using rule cascade")
	}
	return e.classifier.Classify(sig, history), false
}

// history converts recent log entries into classifier history.
func (e *Engine) history(sessionID string) []pattern.Estimate {
	entries, err := e.store.LastN(sessionID, e.config.Classifier.StabilityWindow)
	if err != nil {
		log.Printf("[ENGINE] read history: %v", err)
		return nil
	}
	out := make([]pattern.Estimate, 0, len(entries))
	for _, entry := range entries {
		out = append(out, pattern.Estimate{Label: entry.Label, Confidence: entry.Confidence})
	}
	return out
}

// #endregion classify

// #region dismissal

// Dismiss records a user dismissal for the session's current offer.
func (e *Engine) Dismiss(sessionID string, tool intervene.ToolID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sctx := e.sessions[sessionID]; sctx != nil {
		sctx.Dismiss(tool, e.sink)
	}
}

// Acknowledge records a user acknowledgment (e.g. of a modal).
func (e *Engine) Acknowledge(sessionID string, tool intervene.ToolID) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sctx := e.sessions[sessionID]; sctx != nil {
		sctx.Acknowledge(tool, e.sink)
	}
}

// #endregion dismissal
