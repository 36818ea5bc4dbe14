// Package guard wraps the classification step with trailing-edge debounce
// and a single in-flight invocation per session. Bursts of turns collapse
// into one call; triggers arriving mid-flight merge into one follow-up
// cycle; cancellation discards pending timers and in-flight results.
package guard

// #region imports
import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// #endregion

// #region clock

// Clock abstracts timer scheduling so tests can drive time manually.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Timer is a cancellable scheduled call.
type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// RealClock returns the wall clock.
func RealClock() Clock { return realClock{} }

// #endregion clock

// #region guard

// Func is the guarded classification work. It must honor ctx: when ctx is
// done the session was cancelled and any result must be discarded unapplied.
type Func func(ctx context.Context, sessionID string)

// Guard debounces and single-flights classification per session.
type Guard struct {
	window time.Duration
	clock  Clock
	fn     Func

	mu       sync.Mutex
	sessions map[string]*sessionState
	sf       singleflight.Group
}

type sessionState struct {
	timer    Timer
	inFlight bool
	rerun    bool
	gen      int
	cancel   context.CancelFunc
}

// New creates a guard around fn. clock may be nil for the wall clock.
func New(window time.Duration, clock Clock, fn Func) *Guard {
	if clock == nil {
		clock = realClock{}
	}
	return &Guard{
		window:   window,
		clock:    clock,
		fn:       fn,
		sessions: make(map[string]*sessionState),
	}
}

// #endregion guard

// #region trigger

// Trigger schedules a classification for the session. Calls within the
// debounce window coalesce into a single trailing invocation; calls during
// an in-flight invocation merge into one follow-up cycle.
func (g *Guard) Trigger(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions[sessionID]
	if s == nil {
		s = &sessionState{}
		g.sessions[sessionID] = s
	}

	if s.inFlight {
		s.rerun = true
		return
	}

	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = g.clock.AfterFunc(g.window, func() {
		g.fire(sessionID, s, gen)
	})
}

// #endregion trigger

// #region fire

func (g *Guard) fire(sessionID string, s *sessionState, gen int) {
	g.mu.Lock()
	if g.sessions[sessionID] != s || s.gen != gen || s.inFlight {
		g.mu.Unlock()
		return
	}
	s.timer = nil
	s.inFlight = true
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	g.mu.Unlock()

	go func() {
		// Concurrent Flush calls for the same session collapse here.
		g.sf.Do(sessionID, func() (interface{}, error) {
			g.fn(ctx, sessionID)
			return nil, nil
		})

		g.mu.Lock()
		defer g.mu.Unlock()
		if g.sessions[sessionID] != s || s.gen != gen {
			return // session cancelled while we ran
		}
		s.inFlight = false
		s.cancel = nil
		cancel()
		if s.rerun {
			s.rerun = false
			s.timer = g.clock.AfterFunc(g.window, func() {
				g.fire(sessionID, s, gen)
			})
		}
	}()
}

// #endregion fire

// #region flush

// Flush runs the classification immediately, bypassing the debounce window.
// Concurrent flushes and an in-flight debounced run for the same session
// share a single invocation.
func (g *Guard) Flush(ctx context.Context, sessionID string) {
	g.sf.Do(sessionID, func() (interface{}, error) {
		g.fn(ctx, sessionID)
		return nil, nil
	})
}

// #endregion flush

// #region cancel

// Cancel tears down the session: the pending debounce timer is stopped,
// any in-flight invocation has its context cancelled, and no completion
// runs for it afterwards.
func (g *Guard) Cancel(sessionID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	s := g.sessions[sessionID]
	if s == nil {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	delete(g.sessions, sessionID)
}

// #endregion cancel
