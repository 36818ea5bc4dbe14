package replay

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/intervene"
	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/session"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region types

// Session is one recorded conversation to replay.
type Session struct {
	SessionID string
	UserID    string
	Turns     []signals.Turn
}

// Expectation is the expected final label for a session.
type Expectation struct {
	SessionID string
	Label     pattern.Pattern
}

// Config bundles the pipeline configs for a replay run.
type Config struct {
	// ClassifyEvery is the number of turns between classification points.
	ClassifyEvery int
	Classifier    pattern.Config
	Trust         trust.Config
	Interventions intervene.Config
}

// DefaultConfig returns sensible defaults for the whole pipeline.
func DefaultConfig() Config {
	return Config{
		ClassifyEvery: 2,
		Classifier:    pattern.DefaultConfig(),
		Trust:         trust.DefaultConfig(),
		Interventions: intervene.DefaultConfig(),
	}
}

// Step captures the pipeline output at one classification point.
type Step struct {
	TurnIndex  int // turns consumed so far
	Signals    signals.BehavioralSignals
	Estimate   pattern.Estimate
	TrustScore float64
	Plan       intervene.Plan
}

// SessionResult is the full trajectory of one replayed session.
type SessionResult struct {
	SessionID string
	Steps     []Step
	Final     pattern.Estimate
}

// Mismatch is one session whose final label diverged from the expectation.
type Mismatch struct {
	SessionID string
	Want      pattern.Pattern
	Got       pattern.Pattern
}

// Summary provides aggregate stats from a replay run.
type Summary struct {
	Sessions    int
	Matches     int
	Mismatches  []Mismatch
	LabelCounts map[pattern.Pattern]int
}

// #endregion types

// #region replay

// Replay runs each recorded session through the pipeline synchronously,
// classifying every ClassifyEvery turns and once more at the end. The
// debounce guard and the remote classifier are bypassed: replay is fully
// deterministic and in-memory.
func Replay(sessions []Session, config Config) []SessionResult {
	if config.ClassifyEvery <= 0 {
		config.ClassifyEvery = DefaultConfig().ClassifyEvery
	}
	extractor := signals.NewExtractor()
	classifier := pattern.NewClassifier(config.Classifier)
	orchestrator := intervene.NewOrchestrator(config.Interventions, intervene.NopSink{})

	results := make([]SessionResult, 0, len(sessions))
	for _, sess := range sessions {
		results = append(results, replayOne(sess, config, extractor, classifier, orchestrator))
	}
	return results
}

func replayOne(
	sess Session,
	config Config,
	extractor *signals.Extractor,
	classifier *pattern.Classifier,
	orchestrator *intervene.Orchestrator,
) SessionResult {
	sctx := session.New(sess.SessionID, sess.UserID, time.Time{})
	var history []pattern.Estimate
	result := SessionResult{SessionID: sess.SessionID}

	for i := 0; i < len(sess.Turns); i++ {
		sctx.AppendTurns(sess.Turns[i])
		consumed := i + 1
		atInterval := consumed%config.ClassifyEvery == 0
		atEnd := consumed == len(sess.Turns)
		if !atInterval && !atEnd {
			continue
		}

		sig := extractor.Extract(sess.Turns[:consumed])
		est := classifier.Classify(sig, history)
		history = append(history, est)
		sctx.ApplyEstimate(est)

		score := trust.Score(trust.Input{
			Criticality: sig.TaskComplexity,
			Verified:    sig.VerificationAttempted,
		}, config.Trust)

		plan := orchestrator.Plan(intervene.Input{
			SessionID:             sess.SessionID,
			Estimate:              est,
			TrustScore:            score,
			Criticality:           sig.TaskComplexity,
			ConsecutiveUnverified: sctx.ConsecutiveUnverified,
			Dismissed:             sctx.Dispositions(),
			LastTopTool:           sctx.LastTopTool,
		})
		sctx.LastTopTool = plan.TopTool

		result.Steps = append(result.Steps, Step{
			TurnIndex:  consumed,
			Signals:    sig,
			Estimate:   est,
			TrustScore: score,
			Plan:       plan,
		})
	}

	if n := len(result.Steps); n > 0 {
		result.Final = result.Steps[n-1].Estimate
	}
	return result
}

// Summarize compares final labels against expectations.
func Summarize(results []SessionResult, expected []Expectation) Summary {
	want := make(map[string]pattern.Pattern, len(expected))
	for _, e := range expected {
		want[e.SessionID] = e.Label
	}

	s := Summary{
		Sessions:    len(results),
		LabelCounts: make(map[pattern.Pattern]int),
	}
	for _, r := range results {
		s.LabelCounts[r.Final.Label]++
		label, ok := want[r.SessionID]
		if !ok {
			continue
		}
		if r.Final.Label == label {
			s.Matches++
		} else {
			s.Mismatches = append(s.Mismatches, Mismatch{SessionID: r.SessionID, Want: label, Got: r.Final.Label})
		}
	}
	return s
}

// #endregion replay
