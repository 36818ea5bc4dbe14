package pattern

// #region imports
import (
	"fmt"
	"math"

	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
)

// #endregion

// #region config

// Config holds classifier thresholds.
type Config struct {
	MinTurns             int // NeedMoreData is set below this turn count
	ConfidenceSaturation int // turn count at which confidence reaches 1.0
	StabilityWindow      int // prior classifications compared for stability
}

// DefaultConfig returns the standard classifier thresholds.
func DefaultConfig() Config {
	return Config{
		MinTurns:             10,
		ConfidenceSaturation: 30,
		StabilityWindow:      5,
	}
}

// #endregion config

// #region cascade

// rule is one entry of the priority-ordered decision list. First match wins.
type rule struct {
	label Pattern
	match func(sig signals.BehavioralSignals) bool
	why   func(sig signals.BehavioralSignals) string
}

// cascade is evaluated top-down. F sits first: the at-risk pattern must
// never be masked by a weaker rule below it.
var cascade = []rule{
	{
		label: PatternF,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.AIQueryRatio > 2.0 && sig.VerificationRatio < 0.3
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("ai_query_ratio=%.2f with verification_ratio=%.2f", sig.AIQueryRatio, sig.VerificationRatio)
		},
	},
	{
		label: PatternA,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.VerificationRatio > 0.85 && sig.AIQueryRatio < 1.5
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("verification_ratio=%.2f with ai_query_ratio=%.2f", sig.VerificationRatio, sig.AIQueryRatio)
		},
	},
	{
		label: PatternB,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.AIQueryRatio >= 1.0 && sig.AIQueryRatio <= 2.2 &&
				sig.VerificationRatio > 0.5 && sig.IterationCount >= 3
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("moderate reliance %.2f, verification %.2f, %d iterations", sig.AIQueryRatio, sig.VerificationRatio, sig.IterationCount)
		},
	},
	{
		label: PatternD,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.VerificationRatio > 0.75 && sig.QualityCheckMentioned && sig.OutputEvaluation
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("verification %.2f with systematic cross-checking", sig.VerificationRatio)
		},
	},
	{
		label: PatternC,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.ContextAwareness > 0.5
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("context-sensitive switching %.2f", sig.ContextAwareness)
		},
	},
	{
		label: PatternE,
		match: func(sig signals.BehavioralSignals) bool {
			return sig.LearningOrientation > 0.5 && sig.ReflectionDepth >= 1
		},
		why: func(sig signals.BehavioralSignals) string {
			return fmt.Sprintf("learning orientation %.2f, reflection depth %d", sig.LearningOrientation, sig.ReflectionDepth)
		},
	},
}

// #endregion cascade

// #region classifier

// Classifier maps behavioral signals to a pattern estimate via the rule
// cascade. Pure and deterministic: identical signals and history always
// produce identical estimates.
type Classifier struct {
	config Config
}

// NewClassifier creates a classifier with the given thresholds.
func NewClassifier(config Config) *Classifier {
	return &Classifier{config: config}
}

// Classify runs the cascade over sig. history holds prior estimates for the
// session, oldest first; it drives the fallback label and stability.
func (c *Classifier) Classify(sig signals.BehavioralSignals, history []Estimate) Estimate {
	var (
		label    Pattern
		evidence []string
	)

	if malformed(sig) {
		label = previousLabel(history)
		evidence = append(evidence, "malformed signals, retaining previous label")
	} else {
		fired := false
		for _, r := range cascade {
			if r.match(sig) {
				label = r.label
				evidence = append(evidence, r.why(sig))
				fired = true
				break
			}
		}
		if !fired {
			// Recency bias: keep the previous label rather than
			// oscillate on weak evidence.
			label = previousLabel(history)
			evidence = append(evidence, "no rule fired, retaining previous label")
		}
	}

	probs := c.distribution(sig, label)

	streak := 1
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Label != label {
			break
		}
		streak++
	}

	stability := 0.0
	if n := c.config.StabilityWindow; n > 0 && len(history) > 0 {
		window := history
		if len(window) > n {
			window = window[len(window)-n:]
		}
		matches := 0
		for _, h := range window {
			if h.Label == label {
				matches++
			}
		}
		stability = float64(matches) / float64(n)
	}

	// Bounded on both sides: malformed input can carry a negative turn
	// count, and the estimate must stay in [0, 1] wherever it lands.
	confidence := float64(sig.TurnCount) / float64(c.config.ConfidenceSaturation)
	if confidence > 1 {
		confidence = 1
	}
	if confidence < 0 {
		confidence = 0
	}

	return Estimate{
		Label:         label,
		Probabilities: probs,
		Confidence:    confidence,
		Stability:     stability,
		StreakLength:  streak,
		Evidence:      evidence,
		NeedMoreData:  sig.TurnCount < c.config.MinTurns,
	}
}

// #endregion classifier

// #region distribution

// distribution converts per-label rule strengths into probabilities that
// sum to 1, with the chosen label guaranteed to be the argmax. Ties are
// impossible by construction: the winner is lifted above the runner-up.
func (c *Classifier) distribution(sig signals.BehavioralSignals, winner Pattern) map[Pattern]float64 {
	scores := map[Pattern]float64{
		PatternF: clampScore(sig.AIQueryRatio/3) * (1 - clampScore(sig.VerificationRatio)),
		PatternA: clampScore(sig.VerificationRatio) * (1 - clampScore(sig.AIQueryRatio/3)),
		PatternB: clampScore(float64(sig.IterationCount)/5) * clampScore(sig.VerificationRatio),
		PatternD: 0.5*clampScore(sig.VerificationRatio) + 0.25*boolScore(sig.QualityCheckMentioned) + 0.25*boolScore(sig.OutputEvaluation),
		PatternC: clampScore(sig.ContextAwareness),
		PatternE: clampScore(sig.LearningOrientation),
	}

	// Floor keeps every label at nonzero probability and guards the
	// normalization against an all-zero vector.
	for _, p := range All {
		scores[p] += 0.05
		if math.IsNaN(scores[p]) || math.IsInf(scores[p], 0) {
			scores[p] = 0.05
		}
	}

	runnerUp := 0.0
	for _, p := range All {
		if p != winner && scores[p] > runnerUp {
			runnerUp = scores[p]
		}
	}
	if scores[winner] <= runnerUp {
		scores[winner] = runnerUp + 0.25
	}

	sum := 0.0
	for _, p := range All {
		sum += scores[p]
	}
	for _, p := range All {
		scores[p] /= sum
	}
	return scores
}

// #endregion distribution

// #region helpers

func previousLabel(history []Estimate) Pattern {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Label.Valid() {
			return history[i].Label
		}
	}
	// Moderate balanced use is the neutral default.
	return PatternC
}

// malformed reports whether sig carries values the cascade cannot evaluate.
func malformed(sig signals.BehavioralSignals) bool {
	for _, v := range []float64{
		sig.AIQueryRatio, sig.VerificationRatio, sig.ContextAwareness,
		sig.LearningOrientation, sig.GoalClarity, sig.TaskComplexity,
		sig.AIRelianceDegree,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return true
		}
	}
	return sig.TurnCount < 0 || sig.IterationCount < 0 ||
		sig.DecompositionEvidence < 0 || sig.ReflectionDepth < 0
}

func clampScore(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func boolScore(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// #endregion helpers
