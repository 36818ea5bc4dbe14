package pattern

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
)

func sigWith(queryRatio, verifyRatio float64) signals.BehavioralSignals {
	return signals.BehavioralSignals{
		TurnCount:         20,
		AIQueryRatio:      queryRatio,
		VerificationRatio: verifyRatio,
	}
}

func checkDistribution(t *testing.T, est Estimate) {
	t.Helper()
	sum := 0.0
	for _, p := range All {
		v, ok := est.Probabilities[p]
		if !ok {
			t.Fatalf("missing probability for %s", p)
		}
		if v < 0 || v > 1 {
			t.Fatalf("probability for %s out of range: %f", p, v)
		}
		sum += v
	}
	if math.Abs(sum-1) > 1e-6 {
		t.Fatalf("probabilities sum to %f, want 1", sum)
	}

	argmax := All[0]
	for _, p := range All {
		if est.Probabilities[p] > est.Probabilities[argmax] {
			argmax = p
		}
	}
	if argmax != est.Label {
		t.Fatalf("label %s is not the argmax (argmax=%s)", est.Label, argmax)
	}
}

func TestDistributionSumsToOne(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	cases := []signals.BehavioralSignals{
		sigWith(3.0, 0.0),
		sigWith(1.0, 0.95),
		sigWith(1.5, 0.6),
		sigWith(0.0, 0.0),
		{TurnCount: 12, ContextAwareness: 0.8},
		{TurnCount: 12, LearningOrientation: 0.9, ReflectionDepth: 3},
	}
	for i, sig := range cases {
		est := c.Classify(sig, nil)
		if !est.Label.Valid() {
			t.Fatalf("case %d: invalid label %q", i, est.Label)
		}
		checkDistribution(t, est)
	}
}

// High reliance with near-zero verification must classify as F no matter
// what the other signals look like.
func TestAtRiskRuleHasPriority(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	cases := []signals.BehavioralSignals{
		// 4 at-risk profiles.
		sigWith(2.1, 0.29),
		sigWith(3.0, 0.0),
		sigWith(5.0, 0.1),
		{
			TurnCount: 25, AIQueryRatio: 2.5, VerificationRatio: 0.2,
			// Strong competing evidence that must not mask F.
			ContextAwareness: 1.0, LearningOrientation: 1.0,
			ReflectionDepth: 5, IterationCount: 6,
			QualityCheckMentioned: true, OutputEvaluation: true,
		},
		// 16 non-at-risk profiles.
		sigWith(2.1, 0.31), sigWith(1.9, 0.1), sigWith(1.0, 0.9),
		sigWith(1.2, 0.95), sigWith(0.8, 0.88), sigWith(1.4, 0.86),
		sigWith(1.6, 0.6), sigWith(2.0, 0.5), sigWith(1.0, 0.4),
		sigWith(0.5, 0.2), sigWith(1.5, 0.3), sigWith(2.0, 0.35),
		{TurnCount: 20, ContextAwareness: 0.9, AIQueryRatio: 1.0},
		{TurnCount: 20, LearningOrientation: 0.8, ReflectionDepth: 2, AIQueryRatio: 1.0},
		sigWith(1.1, 0.7), sigWith(0.9, 0.75),
	}

	atRisk := 0
	for i, sig := range cases {
		est := c.Classify(sig, nil)
		wantF := sig.AIQueryRatio > 2.0 && sig.VerificationRatio < 0.3
		if wantF && est.Label != PatternF {
			t.Fatalf("case %d: expected F, got %s", i, est.Label)
		}
		if !wantF && est.Label == PatternF {
			t.Fatalf("case %d: unexpected F", i)
		}
		if est.Label == PatternF {
			atRisk++
		}
	}
	if atRisk != 4 {
		t.Fatalf("expected 4 at-risk detections, got %d", atRisk)
	}
}

func TestStrongVerificationClassifiesA(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	for _, sig := range []signals.BehavioralSignals{
		sigWith(1.0, 0.9),
		sigWith(1.4, 0.86),
		sigWith(0.1, 1.0),
	} {
		est := c.Classify(sig, nil)
		if est.Label != PatternA {
			t.Fatalf("query=%.2f verify=%.2f: expected A, got %s",
				sig.AIQueryRatio, sig.VerificationRatio, est.Label)
		}
	}
}

func TestCascadeMiddleRules(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	b := c.Classify(signals.BehavioralSignals{
		TurnCount: 20, AIQueryRatio: 1.5, VerificationRatio: 0.6, IterationCount: 4,
	}, nil)
	if b.Label != PatternB {
		t.Fatalf("expected B, got %s", b.Label)
	}

	d := c.Classify(signals.BehavioralSignals{
		TurnCount: 20, AIQueryRatio: 1.8, VerificationRatio: 0.8,
		QualityCheckMentioned: true, OutputEvaluation: true,
	}, nil)
	if d.Label != PatternD {
		t.Fatalf("expected D, got %s", d.Label)
	}

	e := c.Classify(signals.BehavioralSignals{
		TurnCount: 20, AIQueryRatio: 1.8, LearningOrientation: 0.7, ReflectionDepth: 2,
	}, nil)
	if e.Label != PatternE {
		t.Fatalf("expected E, got %s", e.Label)
	}
}

func TestIdempotence(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sig := sigWith(1.6, 0.6)
	history := []Estimate{{Label: PatternB}, {Label: PatternB}}

	first := c.Classify(sig, history)
	second := c.Classify(sig, history)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("classification not idempotent (-first +second):\n%s", diff)
	}
}

func TestFallbackRetainsPreviousLabel(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	// Weak signals: no rule fires.
	sig := signals.BehavioralSignals{TurnCount: 15, AIQueryRatio: 1.8, VerificationRatio: 0.4}

	est := c.Classify(sig, []Estimate{{Label: PatternD}})
	if est.Label != PatternD {
		t.Fatalf("expected previous label D, got %s", est.Label)
	}
	checkDistribution(t, est)

	// No history at all: neutral default.
	est = c.Classify(sig, nil)
	if est.Label != PatternC {
		t.Fatalf("expected default C, got %s", est.Label)
	}
}

func TestMalformedSignalsDegradeToFallback(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sig := signals.BehavioralSignals{
		TurnCount:         12,
		AIQueryRatio:      math.NaN(),
		VerificationRatio: 0.9,
	}

	est := c.Classify(sig, []Estimate{{Label: PatternB}})
	if est.Label != PatternB {
		t.Fatalf("expected fallback to previous label B, got %s", est.Label)
	}
	checkDistribution(t, est)
}

func TestMalformedSignalsKeepEstimateInRange(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sig := signals.BehavioralSignals{TurnCount: -3}

	est := c.Classify(sig, []Estimate{{Label: PatternB}})
	if est.Label != PatternB {
		t.Fatalf("expected fallback to previous label B, got %s", est.Label)
	}
	if est.Confidence < 0 || est.Confidence > 1 {
		t.Fatalf("Confidence = %v, want within [0, 1]", est.Confidence)
	}
	if est.Stability < 0 || est.Stability > 1 {
		t.Fatalf("Stability = %v, want within [0, 1]", est.Stability)
	}
	if !est.NeedMoreData {
		t.Fatal("NeedMoreData not set for a degenerate turn count")
	}
	checkDistribution(t, est)
}

func TestConfidenceGrowsWithTurns(t *testing.T) {
	c := NewClassifier(DefaultConfig())

	prev := -1.0
	for _, turns := range []int{2, 5, 10, 20, 30, 50} {
		sig := sigWith(1.0, 0.9)
		sig.TurnCount = turns
		est := c.Classify(sig, nil)
		if est.Confidence < prev {
			t.Fatalf("confidence decreased at %d turns", turns)
		}
		if est.Confidence > 1 {
			t.Fatalf("confidence above 1 at %d turns", turns)
		}
		wantNeed := turns < DefaultConfig().MinTurns
		if est.NeedMoreData != wantNeed {
			t.Fatalf("turns=%d: NeedMoreData=%v, want %v", turns, est.NeedMoreData, wantNeed)
		}
		prev = est.Confidence
	}
}

func TestStabilityAndStreak(t *testing.T) {
	c := NewClassifier(DefaultConfig())
	sig := sigWith(1.0, 0.9) // classifies A

	history := []Estimate{
		{Label: PatternC}, {Label: PatternA}, {Label: PatternA}, {Label: PatternA},
	}
	est := c.Classify(sig, history)
	if est.Label != PatternA {
		t.Fatalf("expected A, got %s", est.Label)
	}
	if est.StreakLength != 4 {
		t.Fatalf("expected streak 4, got %d", est.StreakLength)
	}
	// 3 of the last 5 window slots match (window has 4 entries, 3 A).
	if est.Stability != 0.6 {
		t.Fatalf("expected stability 0.6, got %.2f", est.Stability)
	}
}
