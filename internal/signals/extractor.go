package signals

// #region imports
import (
	"strings"
)

// #endregion

// #region markers

var decompositionMarkers = []string{
	"first,", "first i", "step 1", "step one", "break this down",
	"break it down", "let's split", "sub-task", "subtask", "one part at a time",
	"start with", "then we can", "after that", "piece by piece",
}

var goalMarkers = []string{
	"i want to", "i need to", "my goal", "the goal is", "so that",
	"i'm trying to", "i am trying to", "the point is", "end result",
	"what i'm after", "ultimately",
}

var strategyMarkers = []string{
	"my plan", "the plan is", "my approach", "approach is", "strategy",
	"i'll start by", "i will start by", "roadmap", "outline first",
}

var preparationMarkers = []string{
	"i read", "i looked up", "i checked the docs", "i researched",
	"i sketched", "i drafted", "i prepared", "i already tried",
	"i wrote down", "before asking",
}

var verificationMarkers = []string{
	"i checked", "i verified", "i tested", "let me verify", "let me check",
	"i confirmed", "i ran it", "double-check", "double check",
	"cross-reference", "i compared", "i validated", "does not match what i",
	"i reproduced", "checked against",
}

var qualityCheckMarkers = []string{
	"is this correct", "is that right", "are you sure", "how confident",
	"any mistakes", "edge cases", "what could go wrong", "sanity check",
	"review this", "critique",
}

var evaluationMarkers = []string{
	"that's wrong", "that is wrong", "that's not right", "incorrect",
	"this works", "that worked", "looks good", "not quite",
	"better than", "worse than", "i disagree", "i agree with",
}

var reflectionMarkers = []string{
	"why does", "why did", "how does this work", "what's the reasoning",
	"help me understand", "i realize", "i learned", "now i see",
	"thinking about it", "in hindsight",
}

var capabilityMarkers = []string{
	"you're good at", "you are good at", "you tend to", "you often get",
	"you're not reliable", "i trust you on", "i don't trust", "you hallucinate",
	"you struggle with", "better to do this myself",
}

var iterationMarkers = []string{
	"try again", "redo", "revise", "instead", "change it", "update it",
	"another version", "iterate", "one more pass", "tweak",
}

var contextSwitchMarkers = []string{
	"for this one i", "this time i'll", "since this is critical",
	"because this matters", "for something simple", "depends on the task",
	"i'll handle this part", "you take the", "switching to",
}

var learningMarkers = []string{
	"explain", "teach me", "walk me through", "what does", "why is",
	"can you show me how", "i want to learn", "so i understand",
	"step by step so i",
}

// #endregion markers

// #region extractor

// Extractor turns raw conversation history into behavioral signals.
// Stateless: each Extract call recomputes from the full turn list.
type Extractor struct{}

// NewExtractor creates an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract computes signals over the whole conversation so far.
// Fewer than 2 turns yields a zeroed record rather than an error.
func (e *Extractor) Extract(turns []Turn) BehavioralSignals {
	sig := BehavioralSignals{TurnCount: len(turns)}
	if len(turns) < 2 {
		return sig
	}

	var (
		userTurns      int
		verifyingTurns int
		goalTurns      int
		contextTurns   int
		learningTurns  int
		totalWords     int
		maxWords       int
	)

	for _, t := range turns {
		if t.Role != RoleUser {
			continue
		}
		userTurns++
		lower := strings.ToLower(t.Content)
		words := len(strings.Fields(lower))
		totalWords += words
		if words > maxWords {
			maxWords = words
		}

		sig.DecompositionEvidence += countMarkers(lower, decompositionMarkers)
		if containsAny(lower, goalMarkers) {
			goalTurns++
		}
		if containsAny(lower, strategyMarkers) {
			sig.StrategyMentioned = true
		}
		for _, m := range preparationMarkers {
			if strings.Contains(lower, m) {
				sig.PreparationActions = append(sig.PreparationActions, m)
			}
		}
		verifies := containsAny(lower, verificationMarkers)
		if verifies {
			sig.VerificationAttempted = true
		}
		if containsAny(lower, qualityCheckMarkers) {
			sig.QualityCheckMentioned = true
		}
		evaluates := containsAny(lower, evaluationMarkers)
		if evaluates {
			sig.OutputEvaluation = true
		}
		if verifies || evaluates {
			verifyingTurns++
		}
		sig.ReflectionDepth += countMarkers(lower, reflectionMarkers)
		if containsAny(lower, capabilityMarkers) {
			sig.CapabilityJudgment = true
		}
		for _, m := range capabilityMarkers {
			if strings.Contains(lower, m) {
				sig.TrustCalibration = append(sig.TrustCalibration, m)
			}
		}
		sig.IterationCount += countMarkers(lower, iterationMarkers)
		if containsAny(lower, contextSwitchMarkers) {
			contextTurns++
		}
		if containsAny(lower, learningMarkers) {
			learningTurns++
		}
	}

	if userTurns == 0 {
		return sig
	}

	sig.GoalClarity = clamp(float64(goalTurns) / float64(userTurns) * 2)
	sig.ContextAwareness = clamp(float64(contextTurns) / float64(userTurns) * 3)
	sig.LearningOrientation = clamp(float64(learningTurns) / float64(userTurns) * 2)
	sig.VerificationRatio = clamp(float64(verifyingTurns) / float64(userTurns))

	// Every user turn counts as a query to the assistant; self-directed
	// contributions (verification, evaluation, preparation) offset reliance.
	selfDirected := verifyingTurns + len(sig.PreparationActions)
	if selfDirected == 0 {
		selfDirected = 1
	}
	sig.AIQueryRatio = float64(userTurns) / float64(selfDirected)
	sig.AIRelianceDegree = clamp(sig.AIQueryRatio / 3)

	// Longer, multi-question prompts indicate harder tasks.
	avgWords := float64(totalWords) / float64(userTurns)
	sig.TaskComplexity = clamp(avgWords / 60)

	return sig
}

// #endregion extractor

// #region helpers

func containsAny(lower string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}

func countMarkers(lower string, markers []string) int {
	n := 0
	for _, m := range markers {
		n += strings.Count(lower, m)
	}
	return n
}

// clamp restricts v to [0, 1].
func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
