package signals

import "time"

// #region turn

// Role identifies who produced a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is a single conversation turn as received from the transport layer.
type Turn struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// #endregion turn

// #region behavioral-signals

// BehavioralSignals summarizes collaboration behavior over the whole
// conversation so far. Numeric scores are non-negative; ratios are raw
// (AIQueryRatio may exceed 1), scores are clamped to [0, 1].
type BehavioralSignals struct {
	TurnCount int

	DecompositionEvidence int
	GoalClarity           float64
	StrategyMentioned     bool
	PreparationActions    []string
	VerificationAttempted bool
	QualityCheckMentioned bool
	ContextAwareness      float64
	OutputEvaluation      bool
	ReflectionDepth       int
	CapabilityJudgment    bool
	IterationCount        int
	TrustCalibration      []string
	TaskComplexity        float64
	AIRelianceDegree      float64
	LearningOrientation   float64

	// Derived ratios consumed by the rule cascade.
	AIQueryRatio      float64 // user requests per self-directed contribution
	VerificationRatio float64 // fraction of user turns that verify output
}

// #endregion behavioral-signals
