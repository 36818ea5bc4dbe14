package pattern

// #region pattern

// Pattern is one of the six AI-collaboration behavior styles.
type Pattern string

const (
	PatternA Pattern = "A" // active critical engagement
	PatternB Pattern = "B" // selective engagement
	PatternC Pattern = "C" // moderate balanced use
	PatternD Pattern = "D" // tool-oriented use
	PatternE Pattern = "E" // exploratory learning
	PatternF Pattern = "F" // passive over-reliance
)

// All lists the patterns in label order.
var All = []Pattern{PatternA, PatternB, PatternC, PatternD, PatternE, PatternF}

// qualityRank is the total order shared by the orchestrator and the
// evolution analyzer: F < C < D < E < B < A.
var qualityRank = map[Pattern]int{
	PatternF: 0,
	PatternC: 1,
	PatternD: 2,
	PatternE: 3,
	PatternB: 4,
	PatternA: 5,
}

// Quality returns the pattern's rank in the F < C < D < E < B < A order.
// Unknown patterns rank lowest.
func (p Pattern) Quality() int {
	return qualityRank[p]
}

// Valid reports whether p is one of the six known labels.
func (p Pattern) Valid() bool {
	_, ok := qualityRank[p]
	return ok
}

// #endregion pattern

// #region estimate

// Estimate is a single classification result. It is immutable once logged;
// the next classification supersedes it rather than mutating it.
type Estimate struct {
	Label         Pattern
	Probabilities map[Pattern]float64 // sums to 1 within tolerance
	Confidence    float64             // [0,1], grows with observed turns
	Stability     float64             // [0,1], label consistency over recent history
	StreakLength  int                 // consecutive classifications with this label
	Evidence      []string
	NeedMoreData  bool
}

// #endregion estimate
