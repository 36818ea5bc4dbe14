// Package trust computes a 0-100 trust score for a single AI response.
// Scoring is a pure function: identical inputs always yield identical
// output, and nothing is persisted.
package trust

// #region types

// Validation is one prior verification outcome for a task type.
type Validation struct {
	TaskType string
	Passed   bool
}

// Input carries everything the scorer looks at for one response.
type Input struct {
	TaskType     string
	Criticality  float64 // [0,1]; 1 = mistakes are expensive
	AIConfidence float64 // [0,1]; model self-reported confidence
	Verified     bool    // user verified this response
	Modified     bool    // user had to modify the output
	History      []Validation
}

// Band buckets a trust score for the orchestrator's candidate policies.
type Band string

const (
	BandLow    Band = "low"    // score < 40
	BandMedium Band = "medium" // 40 <= score < 70
	BandHigh   Band = "high"   // score >= 70
)

// #endregion types

// #region config

// Config holds scoring weights and adjustments.
type Config struct {
	CriticalityWeight float64 // weight of (1 - criticality) in the base
	ConfidenceWeight  float64 // weight of AI confidence in the base
	VerificationBonus float64 // added when the response was verified
	ModificationDelta float64 // subtracted when the user modified output
	HistorySwing      float64 // max +/- contribution of validation history
	LowBandCeiling    float64
	MediumBandCeiling float64
}

// DefaultConfig returns the standard scoring weights.
func DefaultConfig() Config {
	return Config{
		CriticalityWeight: 0.4,
		ConfidenceWeight:  0.6,
		VerificationBonus: 10,
		ModificationDelta: 5,
		HistorySwing:      10,
		LowBandCeiling:    40,
		MediumBandCeiling: 70,
	}
}

// #endregion config

// #region scorer

// Score computes the trust score for one response. Higher criticality
// lowers the base (a critical task warrants more scrutiny); verification
// adds a fixed bonus capped at 100; modification applies a fixed penalty
// floored at 0.
func Score(in Input, config Config) float64 {
	base := config.CriticalityWeight*(1-clamp01(in.Criticality))*100 +
		config.ConfidenceWeight*clamp01(in.AIConfidence)*100

	score := base + historyTerm(in, config)

	if in.Verified {
		score += config.VerificationBonus
	}
	if in.Modified {
		score -= config.ModificationDelta
	}

	if score > 100 {
		return 100
	}
	if score < 0 {
		return 0
	}
	return score
}

// BandFor maps a score onto its trust band.
func BandFor(score float64, config Config) Band {
	switch {
	case score < config.LowBandCeiling:
		return BandLow
	case score < config.MediumBandCeiling:
		return BandMedium
	default:
		return BandHigh
	}
}

// #endregion scorer

// #region helpers

// historyTerm shifts the score by up to +/- HistorySwing based on how past
// validations of the same task type went. No matching history contributes
// nothing.
func historyTerm(in Input, config Config) float64 {
	matching := 0
	passed := 0
	for _, v := range in.History {
		if v.TaskType != in.TaskType {
			continue
		}
		matching++
		if v.Passed {
			passed++
		}
	}
	if matching == 0 {
		return 0
	}
	rate := float64(passed) / float64(matching)
	return (rate - 0.5) * 2 * config.HistorySwing
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// #endregion helpers
