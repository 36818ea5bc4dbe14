// Package evolution retrospectively classifies transitions between
// patterns over a bounded lookback window and derives an overall trend.
// It is read-only over the pattern log and tolerates concurrent appends:
// analysis runs on whatever snapshot the read returned. Days without
// entries are gaps; nothing is interpolated.
package evolution

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/patternlog"
)

// #endregion

// #region types

// ChangeType classifies one transition between adjacent distinct labels.
type ChangeType string

const (
	ChangeImprovement ChangeType = "improvement"
	ChangeRegression  ChangeType = "regression"
	ChangeMigration   ChangeType = "migration"   // lateral, different quality rank not involved
	ChangeOscillation ChangeType = "oscillation" // back-and-forth within the recent window
)

// Trend is the overall direction over the window.
type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
	TrendVolatile  Trend = "volatile"
)

// Event is one derived transition. Recomputed per request, never persisted.
type Event struct {
	Date         time.Time
	FromPattern  pattern.Pattern
	ToPattern    pattern.Pattern
	Change       ChangeType
	QualityDelta int
}

// Report is the full analysis output.
type Report struct {
	Events []Event
	Trend  Trend
	First  pattern.Pattern
	Last   pattern.Pattern
}

// #endregion types

// #region config

// Config holds analysis bounds.
type Config struct {
	LookbackDays      int // window size; entries older than this are ignored
	OscillationWindow int // prior entries checked for a returning label
	TrendThreshold    int // |first-to-last quality delta| must exceed this
}

// DefaultConfig returns the standard analysis bounds.
func DefaultConfig() Config {
	return Config{
		LookbackDays:      90,
		OscillationWindow: 5,
		TrendThreshold:    1,
	}
}

// #endregion config

// #region analyzer

// Analyzer derives evolution events from logged classifications.
type Analyzer struct {
	config Config
}

// NewAnalyzer creates an analyzer with the given bounds.
func NewAnalyzer(config Config) *Analyzer {
	return &Analyzer{config: config}
}

// Analyze classifies transitions in entries (assumed timestamp-ascending,
// as ReadRange returns them). Entries before joinDate or outside the
// lookback window ending at now are ignored.
func (a *Analyzer) Analyze(entries []patternlog.Entry, joinDate, now time.Time) Report {
	cutoff := now.AddDate(0, 0, -a.config.LookbackDays)
	if joinDate.After(cutoff) {
		cutoff = joinDate
	}

	var kept []patternlog.Entry
	for _, e := range entries {
		if e.CreatedAt.Before(cutoff) || e.CreatedAt.After(now) {
			continue
		}
		if !e.Label.Valid() {
			continue
		}
		kept = append(kept, e)
	}

	report := Report{Trend: TrendStable}
	if len(kept) == 0 {
		return report
	}
	report.First = kept[0].Label
	report.Last = kept[len(kept)-1].Label

	var improvements, regressions, oscillations int
	for i := 1; i < len(kept); i++ {
		from := kept[i-1].Label
		to := kept[i].Label
		if from == to {
			continue
		}

		delta := to.Quality() - from.Quality()
		change := classifyChange(kept, i, delta, a.config.OscillationWindow)
		switch change {
		case ChangeImprovement:
			improvements++
		case ChangeRegression:
			regressions++
		case ChangeOscillation:
			oscillations++
		}

		report.Events = append(report.Events, Event{
			Date:         kept[i].CreatedAt,
			FromPattern:  from,
			ToPattern:    to,
			Change:       change,
			QualityDelta: delta,
		})
	}

	report.Trend = overallTrend(report, improvements, regressions, oscillations, a.config.TrendThreshold)
	return report
}

// #endregion analyzer

// #region classification

// classifyChange types the transition into kept[i]. A destination label
// that already appeared within the oscillation window is back-and-forth
// movement and takes precedence over the quality delta.
func classifyChange(kept []patternlog.Entry, i, delta, window int) ChangeType {
	start := i - window
	if start < 0 {
		start = 0
	}
	for _, e := range kept[start:i] {
		if e.Label == kept[i].Label {
			return ChangeOscillation
		}
	}
	switch {
	case delta > 0:
		return ChangeImprovement
	case delta < 0:
		return ChangeRegression
	default:
		return ChangeMigration
	}
}

func overallTrend(report Report, improvements, regressions, oscillations, threshold int) Trend {
	if oscillations > improvements+regressions {
		return TrendVolatile
	}
	delta := report.Last.Quality() - report.First.Quality()
	switch {
	case delta > threshold:
		return TrendImproving
	case delta < -threshold:
		return TrendDeclining
	default:
		return TrendStable
	}
}

// #endregion classification
