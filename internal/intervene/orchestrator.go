package intervene

// #region imports
import (
	"fmt"
	"sort"
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/trust"
)

// #endregion

// #region config

// Config holds orchestration thresholds.
type Config struct {
	Trust            trust.Config
	EnforceThreshold float64 // urgency at or above which modal is considered
	SidebarThreshold float64 // urgency at or above which sidebar is used
	UnverifiedForB   int     // unverified streak that marks pattern B at-risk
}

// DefaultConfig returns the standard orchestration thresholds.
func DefaultConfig() Config {
	return Config{
		Trust:            trust.DefaultConfig(),
		EnforceThreshold: 75,
		SidebarThreshold: 40,
		UnverifiedForB:   3,
	}
}

// #endregion config

// #region orchestrator

// Orchestrator turns pattern, trust, and session context into a ranked
// intervention plan. Pure except for event emission to the sink.
type Orchestrator struct {
	config Config
	sink   Sink
}

// NewOrchestrator creates an orchestrator. sink may be nil to discard events.
func NewOrchestrator(config Config, sink Sink) *Orchestrator {
	if sink == nil {
		sink = NopSink{}
	}
	return &Orchestrator{config: config, sink: sink}
}

// Plan runs one orchestration cycle.
func (o *Orchestrator) Plan(in Input) Plan {
	candidates := o.generate(in)

	// Stable sort: ties keep declaration order.
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Urgency > candidates[j].Urgency
	})

	plan := Plan{}
	if len(candidates) > 0 {
		plan.TopTool = candidates[0].Tool
	}

	// Dismissal suppression holds only while the top-ranked candidate is
	// unchanged; a new top means new evidence, which clears suppression.
	if plan.TopTool == in.LastTopTool {
		kept := candidates[:0]
		for _, c := range candidates {
			switch in.Dismissed[c.Tool] {
			case DispositionDismissed, DispositionAcknowledged:
				continue
			}
			kept = append(kept, c)
		}
		candidates = kept
	}

	atRisk := o.atRisk(in)
	for _, c := range candidates {
		plan.Active = append(plan.Active, Active{Candidate: c, Mode: o.mode(c, atRisk)})
	}
	promoteSingleModal(plan.Active)

	now := time.Now().UTC()
	for _, a := range plan.Active {
		o.sink.Emit(Event{
			Kind:      EventDisplayed,
			SessionID: in.SessionID,
			Tool:      a.Tool,
			Mode:      a.Mode,
			At:        now,
		})
	}

	return plan
}

// #endregion orchestrator

// #region generation

// generate builds the candidate set for the input's trust band. Declaration
// order within each band is the tie-break order.
func (o *Orchestrator) generate(in Input) []Candidate {
	band := trust.BandFor(in.TrustScore, o.config.Trust)
	streak := float64(in.ConsecutiveUnverified)

	switch band {
	case trust.BandLow:
		return []Candidate{
			{
				Tool:        ToolVerificationChecklist,
				DisplayName: "Verification checklist",
				Priority:    PriorityHigh,
				Urgency:     clampUrgency(70 + in.Criticality*20 + streak*5),
				Reason:      fmt.Sprintf("low trust (%.0f): verify before relying on this output", in.TrustScore),
				Icon:        "checklist",
			},
			{
				Tool:        ToolCrossCheckSources,
				DisplayName: "Cross-check sources",
				Priority:    PriorityHigh,
				Urgency:     clampUrgency(60 + in.Criticality*20),
				Reason:      "low trust: compare against an independent source",
				Icon:        "compare",
			},
			{
				Tool:        ToolIndependentAttempt,
				DisplayName: "Try it yourself first",
				Priority:    PriorityMedium,
				Urgency:     clampUrgency(50 + streak*5),
				Reason:      "low trust: an independent attempt calibrates reliance",
				Icon:        "pencil",
			},
		}

	case trust.BandMedium:
		var out []Candidate
		if in.ConsecutiveUnverified >= 2 {
			out = append(out, Candidate{
				Tool:        ToolVerificationChecklist,
				DisplayName: "Verification checklist",
				Priority:    PriorityMedium,
				Urgency:     clampUrgency(45 + streak*5),
				Reason:      fmt.Sprintf("%d responses in a row accepted unverified", in.ConsecutiveUnverified),
				Icon:        "checklist",
			})
		}
		if in.Modified {
			out = append(out, Candidate{
				Tool:        ToolAssumptionAudit,
				DisplayName: "Audit assumptions",
				Priority:    PriorityMedium,
				Urgency:     50,
				Reason:      "output needed modification: check what the model assumed",
				Icon:        "magnifier",
			})
		}
		out = append(out, Candidate{
			Tool:        ToolReflectionPrompt,
			DisplayName: "Reflection prompt",
			Priority:    PriorityLow,
			Urgency:     35,
			Reason:      "medium trust: a quick self-check keeps calibration honest",
			Icon:        "thought",
		})
		return out

	default: // high trust: light touch
		return []Candidate{
			{
				Tool:        ToolReflectionPrompt,
				DisplayName: "Reflection prompt",
				Priority:    PriorityLow,
				Urgency:     25,
				Reason:      "optional: note what worked in this exchange",
				Icon:        "thought",
			},
			{
				Tool:        ToolGoalReview,
				DisplayName: "Goal review",
				Priority:    PriorityLow,
				Urgency:     20,
				Reason:      "optional: confirm the conversation still serves the goal",
				Icon:        "target",
			},
		}
	}
}

// #endregion generation

// #region display-mode

// atRisk reports whether the current pattern justifies blocking display:
// F always, B only with a repeated unverified streak.
func (o *Orchestrator) atRisk(in Input) bool {
	switch in.Estimate.Label {
	case pattern.PatternF:
		return true
	case pattern.PatternB:
		return in.ConsecutiveUnverified >= o.config.UnverifiedForB
	default:
		return false
	}
}

func (o *Orchestrator) mode(c Candidate, atRisk bool) DisplayMode {
	switch {
	case c.Urgency >= o.config.EnforceThreshold && atRisk:
		return ModeModal
	case c.Urgency >= o.config.SidebarThreshold:
		return ModeSidebar
	default:
		return ModeInline
	}
}

// promoteSingleModal demotes every modal after the first to sidebar. The
// list is already urgency-sorted, so the survivor is the most urgent one.
func promoteSingleModal(active []Active) {
	seen := false
	for i := range active {
		if active[i].Mode != ModeModal {
			continue
		}
		if seen {
			active[i].Mode = ModeSidebar
			continue
		}
		seen = true
	}
}

// #endregion display-mode

// #region helpers

func clampUrgency(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// #endregion helpers
