package intervene

// #region imports
import (
	"time"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
)

// #endregion

// #region tool-id

// ToolID is the closed enumeration of intervention tools. Matching is
// always exact; never match these by substring.
type ToolID string

const (
	ToolVerificationChecklist ToolID = "verification_checklist"
	ToolCrossCheckSources     ToolID = "cross_check_sources"
	ToolIndependentAttempt    ToolID = "independent_attempt"
	ToolAssumptionAudit       ToolID = "assumption_audit"
	ToolReflectionPrompt      ToolID = "reflection_prompt"
	ToolGoalReview            ToolID = "goal_review"
)

// #endregion tool-id

// #region display-mode

// DisplayMode is the presentation severity of an intervention.
type DisplayMode string

const (
	ModeInline  DisplayMode = "inline"  // non-blocking
	ModeSidebar DisplayMode = "sidebar" // visible, dismissible
	ModeModal   DisplayMode = "modal"   // blocking, requires acknowledgment
)

// #endregion display-mode

// #region priority

// Priority is the coarse rank a candidate carries alongside its urgency.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// #endregion priority

// #region candidate

// Candidate is one recommended intervention, produced fresh each cycle.
type Candidate struct {
	Tool        ToolID
	DisplayName string
	Priority    Priority
	Urgency     float64 // [0,100]
	Reason      string
	Icon        string
}

// Active is a candidate selected for presentation, tagged with its mode.
type Active struct {
	Candidate
	Mode DisplayMode
}

// #endregion candidate

// #region disposition

// Disposition tracks the dismissal state machine for one tool within a
// session: offered -> dismissed | acknowledged, both terminal for the
// current evidence state.
type Disposition string

const (
	DispositionOffered      Disposition = "offered"
	DispositionDismissed    Disposition = "dismissed"
	DispositionAcknowledged Disposition = "acknowledged"
)

// #endregion disposition

// #region input

// Input is the full session context one orchestration cycle reads.
type Input struct {
	SessionID             string
	Estimate              pattern.Estimate
	TrustScore            float64
	Criticality           float64 // [0,1]
	Modified              bool    // user modified the latest response
	ConsecutiveUnverified int
	Dismissed             map[ToolID]Disposition // dismissed/acknowledged tools
	LastTopTool           ToolID                 // pre-suppression top of the previous cycle
}

// Plan is the ranked outcome of one orchestration cycle.
type Plan struct {
	Active  []Active
	TopTool ToolID // pre-suppression top; feeds the next cycle's LastTopTool
}

// #endregion input

// #region events

// EventKind identifies what happened to an intervention.
type EventKind string

const (
	EventDisplayed    EventKind = "displayed"
	EventDismissed    EventKind = "dismissed"
	EventAcknowledged EventKind = "acknowledged"
)

// Event is emitted to the metrics sink on display and dismissal.
type Event struct {
	Kind      EventKind
	SessionID string
	Tool      ToolID
	Mode      DisplayMode
	At        time.Time
}

// Sink receives intervention events. Implementations must not block.
type Sink interface {
	Emit(Event)
}

// NopSink discards all events.
type NopSink struct{}

// Emit implements Sink.
func (NopSink) Emit(Event) {}

// #endregion events
