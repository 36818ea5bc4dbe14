package replay

// #region imports
import (
	"fmt"
	"testing"

	"github.com/danielpatrickdp/collab-sentinel/internal/pattern"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
)

// #endregion

// #region profiles

// convo interleaves user turns with a generic assistant reply.
func convo(userContents []string) []signals.Turn {
	turns := make([]signals.Turn, 0, len(userContents)*2)
	for _, c := range userContents {
		turns = append(turns,
			signals.Turn{Role: signals.RoleUser, Content: c},
			signals.Turn{Role: signals.RoleAssistant, Content: "done, here is the result"},
		)
	}
	return turns
}

func repeat(s string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = s
	}
	return out
}

// passiveProfile delegates everything and never verifies.
func passiveProfile() []signals.Turn {
	return convo(repeat("just handle this for me please", 10))
}

// criticalProfile verifies every single response independently.
func criticalProfile() []signals.Turn {
	return convo(repeat("i verified the result by rerunning it on my side", 10))
}

// selectiveProfile verifies most work and iterates on the rest.
func selectiveProfile() []signals.Turn {
	contents := repeat("i tested the change locally and it behaves", 6)
	contents = append(contents, repeat("please revise the wording of that error", 3)...)
	contents = append(contents, "thanks, that settles it")
	return convo(contents)
}

// toolProfile treats the assistant as a tool with systematic cross-checks.
func toolProfile() []signals.Turn {
	contents := repeat("i checked the output against my spreadsheet", 7)
	contents = append(contents,
		"looks good on my end",
		"are you sure this covers the edge cases",
		"go ahead with the next file",
	)
	return convo(contents)
}

// mixedProfile adapts effort to how much the task matters.
func mixedProfile() []signals.Turn {
	contents := repeat("since this is critical i am reviewing the numbers line by line", 2)
	contents = append(contents, repeat("i checked the result and it matches", 4)...)
	contents = append(contents, repeat("please draft the summary paragraph", 4)...)
	return convo(contents)
}

// learnerProfile asks for explanations and spot-checks the answers.
func learnerProfile() []signals.Turn {
	contents := repeat("explain why does the cache invalidate here, walk me through it", 3)
	contents = append(contents, repeat("i checked the example and it runs", 4)...)
	contents = append(contents, repeat("what does this flag control", 3)...)
	return convo(contents)
}

// #endregion profiles

// #region tests

func TestSyntheticProfileAccuracy(t *testing.T) {
	profiles := []struct {
		label pattern.Pattern
		turns func() []signals.Turn
		count int
	}{
		{pattern.PatternF, passiveProfile, 4},
		{pattern.PatternA, criticalProfile, 4},
		{pattern.PatternB, selectiveProfile, 3},
		{pattern.PatternD, toolProfile, 3},
		{pattern.PatternC, mixedProfile, 3},
		{pattern.PatternE, learnerProfile, 3},
	}

	var sessions []Session
	var expected []Expectation
	for _, p := range profiles {
		for i := 0; i < p.count; i++ {
			id := fmt.Sprintf("%s-%d", p.label, i)
			sessions = append(sessions, Session{SessionID: id, UserID: "u-" + id, Turns: p.turns()})
			expected = append(expected, Expectation{SessionID: id, Label: p.label})
		}
	}
	if len(sessions) != 20 {
		t.Fatalf("profile set has %d sessions, want 20", len(sessions))
	}

	results := Replay(sessions, DefaultConfig())
	summary := Summarize(results, expected)

	if summary.Matches < 19 {
		t.Fatalf("matched %d/20, want at least 19; mismatches: %+v", summary.Matches, summary.Mismatches)
	}

	// Over-reliance must never be missed, whatever else slips.
	for _, r := range results {
		for _, e := range expected {
			if e.SessionID == r.SessionID && e.Label == pattern.PatternF && r.Final.Label != pattern.PatternF {
				t.Fatalf("session %s: over-reliant profile classified %s", r.SessionID, r.Final.Label)
			}
		}
	}
}

func TestReplayIsDeterministic(t *testing.T) {
	sessions := []Session{{SessionID: "s1", UserID: "u1", Turns: passiveProfile()}}

	a := Replay(sessions, DefaultConfig())
	b := Replay(sessions, DefaultConfig())

	if len(a) != 1 || len(b) != 1 {
		t.Fatalf("got %d and %d results, want 1 each", len(a), len(b))
	}
	if a[0].Final.Label != b[0].Final.Label || a[0].Final.Confidence != b[0].Final.Confidence {
		t.Fatalf("runs diverged: %+v vs %+v", a[0].Final, b[0].Final)
	}
	if len(a[0].Steps) != len(b[0].Steps) {
		t.Fatalf("step counts diverged: %d vs %d", len(a[0].Steps), len(b[0].Steps))
	}
}

func TestReplayStepsAccumulateConfidence(t *testing.T) {
	sessions := []Session{{SessionID: "s1", UserID: "u1", Turns: passiveProfile()}}

	results := Replay(sessions, DefaultConfig())
	steps := results[0].Steps
	if len(steps) != 10 {
		t.Fatalf("got %d steps for 20 turns at interval 2, want 10", len(steps))
	}
	for i := 1; i < len(steps); i++ {
		if steps[i].Estimate.Confidence < steps[i-1].Estimate.Confidence {
			t.Fatalf("confidence dropped between steps %d and %d", i-1, i)
		}
	}
}

func TestReplayPlansForOverReliance(t *testing.T) {
	sessions := []Session{{SessionID: "s1", UserID: "u1", Turns: passiveProfile()}}

	results := Replay(sessions, DefaultConfig())
	final := results[0].Steps[len(results[0].Steps)-1]
	if final.Estimate.Label != pattern.PatternF {
		t.Fatalf("final label = %s, want F", final.Estimate.Label)
	}
	if len(final.Plan.Active) == 0 {
		t.Fatal("no interventions planned for a fully passive session")
	}
}

func TestSummarizeCountsMismatches(t *testing.T) {
	results := []SessionResult{
		{SessionID: "s1", Final: pattern.Estimate{Label: pattern.PatternF}},
		{SessionID: "s2", Final: pattern.Estimate{Label: pattern.PatternC}},
	}
	expected := []Expectation{
		{SessionID: "s1", Label: pattern.PatternF},
		{SessionID: "s2", Label: pattern.PatternA},
	}

	s := Summarize(results, expected)
	if s.Matches != 1 {
		t.Fatalf("Matches = %d, want 1", s.Matches)
	}
	if len(s.Mismatches) != 1 || s.Mismatches[0].SessionID != "s2" || s.Mismatches[0].Got != pattern.PatternC {
		t.Fatalf("Mismatches = %+v", s.Mismatches)
	}
	if s.LabelCounts[pattern.PatternF] != 1 || s.LabelCounts[pattern.PatternC] != 1 {
		t.Fatalf("LabelCounts = %+v", s.LabelCounts)
	}
}

// #endregion tests
