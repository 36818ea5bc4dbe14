package main

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/collab-sentinel/internal/remote"
	"github.com/danielpatrickdp/collab-sentinel/internal/replay"
)

// #endregion

// #region replay-cmd

func newReplayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay recorded conversations through the pipeline",
		Long: `Runs every session in a JSON fixture through signal extraction,
classification, trust scoring, and intervention planning, then compares
final labels against the fixture's expected results.

Exits non-zero when any expectation is missed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			fixturePath, _ := cmd.Flags().GetString("fixture")
			useRemote, _ := cmd.Flags().GetBool("remote")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if fixturePath == "" {
				return fmt.Errorf("--fixture is required")
			}

			var client *remote.Client
			if useRemote {
				cfg, err := loadConfig(cmd)
				if err != nil {
					return err
				}
				client = remote.NewClient(cfg.ClassifierAddr, cfg.ClassifierTimeout())
			}
			return runReplay(fixturePath, client, jsonOut)
		},
	}
	cmd.Flags().String("fixture", "", "Path to fixture JSON")
	cmd.Flags().Bool("remote", false, "Also cross-check final labels against the remote classifier")
	return cmd
}

// #endregion replay-cmd

// #region replay-run

func runReplay(fixturePath string, client *remote.Client, jsonOut bool) error {
	fixture, err := replay.LoadFixture(fixturePath)
	if err != nil {
		return err
	}

	sessions := make([]replay.Session, 0, len(fixture.Sessions))
	for i := range fixture.Sessions {
		sessions = append(sessions, fixture.Sessions[i].ToSession())
	}

	results := replay.Replay(sessions, fixture.Config.ToConfig())
	summary := replay.Summarize(results, fixture.ToExpectations())

	if client != nil {
		crossCheck(sessions, results, client)
	}

	if jsonOut {
		out := struct {
			Results []replay.SessionResult `json:"results"`
			Summary replay.Summary         `json:"summary"`
		}{results, summary}
		if err := json.NewEncoder(os.Stdout).Encode(out); err != nil {
			return fmt.Errorf("encode results: %w", err)
		}
	} else {
		printReplay(fixture.Description, results, summary)
	}

	if len(summary.Mismatches) > 0 {
		os.Exit(1)
	}
	return nil
}

// crossCheck sends every session to /batch_predict and reports where the
// SVM disagrees with the local rule cascade.
func crossCheck(sessions []replay.Session, results []replay.SessionResult, client *remote.Client) {
	reqs := make([]remote.ClassifyRequest, 0, len(sessions))
	for _, s := range sessions {
		reqs = append(reqs, remote.ClassifyRequest{
			SessionID:        s.SessionID,
			Turns:            s.Turns,
			CurrentTurnIndex: len(s.Turns) - 1,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	remoteResults, ok := client.BatchClassify(ctx, reqs)
	if !ok {
		fmt.Println("remote cross-check skipped: classifier unavailable")
		return
	}

	agree := 0
	for i, r := range results {
		if remoteResults[i].Estimate.Label == r.Final.Label {
			agree++
			continue
		}
		fmt.Printf("disagreement %s: local %s, svm %s\n",
			r.SessionID, r.Final.Label, remoteResults[i].Estimate.Label)
	}
	fmt.Printf("remote agreement: %d/%d\n", agree, len(results))
}

func printReplay(description string, results []replay.SessionResult, summary replay.Summary) {
	if description != "" {
		fmt.Printf("Fixture: %s\n\n", description)
	}
	for _, r := range results {
		fmt.Printf("%-24s %s  confidence %.2f  (%d classification points)\n",
			r.SessionID, r.Final.Label, r.Final.Confidence, len(r.Steps))
	}

	fmt.Printf("\nSessions: %d  Matches: %d  Mismatches: %d\n",
		summary.Sessions, summary.Matches, len(summary.Mismatches))
	for _, m := range summary.Mismatches {
		fmt.Printf("  %s: want %s, got %s\n", m.SessionID, m.Want, m.Got)
	}
}

// #endregion replay-run
