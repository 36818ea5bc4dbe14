package main

// #region imports
import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/collab-sentinel/internal/config"
	"github.com/danielpatrickdp/collab-sentinel/internal/engine"
	"github.com/danielpatrickdp/collab-sentinel/internal/patternlog"
	"github.com/danielpatrickdp/collab-sentinel/internal/remote"
	"github.com/danielpatrickdp/collab-sentinel/internal/signals"
)

// #endregion

// #region run-cmd

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Watch a conversation from stdin and report per-turn",
		Long: `Reads turns from stdin, one per line. A line of plain text is taken as
a user turn; a JSON object {"role": "...", "content": "..."} records any
role. Each user turn triggers a classification cycle whose estimate,
trust score, and planned interventions are printed.

Example:
  sentinel run --session demo --user alice < transcript.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			userID, _ := cmd.Flags().GetString("user")
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runLoop(cfg, sessionID, userID, jsonOut)
		},
	}
	cmd.Flags().String("session", "", "Session ID (random if omitted)")
	cmd.Flags().String("user", "local", "User ID")
	return cmd
}

// #endregion run-cmd

// #region run-loop

func runLoop(cfg config.Config, sessionID, userID string, jsonOut bool) error {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	store, err := patternlog.NewStore(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	var remoteClient *remote.Client
	if cfg.ClassifierAddr != "" {
		remoteClient = remote.NewClient(cfg.ClassifierAddr, cfg.ClassifierTimeout())
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ClassifierTimeout())
		if err := remoteClient.Health(ctx); err != nil {
			log.Printf("[RUN] classifier at %s unavailable, using rule cascade: %v", cfg.ClassifierAddr, err)
		}
		cancel()
	}

	onResult := func(res engine.TurnResult) { printResult(res, jsonOut) }
	eng := engine.New(cfg, store, remoteClient, patternlog.NewEventSink(store), nil, onResult)
	eng.StartSession(sessionID, userID, time.Now().UTC())
	defer eng.EndSession(sessionID)

	fmt.Println("Collaboration sentinel ready.")
	fmt.Printf("  DB: %s | Session: %s\n", cfg.DBPath, sessionID)
	fmt.Println("Type a turn (or 'quit' to exit):")

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			break
		}

		turn, err := parseTurn(line)
		if err != nil {
			log.Printf("[RUN] bad turn: %v", err)
			continue
		}

		eng.AddTurns(sessionID, turn)
		if turn.Role != signals.RoleUser {
			continue
		}
		// Interactive mode classifies synchronously per user turn.
		eng.Flush(context.Background(), sessionID)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read stdin: %w", err)
	}
	return nil
}

// parseTurn accepts either a JSON turn object or bare user text.
func parseTurn(line string) (signals.Turn, error) {
	if !strings.HasPrefix(line, "{") {
		return signals.Turn{Role: signals.RoleUser, Content: line, Timestamp: time.Now().UTC()}, nil
	}
	var turn signals.Turn
	if err := json.Unmarshal([]byte(line), &turn); err != nil {
		return signals.Turn{}, fmt.Errorf("parse turn: %w", err)
	}
	if turn.Role == "" {
		turn.Role = signals.RoleUser
	}
	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now().UTC()
	}
	return turn, nil
}

func printResult(res engine.TurnResult, jsonOut bool) {
	if jsonOut {
		json.NewEncoder(os.Stdout).Encode(res)
		return
	}

	fmt.Printf("\npattern %s  confidence %.2f  trust %.0f", res.Estimate.Label, res.Estimate.Confidence, res.TrustScore)
	if res.Estimate.NeedMoreData {
		fmt.Print("  (gathering evidence)")
	}
	if res.FromRemote {
		fmt.Print("  [svm]")
	}
	fmt.Println()
	for _, ev := range res.Estimate.Evidence {
		fmt.Printf("  · %s\n", ev)
	}
	for _, a := range res.Plan.Active {
		fmt.Printf("  [%s] %s (urgency %.0f): %s\n", a.Mode, a.DisplayName, a.Urgency, a.Reason)
	}
	fmt.Println()
}

// #endregion run-loop
