package main

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/collab-sentinel/internal/evolution"
	"github.com/danielpatrickdp/collab-sentinel/internal/patternlog"
)

// #endregion

// #region trends-cmd

func newTrendsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "trends",
		Short: "Analyze pattern evolution from the log",
		Long: `Reads the pattern log for a user or session, classifies every
transition (improvement, regression, oscillation, migration), and
reports the overall trend across the lookback window.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			joinFlag, _ := cmd.Flags().GetString("joined")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if scope == "" {
				return fmt.Errorf("--scope is required (user or session ID)")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			store, err := patternlog.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			now := time.Now().UTC()
			from := now.AddDate(0, 0, -cfg.Evolution.LookbackDays)
			entries, err := store.ReadRange(scope, from, now)
			if err != nil {
				return fmt.Errorf("read pattern log: %w", err)
			}

			joinDate, err := resolveJoinDate(joinFlag, entries)
			if err != nil {
				return err
			}

			report := evolution.NewAnalyzer(cfg.AnalyzerConfig()).Analyze(entries, joinDate, now)
			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			printReport(scope, report)
			return nil
		},
	}
	cmd.Flags().String("scope", "", "User or session ID to analyze")
	cmd.Flags().String("joined", "", "User join date, YYYY-MM-DD (earliest log entry if omitted)")
	return cmd
}

// resolveJoinDate parses the flag, falling back to the oldest entry.
func resolveJoinDate(flag string, entries []patternlog.Entry) (time.Time, error) {
	if flag != "" {
		t, err := time.Parse("2006-01-02", flag)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse --joined: %w", err)
		}
		return t, nil
	}
	if len(entries) > 0 {
		return entries[0].CreatedAt, nil
	}
	return time.Time{}, nil
}

func printReport(scope string, report evolution.Report) {
	if len(report.Events) == 0 {
		fmt.Printf("%s: no transitions in window\n", scope)
		return
	}

	for _, ev := range report.Events {
		fmt.Printf("%s  %s -> %s  %-12s delta %+d\n",
			ev.Date.Format("2006-01-02"), ev.FromPattern, ev.ToPattern, ev.Change, ev.QualityDelta)
	}
	fmt.Printf("\n%s: %s -> %s, trend %s over %d transitions\n",
		scope, report.First, report.Last, report.Trend, len(report.Events))
}

// #endregion trends-cmd
