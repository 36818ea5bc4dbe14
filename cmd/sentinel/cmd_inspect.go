package main

// #region imports
import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/collab-sentinel/internal/patternlog"
	"github.com/danielpatrickdp/collab-sentinel/internal/remote"
)

// #endregion

// #region inspect-cmd

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Dump recent pattern log entries for a session",
		RunE: func(cmd *cobra.Command, args []string) error {
			sessionID, _ := cmd.Flags().GetString("session")
			limit, _ := cmd.Flags().GetInt("limit")
			checkHealth, _ := cmd.Flags().GetBool("health")
			jsonOut, _ := cmd.Flags().GetBool("json")
			if sessionID == "" && !checkHealth {
				return fmt.Errorf("--session is required (or --health)")
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if checkHealth {
				client := remote.NewClient(cfg.ClassifierAddr, cfg.ClassifierTimeout())
				ctx, cancel := context.WithTimeout(context.Background(), cfg.ClassifierTimeout())
				defer cancel()
				if err := client.Health(ctx); err != nil {
					return fmt.Errorf("classifier at %s: %w", cfg.ClassifierAddr, err)
				}
				fmt.Printf("classifier at %s: ok\n", cfg.ClassifierAddr)
				if sessionID == "" {
					return nil
				}
			}

			store, err := patternlog.NewStore(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer store.Close()

			entries, err := store.LastN(sessionID, limit)
			if err != nil {
				return fmt.Errorf("read pattern log: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(entries)
			}
			printEntries(entries)
			return nil
		},
	}
	cmd.Flags().String("session", "", "Session ID")
	cmd.Flags().Int("limit", 20, "Max entries to show")
	cmd.Flags().Bool("health", false, "Probe the remote classifier first")
	return cmd
}

func printEntries(entries []patternlog.Entry) {
	if len(entries) == 0 {
		fmt.Println("no entries")
		return
	}
	for _, e := range entries {
		fmt.Printf("%s  %s  confidence %.2f  %s\n",
			e.CreatedAt.Format("2006-01-02 15:04:05"), e.Label, e.Confidence,
			strings.Join(e.Evidence, "; "))
	}
}

// #endregion inspect-cmd
