package main

// #region imports
import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/collab-sentinel/internal/config"
)

// #endregion

var version = "0.1.0-dev"

// #region main

func main() {
	rootCmd := &cobra.Command{
		Use:   "sentinel",
		Short: "Collaboration sentinel - behavioral pattern recognition for AI sessions",
		Long: `sentinel watches human-AI conversations, classifies the user's
collaboration pattern, scores trust per response, and plans verification
interventions matched to the risk it observes.`,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to YAML config (defaults plus env otherwise)")
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")

	rootCmd.AddCommand(
		newVersionCmd(),
		newRunCmd(),
		newReplayCmd(),
		newTrendsCmd(),
		newInspectCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("sentinel version %s\n", version)
			}
		},
	}
}

// loadConfig resolves the --config flag into a full configuration.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// #endregion main
