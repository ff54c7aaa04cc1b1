package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/config"
)

var (
	cfg         *config.Config
	weightsFile string
)

var rootCmd = &cobra.Command{
	Use:   "equallens-scoring",
	Short: "Multi-signal candidate scoring pipeline",
	Long:  "Scores interview responses from audio and transcript signals, detects duplicate resumes, and aggregates authenticity assessments.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// loadScoringConfig returns the weight tables, with the --weights overlay
// applied when given. Overlays are validated before use.
func loadScoringConfig() (config.ScoringConfig, error) {
	base := config.DefaultScoringConfig()
	if weightsFile == "" {
		return base, nil
	}
	return config.LoadWeightOverrides(base, weightsFile)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&weightsFile, "weights", "", "YAML file overlaying the default scoring weights")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
