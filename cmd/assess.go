package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// assessInput is the JSON shape the assess command reads from --input: the
// two upstream module results for one candidate.
type assessInput struct {
	Content  model.AuthenticityAnalysisResult `json:"content"`
	CrossRef model.CrossReferencingResult     `json:"crossref"`
}

var (
	assessInputFile   string
	assessCandidateID string
)

var assessCmd = &cobra.Command{
	Use:   "assess",
	Short: "Aggregate module results into a final assessment",
	Long: `Combines the content-analysis and cross-referencing module results
into the final authenticity and spam-likelihood scores, with a recruiter-facing
summary. A failed module contributes its neutral default rather than blocking
the assessment.

Examples:
  # Aggregate and print the assessment
  equallens-scoring assess --input modules.json

  # Aggregate and persist it for a candidate
  equallens-scoring assess --input modules.json --candidate-id c-123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(assessInputFile)
		if err != nil {
			return eris.Wrap(err, "read input file")
		}
		var in assessInput
		if err := json.Unmarshal(data, &in); err != nil {
			return eris.Wrap(err, "parse input file")
		}

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		assessment := env.Agg.Assess(ctx, in.Content, in.CrossRef)

		if assessCandidateID != "" {
			if err := env.Store.SaveAssessment(ctx, assessCandidateID, assessment); err != nil {
				return err
			}
			zap.L().Info("assessment saved", zap.String("candidate_id", assessCandidateID))
		}

		return printJSON(assessment)
	},
}

func init() {
	assessCmd.Flags().StringVar(&assessInputFile, "input", "", "JSON file with the content and crossref module results (required)")
	assessCmd.Flags().StringVar(&assessCandidateID, "candidate-id", "", "persist the assessment for this candidate")
	_ = assessCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(assessCmd)
}
