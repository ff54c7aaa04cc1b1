package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

var (
	dupscanJobID       string
	dupscanResumeFile  string
	dupscanCandidateID string
	dupscanSave        bool
)

var dupscanCmd = &cobra.Command{
	Use:   "dupscan",
	Short: "Check a resume against a job's candidate pool",
	Long: `Compares an incoming resume against every stored candidate of a job
and reports the strongest duplicate verdict: exact duplicate, modified resume,
copied resume, or unique.

Examples:
  # Scan a resume against job j-1's pool
  equallens-scoring dupscan --job j-1 --resume resume.json

  # Scan, persist the verdict and register the candidate
  equallens-scoring dupscan --job j-1 --resume resume.json --save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(dupscanResumeFile)
		if err != nil {
			return eris.Wrap(err, "read resume file")
		}
		var resume model.ResumeFields
		if err := json.Unmarshal(data, &resume); err != nil {
			return eris.Wrap(err, "parse resume file")
		}

		env, err := initEnv(ctx, false)
		if err != nil {
			return err
		}
		defer env.Close()

		existing, err := env.Store.ListCandidates(ctx, dupscanJobID)
		if err != nil {
			return err
		}

		result := env.Dup.Scan(ctx, resume, existing)
		zap.L().Info("duplicate scan complete",
			zap.String("job_id", dupscanJobID),
			zap.Int("pool_size", len(existing)),
			zap.String("type", string(result.Type)),
			zap.Float64("confidence", result.Confidence),
		)

		if dupscanSave {
			candID := dupscanCandidateID
			if candID == "" {
				candID, err = env.Store.SaveCandidate(ctx, model.Candidate{
					JobID:  dupscanJobID,
					Resume: resume,
				})
				if err != nil {
					return err
				}
			}
			if err := env.Store.SaveDuplicateResult(ctx, dupscanJobID, candID, result); err != nil {
				return err
			}
			zap.L().Info("duplicate result saved", zap.String("candidate_id", candID))
		}

		return printJSON(result)
	},
}

func init() {
	f := dupscanCmd.Flags()
	f.StringVar(&dupscanJobID, "job", "", "job whose candidate pool to scan against (required)")
	f.StringVar(&dupscanResumeFile, "resume", "", "JSON file with the incoming resume fields (required)")
	f.StringVar(&dupscanCandidateID, "candidate-id", "", "existing candidate id to attribute the result to")
	f.BoolVar(&dupscanSave, "save", false, "persist the verdict (and the candidate, if new)")
	_ = dupscanCmd.MarkFlagRequired("job")
	_ = dupscanCmd.MarkFlagRequired("resume")

	rootCmd.AddCommand(dupscanCmd)
}
