package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/interview"
	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// scoreInput is the JSON shape the score command reads from --input.
// Word timings may arrive either pre-converted (word_timings) or as raw
// speech-to-text entries with "1.200s"-style duration strings (stt_words).
type scoreInput struct {
	Question       string             `json:"question"`
	JobDescription string             `json:"job_description"`
	Transcript     string             `json:"transcript"`
	WordTimings    []model.WordTiming `json:"word_timings,omitempty"`
	STTWords       []map[string]any   `json:"stt_words,omitempty"`
	AudioSamples   []float64          `json:"audio_samples,omitempty"`
	SampleRate     int                `json:"sample_rate,omitempty"`
}

// timings returns the typed word timings, converting the raw speech-to-text
// entries when no pre-converted ones were given.
func (in scoreInput) timings() []model.WordTiming {
	if len(in.WordTimings) > 0 {
		return in.WordTimings
	}
	return model.ParseWordTimings(in.STTWords)
}

var (
	scoreInputFile   string
	scoreCandidateID string
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Score one interview response",
	Long: `Scores a single interview response from its transcript, word timings,
and optional audio waveform. Produces the full score card with per-feature
explanations. Scoring never fails: missing or broken signals degrade to
neutral defaults, noted in the card's rationales.

Examples:
  # Score a response and print the card
  equallens-scoring score --input response.json

  # Score and persist the card for a candidate
  equallens-scoring score --input response.json --candidate-id c-123`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		data, err := os.ReadFile(scoreInputFile)
		if err != nil {
			return eris.Wrap(err, "read input file")
		}
		var in scoreInput
		if err := json.Unmarshal(data, &in); err != nil {
			return eris.Wrap(err, "parse input file")
		}

		env, err := initEnv(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		card := env.Scorer.Score(ctx, interview.ScoreRequest{
			Question:       in.Question,
			JobDescription: in.JobDescription,
			Transcript:     in.Transcript,
			WordTimings:    in.timings(),
			AudioSamples:   in.AudioSamples,
			SampleRate:     in.SampleRate,
		})

		if scoreCandidateID != "" {
			id, err := env.Store.SaveScoreCard(ctx, scoreCandidateID, card)
			if err != nil {
				return err
			}
			zap.L().Info("score card saved",
				zap.String("candidate_id", scoreCandidateID),
				zap.String("card_id", id),
			)
		}

		return printJSON(card)
	},
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(v), "encode output")
}

func init() {
	scoreCmd.Flags().StringVar(&scoreInputFile, "input", "", "JSON file with the response to score (required)")
	scoreCmd.Flags().StringVar(&scoreCandidateID, "candidate-id", "", "persist the card for this candidate")
	_ = scoreCmd.MarkFlagRequired("input")

	rootCmd.AddCommand(scoreCmd)
}
