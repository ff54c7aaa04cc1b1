// Package interview orchestrates response-level scoring: audio and linguistic
// feature extraction, embedding similarity and LLM judgment fan out
// concurrently, then the metric scorers fold everything into one score card.
//
// Failure containment is per branch. A failed collaborator zeroes only the
// fields that depend on it; the card always comes back complete and bounded,
// with the first degradation cause in Error.
package interview

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RextonRZ/equallens-scoring/internal/audio"
	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/linguistic"
	"github.com/RextonRZ/equallens-scoring/internal/metrics"
	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/normalize"
	"github.com/RextonRZ/equallens-scoring/pkg/gemini"
)

// ScoreRequest carries one interview response and its context.
type ScoreRequest struct {
	Question       string
	JobDescription string
	Transcript     string
	WordTimings    []model.WordTiming

	// AudioSamples is the mono waveform in [-1, 1]; may be empty when no
	// recording is available.
	AudioSamples []float64
	SampleRate   int
}

// Scorer scores interview responses.
type Scorer struct {
	weights config.ResponseWeights
	metrics *metrics.Scorer
	nlp     *linguistic.Extractor
	llm     LLM
}

// LLM is the judgment/embedding collaborator surface the scorer needs.
// Satisfied by gemini.Client.
type LLM interface {
	JudgeResponse(ctx context.Context, req gemini.JudgeRequest) (*model.SemanticJudgment, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// NewScorer creates a response scorer from the weight tables and collaborators.
func NewScorer(cfg config.ScoringConfig, nlp *linguistic.Extractor, llm LLM) *Scorer {
	return &Scorer{
		weights: cfg.Response,
		metrics: metrics.NewScorer(cfg.Response),
		nlp:     nlp,
		llm:     llm,
	}
}

// Score produces the complete score card for one response. It never returns
// an error: degradations surface in the card itself.
func (s *Scorer) Score(ctx context.Context, req ScoreRequest) model.ResponseScoreCard {
	if isBlank(req.Transcript) {
		return emptyTranscriptCard()
	}

	var (
		audioFeatures model.AudioFeatureSet
		lingFeatures  model.LinguisticFeatureSet

		similarity  float64
		embedErr    error
		judgment    *model.SemanticJudgment
		judgmentErr error
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		audioFeatures = audio.Extract(req.AudioSamples, req.SampleRate, req.WordTimings)
		return nil
	})
	g.Go(func() error {
		lingFeatures = s.nlp.Extract(gctx, req.Transcript)
		return nil
	})
	g.Go(func() error {
		similarity, embedErr = s.embedSimilarity(gctx, req.Question, req.Transcript)
		return nil
	})
	g.Go(func() error {
		judgment, judgmentErr = s.llm.JudgeResponse(gctx, gemini.JudgeRequest{
			Question:       req.Question,
			Transcript:     req.Transcript,
			JobDescription: req.JobDescription,
		})
		return nil
	})

	// Branches never return errors; Wait only orders the reads below.
	_ = g.Wait()

	in := metrics.Inputs{
		Audio:              audioFeatures,
		Ling:               lingFeatures,
		SemanticSimilarity: similarity,
		EmbeddingsFailed:   embedErr != nil,
	}

	card := model.ResponseScoreCard{
		Explanation: make(map[string][]model.FeatureContribution, 6),
	}

	relevance := s.metrics.Relevance(in)
	confidence := s.metrics.Confidence(in)
	clarity := s.metrics.Clarity(in)
	engagement := s.metrics.Engagement(in)
	card.Relevance = relevance.Score
	card.Confidence = confidence.Score
	card.Clarity = clarity.Score
	card.Engagement = engagement.Score
	card.Explanation["relevance"] = relevance.Explanation
	card.Explanation["confidence"] = confidence.Explanation
	card.Explanation["clarity"] = clarity.Explanation
	card.Explanation["engagement"] = engagement.Explanation

	s.applyJudgment(&card, req, judgment, judgmentErr)

	card.Error = firstDegradation(lingFeatures, embedErr, judgmentErr)

	return s.finalize(card)
}

// applyJudgment folds the LLM judgment into the card. A failed judgment
// zeroes substance and job fit only; the four feature metrics stand.
func (s *Scorer) applyJudgment(card *model.ResponseScoreCard, req ScoreRequest, j *model.SemanticJudgment, err error) {
	if err != nil {
		zap.L().Warn("interview: judgment failed, zeroing substance and job fit", zap.Error(err))
		card.Substance = 0
		card.JobFit = 0
		card.Explanation["substance"] = skippedExplanation("substance", "semantic judgment unavailable")
		card.Explanation["job_fit"] = skippedExplanation("job_fit", "semantic judgment unavailable")
		return
	}

	card.Substance = float64(j.SubstanceScore) / 10.0
	card.Explanation["substance"] = []model.FeatureContribution{{
		Feature:      "substance",
		Value:        float64(j.SubstanceScore),
		Contribution: card.Substance,
		Positive:     j.SubstanceScore >= 5,
		Rationale:    j.SubstanceReasoning,
	}}

	if isBlank(req.JobDescription) {
		card.JobFit = 0
		card.Explanation["job_fit"] = skippedExplanation("job_fit", "no job description provided")
		return
	}
	card.JobFit = float64(j.JobFitScore) / 10.0
	card.Explanation["job_fit"] = []model.FeatureContribution{{
		Feature:      "job_fit",
		Value:        float64(j.JobFitScore),
		Contribution: card.JobFit,
		Positive:     j.JobFitScore >= 5,
		Rationale:    j.JobFitReasoning,
	}}
}

// embedSimilarity embeds the question and answer and returns their cosine.
// A blank question cannot anchor relevance and behaves like a failure.
func (s *Scorer) embedSimilarity(ctx context.Context, question, transcript string) (float64, error) {
	if isBlank(question) {
		return 0, fmt.Errorf("no question to compare against")
	}
	vecs, err := s.llm.EmbedTexts(ctx, []string{question, transcript})
	if err != nil {
		zap.L().Warn("interview: embedding failed", zap.Error(err))
		return 0, err
	}
	if len(vecs) != 2 {
		return 0, fmt.Errorf("expected 2 embeddings, got %d", len(vecs))
	}
	return metrics.CosineSimilarity(vecs[0], vecs[1]), nil
}

// finalize clamps every component and computes the weighted total. The card
// is immutable after this.
func (s *Scorer) finalize(card model.ResponseScoreCard) model.ResponseScoreCard {
	w := s.weights.Total

	card.Relevance = normalize.Clamp01(card.Relevance)
	card.Confidence = normalize.Clamp01(card.Confidence)
	card.Clarity = normalize.Clamp01(card.Clarity)
	card.Engagement = normalize.Clamp01(card.Engagement)
	card.Substance = normalize.Clamp01(card.Substance)
	card.JobFit = normalize.Clamp01(card.JobFit)

	card.TotalScore = normalize.Clamp01(
		w.Relevance*card.Relevance +
			w.Confidence*card.Confidence +
			w.Clarity*card.Clarity +
			w.Engagement*card.Engagement +
			w.Substance*card.Substance +
			w.JobFit*card.JobFit,
	)
	return card
}

func emptyTranscriptCard() model.ResponseScoreCard {
	card := model.ResponseScoreCard{
		Error:       "Empty transcript",
		Explanation: make(map[string][]model.FeatureContribution, 6),
	}
	for _, metric := range []string{"relevance", "confidence", "clarity", "engagement", "substance", "job_fit"} {
		card.Explanation[metric] = skippedExplanation(metric, "empty transcript")
	}
	return card
}

func skippedExplanation(feature, reason string) []model.FeatureContribution {
	return []model.FeatureContribution{{
		Feature:   feature,
		Rationale: "skipped due to " + reason,
	}}
}

// firstDegradation picks the earliest degradation cause in pipeline order.
func firstDegradation(ling model.LinguisticFeatureSet, embedErr, judgmentErr error) string {
	switch {
	case ling.AnalysisError != "":
		return ling.AnalysisError
	case embedErr != nil:
		return embedErr.Error()
	case judgmentErr != nil:
		return judgmentErr.Error()
	}
	return ""
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
