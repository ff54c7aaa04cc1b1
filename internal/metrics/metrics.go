// Package metrics implements the four explainable response metrics:
// relevance, confidence, clarity and engagement. Each metric is a weighted
// blend of a transcript side and an audio side, and every score ships with
// the per-feature contribution list that produced it.
package metrics

import (
	"fmt"
	"math"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/normalize"
)

// Normalization ceilings for spread-style features. Values beyond these are
// treated as maximal spread.
const (
	volumeSpreadCeiling  = 1.0
	pitchSpreadCeilingHz = 60.0
	jitterCeiling        = 1.5
	hedgingCeiling       = 0.25
	fillerCeiling        = 0.25
)

// Inputs carries everything the metric scorers read. SemanticSimilarity is
// the question/answer embedding cosine; EmbeddingsFailed marks it untrusted.
type Inputs struct {
	Audio model.AudioFeatureSet
	Ling  model.LinguisticFeatureSet

	SemanticSimilarity float64
	EmbeddingsFailed   bool
}

// Scorer computes metric scores under a fixed weight table.
type Scorer struct {
	w config.ResponseWeights
}

// NewScorer creates a Scorer from the given weights.
func NewScorer(w config.ResponseWeights) *Scorer {
	return &Scorer{w: w}
}

// contribution appends one explanation line. contribution = sideWeight *
// featureWeight * normalized, so the lines of a metric sum to its score.
func contribution(list []model.FeatureContribution, feature string, raw, normalized, sideWeight, featureWeight float64, rationale string) []model.FeatureContribution {
	return append(list, model.FeatureContribution{
		Feature:      feature,
		Value:        raw,
		Contribution: sideWeight * featureWeight * normalized,
		Positive:     normalized >= 0.5,
		Rationale:    rationale,
	})
}

func degradedNote(degraded bool, rationale string) string {
	if degraded {
		return rationale + " (neutral default, audio unavailable)"
	}
	return rationale
}

// Relevance scores how on-topic the answer is. Transcript-dominant: the
// embedding similarity carries most of the weight.
func (s *Scorer) Relevance(in Inputs) model.MetricResult {
	w := s.w.Relevance
	t := s.w.Targets
	degraded := in.Audio.Degraded()

	sim := normalize.Clamp01(in.SemanticSimilarity)
	simRationale := fmt.Sprintf("answer/question embedding similarity %.2f", in.SemanticSimilarity)
	if in.EmbeddingsFailed {
		sim = 0
		simRationale = "failed to generate embeddings"
	}

	var exp []model.FeatureContribution
	exp = contribution(exp, "semantic_similarity", in.SemanticSimilarity, sim,
		w.TranscriptWeight, w.SemanticSimilarity, simRationale)
	exp = contribution(exp, "topic_focus", in.Ling.TopicFocusScore, normalize.Clamp01(in.Ling.TopicFocusScore),
		w.TranscriptWeight, w.TopicFocus,
		fmt.Sprintf("lexical topic concentration %.2f", in.Ling.TopicFocusScore))

	wordConf := normalize.Clamp01(in.Audio.AvgWordConfidence)
	exp = contribution(exp, "word_confidence", in.Audio.AvgWordConfidence, wordConf,
		w.AudioWeight, w.WordConfidence,
		degradedNote(degraded, fmt.Sprintf("mean word recognition confidence %.2f", in.Audio.AvgWordConfidence)))

	rateFit := normalize.OptimalPoint(in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM, t.SpeechRateDeviation)
	exp = contribution(exp, "speech_rate_fit", in.Audio.SpeechRateWPM, rateFit,
		w.AudioWeight, w.SpeechRateFit,
		degradedNote(degraded, fmt.Sprintf("%.0f wpm against an optimum of %.0f", in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM)))

	return finish(exp)
}

// Confidence scores how self-assured the delivery is. Audio-dominant.
func (s *Scorer) Confidence(in Inputs) model.MetricResult {
	w := s.w.Confidence
	t := s.w.Targets
	degraded := in.Audio.Degraded()

	var exp []model.FeatureContribution

	hedgeInv := 1 - normalize.MinMax(in.Ling.HedgingRatio, 0, hedgingCeiling)
	exp = contribution(exp, "hedge_inverse", in.Ling.HedgingRatio, hedgeInv,
		w.TranscriptWeight, w.HedgeInverse,
		fmt.Sprintf("hedging ratio %.2f, lower is more confident", in.Ling.HedgingRatio))
	exp = contribution(exp, "assertiveness", in.Ling.AssertivenessScore, normalize.Clamp01(in.Ling.AssertivenessScore),
		w.TranscriptWeight, w.Assertiveness,
		fmt.Sprintf("assertive phrasing score %.2f", in.Ling.AssertivenessScore))
	magNorm := normalize.MinMax(in.Ling.SentimentMagnitude, 0, t.MagnitudeCeiling)
	exp = contribution(exp, "magnitude_norm", in.Ling.SentimentMagnitude, magNorm,
		w.TranscriptWeight, w.MagnitudeNorm,
		fmt.Sprintf("emotional magnitude %.2f", in.Ling.SentimentMagnitude))

	rateFit := normalize.OptimalPoint(in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM, t.SpeechRateDeviation)
	exp = contribution(exp, "speech_rate_fit", in.Audio.SpeechRateWPM, rateFit,
		w.AudioWeight, w.SpeechRateFit,
		degradedNote(degraded, fmt.Sprintf("%.0f wpm against an optimum of %.0f", in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM)))

	volConsistency := 1 - normalize.MinMax(in.Audio.VolumeRelStdDev, 0, volumeSpreadCeiling)
	exp = contribution(exp, "volume_consistency", in.Audio.VolumeRelStdDev, volConsistency,
		w.AudioWeight, w.VolumeConsistency,
		degradedNote(degraded, fmt.Sprintf("relative volume spread %.2f, steadier is more confident", in.Audio.VolumeRelStdDev)))

	pauseControl := normalize.OptimalPoint(in.Audio.PauseRatio, t.OptimalPauseRatio, t.PauseRatioDeviation)
	exp = contribution(exp, "pause_control", in.Audio.PauseRatio, pauseControl,
		w.AudioWeight, w.PauseControl,
		degradedNote(degraded, fmt.Sprintf("pause ratio %.2f against an optimum of %.2f", in.Audio.PauseRatio, t.OptimalPauseRatio)))

	pitchSteady := 1 - normalize.MinMax(in.Audio.PitchStdDevHz, 0, pitchSpreadCeilingHz)
	exp = contribution(exp, "pitch_steadiness", in.Audio.PitchStdDevHz, pitchSteady,
		w.AudioWeight, w.PitchSteadiness,
		degradedNote(degraded, fmt.Sprintf("pitch spread %.1f Hz", in.Audio.PitchStdDevHz)))

	jitterInv := 1 - normalize.MinMax(in.Audio.WordTimingRelJitter, 0, jitterCeiling)
	exp = contribution(exp, "jitter_inverse", in.Audio.WordTimingRelJitter, jitterInv,
		w.AudioWeight, w.JitterInverse,
		degradedNote(degraded, fmt.Sprintf("word timing jitter %.2f, lower is smoother", in.Audio.WordTimingRelJitter)))

	return finish(exp)
}

// Clarity scores how easy the answer is to follow.
func (s *Scorer) Clarity(in Inputs) model.MetricResult {
	w := s.w.Clarity
	t := s.w.Targets
	degraded := in.Audio.Degraded()

	var exp []model.FeatureContribution

	fillerInv := 1 - normalize.MinMax(in.Ling.FillerRatio, 0, fillerCeiling)
	exp = contribution(exp, "filler_inverse", in.Ling.FillerRatio, fillerInv,
		w.TranscriptWeight, w.FillerInverse,
		fmt.Sprintf("filler ratio %.2f, lower is clearer", in.Ling.FillerRatio))

	sentFit := normalize.OptimalPoint(in.Ling.AvgSentenceLength, t.OptimalSentenceLength, t.SentenceLengthDev)
	exp = contribution(exp, "sentence_length_fit", in.Ling.AvgSentenceLength, sentFit,
		w.TranscriptWeight, w.SentenceLengthFit,
		fmt.Sprintf("%.1f words per sentence against an optimum of %.0f", in.Ling.AvgSentenceLength, t.OptimalSentenceLength))

	ttr := normalize.Clamp01(in.Ling.LexicalDiversityTTR)
	exp = contribution(exp, "lexical_diversity", in.Ling.LexicalDiversityTTR, ttr,
		w.TranscriptWeight, w.LexicalDiversity,
		fmt.Sprintf("type-token ratio %.2f", in.Ling.LexicalDiversityTTR))

	snrNorm := normalize.MinMax(in.Audio.SNRDB, t.SNRFloorDB, t.SNRCeilingDB)
	exp = contribution(exp, "snr", in.Audio.SNRDB, snrNorm,
		w.AudioWeight, w.SNR,
		degradedNote(degraded, fmt.Sprintf("signal-to-noise ratio %.1f dB", in.Audio.SNRDB)))

	rateFit := normalize.OptimalPoint(in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM, t.SpeechRateDeviation)
	exp = contribution(exp, "speech_rate_fit", in.Audio.SpeechRateWPM, rateFit,
		w.AudioWeight, w.SpeechRateFit,
		degradedNote(degraded, fmt.Sprintf("%.0f wpm against an optimum of %.0f", in.Audio.SpeechRateWPM, t.OptimalSpeechRateWPM)))

	jitterInv := 1 - normalize.MinMax(in.Audio.WordTimingRelJitter, 0, jitterCeiling)
	exp = contribution(exp, "jitter_inverse", in.Audio.WordTimingRelJitter, jitterInv,
		w.AudioWeight, w.JitterInverse,
		degradedNote(degraded, fmt.Sprintf("word timing jitter %.2f, lower is smoother", in.Audio.WordTimingRelJitter)))

	return finish(exp)
}

// Engagement scores how animated the delivery is. Audio-dominant: volume and
// pitch movement reward dynamism, the opposite of Confidence's steadiness.
func (s *Scorer) Engagement(in Inputs) model.MetricResult {
	w := s.w.Engagement
	t := s.w.Targets
	degraded := in.Audio.Degraded()

	var exp []model.FeatureContribution

	exp = contribution(exp, "expressiveness", in.Ling.ExpressivenessScore, normalize.Clamp01(in.Ling.ExpressivenessScore),
		w.TranscriptWeight, w.Expressiveness,
		fmt.Sprintf("expressive phrasing score %.2f", in.Ling.ExpressivenessScore))

	positivity := normalize.Clamp01((in.Ling.SentimentScore + 1) / 2)
	exp = contribution(exp, "sentiment_positivity", in.Ling.SentimentScore, positivity,
		w.TranscriptWeight, w.SentimentPositivity,
		fmt.Sprintf("document sentiment %.2f", in.Ling.SentimentScore))

	magNorm := normalize.MinMax(in.Ling.SentimentMagnitude, 0, t.MagnitudeCeiling)
	exp = contribution(exp, "magnitude_norm", in.Ling.SentimentMagnitude, magNorm,
		w.TranscriptWeight, w.MagnitudeNorm,
		fmt.Sprintf("emotional magnitude %.2f", in.Ling.SentimentMagnitude))

	volDynamics := normalize.MinMax(in.Audio.VolumeRelStdDev, 0, volumeSpreadCeiling)
	exp = contribution(exp, "volume_dynamics", in.Audio.VolumeRelStdDev, volDynamics,
		w.AudioWeight, w.VolumeDynamics,
		degradedNote(degraded, fmt.Sprintf("relative volume spread %.2f, movement reads as energy", in.Audio.VolumeRelStdDev)))

	pitchDynamics := normalize.MinMax(in.Audio.PitchStdDevHz, 0, pitchSpreadCeilingHz)
	exp = contribution(exp, "pitch_dynamics", in.Audio.PitchStdDevHz, pitchDynamics,
		w.AudioWeight, w.PitchDynamics,
		degradedNote(degraded, fmt.Sprintf("pitch spread %.1f Hz", in.Audio.PitchStdDevHz)))

	pauseInv := 1 - normalize.MinMax(in.Audio.PauseRatio, 0, 1)
	exp = contribution(exp, "pause_inverse", in.Audio.PauseRatio, pauseInv,
		w.AudioWeight, w.PauseInverse,
		degradedNote(degraded, fmt.Sprintf("pause ratio %.2f, fewer pauses read as momentum", in.Audio.PauseRatio)))

	return finish(exp)
}

// finish sums the contribution lines into the clamped metric score.
func finish(exp []model.FeatureContribution) model.MetricResult {
	score := 0.0
	for _, c := range exp {
		score += c.Contribution
	}
	return model.MetricResult{
		Score:       normalize.Clamp01(score),
		Explanation: exp,
	}
}

// CosineSimilarity computes the cosine of two embedding vectors. Mismatched
// lengths or a zero-norm vector yield 0.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
