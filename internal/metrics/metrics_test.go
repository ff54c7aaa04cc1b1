package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/model"
)

func newTestScorer() *Scorer {
	return NewScorer(config.DefaultScoringConfig().Response)
}

// strongInputs models a fluent, on-topic answer with clean audio.
func strongInputs() Inputs {
	return Inputs{
		Audio: model.AudioFeatureSet{
			DurationSeconds:     45,
			VolumeMean:          0.2,
			VolumeRelStdDev:     0.15,
			SNRDB:               30,
			PauseRatio:          0.25,
			PitchMeanHz:         180,
			PitchStdDevHz:       25,
			AvgWordConfidence:   0.95,
			SpeechRateWPM:       140,
			WordTimingRelJitter: 0.2,
		},
		Ling: model.LinguisticFeatureSet{
			SentimentScore:      0.5,
			SentimentMagnitude:  3,
			AvgSentenceLength:   16,
			LexicalDiversityTTR: 0.7,
			HedgingRatio:        0.02,
			FillerRatio:         0.02,
			AssertivenessScore:  0.85,
			ExpressivenessScore: 0.7,
			TopicFocusScore:     0.8,
		},
		SemanticSimilarity: 0.85,
	}
}

// weakInputs models a hesitant, off-topic answer: monotone, noisy, rushed.
func weakInputs() Inputs {
	return Inputs{
		Audio: model.AudioFeatureSet{
			DurationSeconds:     45,
			VolumeMean:          0.05,
			VolumeRelStdDev:     0.05,
			SNRDB:               6,
			PauseRatio:          0.7,
			PitchMeanHz:         150,
			PitchStdDevHz:       5,
			AvgWordConfidence:   0.4,
			SpeechRateWPM:       260,
			WordTimingRelJitter: 1.4,
		},
		Ling: model.LinguisticFeatureSet{
			SentimentScore:      -0.3,
			SentimentMagnitude:  0.5,
			AvgSentenceLength:   40,
			LexicalDiversityTTR: 0.2,
			HedgingRatio:        0.2,
			FillerRatio:         0.2,
			AssertivenessScore:  0.1,
			ExpressivenessScore: 0.2,
			TopicFocusScore:     0.2,
		},
		SemanticSimilarity: 0.1,
	}
}

func assertBoundsAndSum(t *testing.T, r model.MetricResult) {
	t.Helper()
	assert.GreaterOrEqual(t, r.Score, 0.0)
	assert.LessOrEqual(t, r.Score, 1.0)

	sum := 0.0
	for _, c := range r.Explanation {
		sum += c.Contribution
	}
	assert.InDelta(t, r.Score, sum, 1e-9, "explanation lines should sum to the score")
}

func TestMetrics_StrongBeatsWeak(t *testing.T) {
	s := newTestScorer()
	strong, weak := strongInputs(), weakInputs()

	for name, fn := range map[string]func(Inputs) model.MetricResult{
		"relevance":  s.Relevance,
		"confidence": s.Confidence,
		"clarity":    s.Clarity,
		"engagement": s.Engagement,
	} {
		rs := fn(strong)
		rw := fn(weak)
		assert.Greater(t, rs.Score, rw.Score, name)
		assertBoundsAndSum(t, rs)
		assertBoundsAndSum(t, rw)
	}
}

func TestRelevance_EmbeddingFailureZeroesSimilarity(t *testing.T) {
	s := newTestScorer()
	in := strongInputs()
	in.EmbeddingsFailed = true

	got := s.Relevance(in)
	require.NotEmpty(t, got.Explanation)
	sim := got.Explanation[0]
	assert.Equal(t, "semantic_similarity", sim.Feature)
	assert.Equal(t, 0.0, sim.Contribution)
	assert.Equal(t, "failed to generate embeddings", sim.Rationale)

	ok := s.Relevance(strongInputs())
	assert.Less(t, got.Score, ok.Score)
}

func TestMetrics_DegradedAudioNotedInRationales(t *testing.T) {
	s := newTestScorer()
	in := strongInputs()
	in.Audio = model.DefaultAudioFeatures()

	got := s.Confidence(in)
	found := 0
	for _, c := range got.Explanation {
		if c.Feature == "volume_consistency" || c.Feature == "pitch_steadiness" {
			assert.Contains(t, c.Rationale, "audio unavailable")
			found++
		}
	}
	assert.Equal(t, 2, found)
	assertBoundsAndSum(t, got)
}

func TestConfidence_OptimalPaceBeatsRushed(t *testing.T) {
	s := newTestScorer()
	paced := strongInputs()
	rushed := strongInputs()
	rushed.Audio.SpeechRateWPM = 230

	assert.Greater(t, s.Confidence(paced).Score, s.Confidence(rushed).Score)
}

func TestEngagement_RewardsDynamicsConfidencePenalizesThem(t *testing.T) {
	s := newTestScorer()
	steady := strongInputs()
	dynamic := strongInputs()
	dynamic.Audio.VolumeRelStdDev = 0.6
	dynamic.Audio.PitchStdDevHz = 50

	assert.Greater(t, s.Engagement(dynamic).Score, s.Engagement(steady).Score)
	assert.Less(t, s.Confidence(dynamic).Score, s.Confidence(steady).Score)
}

func TestClarity_SNRContribution(t *testing.T) {
	s := newTestScorer()
	clean := strongInputs()
	noisy := strongInputs()
	noisy.Audio.SNRDB = 5

	gotClean := s.Clarity(clean)
	gotNoisy := s.Clarity(noisy)
	assert.Greater(t, gotClean.Score, gotNoisy.Score)

	for _, c := range gotNoisy.Explanation {
		if c.Feature == "snr" {
			assert.Equal(t, 0.0, c.Contribution, "SNR at the floor contributes nothing")
			assert.False(t, c.Positive)
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-6)
	assert.InDelta(t, 0.0, CosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-6)
	assert.InDelta(t, -1.0, CosineSimilarity([]float32{1, 0}, []float32{-1, 0}), 1e-6)
	assert.Equal(t, 0.0, CosineSimilarity(nil, nil))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 2}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 2}))
}

func TestMetrics_Idempotent(t *testing.T) {
	s := newTestScorer()
	in := strongInputs()
	assert.Equal(t, s.Clarity(in), s.Clarity(in))
	assert.Equal(t, s.Engagement(in), s.Engagement(in))
}
