package config

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// ScoringConfig is the immutable set of weight tables and thresholds used by
// the scoring pipeline. Constructed once at startup (optionally overlaid from
// a YAML file) and passed by value into every scorer. The numeric values were
// tuned empirically against labeled interview data; treat them as
// configuration, not physical constants.
type ScoringConfig struct {
	Response   ResponseWeights  `yaml:"response"`
	Duplicate  DuplicateConfig  `yaml:"duplicate"`
	Assessment AssessmentConfig `yaml:"assessment"`
}

// ResponseWeights holds every weight table for response-level scoring.
type ResponseWeights struct {
	Total      TotalWeights      `yaml:"total"`
	Relevance  RelevanceWeights  `yaml:"relevance"`
	Confidence ConfidenceWeights `yaml:"confidence"`
	Clarity    ClarityWeights    `yaml:"clarity"`
	Engagement EngagementWeights `yaml:"engagement"`
	Targets    AudioTargets      `yaml:"targets"`
}

// TotalWeights combines the six response components into the total score.
// Must sum to 1.0.
type TotalWeights struct {
	Relevance  float64 `yaml:"relevance"`
	Confidence float64 `yaml:"confidence"`
	Clarity    float64 `yaml:"clarity"`
	Engagement float64 `yaml:"engagement"`
	Substance  float64 `yaml:"substance"`
	JobFit     float64 `yaml:"job_fit"`
}

// RelevanceWeights: how on-topic the answer is. Dominated by the transcript
// side (semantic similarity to the question).
type RelevanceWeights struct {
	TranscriptWeight float64 `yaml:"transcript_weight"`
	AudioWeight      float64 `yaml:"audio_weight"`

	// Transcript side.
	SemanticSimilarity float64 `yaml:"semantic_similarity"`
	TopicFocus         float64 `yaml:"topic_focus"`

	// Audio side.
	WordConfidence float64 `yaml:"word_confidence"`
	SpeechRateFit  float64 `yaml:"speech_rate_fit"`
}

// ConfidenceWeights: how self-assured the delivery is. Audio-dominant.
type ConfidenceWeights struct {
	TranscriptWeight float64 `yaml:"transcript_weight"`
	AudioWeight      float64 `yaml:"audio_weight"`

	// Transcript side.
	HedgeInverse  float64 `yaml:"hedge_inverse"`
	Assertiveness float64 `yaml:"assertiveness"`
	MagnitudeNorm float64 `yaml:"magnitude_norm"`

	// Audio side.
	SpeechRateFit     float64 `yaml:"speech_rate_fit"`
	VolumeConsistency float64 `yaml:"volume_consistency"`
	PauseControl      float64 `yaml:"pause_control"`
	PitchSteadiness   float64 `yaml:"pitch_steadiness"`
	JitterInverse     float64 `yaml:"jitter_inverse"`
}

// ClarityWeights: how easy the answer is to follow. Even blend.
type ClarityWeights struct {
	TranscriptWeight float64 `yaml:"transcript_weight"`
	AudioWeight      float64 `yaml:"audio_weight"`

	// Transcript side.
	FillerInverse     float64 `yaml:"filler_inverse"`
	SentenceLengthFit float64 `yaml:"sentence_length_fit"`
	LexicalDiversity  float64 `yaml:"lexical_diversity"`

	// Audio side.
	SNR           float64 `yaml:"snr"`
	SpeechRateFit float64 `yaml:"speech_rate_fit"`
	JitterInverse float64 `yaml:"jitter_inverse"`
}

// EngagementWeights: how animated the delivery is. Audio-dominant.
type EngagementWeights struct {
	TranscriptWeight float64 `yaml:"transcript_weight"`
	AudioWeight      float64 `yaml:"audio_weight"`

	// Transcript side.
	Expressiveness      float64 `yaml:"expressiveness"`
	SentimentPositivity float64 `yaml:"sentiment_positivity"`
	MagnitudeNorm       float64 `yaml:"magnitude_norm"`

	// Audio side.
	VolumeDynamics float64 `yaml:"volume_dynamics"`
	PitchDynamics  float64 `yaml:"pitch_dynamics"`
	PauseInverse   float64 `yaml:"pause_inverse"`
}

// AudioTargets holds the optimal points and expected ranges used when
// normalizing raw acoustic measurements.
type AudioTargets struct {
	OptimalSpeechRateWPM  float64 `yaml:"optimal_speech_rate_wpm"`
	SpeechRateDeviation   float64 `yaml:"speech_rate_deviation"`
	OptimalPauseRatio     float64 `yaml:"optimal_pause_ratio"`
	PauseRatioDeviation   float64 `yaml:"pause_ratio_deviation"`
	OptimalSentenceLength float64 `yaml:"optimal_sentence_length"`
	SentenceLengthDev     float64 `yaml:"sentence_length_deviation"`
	SNRFloorDB            float64 `yaml:"snr_floor_db"`
	SNRCeilingDB          float64 `yaml:"snr_ceiling_db"`
	MagnitudeCeiling      float64 `yaml:"magnitude_ceiling"`
}

// DuplicateConfig holds the classification thresholds of the duplicate
// scoring engine's ordered rule table. Rules are evaluated top-down and the
// first match wins.
type DuplicateConfig struct {
	ExactMatchPercent  float64 `yaml:"exact_match_percent"`
	IdentifierHigh     float64 `yaml:"identifier_high"`
	IdentifierModerate float64 `yaml:"identifier_moderate"`
	ContentExact       float64 `yaml:"content_exact"`
	ContentModified    float64 `yaml:"content_modified"`
	ContentCopied      float64 `yaml:"content_copied"`

	// Single-field copy branch: one field above SingleFieldCopied with
	// overall content above ContentCopiedFloor also counts as copied.
	SingleFieldCopied  float64 `yaml:"single_field_copied"`
	ContentCopiedFloor float64 `yaml:"content_copied_floor"`

	// Confidence blend for the moderate-identity modified rule.
	ModifiedIDWeight  float64 `yaml:"modified_id_weight"`
	ModifiedContentWt float64 `yaml:"modified_content_weight"`

	ChangeUnchangedSim   float64 `yaml:"change_unchanged_sim"`
	ChangeRewrittenSim   float64 `yaml:"change_rewritten_sim"`
	ChangeLengthDeltaPct float64 `yaml:"change_length_delta_pct"`
}

// AssessmentConfig holds the final-assessment blend weights.
type AssessmentConfig struct {
	ContentWeight  float64 `yaml:"content_weight"`
	CrossRefWeight float64 `yaml:"crossref_weight"`

	// Spam likelihood inverse-risk weights, renormalized over the inputs
	// actually present.
	SpamPlausibility float64 `yaml:"spam_plausibility"`
	SpamSpecificity  float64 `yaml:"spam_specificity"`
	SpamAIStyle      float64 `yaml:"spam_ai_style"`
	SpamCrossRef     float64 `yaml:"spam_crossref"`
}

// DefaultScoringConfig returns the production weight tables.
func DefaultScoringConfig() ScoringConfig {
	return ScoringConfig{
		Response: ResponseWeights{
			Total: TotalWeights{
				Relevance:  0.15,
				Confidence: 0.20,
				Clarity:    0.20,
				Engagement: 0.15,
				Substance:  0.15,
				JobFit:     0.15,
			},
			Relevance: RelevanceWeights{
				TranscriptWeight:   0.8,
				AudioWeight:        0.2,
				SemanticSimilarity: 0.7,
				TopicFocus:         0.3,
				WordConfidence:     0.6,
				SpeechRateFit:      0.4,
			},
			Confidence: ConfidenceWeights{
				TranscriptWeight:  0.4,
				AudioWeight:       0.6,
				HedgeInverse:      0.5,
				Assertiveness:     0.3,
				MagnitudeNorm:     0.2,
				SpeechRateFit:     0.25,
				VolumeConsistency: 0.25,
				PauseControl:      0.20,
				PitchSteadiness:   0.15,
				JitterInverse:     0.15,
			},
			Clarity: ClarityWeights{
				TranscriptWeight:  0.5,
				AudioWeight:       0.5,
				FillerInverse:     0.4,
				SentenceLengthFit: 0.3,
				LexicalDiversity:  0.3,
				SNR:               0.4,
				SpeechRateFit:     0.3,
				JitterInverse:     0.3,
			},
			Engagement: EngagementWeights{
				TranscriptWeight:    0.3,
				AudioWeight:         0.7,
				Expressiveness:      0.5,
				SentimentPositivity: 0.3,
				MagnitudeNorm:       0.2,
				VolumeDynamics:      0.4,
				PitchDynamics:       0.3,
				PauseInverse:        0.3,
			},
			Targets: AudioTargets{
				OptimalSpeechRateWPM:  140,
				SpeechRateDeviation:   60,
				OptimalPauseRatio:     0.25,
				PauseRatioDeviation:   0.35,
				OptimalSentenceLength: 16,
				SentenceLengthDev:     12,
				SNRFloorDB:            5,
				SNRCeilingDB:          35,
				MagnitudeCeiling:      7,
			},
		},
		Duplicate: DuplicateConfig{
			ExactMatchPercent:    99.5,
			IdentifierHigh:       0.90,
			IdentifierModerate:   0.65,
			ContentExact:         0.92,
			ContentModified:      0.60,
			ContentCopied:        0.80,
			SingleFieldCopied:    0.40,
			ContentCopiedFloor:   0.40,
			ModifiedIDWeight:     0.4,
			ModifiedContentWt:    0.6,
			ChangeUnchangedSim:   0.95,
			ChangeRewrittenSim:   0.60,
			ChangeLengthDeltaPct: 0.15,
		},
		Assessment: AssessmentConfig{
			ContentWeight:    0.65,
			CrossRefWeight:   0.35,
			SpamPlausibility: 0.30,
			SpamSpecificity:  0.25,
			SpamAIStyle:      0.25,
			SpamCrossRef:     0.20,
		},
	}
}

// LoadWeightOverrides overlays a partial YAML weight file onto base.
// Missing keys keep their base values.
func LoadWeightOverrides(base ScoringConfig, path string) (ScoringConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, eris.Wrap(err, "config: read weights file")
	}
	// Unmarshal into a copy so a malformed file leaves base intact.
	merged := base
	if err := yaml.Unmarshal(data, &merged); err != nil {
		return base, eris.Wrap(err, "config: parse weights file")
	}
	if err := ValidateScoring(merged); err != nil {
		return base, err
	}
	return merged, nil
}

// ValidateScoring checks that a ScoringConfig is internally consistent.
// Violations here are contract errors and should fail loudly at startup.
func ValidateScoring(c ScoringConfig) error {
	var errs []string

	checkSum := func(name string, tolerance float64, parts ...float64) {
		sum := 0.0
		for _, p := range parts {
			if p < 0 {
				errs = append(errs, fmt.Sprintf("%s has a negative weight", name))
				return
			}
			sum += p
		}
		if math.Abs(sum-1.0) > tolerance {
			errs = append(errs, fmt.Sprintf("%s weights should sum to 1.0, got %.4f", name, sum))
		}
	}

	t := c.Response.Total
	checkSum("response.total", 1e-6, t.Relevance, t.Confidence, t.Clarity, t.Engagement, t.Substance, t.JobFit)

	r := c.Response.Relevance
	checkSum("relevance blend", 1e-6, r.TranscriptWeight, r.AudioWeight)
	checkSum("relevance transcript", 1e-6, r.SemanticSimilarity, r.TopicFocus)
	checkSum("relevance audio", 1e-6, r.WordConfidence, r.SpeechRateFit)

	cf := c.Response.Confidence
	checkSum("confidence blend", 1e-6, cf.TranscriptWeight, cf.AudioWeight)
	checkSum("confidence transcript", 1e-6, cf.HedgeInverse, cf.Assertiveness, cf.MagnitudeNorm)
	checkSum("confidence audio", 1e-6, cf.SpeechRateFit, cf.VolumeConsistency, cf.PauseControl, cf.PitchSteadiness, cf.JitterInverse)

	cl := c.Response.Clarity
	checkSum("clarity blend", 1e-6, cl.TranscriptWeight, cl.AudioWeight)
	checkSum("clarity transcript", 1e-6, cl.FillerInverse, cl.SentenceLengthFit, cl.LexicalDiversity)
	checkSum("clarity audio", 1e-6, cl.SNR, cl.SpeechRateFit, cl.JitterInverse)

	en := c.Response.Engagement
	checkSum("engagement blend", 1e-6, en.TranscriptWeight, en.AudioWeight)
	checkSum("engagement transcript", 1e-6, en.Expressiveness, en.SentimentPositivity, en.MagnitudeNorm)
	checkSum("engagement audio", 1e-6, en.VolumeDynamics, en.PitchDynamics, en.PauseInverse)

	d := c.Duplicate
	for name, v := range map[string]float64{
		"duplicate.identifier_high":     d.IdentifierHigh,
		"duplicate.identifier_moderate": d.IdentifierModerate,
		"duplicate.content_exact":       d.ContentExact,
		"duplicate.content_modified":    d.ContentModified,
		"duplicate.content_copied":      d.ContentCopied,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Sprintf("%s must be within [0,1]", name))
		}
	}
	if d.ExactMatchPercent < 0 || d.ExactMatchPercent > 100 {
		errs = append(errs, "duplicate.exact_match_percent must be within [0,100]")
	}
	checkSum("duplicate modified confidence", 1e-6, d.ModifiedIDWeight, d.ModifiedContentWt)

	a := c.Assessment
	checkSum("assessment blend", 1e-6, a.ContentWeight, a.CrossRefWeight)
	checkSum("assessment spam", 1e-6, a.SpamPlausibility, a.SpamSpecificity, a.SpamAIStyle, a.SpamCrossRef)

	if len(errs) > 0 {
		return eris.Errorf("config: scoring validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
