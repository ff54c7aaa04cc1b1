// Package model defines the result types produced by the scoring core.
// Feature sets and score cards are immutable once returned: scorers build a
// value, finalize it, and never mutate it afterwards.
package model

import (
	"strconv"
	"strings"
	"time"
)

// WordTiming is one word from the speech-to-text collaborator with its spoken
// span and recognition confidence.
type WordTiming struct {
	Word       string  `json:"word"`
	StartSec   float64 `json:"start_sec"`
	EndSec     float64 `json:"end_sec"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the consumed contract of the speech-to-text collaborator.
type Transcription struct {
	Transcript  string       `json:"transcript"`
	WordCount   int          `json:"word_count"`
	WordTimings []WordTiming `json:"word_timings,omitempty"`
	Confidence  float64      `json:"confidence"`
}

// ParseWordTimings converts STT wire-format word entries (protobuf-style
// duration strings like "1.200s") into WordTimings. Entries with unparseable
// times are skipped rather than failing the batch.
func ParseWordTimings(raw []map[string]any) []WordTiming {
	out := make([]WordTiming, 0, len(raw))
	for _, m := range raw {
		word, _ := m["word"].(string)
		startRaw, _ := m["startTime"].(string)
		endRaw, _ := m["endTime"].(string)
		conf, _ := m["confidence"].(float64)

		start, okS := parseDurationSec(startRaw)
		end, okE := parseDurationSec(endRaw)
		if !okS || !okE || word == "" {
			continue
		}
		out = append(out, WordTiming{
			Word:       word,
			StartSec:   start,
			EndSec:     end,
			Confidence: conf,
		})
	}
	return out
}

// parseDurationSec parses "1.200s"-style duration strings into seconds.
func parseDurationSec(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.HasSuffix(s, "s") && !strings.HasSuffix(s, "ms") {
		if v, err := strconv.ParseFloat(strings.TrimSuffix(s, "s"), 64); err == nil {
			return v, true
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d.Seconds(), true
	}
	return 0, false
}

// AudioFeatureSet holds the acoustic features extracted from one response.
// A set with DurationSeconds == 0 is the documented degraded sentinel:
// callers flag audio-dependent metrics as degraded instead of failing.
type AudioFeatureSet struct {
	DurationSeconds     float64 `json:"duration_seconds"`
	VolumeMean          float64 `json:"volume_mean"`
	VolumeRelStdDev     float64 `json:"volume_relative_std_dev"`
	SNRDB               float64 `json:"snr_db"`
	PauseRatio          float64 `json:"pause_ratio"`
	PitchMeanHz         float64 `json:"pitch_mean_hz"`
	PitchStdDevHz       float64 `json:"pitch_std_dev_hz"`
	AvgWordConfidence   float64 `json:"avg_word_confidence"`
	SpeechRateWPM       float64 `json:"speech_rate_wpm"`
	WordTimingRelJitter float64 `json:"word_timing_relative_jitter"`
}

// DefaultAudioFeatures returns the neutral fallback set used when audio is
// unreadable or shorter than 0.1s. DurationSeconds stays 0 as the sentinel.
func DefaultAudioFeatures() AudioFeatureSet {
	return AudioFeatureSet{
		DurationSeconds:     0.0,
		VolumeMean:          0.05,
		VolumeRelStdDev:     0.25,
		SNRDB:               20.0,
		PauseRatio:          0.30,
		PitchMeanHz:         150.0,
		PitchStdDevHz:       20.0,
		AvgWordConfidence:   0.75,
		SpeechRateWPM:       150.0,
		WordTimingRelJitter: 0.30,
	}
}

// Degraded reports whether this set is the fallback sentinel.
func (a AudioFeatureSet) Degraded() bool {
	return a.DurationSeconds <= 0
}

// LinguisticFeatureSet holds the text-derived features for one transcript.
// AnalysisError is set (and all other fields defaulted) when extraction fails;
// the failure never propagates as an error.
type LinguisticFeatureSet struct {
	SentimentScore       float64 `json:"sentiment_score"`
	SentimentMagnitude   float64 `json:"sentiment_magnitude"`
	AvgSentenceLength    float64 `json:"avg_sentence_length"`
	StdDevSentenceLength float64 `json:"std_dev_sentence_length"`
	LexicalDiversityTTR  float64 `json:"lexical_diversity_ttr"`
	HedgingRatio         float64 `json:"hedging_ratio"`
	FillerRatio          float64 `json:"filler_ratio"`
	FirstPersonRatio     float64 `json:"first_person_ratio"`
	AssertivenessScore   float64 `json:"assertiveness_score"`
	ExpressivenessScore  float64 `json:"expressiveness_score"`
	TopicFocusScore      float64 `json:"topic_focus_score"`
	AnalysisError        string  `json:"analysis_error,omitempty"`
}

// DefaultLinguisticFeatures returns the neutral set substituted when the NLP
// collaborator fails or the transcript is empty.
func DefaultLinguisticFeatures(analysisError string) LinguisticFeatureSet {
	return LinguisticFeatureSet{
		SentimentScore:       0.0,
		SentimentMagnitude:   0.0,
		AvgSentenceLength:    15.0,
		StdDevSentenceLength: 4.0,
		LexicalDiversityTTR:  0.5,
		HedgingRatio:         0.0,
		FillerRatio:          0.0,
		FirstPersonRatio:     0.0,
		AssertivenessScore:   0.5,
		ExpressivenessScore:  0.5,
		TopicFocusScore:      0.5,
		AnalysisError:        analysisError,
	}
}

// FeatureContribution is one line of a metric's explanation: the observed
// feature, its weighted contribution, and a human-readable rationale.
type FeatureContribution struct {
	Feature      string  `json:"feature"`
	Value        float64 `json:"value"`
	Contribution float64 `json:"contribution"`
	Positive     bool    `json:"positive"`
	Rationale    string  `json:"rationale"`
}

// MetricResult is one scored metric (relevance, confidence, clarity or
// engagement) with its ordered explanation list. Immutable once produced.
type MetricResult struct {
	Score       float64               `json:"score"`
	Explanation []FeatureContribution `json:"explanation"`
}

// SemanticJudgment is the parsed contract of the LLM semantic-judgment
// collaborator. Scores arrive on a 0-10 integer scale.
type SemanticJudgment struct {
	SubstanceScore     int    `json:"substance_score"`
	JobFitScore        int    `json:"job_fit_score"`
	SubstanceReasoning string `json:"substance_reasoning"`
	JobFitReasoning    string `json:"job_fit_reasoning"`
}

// ResponseScoreCard is the terminal result for one interview response.
// It is populated incrementally as upstream tasks complete, then finalized
// (clamped, total computed) and never mutated again.
type ResponseScoreCard struct {
	Relevance  float64 `json:"relevance"`
	Confidence float64 `json:"confidence"`
	Clarity    float64 `json:"clarity"`
	Engagement float64 `json:"engagement"`
	Substance  float64 `json:"substance"`
	JobFit     float64 `json:"job_fit"`
	TotalScore float64 `json:"total_score"`

	// Error carries the first degradation cause, if any. A non-empty Error
	// still accompanies a complete, bounded numeric result.
	Error string `json:"error,omitempty"`

	// Explanation maps each metric name to its rationale list, including
	// "skipped due to ..." entries for degraded inputs.
	Explanation map[string][]FeatureContribution `json:"explanation,omitempty"`
}
