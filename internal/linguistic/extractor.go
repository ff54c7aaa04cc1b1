// Package linguistic derives transcript-level language features from the NLP
// collaborator's sentiment and syntax analysis. Like the audio extractor it is
// total: an empty transcript or a collaborator failure yields the neutral
// default feature set with AnalysisError recording the cause.
package linguistic

import (
	"context"
	"math"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/normalize"
	"github.com/RextonRZ/equallens-scoring/pkg/gnl"
)

// Lemma sets matched against lowercased token lemmas.
var (
	hedgingWords = wordSet(
		"maybe", "perhaps", "possibly", "probably", "guess", "think",
		"might", "may", "could", "somewhat", "kind", "sort", "likely",
		"unsure", "assume", "suppose", "apparently", "seem",
	)

	fillerWords = wordSet(
		"um", "uh", "er", "ah", "hmm", "like", "actually", "basically",
		"literally", "well", "okay", "stuff", "anyway",
	)

	assertiveModals = wordSet(
		"will", "must", "shall", "definitely", "certainly", "always",
	)

	definitiveWords = wordSet(
		"know", "confident", "sure", "clearly", "absolutely", "exactly",
		"precisely", "proven", "demonstrated",
	)

	intensifierWords = wordSet(
		"very", "really", "extremely", "incredibly", "absolutely",
		"completely", "totally", "highly", "remarkably", "truly",
	)

	firstPersonWords = wordSet(
		"i", "me", "my", "mine", "myself",
		"we", "us", "our", "ours", "ourselves",
	)
)

func wordSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[w] = struct{}{}
	}
	return set
}

// topFocusLemmas is how many leading content lemmas count toward the lexical
// concentration behind the topic focus score.
const topFocusLemmas = 5

// Extractor computes LinguisticFeatureSet values from transcripts.
type Extractor struct {
	annotator gnl.Annotator
}

// NewExtractor creates an Extractor backed by the given NLP collaborator.
func NewExtractor(annotator gnl.Annotator) *Extractor {
	return &Extractor{annotator: annotator}
}

// Extract analyzes one transcript. It never returns an error; failures
// degrade to DefaultLinguisticFeatures with AnalysisError set.
func (e *Extractor) Extract(ctx context.Context, transcript string) model.LinguisticFeatureSet {
	if strings.TrimSpace(transcript) == "" {
		return model.DefaultLinguisticFeatures("Empty transcript")
	}

	ann, err := e.annotator.Annotate(ctx, transcript)
	if err != nil {
		zap.L().Warn("linguistic: annotation failed, using neutral defaults", zap.Error(err))
		return model.DefaultLinguisticFeatures(err.Error())
	}

	return featuresFromAnnotation(ann)
}

func featuresFromAnnotation(ann *gnl.Annotation) model.LinguisticFeatureSet {
	fs := model.LinguisticFeatureSet{
		SentimentScore:     ann.Sentiment.Score,
		SentimentMagnitude: ann.Sentiment.Magnitude,
	}

	counts := countTokens(ann.Tokens)
	if counts.words == 0 {
		def := model.DefaultLinguisticFeatures("")
		def.SentimentScore = ann.Sentiment.Score
		def.SentimentMagnitude = ann.Sentiment.Magnitude
		return def
	}
	n := float64(counts.words)

	fs.HedgingRatio = float64(counts.hedging) / n
	fs.FillerRatio = float64(counts.filler) / n
	fs.FirstPersonRatio = float64(counts.firstPerson) / n
	fs.LexicalDiversityTTR = float64(len(counts.lemmaFreq)) / n

	fs.AvgSentenceLength, fs.StdDevSentenceLength = sentenceLengthStats(ann.Sentences)

	fs.AssertivenessScore = normalize.Clamp01(
		0.5 -
			2.0*fs.HedgingRatio +
			1.5*float64(counts.assertive)/n +
			1.0*float64(counts.definitive)/n +
			0.1*normalize.Clamp01(ann.Sentiment.Score),
	)

	fs.ExpressivenessScore = normalize.Clamp01(
		0.4*normalize.MinMax(ann.Sentiment.Magnitude, 0, 7) +
			2.0*float64(counts.intensifier)/n +
			0.5*float64(counts.adjAdv)/n +
			0.1*normalize.MinMax(fs.StdDevSentenceLength, 0, 10),
	)

	fs.TopicFocusScore = topicFocus(counts)

	return fs
}

type tokenCounts struct {
	words       int
	hedging     int
	filler      int
	firstPerson int
	assertive   int
	definitive  int
	intensifier int
	adjAdv      int
	lemmaFreq   map[string]int
	contentFreq map[string]int
	content     int
}

// countTokens tallies keyword and part-of-speech counts over non-punctuation
// tokens. Lemma matching is lowercase.
func countTokens(tokens []gnl.Token) tokenCounts {
	c := tokenCounts{
		lemmaFreq:   make(map[string]int),
		contentFreq: make(map[string]int),
	}
	for _, tok := range tokens {
		if tok.PartOfSpeech == "PUNCT" {
			continue
		}
		c.words++

		lemma := strings.ToLower(tok.Lemma)
		if lemma == "" {
			lemma = strings.ToLower(tok.Text)
		}
		c.lemmaFreq[lemma]++

		if _, ok := hedgingWords[lemma]; ok {
			c.hedging++
		}
		if _, ok := fillerWords[lemma]; ok {
			c.filler++
		}
		if _, ok := firstPersonWords[lemma]; ok {
			c.firstPerson++
		}
		if _, ok := assertiveModals[lemma]; ok {
			c.assertive++
		}
		if _, ok := definitiveWords[lemma]; ok {
			c.definitive++
		}
		if _, ok := intensifierWords[lemma]; ok {
			c.intensifier++
		}

		switch tok.PartOfSpeech {
		case "ADJ", "ADV":
			c.adjAdv++
		}
		switch tok.PartOfSpeech {
		case "NOUN", "VERB", "ADJ":
			c.contentFreq[lemma]++
			c.content++
		}
	}
	return c
}

// sentenceLengthStats computes the mean and standard deviation of words per
// sentence, counting words by whitespace splitting of sentence text.
func sentenceLengthStats(sentences []gnl.Sentence) (mean, std float64) {
	def := model.DefaultLinguisticFeatures("")
	if len(sentences) == 0 {
		return def.AvgSentenceLength, def.StdDevSentenceLength
	}

	lengths := make([]float64, 0, len(sentences))
	for _, s := range sentences {
		if n := len(strings.Fields(s.Text)); n > 0 {
			lengths = append(lengths, float64(n))
		}
	}
	if len(lengths) == 0 {
		return def.AvgSentenceLength, def.StdDevSentenceLength
	}

	for _, l := range lengths {
		mean += l
	}
	mean /= float64(len(lengths))
	for _, l := range lengths {
		d := l - mean
		std += d * d
	}
	return mean, math.Sqrt(std / float64(len(lengths)))
}

// topicFocus is a lexical concentration proxy: the fraction of content tokens
// covered by the most frequent content lemmas, rescaled so a typical scattered
// answer lands near the middle of the range.
func topicFocus(c tokenCounts) float64 {
	if c.content == 0 {
		return model.DefaultLinguisticFeatures("").TopicFocusScore
	}

	freqs := make([]int, 0, len(c.contentFreq))
	for _, f := range c.contentFreq {
		freqs = append(freqs, f)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(freqs)))

	top := 0
	for i, f := range freqs {
		if i >= topFocusLemmas {
			break
		}
		top += f
	}
	coverage := float64(top) / float64(c.content)
	return normalize.MinMax(coverage, 0.1, 0.6)
}
