// Package textsim implements the lexical similarity measures used by the
// duplicate detection engine: TF-IDF weighted cosine over a two-document
// corpus, with token Jaccard as the short-text fallback.
package textsim

import (
	"math"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// jaccardTokenThreshold is the token count below which TF-IDF statistics are
// too thin to be meaningful and Jaccard is used instead.
const jaccardTokenThreshold = 4

var foldTransformer = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// Fold lowercases text and strips diacritical marks so that accent and case
// variants compare equal.
func Fold(s string) string {
	out, _, err := transform.String(foldTransformer, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

// Tokenize folds the text and splits it into alphanumeric tokens.
func Tokenize(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Similarity returns a lexical similarity score in [0, 1] for two texts.
// Empty-vs-empty is 1, empty-vs-nonempty is 0. Short texts fall back from
// TF-IDF cosine to token Jaccard.
func Similarity(a, b string) float64 {
	ta := Tokenize(a)
	tb := Tokenize(b)

	switch {
	case len(ta) == 0 && len(tb) == 0:
		return 1.0
	case len(ta) == 0 || len(tb) == 0:
		return 0.0
	}

	if len(ta) < jaccardTokenThreshold || len(tb) < jaccardTokenThreshold {
		return Jaccard(ta, tb)
	}
	return tfidfCosine(ta, tb)
}

// Jaccard computes |A ∩ B| / |A ∪ B| over the distinct token sets.
func Jaccard(a, b []string) float64 {
	setA := make(map[string]struct{}, len(a))
	for _, t := range a {
		setA[t] = struct{}{}
	}
	setB := make(map[string]struct{}, len(b))
	for _, t := range b {
		setB[t] = struct{}{}
	}

	inter := 0
	for t := range setA {
		if _, ok := setB[t]; ok {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 1.0
	}
	return float64(inter) / float64(union)
}

// tfidfCosine treats the two token lists as a two-document corpus, weights
// term frequencies by smoothed inverse document frequency, and returns the
// cosine of the weighted vectors.
func tfidfCosine(a, b []string) float64 {
	tfA := termFreq(a)
	tfB := termFreq(b)

	vocab := make(map[string]struct{}, len(tfA)+len(tfB))
	for t := range tfA {
		vocab[t] = struct{}{}
	}
	for t := range tfB {
		vocab[t] = struct{}{}
	}

	var dot, normA, normB float64
	for t := range vocab {
		df := 0
		if tfA[t] > 0 {
			df++
		}
		if tfB[t] > 0 {
			df++
		}
		// Smoothed IDF keeps shared terms contributing instead of zeroing out.
		idf := math.Log(float64(2+1)/float64(df+1)) + 1

		wa := tfA[t] * idf
		wb := tfB[t] * idf
		dot += wa * wb
		normA += wa * wa
		normB += wb * wb
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

func termFreq(tokens []string) map[string]float64 {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	for t := range tf {
		tf[t] /= float64(len(tokens))
	}
	return tf
}
