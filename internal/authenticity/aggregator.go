// Package authenticity folds the content-analysis and cross-referencing
// module results into the final assessment: an overall authenticity score, a
// spam likelihood, and a recruiter-facing summary.
package authenticity

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/normalize"
	"github.com/RextonRZ/equallens-scoring/pkg/claude"
)

// neutralScore substitutes for a module that failed: the candidate is neither
// rewarded nor penalized for an analysis that never ran.
const neutralScore = 0.5

// Aggregator combines module results under a fixed blend table.
type Aggregator struct {
	cfg    config.AssessmentConfig
	writer claude.Client
	model  string
}

// NewAggregator creates an Aggregator. writer may be nil; the summary then
// always uses the deterministic template.
func NewAggregator(cfg config.ScoringConfig, writer claude.Client, summaryModel string) *Aggregator {
	return &Aggregator{cfg: cfg.Assessment, writer: writer, model: summaryModel}
}

// Assess computes the final assessment. It never returns an error: failed
// modules contribute their neutral default and the summary degrades to a
// template.
func (a *Aggregator) Assess(ctx context.Context, content model.AuthenticityAnalysisResult, crossref model.CrossReferencingResult) model.FinalAssessment {
	contentScore := moduleScore(content.ContentModuleScore, content.ErrorMessage)
	crossScore := moduleScore(crossref.CrossRefScore, crossref.ErrorMessage)

	overall := normalize.Clamp01(
		a.cfg.ContentWeight*contentScore + a.cfg.CrossRefWeight*crossScore,
	)

	spam := a.spamLikelihood(content, crossref)

	out := model.FinalAssessment{
		OverallAuthenticityScore: overall,
		SpamLikelihoodScore:      spam,
	}
	out.XAISummary = a.summarize(ctx, out, content, crossref)
	return out
}

// spamLikelihood blends the inverse-risk signals, renormalizing the weights
// over the inputs whose module actually ran. Note the asymmetry with the
// overall score: a failed module is dropped from this blend entirely rather
// than contributing neutralScore, so the surviving signals carry its weight.
// Only when every module failed does the neutral default apply.
func (a *Aggregator) spamLikelihood(content model.AuthenticityAnalysisResult, crossref model.CrossReferencingResult) float64 {
	type signal struct {
		weight float64
		risk   float64
		ok     bool
	}
	signals := []signal{
		{a.cfg.SpamPlausibility, 1 - normalize.Clamp01(content.PlausibilityScore), content.ErrorMessage == ""},
		{a.cfg.SpamSpecificity, 1 - normalize.Clamp01(content.SpecificityScore), content.ErrorMessage == ""},
		{a.cfg.SpamAIStyle, normalize.Clamp01(content.AIStylisticScore), content.ErrorMessage == ""},
		{a.cfg.SpamCrossRef, 1 - normalize.Clamp01(crossref.CrossRefScore), crossref.ErrorMessage == ""},
	}

	weightSum, riskSum := 0.0, 0.0
	for _, s := range signals {
		if !s.ok {
			continue
		}
		weightSum += s.weight
		riskSum += s.weight * s.risk
	}
	if weightSum == 0 {
		return neutralScore
	}
	return normalize.Clamp01(riskSum / weightSum)
}

// summarize asks the text-generation collaborator for a short narrative and
// falls back to the deterministic template on any failure.
func (a *Aggregator) summarize(ctx context.Context, out model.FinalAssessment, content model.AuthenticityAnalysisResult, crossref model.CrossReferencingResult) string {
	fallback := templateSummary(out, content, crossref)
	if a.writer == nil {
		return fallback
	}

	prompt := summaryPrompt(out, content, crossref)
	resp, err := a.writer.CreateMessage(ctx, claude.MessageRequest{
		Model:      a.model,
		MaxTokens:  300,
		System:     "You write two-sentence candidate authenticity summaries for recruiters. Plain language, no scores repeated verbatim, no markdown.",
		UserPrompt: prompt,
	})
	if err != nil {
		zap.L().Warn("authenticity: summary generation failed, using template", zap.Error(err))
		return fallback
	}
	resp.Usage.Log(resp.Model, "authenticity_summary")

	if strings.TrimSpace(resp.Text) == "" {
		return fallback
	}
	return resp.Text
}

func summaryPrompt(out model.FinalAssessment, content model.AuthenticityAnalysisResult, crossref model.CrossReferencingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall authenticity %.2f, spam likelihood %.2f.\n", out.OverallAuthenticityScore, out.SpamLikelihoodScore)
	fmt.Fprintf(&b, "Content analysis: plausibility %.2f, specificity %.2f, AI-style %.2f.\n",
		content.PlausibilityScore, content.SpecificityScore, content.AIStylisticScore)
	fmt.Fprintf(&b, "Cross-referencing: score %.2f, %d verified URLs, %d broken URLs.\n",
		crossref.CrossRefScore, crossref.VerifiedURLs, crossref.BrokenURLs)
	for _, f := range content.Findings {
		fmt.Fprintf(&b, "Finding: %s\n", f)
	}
	for _, f := range crossref.Findings {
		fmt.Fprintf(&b, "Finding: %s\n", f)
	}
	if content.ErrorMessage != "" {
		fmt.Fprintf(&b, "Note: content analysis did not run (%s).\n", content.ErrorMessage)
	}
	if crossref.ErrorMessage != "" {
		fmt.Fprintf(&b, "Note: cross-referencing did not run (%s).\n", crossref.ErrorMessage)
	}
	return b.String()
}

// templateSummary is the deterministic fallback wording.
func templateSummary(out model.FinalAssessment, content model.AuthenticityAnalysisResult, crossref model.CrossReferencingResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Overall authenticity is %s (%.2f) with %s spam likelihood (%.2f).",
		band(out.OverallAuthenticityScore), out.OverallAuthenticityScore,
		band(1-out.SpamLikelihoodScore), out.SpamLikelihoodScore)

	switch {
	case content.ErrorMessage != "":
		b.WriteString(" Content analysis was unavailable and contributed a neutral score.")
	case crossref.BrokenURLs > 0:
		fmt.Fprintf(&b, " %d of the resume's links could not be verified.", crossref.BrokenURLs)
	case crossref.VerifiedURLs > 0:
		fmt.Fprintf(&b, " %d resume links were verified.", crossref.VerifiedURLs)
	}
	if crossref.ErrorMessage != "" {
		b.WriteString(" Cross-referencing was unavailable and contributed a neutral score.")
	}
	return b.String()
}

func band(v float64) string {
	switch {
	case v >= 0.75:
		return "high"
	case v >= 0.45:
		return "moderate"
	default:
		return "low"
	}
}

// moduleScore applies the neutral substitution for failed modules.
func moduleScore(score float64, errMsg string) float64 {
	if errMsg != "" {
		return neutralScore
	}
	return normalize.Clamp01(score)
}
