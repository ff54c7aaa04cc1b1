package model

// AuthenticityAnalysisResult is the content module's findings for one resume.
// The module never fails past its boundary: on error, ErrorMessage is set and
// every score takes the neutral default 0.5.
type AuthenticityAnalysisResult struct {
	ContentModuleScore float64  `json:"content_module_score"`
	PlausibilityScore  float64  `json:"plausibility_score"`
	SpecificityScore   float64  `json:"specificity_score"`
	AIStylisticScore   float64  `json:"ai_stylistic_score"`
	Findings           []string `json:"findings,omitempty"`
	ErrorMessage       string   `json:"content_module_error_message,omitempty"`
}

// CrossReferencingResult is the URL/entity verification module's findings.
type CrossReferencingResult struct {
	CrossRefScore float64  `json:"cross_referencing_score"`
	VerifiedURLs  int      `json:"verified_urls"`
	BrokenURLs    int      `json:"broken_urls"`
	Findings      []string `json:"findings,omitempty"`
	ErrorMessage  string   `json:"cross_referencing_error_message,omitempty"`
}

// FinalAssessment combines the two module results into the overall
// authenticity and spam-likelihood numbers. Always producible: the summary
// falls back to a deterministic template when text generation fails.
type FinalAssessment struct {
	OverallAuthenticityScore float64 `json:"final_overall_authenticity_score"`
	SpamLikelihoodScore      float64 `json:"final_spam_likelihood_score"`
	XAISummary               string  `json:"final_xai_summary"`
}
