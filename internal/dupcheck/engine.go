// Package dupcheck implements the resume duplicate scoring engine. A new
// resume is compared field-by-field against every existing candidate on the
// job; a tiered rule table classifies each comparison and the single
// highest-confidence match wins.
package dupcheck

import (
	"context"
	"math"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/model"
	"github.com/RextonRZ/equallens-scoring/internal/textsim"
)

var identifierFields = []string{"name", "email", "phone"}

var contentFields = []string{
	"bio", "skills", "work_experience", "education",
	"projects", "certifications", "links",
}

// Engine classifies resume pairs under a fixed threshold table.
type Engine struct {
	cfg     config.DuplicateConfig
	workers int
}

// NewEngine creates an Engine. workers bounds the concurrent comparisons in
// Scan; values below 1 fall back to serial scanning.
func NewEngine(cfg config.ScoringConfig, workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{cfg: cfg.Duplicate, workers: workers}
}

// comparison holds the per-pair similarity measurements the rule table reads.
type comparison struct {
	identifierSim float64
	contentSim    float64
	maxFieldSim   float64
	matchPercent  float64
	fieldSims     map[string]float64
}

// Scan compares the new resume against every existing candidate and returns
// the highest-confidence duplicate verdict, or a clean result when no tier
// matches. A panic or failure on one candidate skips that candidate only.
func (e *Engine) Scan(ctx context.Context, resume model.ResumeFields, existing []model.Candidate) model.DuplicateCheckResult {
	if len(existing) == 0 {
		return model.DuplicateCheckResult{}
	}

	var mu sync.Mutex
	best := model.DuplicateCheckResult{}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)

	for _, cand := range existing {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					zap.L().Error("dupcheck: comparison panicked, skipping candidate",
						zap.String("candidate_id", cand.ID),
						zap.Any("panic", r),
					)
				}
			}()

			result := e.CompareOne(resume, cand)
			if !result.IsDuplicate {
				return nil
			}
			mu.Lock()
			if result.Confidence > best.Confidence {
				best = result
			}
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return best
}

// CompareOne classifies the new resume against a single existing candidate.
func (e *Engine) CompareOne(resume model.ResumeFields, cand model.Candidate) model.DuplicateCheckResult {
	cmp := e.compare(resume, cand.Resume)
	result := e.classify(cmp)
	if result.IsDuplicate {
		result.CandidateID = cand.ID
		if result.Type == model.ModifiedResume {
			result.Changes = e.diffFields(resume, cand.Resume, cmp.fieldSims)
		}
	}
	return result
}

// compare measures identifier and content similarity between two resumes.
// Fields empty on both sides are excluded from every average.
func (e *Engine) compare(a, b model.ResumeFields) comparison {
	cmp := comparison{fieldSims: make(map[string]float64, len(identifierFields)+len(contentFields))}

	idSims := make([]float64, 0, len(identifierFields))
	for _, f := range identifierFields {
		va, vb := fieldText(a, f), fieldText(b, f)
		if va == "" && vb == "" {
			continue
		}
		sim := identifierSimilarity(va, vb)
		cmp.fieldSims[f] = sim
		idSims = append(idSims, sim)
	}
	cmp.identifierSim = mean(idSims)

	contentSims := make([]float64, 0, len(contentFields))
	for _, f := range contentFields {
		va, vb := fieldText(a, f), fieldText(b, f)
		if va == "" && vb == "" {
			continue
		}
		sim := textsim.Similarity(va, vb)
		cmp.fieldSims[f] = sim
		contentSims = append(contentSims, sim)
		if sim > cmp.maxFieldSim {
			cmp.maxFieldSim = sim
		}
	}
	cmp.contentSim = mean(contentSims)

	// Match percentage averages the non-zero similarities across all compared
	// fields, so one blank field does not mask an otherwise identical resume.
	nonZero := make([]float64, 0, len(cmp.fieldSims))
	for _, s := range cmp.fieldSims {
		if s > 0 {
			nonZero = append(nonZero, s)
		}
	}
	cmp.matchPercent = mean(nonZero) * 100

	return cmp
}

// rule is one row of the ordered classification table: a predicate over the
// measured similarities, the verdict it produces, and its confidence formula.
type rule struct {
	matches    func(cmp comparison) bool
	kind       model.DuplicateType
	confidence func(cmp comparison) float64
}

// rules returns the classification table. Rules are evaluated top-down and
// the first match wins; match_percentage is never re-derived per rule.
func (e *Engine) rules() []rule {
	c := e.cfg
	return []rule{
		// Byte-for-byte resubmission.
		{
			matches:    func(cmp comparison) bool { return cmp.matchPercent >= c.ExactMatchPercent },
			kind:       model.ExactDuplicate,
			confidence: func(comparison) float64 { return 1.0 },
		},
		// Same identity, near-identical content.
		{
			matches: func(cmp comparison) bool {
				return cmp.identifierSim >= c.IdentifierHigh && cmp.contentSim >= c.ContentExact
			},
			kind:       model.ExactDuplicate,
			confidence: func(cmp comparison) float64 { return (cmp.identifierSim + cmp.contentSim) / 2 },
		},
		// Same identity, edited content. Confidence tracks how much of the
		// content survived, not how well the identity matched.
		{
			matches: func(cmp comparison) bool {
				return cmp.identifierSim >= c.IdentifierHigh && cmp.contentSim >= c.ContentModified
			},
			kind:       model.ModifiedResume,
			confidence: func(cmp comparison) float64 { return cmp.contentSim },
		},
		// Copied content, regardless of identity: wholesale copy, or one field
		// lifted with substantial overall overlap.
		{
			matches: func(cmp comparison) bool {
				return cmp.contentSim >= c.ContentCopied ||
					(cmp.maxFieldSim > c.SingleFieldCopied && cmp.contentSim > c.ContentCopiedFloor)
			},
			kind: model.CopiedResume,
			confidence: func(cmp comparison) float64 {
				return math.Max(cmp.contentSim, cmp.maxFieldSim)
			},
		},
		// Moderate identity, edited content.
		{
			matches: func(cmp comparison) bool {
				return cmp.identifierSim >= c.IdentifierModerate && cmp.contentSim >= c.ContentModified
			},
			kind: model.ModifiedResume,
			confidence: func(cmp comparison) float64 {
				return c.ModifiedIDWeight*cmp.identifierSim + c.ModifiedContentWt*cmp.contentSim
			},
		},
	}
}

// classify walks the rule table top-down; the first matching rule wins.
func (e *Engine) classify(cmp comparison) model.DuplicateCheckResult {
	for _, r := range e.rules() {
		if r.matches(cmp) {
			return model.DuplicateCheckResult{
				IsDuplicate:     true,
				Type:            r.kind,
				Confidence:      r.confidence(cmp),
				MatchPercentage: cmp.matchPercent,
			}
		}
	}
	return model.DuplicateCheckResult{MatchPercentage: cmp.matchPercent}
}

// diffFields builds the field-level change report for modified resumes.
func (e *Engine) diffFields(newR, oldR model.ResumeFields, sims map[string]float64) *model.ResumeChanges {
	c := e.cfg
	changes := make([]model.FieldChange, 0, len(contentFields))

	for _, f := range contentFields {
		newText, oldText := fieldText(newR, f), fieldText(oldR, f)
		if newText == "" && oldText == "" {
			continue
		}
		sim := sims[f]
		lenNew, lenOld := len(newText), len(oldText)

		var kind model.FieldChangeKind
		switch {
		case sim >= c.ChangeUnchangedSim:
			kind = model.FieldUnchanged
		case sim < c.ChangeRewrittenSim:
			kind = model.FieldRewritten
		case float64(lenNew) > float64(lenOld)*(1+c.ChangeLengthDeltaPct):
			kind = model.FieldEnriched
		case float64(lenNew) < float64(lenOld)*(1-c.ChangeLengthDeltaPct):
			kind = model.FieldReduced
		default:
			kind = model.FieldRewritten
		}

		changes = append(changes, model.FieldChange{
			Field:      f,
			Kind:       kind,
			Similarity: sim,
			LengthOld:  lenOld,
			LengthNew:  lenNew,
		})
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Field < changes[j].Field })
	return &model.ResumeChanges{Changes: changes}
}

// identifierSimilarity compares identity fields: folded exact match is 1,
// otherwise the usual lexical similarity applies.
func identifierSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	if textsim.Fold(strings.TrimSpace(a)) == textsim.Fold(strings.TrimSpace(b)) {
		return 1
	}
	return textsim.Similarity(a, b)
}

// fieldText flattens one named field into comparable text.
func fieldText(r model.ResumeFields, field string) string {
	switch field {
	case "name":
		return strings.TrimSpace(r.Name)
	case "email":
		return strings.TrimSpace(r.Email)
	case "phone":
		return normalizePhone(r.Phone)
	case "bio":
		return strings.TrimSpace(r.Bio)
	case "skills":
		return joinList(r.Skills)
	case "work_experience":
		return joinList(r.WorkExperience)
	case "education":
		return joinList(r.Education)
	case "projects":
		return joinList(r.Projects)
	case "certifications":
		return joinList(r.Certifications)
	case "links":
		return joinList(r.Links)
	}
	return ""
}

// normalizePhone strips everything but digits so formatting differences
// compare equal.
func normalizePhone(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func joinList(items []string) string {
	trimmed := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			trimmed = append(trimmed, it)
		}
	}
	return strings.Join(trimmed, " ")
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
