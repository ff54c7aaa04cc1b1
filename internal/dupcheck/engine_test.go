package dupcheck

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RextonRZ/equallens-scoring/internal/config"
	"github.com/RextonRZ/equallens-scoring/internal/model"
)

func newTestEngine() *Engine {
	return NewEngine(config.DefaultScoringConfig(), 4)
}

func baseResume() model.ResumeFields {
	return model.ResumeFields{
		Name:  "Alice Smith",
		Email: "alice.smith@example.com",
		Phone: "+1 (555) 010-2030",
		Bio:   "Backend engineer with eight years building payment and billing systems in Go.",
		Skills: []string{
			"Go", "PostgreSQL", "Kubernetes", "gRPC", "distributed systems",
		},
		WorkExperience: []string{
			"Senior engineer at Finch Payments, led the settlement pipeline rebuild",
			"Engineer at Ledger Labs, built the reconciliation service",
		},
		Education: []string{"BSc Computer Science, University of Washington"},
		Projects:  []string{"Open source contributor to a Go database migration tool"},
	}
}

func candidate(id string, r model.ResumeFields) model.Candidate {
	return model.Candidate{ID: id, JobID: "job-1", Resume: r}
}

func TestClassify_TierTable(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name     string
		cmp      comparison
		wantDup  bool
		wantType model.DuplicateType
		wantConf float64
	}{
		{
			name:     "match percentage above exact threshold",
			cmp:      comparison{identifierSim: 1, contentSim: 0.99, matchPercent: 99.6},
			wantDup:  true,
			wantType: model.ExactDuplicate,
			wantConf: 1.0,
		},
		{
			name:     "same identity near identical content averages the two similarities",
			cmp:      comparison{identifierSim: 0.90, contentSim: 0.92, matchPercent: 91},
			wantDup:  true,
			wantType: model.ExactDuplicate,
			wantConf: 0.91,
		},
		{
			name:     "same identity edited content takes content similarity as confidence",
			cmp:      comparison{identifierSim: 0.95, contentSim: 0.70, matchPercent: 78},
			wantDup:  true,
			wantType: model.ModifiedResume,
			wantConf: 0.70,
		},
		{
			name:     "different identity wholesale copied content",
			cmp:      comparison{identifierSim: 0.2, contentSim: 0.85, matchPercent: 66},
			wantDup:  true,
			wantType: model.CopiedResume,
			wantConf: 0.85,
		},
		{
			name:     "high but not exact identity with copied content",
			cmp:      comparison{identifierSim: 0.80, contentSim: 0.85, matchPercent: 84},
			wantDup:  true,
			wantType: model.CopiedResume,
			wantConf: 0.85,
		},
		{
			name:     "different identity single field lifted takes the larger similarity",
			cmp:      comparison{identifierSim: 0.2, contentSim: 0.5, maxFieldSim: 0.95, matchPercent: 48},
			wantDup:  true,
			wantType: model.CopiedResume,
			wantConf: 0.95,
		},
		{
			name:     "same identity single field lifted with low overall content",
			cmp:      comparison{identifierSim: 0.95, contentSim: 0.45, maxFieldSim: 0.50, matchPercent: 55},
			wantDup:  true,
			wantType: model.CopiedResume,
			wantConf: 0.50,
		},
		{
			name:     "moderate identity edited content blends the similarities",
			cmp:      comparison{identifierSim: 0.70, contentSim: 0.65, maxFieldSim: 0.38, matchPercent: 66},
			wantDup:  true,
			wantType: model.ModifiedResume,
			wantConf: 0.4*0.70 + 0.6*0.65,
		},
		{
			name:     "moderate identity copied content classifies as copied",
			cmp:      comparison{identifierSim: 0.7, contentSim: 0.9, maxFieldSim: 0.95, matchPercent: 85},
			wantDup:  true,
			wantType: model.CopiedResume,
			wantConf: 0.95,
		},
		{
			name:    "same identity low content overlap is clean",
			cmp:     comparison{identifierSim: 0.95, contentSim: 0.5, maxFieldSim: 0.38, matchPercent: 60},
			wantDup: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.classify(tt.cmp)
			assert.Equal(t, tt.wantDup, got.IsDuplicate)
			if tt.wantDup {
				assert.Equal(t, tt.wantType, got.Type)
				assert.InDelta(t, tt.wantConf, got.Confidence, 1e-9)
			}
		})
	}
}

func TestClassify_MatchPercentagePassesThroughUnchanged(t *testing.T) {
	e := newTestEngine()

	got := e.classify(comparison{identifierSim: 0.95, contentSim: 0.70, matchPercent: 78})
	require.Equal(t, model.ModifiedResume, got.Type)
	assert.InDelta(t, 78.0, got.MatchPercentage, 1e-9)

	got = e.classify(comparison{identifierSim: 0.70, contentSim: 0.65, matchPercent: 66})
	require.Equal(t, model.ModifiedResume, got.Type)
	assert.InDelta(t, 66.0, got.MatchPercentage, 1e-9)
}

func TestCompareOne_IdenticalResume(t *testing.T) {
	e := newTestEngine()
	got := e.CompareOne(baseResume(), candidate("cand-1", baseResume()))

	require.True(t, got.IsDuplicate)
	assert.Equal(t, model.ExactDuplicate, got.Type)
	assert.Equal(t, 1.0, got.Confidence)
	assert.InDelta(t, 100.0, got.MatchPercentage, 1e-6)
	assert.Equal(t, "cand-1", got.CandidateID)
	assert.Nil(t, got.Changes)
}

func TestCompareOne_CaseAndFormattingInsensitiveIdentifiers(t *testing.T) {
	e := newTestEngine()
	variant := baseResume()
	variant.Name = "ALICE SMITH"
	variant.Email = "Alice.Smith@Example.com"
	variant.Phone = "15550102030"

	got := e.CompareOne(variant, candidate("cand-1", baseResume()))
	require.True(t, got.IsDuplicate)
	assert.Equal(t, model.ExactDuplicate, got.Type)
}

func TestCompareOne_ModifiedResumeReportsChanges(t *testing.T) {
	e := newTestEngine()
	edited := baseResume()
	edited.Bio = "Backend engineer with nine years building payment, billing and fraud systems in Go and Rust."
	edited.WorkExperience = append(edited.WorkExperience,
		"Staff engineer at Finch Payments, owning the ledger platform roadmap and mentoring four engineers")
	edited.Projects = []string{"Maintainer of a Go migration tool"}

	got := e.CompareOne(edited, candidate("cand-1", baseResume()))
	require.True(t, got.IsDuplicate)
	require.Equal(t, model.ModifiedResume, got.Type)
	require.NotNil(t, got.Changes)

	kinds := map[string]model.FieldChangeKind{}
	for _, ch := range got.Changes.Changes {
		kinds[ch.Field] = ch.Kind
	}
	assert.Equal(t, model.FieldUnchanged, kinds["skills"])
	assert.Equal(t, model.FieldUnchanged, kinds["education"])
	assert.Equal(t, model.FieldEnriched, kinds["work_experience"])
}

func TestCompareOne_CopiedContentDifferentIdentity(t *testing.T) {
	e := newTestEngine()
	thief := baseResume()
	thief.Name = "Robert Jones"
	thief.Email = "rjones99@example.net"
	thief.Phone = "+44 20 7946 0999"

	got := e.CompareOne(thief, candidate("cand-1", baseResume()))
	require.True(t, got.IsDuplicate)
	assert.Equal(t, model.CopiedResume, got.Type)
	assert.GreaterOrEqual(t, got.Confidence, 0.40)
}

func TestCompareOne_UnrelatedResumesAreClean(t *testing.T) {
	e := newTestEngine()
	other := model.ResumeFields{
		Name:      "Priya Patel",
		Email:     "priya@example.org",
		Phone:     "+91 98765 43210",
		Bio:       "Pediatric nurse with a decade of clinical experience in neonatal intensive care.",
		Skills:    []string{"patient care", "triage", "clinical documentation"},
		Education: []string{"BSN Nursing, Manipal University"},
	}

	got := e.CompareOne(other, candidate("cand-1", baseResume()))
	assert.False(t, got.IsDuplicate)
	assert.Empty(t, got.CandidateID)
}

func TestScan_PicksHighestConfidenceMatch(t *testing.T) {
	e := newTestEngine()

	edited := baseResume()
	edited.Bio = "Backend engineer with eight years building payment systems, now focused on fraud detection platforms."

	existing := []model.Candidate{
		candidate("older-edit", edited),
		candidate("exact", baseResume()),
	}

	got := e.Scan(context.Background(), baseResume(), existing)
	require.True(t, got.IsDuplicate)
	assert.Equal(t, "exact", got.CandidateID)
	assert.Equal(t, 1.0, got.Confidence)
}

func TestScan_NoExistingCandidates(t *testing.T) {
	e := newTestEngine()
	got := e.Scan(context.Background(), baseResume(), nil)
	assert.False(t, got.IsDuplicate)
	assert.Zero(t, got.Confidence)
}

func TestScan_SerialFallback(t *testing.T) {
	e := NewEngine(config.DefaultScoringConfig(), 0)
	got := e.Scan(context.Background(), baseResume(), []model.Candidate{candidate("cand-1", baseResume())})
	assert.True(t, got.IsDuplicate)
}
