// Package store persists scoring inputs and outputs: candidates per job,
// response score cards, duplicate-check verdicts and final assessments.
// Two drivers exist: sqlite for local runs, postgres for shared deployments.
package store

import (
	"context"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// Store is the persistence interface of the scoring pipeline.
type Store interface {
	// Candidates
	SaveCandidate(ctx context.Context, cand model.Candidate) (string, error)
	ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error)

	// Scoring outputs
	SaveScoreCard(ctx context.Context, candidateID string, card model.ResponseScoreCard) (string, error)
	SaveDuplicateResult(ctx context.Context, jobID, candidateID string, result model.DuplicateCheckResult) error
	SaveAssessment(ctx context.Context, candidateID string, assessment model.FinalAssessment) error
	GetAssessment(ctx context.Context, candidateID string) (*model.FinalAssessment, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
