package store

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return &PostgresStore{pool: mock}, mock
}

func TestPostgresStore_SaveCandidate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`INSERT INTO candidates`).
		WithArgs(pgxmock.AnyArg(), "job-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	id, err := s.SaveCandidate(context.Background(), model.Candidate{JobID: "job-1", Resume: testResume()})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_ListCandidates(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	resumeJSON := []byte(`{"name":"Alice Smith","email":"alice@example.com","phone":"","bio":"","skills":["Go"],"work_experience":null,"education":null,"projects":null,"certifications":null,"links":null}`)
	rows := pgxmock.NewRows([]string{"id", "job_id", "resume", "created_at"}).
		AddRow("cand-1", "job-1", resumeJSON, time.Now().UTC())

	mock.ExpectQuery(`SELECT id, job_id, resume, created_at FROM candidates WHERE job_id = \$1`).
		WithArgs("job-1").
		WillReturnRows(rows)

	got, err := s.ListCandidates(context.Background(), "job-1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Alice Smith", got[0].Resume.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetAssessment_NotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT assessment FROM assessments WHERE candidate_id = \$1`).
		WithArgs("cand-1").
		WillReturnError(pgx.ErrNoRows)

	got, err := s.GetAssessment(context.Background(), "cand-1")
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveAssessmentUpsert(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`(?s)INSERT INTO assessments.*ON CONFLICT`).
		WithArgs("cand-1", pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := s.SaveAssessment(context.Background(), "cand-1", model.FinalAssessment{
		OverallAuthenticityScore: 0.73,
		SpamLikelihoodScore:      0.2,
		XAISummary:               "summary",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
