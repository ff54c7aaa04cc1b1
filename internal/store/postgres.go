package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// Pool is the pgxpool surface the store uses; pgxmock satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool Pool
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	cfg.MaxConns = 10
	cfg.MinConns = 2
	cfg.MaxConnLifetime = 30 * time.Minute
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	resume     JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS score_cards (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	card         JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS duplicate_checks (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	result       JSONB NOT NULL,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS assessments (
	candidate_id TEXT PRIMARY KEY,
	assessment   JSONB NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id);
CREATE INDEX IF NOT EXISTS idx_score_cards_candidate_id ON score_cards(candidate_id);
CREATE INDEX IF NOT EXISTS idx_duplicate_checks_job_id ON duplicate_checks(job_id);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func (s *PostgresStore) SaveCandidate(ctx context.Context, cand model.Candidate) (string, error) {
	if cand.ID == "" {
		cand.ID = uuid.New().String()
	}
	if cand.CreatedAt.IsZero() {
		cand.CreatedAt = time.Now().UTC()
	}

	resumeJSON, err := json.Marshal(cand.Resume)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal resume")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO candidates (id, job_id, resume, created_at) VALUES ($1, $2, $3, $4)`,
		cand.ID, cand.JobID, resumeJSON, cand.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert candidate")
	}
	return cand.ID, nil
}

func (s *PostgresStore) ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, job_id, resume, created_at FROM candidates WHERE job_id = $1 ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: list candidates for job %s", jobID)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var (
			cand       model.Candidate
			resumeJSON []byte
		)
		if err := rows.Scan(&cand.ID, &cand.JobID, &resumeJSON, &cand.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan candidate")
		}
		if err := json.Unmarshal(resumeJSON, &cand.Resume); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal resume for candidate %s", cand.ID)
		}
		out = append(out, cand)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate candidates")
}

func (s *PostgresStore) SaveScoreCard(ctx context.Context, candidateID string, card model.ResponseScoreCard) (string, error) {
	id := uuid.New().String()
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal score card")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO score_cards (id, candidate_id, card, created_at) VALUES ($1, $2, $3, $4)`,
		id, candidateID, cardJSON, time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "postgres: insert score card")
	}
	return id, nil
}

func (s *PostgresStore) SaveDuplicateResult(ctx context.Context, jobID, candidateID string, result model.DuplicateCheckResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal duplicate result")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO duplicate_checks (id, job_id, candidate_id, result, created_at) VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), jobID, candidateID, resultJSON, time.Now().UTC(),
	)
	return eris.Wrap(err, "postgres: insert duplicate result")
}

func (s *PostgresStore) SaveAssessment(ctx context.Context, candidateID string, assessment model.FinalAssessment) error {
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal assessment")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO assessments (candidate_id, assessment, updated_at) VALUES ($1, $2, $3)
		 ON CONFLICT (candidate_id) DO UPDATE SET assessment = EXCLUDED.assessment, updated_at = EXCLUDED.updated_at`,
		candidateID, assessmentJSON, time.Now().UTC(),
	)
	return eris.Wrapf(err, "postgres: save assessment for candidate %s", candidateID)
}

func (s *PostgresStore) GetAssessment(ctx context.Context, candidateID string) (*model.FinalAssessment, error) {
	var assessmentJSON []byte
	err := s.pool.QueryRow(ctx,
		`SELECT assessment FROM assessments WHERE candidate_id = $1`,
		candidateID,
	).Scan(&assessmentJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get assessment for candidate %s", candidateID)
	}

	var out model.FinalAssessment
	if err := json.Unmarshal(assessmentJSON, &out); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal assessment")
	}
	return &out, nil
}
