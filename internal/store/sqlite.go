package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/RextonRZ/equallens-scoring/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS candidates (
	id         TEXT PRIMARY KEY,
	job_id     TEXT NOT NULL,
	resume     TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS score_cards (
	id           TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	card         TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS duplicate_checks (
	id           TEXT PRIMARY KEY,
	job_id       TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	result       TEXT NOT NULL,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS assessments (
	candidate_id TEXT PRIMARY KEY,
	assessment   TEXT NOT NULL,
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_candidates_job_id ON candidates(job_id);
CREATE INDEX IF NOT EXISTS idx_score_cards_candidate_id ON score_cards(candidate_id);
CREATE INDEX IF NOT EXISTS idx_duplicate_checks_job_id ON duplicate_checks(job_id);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) SaveCandidate(ctx context.Context, cand model.Candidate) (string, error) {
	if cand.ID == "" {
		cand.ID = uuid.New().String()
	}
	if cand.CreatedAt.IsZero() {
		cand.CreatedAt = time.Now().UTC()
	}

	resumeJSON, err := json.Marshal(cand.Resume)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal resume")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, job_id, resume, created_at) VALUES (?, ?, ?, ?)`,
		cand.ID, cand.JobID, string(resumeJSON), cand.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert candidate")
	}
	return cand.ID, nil
}

func (s *SQLiteStore) ListCandidates(ctx context.Context, jobID string) ([]model.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, job_id, resume, created_at FROM candidates WHERE job_id = ? ORDER BY created_at`,
		jobID,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: list candidates for job %s", jobID)
	}
	defer rows.Close()

	var out []model.Candidate
	for rows.Next() {
		var (
			cand       model.Candidate
			resumeJSON string
		)
		if err := rows.Scan(&cand.ID, &cand.JobID, &resumeJSON, &cand.CreatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan candidate")
		}
		if err := json.Unmarshal([]byte(resumeJSON), &cand.Resume); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal resume for candidate %s", cand.ID)
		}
		out = append(out, cand)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate candidates")
}

func (s *SQLiteStore) SaveScoreCard(ctx context.Context, candidateID string, card model.ResponseScoreCard) (string, error) {
	id := uuid.New().String()
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal score card")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO score_cards (id, candidate_id, card, created_at) VALUES (?, ?, ?, ?)`,
		id, candidateID, string(cardJSON), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: insert score card")
	}
	return id, nil
}

func (s *SQLiteStore) SaveDuplicateResult(ctx context.Context, jobID, candidateID string, result model.DuplicateCheckResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal duplicate result")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO duplicate_checks (id, job_id, candidate_id, result, created_at) VALUES (?, ?, ?, ?, ?)`,
		uuid.New().String(), jobID, candidateID, string(resultJSON), time.Now().UTC(),
	)
	return eris.Wrap(err, "sqlite: insert duplicate result")
}

func (s *SQLiteStore) SaveAssessment(ctx context.Context, candidateID string, assessment model.FinalAssessment) error {
	assessmentJSON, err := json.Marshal(assessment)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal assessment")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO assessments (candidate_id, assessment, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(candidate_id) DO UPDATE SET assessment = excluded.assessment, updated_at = excluded.updated_at`,
		candidateID, string(assessmentJSON), time.Now().UTC(),
	)
	return eris.Wrapf(err, "sqlite: save assessment for candidate %s", candidateID)
}

func (s *SQLiteStore) GetAssessment(ctx context.Context, candidateID string) (*model.FinalAssessment, error) {
	var assessmentJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT assessment FROM assessments WHERE candidate_id = ?`,
		candidateID,
	).Scan(&assessmentJSON)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get assessment for candidate %s", candidateID)
	}

	var out model.FinalAssessment
	if err := json.Unmarshal([]byte(assessmentJSON), &out); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal assessment")
	}
	return &out, nil
}
