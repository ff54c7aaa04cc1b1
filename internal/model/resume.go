package model

import "time"

// ResumeFields is the extracted field map of one resume, split by role.
// Identifier fields establish who the applicant claims to be; content fields
// carry the substance that can be copied between resumes.
type ResumeFields struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`

	Bio            string   `json:"bio"`
	Skills         []string `json:"skills"`
	WorkExperience []string `json:"work_experience"`
	Education      []string `json:"education"`
	Projects       []string `json:"projects"`
	Certifications []string `json:"certifications"`
	Links          []string `json:"links"`
}

// Candidate is an applicant on a job, as listed from the store for
// duplicate scanning.
type Candidate struct {
	ID        string       `json:"id"`
	JobID     string       `json:"job_id"`
	Resume    ResumeFields `json:"resume"`
	CreatedAt time.Time    `json:"created_at"`
}

// DuplicateType classifies a duplicate match.
type DuplicateType string

const (
	// ExactDuplicate means the same resume was submitted again.
	ExactDuplicate DuplicateType = "EXACT_DUPLICATE"
	// ModifiedResume means the same person resubmitted with edits.
	ModifiedResume DuplicateType = "MODIFIED_RESUME"
	// CopiedResume means a different identity submitted copied content.
	CopiedResume DuplicateType = "COPIED_RESUME"
)

// FieldChangeKind classifies how a content field changed between two resumes.
type FieldChangeKind string

const (
	FieldEnriched  FieldChangeKind = "enriched"
	FieldReduced   FieldChangeKind = "reduced"
	FieldUnchanged FieldChangeKind = "unchanged"
	FieldRewritten FieldChangeKind = "rewritten"
)

// FieldChange describes one content field's delta in a MODIFIED_RESUME match.
type FieldChange struct {
	Field      string          `json:"field"`
	Kind       FieldChangeKind `json:"kind"`
	Similarity float64         `json:"similarity"`
	LengthOld  int             `json:"length_old"`
	LengthNew  int             `json:"length_new"`
}

// ResumeChanges is the field-level diff attached to modified-resume matches.
type ResumeChanges struct {
	Changes []FieldChange `json:"changes"`
}

// DuplicateCheckResult is the outcome of comparing a new resume against all
// existing candidates on a job. Computed fresh per call; only the single
// highest-confidence match is reported.
type DuplicateCheckResult struct {
	IsDuplicate     bool           `json:"is_duplicate"`
	Type            DuplicateType  `json:"duplicate_type,omitempty"`
	Confidence      float64        `json:"confidence"`
	MatchPercentage float64        `json:"match_percentage"`
	CandidateID     string         `json:"duplicate_candidate_id,omitempty"`
	Changes         *ResumeChanges `json:"resume_changes,omitempty"`
}
