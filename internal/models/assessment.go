package models

import "time"

// AssessmentType identifies the kind of assessment a score belongs to.
type AssessmentType string

const (
	// AssessmentP1 and AssessmentP2 are the two in-term written tests.
	AssessmentP1 AssessmentType = "P1"
	AssessmentP2 AssessmentType = "P2"
	// AssessmentT1 is the in-term coursework mark.
	AssessmentT1 AssessmentType = "T1"
	// AssessmentExam is the final exam sat by admitted students.
	AssessmentExam AssessmentType = "EXAM"
	// AssessmentResource is the remedial assessment after a failed exam.
	AssessmentResource AssessmentType = "RESOURCE"
)

// ValidAssessmentType reports whether the given type is recognised.
func ValidAssessmentType(t AssessmentType) bool {
	switch t {
	case AssessmentP1, AssessmentP2, AssessmentT1, AssessmentExam, AssessmentResource:
		return true
	}
	return false
}

// AssessmentScore is a single recorded score for an enrollment and subject.
// At most one row exists per (enrollment, subject, type); re-entry replaces it.
type AssessmentScore struct {
	ID           string         `db:"id" json:"id"`
	TenantID     string         `db:"tenant_id" json:"tenant_id"`
	EnrollmentID string         `db:"enrollment_id" json:"enrollment_id"`
	SubjectID    string         `db:"subject_id" json:"subject_id"`
	Type         AssessmentType `db:"type" json:"type"`
	Value        float64        `db:"value" json:"value"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// ScoreSet groups the scores of one enrollment/subject by assessment type.
// A nil field means the assessment has not been recorded; a recorded zero is
// a present value.
type ScoreSet struct {
	P1       *float64
	P2       *float64
	T1       *float64
	Exam     *float64
	Resource *float64
}

// NewScoreSet indexes score rows into a ScoreSet. Later rows win, though the
// storage layer guarantees one row per type.
func NewScoreSet(scores []AssessmentScore) ScoreSet {
	var set ScoreSet
	for i := range scores {
		v := scores[i].Value
		switch scores[i].Type {
		case AssessmentP1:
			set.P1 = &v
		case AssessmentP2:
			set.P2 = &v
		case AssessmentT1:
			set.T1 = &v
		case AssessmentExam:
			set.Exam = &v
		case AssessmentResource:
			set.Resource = &v
		}
	}
	return set
}
