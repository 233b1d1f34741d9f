package models

// Default thresholds applied when a subject defines no policy of its own.
const (
	DefaultWaiverGrade    = 14.0
	DefaultExclusionGrade = 7.0
)

// SubjectPolicy carries the configurable thresholds of the grading policy.
// WaiverGrade exempts from the exam, ExclusionGrade bars from it; both gate
// only the continuous stage. The exam and recurrence pass mark is fixed.
type SubjectPolicy struct {
	WaiverGrade        float64 `db:"waiver_grade" json:"waiver_grade"`
	ExclusionGrade     float64 `db:"exclusion_grade" json:"exclusion_grade"`
	ExamWaiverPossible bool    `db:"exam_waiver_possible" json:"exam_waiver_possible"`
}

// DefaultSubjectPolicy returns the fallback policy.
func DefaultSubjectPolicy() SubjectPolicy {
	return SubjectPolicy{
		WaiverGrade:        DefaultWaiverGrade,
		ExclusionGrade:     DefaultExclusionGrade,
		ExamWaiverPossible: true,
	}
}

// EvaluationStatus is the academic standing derived from recorded scores.
type EvaluationStatus string

const (
	// StatusEnrolled means the continuous grades are incomplete.
	StatusEnrolled EvaluationStatus = "ENROLLED"
	// StatusExcluded means the continuous average fell below the exclusion grade.
	StatusExcluded EvaluationStatus = "EXCLUDED"
	// StatusExempt means the continuous average reached the waiver grade.
	StatusExempt EvaluationStatus = "EXEMPT"
	// StatusAdmitted means the student must sit the exam.
	StatusAdmitted EvaluationStatus = "ADMITTED"
	// StatusApproved means the exam or recurrence stage was passed.
	StatusApproved EvaluationStatus = "APPROVED"
	// StatusRecurrence means the exam was failed and a remedial attempt is open.
	StatusRecurrence EvaluationStatus = "RECURRENCE"
	// StatusFailed means the recurrence stage was also failed.
	StatusFailed EvaluationStatus = "FAILED"
)

// EvaluationResult is derived on every read and never persisted as
// authoritative state.
type EvaluationResult struct {
	Average    *float64         `json:"average"`
	FinalGrade *float64         `json:"final_grade"`
	Status     EvaluationStatus `json:"status"`
}

// EnrollmentEvaluation wraps a result with its scope for API responses.
type EnrollmentEvaluation struct {
	EnrollmentID string           `json:"enrollment_id"`
	SubjectID    string           `json:"subject_id"`
	Policy       SubjectPolicy    `json:"policy"`
	Scores       []AssessmentScore `json:"scores"`
	Result       EvaluationResult `json:"result"`
}
