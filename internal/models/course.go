package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LateFeeType selects how an overdue surcharge is computed.
type LateFeeType string

const (
	// LateFeeFixed adds a flat amount once the due date passes.
	LateFeeFixed LateFeeType = "FIXED"
	// LateFeePercentage adds a percentage of the invoice amount.
	LateFeePercentage LateFeeType = "PERCENTAGE"
)

// CourseBillingPolicy is the billing window and late-fee rule owned by a course.
type CourseBillingPolicy struct {
	PaymentStartDay int             `db:"payment_start_day" json:"payment_start_day"`
	PaymentEndDay   int             `db:"payment_end_day" json:"payment_end_day"`
	LateFeeValue    decimal.Decimal `db:"late_fee_value" json:"late_fee_value"`
	LateFeeType     LateFeeType     `db:"late_fee_type" json:"late_fee_type"`
}

// Course groups subjects and owns the tuition billing policy.
type Course struct {
	ID            string          `db:"id" json:"id"`
	TenantID      string          `db:"tenant_id" json:"tenant_id"`
	Name          string          `db:"name" json:"name"`
	TuitionAmount decimal.Decimal `db:"tuition_amount" json:"tuition_amount"`
	CourseBillingPolicy
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Subject is taught within a course and owns the grading policy thresholds.
// Nullable policy columns fall back to the defaults in Policy().
type Subject struct {
	ID                 string    `db:"id" json:"id"`
	TenantID           string    `db:"tenant_id" json:"tenant_id"`
	CourseID           string    `db:"course_id" json:"course_id"`
	Name               string    `db:"name" json:"name"`
	WaiverGrade        *float64  `db:"waiver_grade" json:"waiver_grade,omitempty"`
	ExclusionGrade     *float64  `db:"exclusion_grade" json:"exclusion_grade,omitempty"`
	ExamWaiverPossible *bool     `db:"exam_waiver_possible" json:"exam_waiver_possible,omitempty"`
	CreatedAt          time.Time `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time `db:"updated_at" json:"updated_at"`
}

// Policy resolves the subject's grading policy, applying the package
// defaults for unset thresholds.
func (s Subject) Policy() SubjectPolicy {
	return s.PolicyFrom(DefaultSubjectPolicy())
}

// PolicyFrom resolves the grading policy against the provided defaults,
// typically the deployment-configured thresholds.
func (s Subject) PolicyFrom(defaults SubjectPolicy) SubjectPolicy {
	policy := defaults
	if s.WaiverGrade != nil {
		policy.WaiverGrade = *s.WaiverGrade
	}
	if s.ExclusionGrade != nil {
		policy.ExclusionGrade = *s.ExclusionGrade
	}
	if s.ExamWaiverPossible != nil {
		policy.ExamWaiverPossible = *s.ExamWaiverPossible
	}
	return policy
}
