package service

import (
	"math"

	"github.com/edusys-dev/campus-core-api/internal/models"
)

// examPassMark is the fixed pass threshold for the exam and recurrence
// stages. Subject thresholds gate only the continuous stage.
const examPassMark = 10.0

// Evaluate derives the academic standing of one enrollment/subject from its
// recorded scores and the subject's grading policy. It is a total function:
// missing scores degrade to nil fields, never to an error.
//
// Stages:
//  1. All three continuous grades (P1, P2, T1) present, else ENROLLED.
//  2. average = (P1+P2+T1)/3; below the exclusion grade -> EXCLUDED, at or
//     above the waiver grade -> EXEMPT, otherwise ADMITTED.
//  3. With an exam score, (average+EXAM)/2 decides APPROVED vs RECURRENCE.
//  4. With a resource score, RESOURCE replaces EXAM in the same formula and
//     decides APPROVED vs FAILED. (The legacy system had two evaluators that
//     disagreed here; this replacement semantics is the one kept.)
//
// The final grade is rounded to one decimal place. Calling Evaluate twice
// with the same inputs yields identical output.
func Evaluate(scores models.ScoreSet, policy models.SubjectPolicy) models.EvaluationResult {
	if scores.P1 == nil || scores.P2 == nil || scores.T1 == nil {
		return models.EvaluationResult{Status: models.StatusEnrolled}
	}

	average := (*scores.P1 + *scores.P2 + *scores.T1) / 3

	switch {
	case average < policy.ExclusionGrade:
		return terminal(average, average, models.StatusExcluded)
	case policy.ExamWaiverPossible && average >= policy.WaiverGrade:
		return terminal(average, average, models.StatusExempt)
	}

	if scores.Exam == nil {
		return models.EvaluationResult{Average: &average, Status: models.StatusAdmitted}
	}

	examFinal := (average + *scores.Exam) / 2
	if examFinal >= examPassMark {
		return terminal(average, examFinal, models.StatusApproved)
	}

	if scores.Resource == nil {
		return terminal(average, examFinal, models.StatusRecurrence)
	}

	resourceFinal := (average + *scores.Resource) / 2
	if resourceFinal >= examPassMark {
		return terminal(average, resourceFinal, models.StatusApproved)
	}
	return terminal(average, resourceFinal, models.StatusFailed)
}

func terminal(average, finalGrade float64, status models.EvaluationStatus) models.EvaluationResult {
	rounded := roundGrade(finalGrade)
	return models.EvaluationResult{Average: &average, FinalGrade: &rounded, Status: status}
}

func roundGrade(v float64) float64 {
	return math.Round(v*10) / 10
}
