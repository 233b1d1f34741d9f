package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edusys-dev/campus-core-api/internal/models"
	appErrors "github.com/edusys-dev/campus-core-api/pkg/errors"
)

type scoreRepo interface {
	ListByEnrollmentSubject(ctx context.Context, tenantID, enrollmentID, subjectID string) ([]models.AssessmentScore, error)
	Upsert(ctx context.Context, score *models.AssessmentScore) error
}

type subjectReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Subject, error)
}

type enrollmentReader interface {
	FindByID(ctx context.Context, tenantID, id string) (*models.Enrollment, error)
}

// UpsertScoreRequest records or replaces one assessment score.
type UpsertScoreRequest struct {
	EnrollmentID string                `json:"enrollment_id" validate:"required"`
	SubjectID    string                `json:"subject_id" validate:"required"`
	Type         models.AssessmentType `json:"type" validate:"required"`
	Value        float64               `json:"value" validate:"min=0,max=20"`
}

// EvaluationService recomputes academic standing from current scores on
// every read; results are never stored as authoritative state.
type EvaluationService struct {
	scores      scoreRepo
	subjects    subjectReader
	enrollments enrollmentReader
	defaults    models.SubjectPolicy
	validator   *validator.Validate
	logger      *zap.Logger
	metrics     *MetricsService
}

// NewEvaluationService constructs EvaluationService. The defaults are the
// deployment-wide grading thresholds applied when a subject defines none.
func NewEvaluationService(scores scoreRepo, subjects subjectReader, enrollments enrollmentReader, defaults models.SubjectPolicy, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *EvaluationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EvaluationService{
		scores:      scores,
		subjects:    subjects,
		enrollments: enrollments,
		defaults:    defaults,
		validator:   validate,
		logger:      logger,
		metrics:     metrics,
	}
}

// EvaluateEnrollment loads scores and policy for the scope and derives the
// evaluation result.
func (s *EvaluationService) EvaluateEnrollment(ctx context.Context, tenantID, enrollmentID, subjectID string) (*models.EnrollmentEvaluation, error) {
	if tenantID == "" || enrollmentID == "" || subjectID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "tenant, enrollment and subject required")
	}
	enrollment, err := s.enrollments.FindByID(ctx, tenantID, enrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	subject, err := s.subjects.FindByID(ctx, tenantID, subjectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	if subject.CourseID != enrollment.CourseID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "subject not part of the enrollment's course")
	}

	scores, err := s.scores.ListByEnrollmentSubject(ctx, tenantID, enrollmentID, subjectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scores")
	}

	policy := subject.PolicyFrom(s.defaults)
	result := Evaluate(models.NewScoreSet(scores), policy)
	if s.metrics != nil {
		s.metrics.IncEvaluations(string(result.Status))
	}
	return &models.EnrollmentEvaluation{
		EnrollmentID: enrollmentID,
		SubjectID:    subjectID,
		Policy:       policy,
		Scores:       scores,
		Result:       result,
	}, nil
}

// UpsertScore records a score, replacing any previous entry of the same type,
// and returns the re-derived evaluation.
func (s *EvaluationService) UpsertScore(ctx context.Context, tenantID string, req UpsertScoreRequest) (*models.EnrollmentEvaluation, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if !models.ValidAssessmentType(req.Type) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assessment type")
	}
	enrollment, err := s.enrollments.FindByID(ctx, tenantID, req.EnrollmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.EnrollmentStatusActive {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "enrollment is not active")
	}

	score := &models.AssessmentScore{
		TenantID:     tenantID,
		EnrollmentID: req.EnrollmentID,
		SubjectID:    req.SubjectID,
		Type:         req.Type,
		Value:        req.Value,
	}
	if err := s.scores.Upsert(ctx, score); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to upsert score")
	}
	s.logger.Debug("score recorded",
		zap.String("enrollment_id", req.EnrollmentID),
		zap.String("subject_id", req.SubjectID),
		zap.String("type", string(req.Type)))

	return s.EvaluateEnrollment(ctx, tenantID, req.EnrollmentID, req.SubjectID)
}
