package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tastyhouse/backend/internal/models"
)

// ReportService files and resolves moderation reports against recipes.
type ReportService struct {
	db *gorm.DB
}

func NewReportService(db *gorm.DB) *ReportService {
	return &ReportService{db: db}
}

func (s *ReportService) Create(ctx context.Context, recipeID, reporterID uuid.UUID, reason string) (*models.Report, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, newValidationError("report reason is required")
	}

	var recipe models.Recipe
	if err := s.db.WithContext(ctx).Select("id").First(&recipe, "id = ?", recipeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load recipe", Err: err}
	}

	report := &models.Report{
		RecipeID:   recipeID,
		ReporterID: reporterID,
		Reason:     reason,
		Status:     models.ReportStatusOpen,
	}
	if err := s.db.WithContext(ctx).Create(report).Error; err != nil {
		return nil, &PersistenceError{Op: "create report", Err: err}
	}
	return report, nil
}

// List returns reports, optionally filtered by status, newest first.
func (s *ReportService) List(ctx context.Context, status string) ([]models.Report, error) {
	query := s.db.WithContext(ctx).Order("created_at DESC")
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var reports []models.Report
	if err := query.Find(&reports).Error; err != nil {
		return nil, &PersistenceError{Op: "list reports", Err: err}
	}
	return reports, nil
}

// Resolve closes a report as resolved or dismissed.
func (s *ReportService) Resolve(ctx context.Context, reportID, adminID uuid.UUID, status, note string) (*models.Report, error) {
	if status != models.ReportStatusResolved && status != models.ReportStatusDismissed {
		return nil, newValidationError("status must be %q or %q", models.ReportStatusResolved, models.ReportStatusDismissed)
	}

	var report models.Report
	if err := s.db.WithContext(ctx).First(&report, "id = ?", reportID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, &PersistenceError{Op: "load report", Err: err}
	}

	report.Status = status
	report.ResolvedBy = &adminID
	report.AdminNote = note
	if err := s.db.WithContext(ctx).Save(&report).Error; err != nil {
		return nil, &PersistenceError{Op: "save report", Err: err}
	}
	return &report, nil
}
