package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/models"
	"github.com/huskyplan/catalog-engine/pkg/repositories"
)

// CatalogService provides read-only course lookups. Results always reflect
// one committed generation, independent of any import in flight.
type CatalogService interface {
	// FindCourse returns the course for (subject code, catalog number) with
	// its sections, meetings and professors, or apperrors.ErrNotFound.
	FindCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error)
}

type catalogService struct {
	repo   repositories.CatalogRepository
	logger *zap.Logger
}

// NewCatalogService creates a CatalogService.
func NewCatalogService(repo repositories.CatalogRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		repo:   repo,
		logger: logger.Named("catalog-service"),
	}
}

var _ CatalogService = (*catalogService)(nil)

func (s *catalogService) FindCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error) {
	subjectCode = strings.TrimSpace(subjectCode)
	catalogNumber = strings.TrimSpace(catalogNumber)
	if subjectCode == "" {
		return nil, fmt.Errorf("subject code is required")
	}
	if catalogNumber == "" {
		return nil, fmt.Errorf("catalog number is required")
	}

	course, err := s.repo.GetCourse(ctx, subjectCode, catalogNumber)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("Course lookup",
		zap.String("subject_code", subjectCode),
		zap.String("catalog_number", catalogNumber),
		zap.Int("sections", len(course.Sections)))

	return course, nil
}
