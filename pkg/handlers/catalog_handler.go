package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/services"
)

// CatalogHandler handles course lookup HTTP requests.
type CatalogHandler struct {
	catalogService services.CatalogService
	logger         *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(catalogService services.CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		catalogService: catalogService,
		logger:         logger,
	}
}

// RegisterRoutes registers the catalog handler's routes on the given mux.
func (h *CatalogHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/courses/{subject}/{catalogNumber}", h.GetCourse)
}

// GetCourse handles GET /api/courses/{subject}/{catalogNumber}.
// Returns the course with its sections, meetings and professors.
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	subject := r.PathValue("subject")
	catalogNumber := r.PathValue("catalogNumber")

	course, err := h.catalogService.FindCourse(r.Context(), subject, catalogNumber)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "course_not_found", "course not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to look up course",
			zap.String("subject_code", subject),
			zap.String("catalog_number", catalogNumber),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "course_lookup_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: course}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
