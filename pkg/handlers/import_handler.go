package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/services"
)

// ImportStatusResponse for GET /api/imports/status
type ImportStatusResponse struct {
	LastPass      services.PassStatus `json:"last_pass"`
	LastSuccessAt *time.Time          `json:"last_success_at,omitempty"`
}

// ImportHandler exposes import pass status and a manual trigger.
type ImportHandler struct {
	importService services.ImportService
	logger        *zap.Logger
}

// NewImportHandler creates a new import handler.
func NewImportHandler(importService services.ImportService, logger *zap.Logger) *ImportHandler {
	return &ImportHandler{
		importService: importService,
		logger:        logger,
	}
}

// RegisterRoutes registers the import handler's routes on the given mux.
func (h *ImportHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/imports/status", h.Status)
	mux.HandleFunc("POST /api/imports", h.Trigger)
}

// Status handles GET /api/imports/status.
func (h *ImportHandler) Status(w http.ResponseWriter, r *http.Request) {
	last, lastSuccess := h.importService.Status()

	response := ImportStatusResponse{LastPass: last}
	if !lastSuccess.IsZero() {
		response.LastSuccessAt = &lastSuccess
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: response}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Trigger handles POST /api/imports. Runs one import pass synchronously and
// returns its record; 409 when a pass is already running. The pass is
// detached from the request context so a client disconnect does not abort
// a reconciliation in flight.
func (h *ImportHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	status, err := h.importService.RunPass(context.WithoutCancel(r.Context()))
	if err != nil {
		if errors.Is(err, apperrors.ErrImportInProgress) {
			if err := ErrorResponse(w, http.StatusConflict, "import_in_progress", err.Error()); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		// The pass failed but was recorded; report its record with the error.
		if status != nil {
			if err := WriteJSON(w, http.StatusBadGateway, ApiResponse{Success: false, Data: status}); err != nil {
				h.logger.Error("Failed to write response", zap.Error(err))
			}
			return
		}
		if err := ErrorResponse(w, http.StatusInternalServerError, "import_failed", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: status}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
