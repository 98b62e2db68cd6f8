package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/models"
	"github.com/huskyplan/catalog-engine/pkg/services"
)

// Mock implementations for testing

type mockCatalogService struct {
	course *models.Course
	err    error
}

func (m *mockCatalogService) FindCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.course, nil
}

type mockImportService struct {
	status      *services.PassStatus
	err         error
	last        services.PassStatus
	lastSuccess time.Time

	passCtxErr error
}

func (m *mockImportService) RunPass(ctx context.Context) (*services.PassStatus, error) {
	m.passCtxErr = ctx.Err()
	return m.status, m.err
}

func (m *mockImportService) Status() (services.PassStatus, time.Time) {
	return m.last, m.lastSuccess
}

func (m *mockImportService) RunScheduler(ctx context.Context, interval time.Duration) {}

func newCatalogServer(svc services.CatalogService) *httptest.Server {
	mux := http.NewServeMux()
	NewCatalogHandler(svc, zap.NewNop()).RegisterRoutes(mux)
	return httptest.NewServer(mux)
}

func TestCatalogHandler_GetCourse(t *testing.T) {
	course := &models.Course{
		SubjectCode:   "CS",
		CatalogNumber: "101",
		Description:   "Intro to Computing",
		Sections: []*models.Section{{
			SectionCatalog: "001",
			Professors: []*models.SectionProfessorLink{{
				Professor: &models.Professor{EmplID: "871002", Name: "Grace Hopper"},
				Role:      "PI",
			}},
		}},
	}
	server := newCatalogServer(&mockCatalogService{course: course})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/courses/CS/101")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Success bool          `json:"success"`
		Data    models.Course `json:"data"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Success)
	assert.Equal(t, "CS", body.Data.SubjectCode)
	require.Len(t, body.Data.Sections, 1)
	require.Len(t, body.Data.Sections[0].Professors, 1)
	assert.Equal(t, "Grace Hopper", body.Data.Sections[0].Professors[0].Professor.Name)
}

func TestCatalogHandler_GetCourse_NotFound(t *testing.T) {
	server := newCatalogServer(&mockCatalogService{err: apperrors.ErrNotFound})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/courses/CS/999")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "course_not_found", body["error"])
}

func TestCatalogHandler_GetCourse_ServiceError(t *testing.T) {
	server := newCatalogServer(&mockCatalogService{err: errors.New("connection refused")})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/courses/CS/101")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}
