package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/feed"
	"github.com/huskyplan/catalog-engine/pkg/models"
)

// Mock implementations for testing

type mockFetcher struct {
	rows  []feed.RawRow
	err   error
	block chan struct{} // when non-nil, Fetch waits until closed
}

func (m *mockFetcher) Fetch(ctx context.Context) ([]feed.RawRow, error) {
	if m.block != nil {
		<-m.block
	}
	return m.rows, m.err
}

type mockCatalogRepo struct {
	mu           sync.Mutex
	replaceErr   error
	replaceCalls int
	courses      []*models.Course
	professors   []*models.Professor
}

func (m *mockCatalogRepo) ReplaceCatalog(ctx context.Context, courses []*models.Course, professors []*models.Professor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replaceCalls++
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.courses = courses
	m.professors = professors
	return nil
}

func (m *mockCatalogRepo) GetCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, course := range m.courses {
		if course.SubjectCode == subjectCode && course.CatalogNumber == catalogNumber {
			return course, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// rawRow builds a complete feed row, with overrides applied on top.
func rawRow(overrides map[string]string) feed.RawRow {
	cells := map[string]string{
		feed.ColTerm:            "Fall 2025",
		feed.ColSession:         "Regular",
		feed.ColCampus:          "Storrs",
		feed.ColSubjectCode:     "CS",
		feed.ColSubjectDesc:     "Computer Science",
		feed.ColCatalogNumber:   "101",
		feed.ColSection:         "001",
		feed.ColComponentCode:   "LEC",
		feed.ColMinUnits:        "3",
		feed.ColMaxUnits:        "3",
		feed.ColDescription:     "Intro to Computing",
		feed.ColMonday:          "Y",
		feed.ColTuesday:         "N",
		feed.ColWednesday:       "Y",
		feed.ColThursday:        "N",
		feed.ColFriday:          "Y",
		feed.ColSaturday:        "N",
		feed.ColSunday:          "N",
		feed.ColTimeStart:       "9:05:00 AM",
		feed.ColTimeEnd:         "9:55:00 AM",
		feed.ColInstructorID:    "871002",
		feed.ColInstructorName:  "Grace Hopper",
		feed.ColInstructorRole:  "PI",
		feed.ColInstructionMode: "In Person",
		feed.ColFacility:        "ITE 127",
		feed.ColEnrollmentCap:   "120",
		feed.ColEnrollmentTotal: "110",
		feed.ColWaitlistCap:     "20",
		feed.ColWaitlistTotal:   "0",
	}
	for k, v := range overrides {
		cells[k] = v
	}
	return feed.NewRawRow(cells)
}

func TestImportService_SuccessfulPass(t *testing.T) {
	fetcher := &mockFetcher{rows: []feed.RawRow{
		rawRow(nil),
		rawRow(map[string]string{feed.ColTuesday: "Y", feed.ColMonday: "N", feed.ColWednesday: "N", feed.ColFriday: "N"}),
		rawRow(map[string]string{feed.ColInstructorID: "."}),     // dropped: missing required field
		rawRow(map[string]string{feed.ColTimeStart: "garbage"}),  // dropped: unparsable
		rawRow(map[string]string{feed.ColCampus: "Stamford"}),    // dropped: campus filter
	}}
	repo := &mockCatalogRepo{}
	svc := NewImportService(fetcher, repo, "Storrs", zap.NewNop())

	status, err := svc.RunPass(context.Background())
	require.NoError(t, err)

	assert.Equal(t, PassIdle, status.State)
	assert.Equal(t, 5, status.RowsRead)
	assert.Equal(t, 2, status.RowsImported)
	assert.Equal(t, 1, status.RowsMissingData)
	assert.Equal(t, 1, status.RowsUnparsable)
	assert.Equal(t, 1, status.RowsFiltered)
	assert.Equal(t, 1, status.Courses)
	assert.Equal(t, 1, status.Sections)
	assert.Equal(t, 2, status.Meetings)
	assert.Equal(t, 1, status.Professors)
	require.NotNil(t, status.FinishedAt)

	assert.Equal(t, 1, repo.replaceCalls)
	require.Len(t, repo.courses, 1)
	assert.Equal(t, "CS", repo.courses[0].SubjectCode)
	require.Len(t, repo.courses[0].Sections, 1)
	assert.Len(t, repo.courses[0].Sections[0].Meetings, 2)

	last, lastSuccess := svc.Status()
	assert.Equal(t, status.PassID, last.PassID)
	assert.False(t, lastSuccess.IsZero())
}

func TestImportService_FetchFailureLeavesStorageUntouched(t *testing.T) {
	// Seed the repo with a prior generation.
	repo := &mockCatalogRepo{courses: []*models.Course{
		{SubjectCode: "CS", CatalogNumber: "101", Description: "prior generation"},
	}}
	fetcher := &mockFetcher{err: errors.New("feed returned HTTP 503")}
	svc := NewImportService(fetcher, repo, "Storrs", zap.NewNop())

	status, err := svc.RunPass(context.Background())
	require.Error(t, err)
	require.NotNil(t, status)
	assert.Equal(t, PassFailed, status.State)
	assert.Contains(t, status.Error, "503")

	// The prior generation is still served, byte for byte.
	assert.Equal(t, 0, repo.replaceCalls)
	course, err := repo.GetCourse(context.Background(), "CS", "101")
	require.NoError(t, err)
	assert.Equal(t, "prior generation", course.Description)

	_, lastSuccess := svc.Status()
	assert.True(t, lastSuccess.IsZero())
}

func TestImportService_SchemaErrorFailsPass(t *testing.T) {
	fetcher := &mockFetcher{err: &feed.SchemaError{Missing: []string{feed.ColInstructorID}}}
	repo := &mockCatalogRepo{}
	svc := NewImportService(fetcher, repo, "Storrs", zap.NewNop())

	status, err := svc.RunPass(context.Background())
	require.Error(t, err)
	var schemaErr *feed.SchemaError
	assert.ErrorAs(t, err, &schemaErr)
	assert.Equal(t, PassFailed, status.State)
	assert.Equal(t, 0, repo.replaceCalls)
}

func TestImportService_ReconcileFailureRecordsFailed(t *testing.T) {
	fetcher := &mockFetcher{rows: []feed.RawRow{rawRow(nil)}}
	repo := &mockCatalogRepo{replaceErr: errors.New("deadlock detected")}
	svc := NewImportService(fetcher, repo, "Storrs", zap.NewNop())

	status, err := svc.RunPass(context.Background())
	require.Error(t, err)
	assert.Equal(t, PassFailed, status.State)
	assert.Equal(t, "deadlock detected", status.Error)
	// Row counts from before the failure are still reported.
	assert.Equal(t, 1, status.RowsImported)

	_, lastSuccess := svc.Status()
	assert.True(t, lastSuccess.IsZero())
}

func TestImportService_ConcurrentPassRejected(t *testing.T) {
	block := make(chan struct{})
	fetcher := &mockFetcher{rows: []feed.RawRow{rawRow(nil)}, block: block}
	repo := &mockCatalogRepo{}
	svc := NewImportService(fetcher, repo, "Storrs", zap.NewNop())

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := svc.RunPass(context.Background())
		assert.NoError(t, err)
	}()

	// Wait until the first pass holds the lock (it is blocked in Fetch).
	require.Eventually(t, func() bool {
		last, _ := svc.Status()
		return last.State == PassFetching
	}, time.Second, 5*time.Millisecond)

	_, err := svc.RunPass(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrImportInProgress)

	close(block)
	<-done
	assert.Equal(t, 1, repo.replaceCalls)
}
