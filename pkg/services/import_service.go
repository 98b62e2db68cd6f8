package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/feed"
	"github.com/huskyplan/catalog-engine/pkg/importer"
	"github.com/huskyplan/catalog-engine/pkg/repositories"
)

// PassState is where an import pass currently is, or how it ended.
type PassState string

const (
	PassIdle        PassState = "idle"
	PassFetching    PassState = "fetching"
	PassNormalizing PassState = "normalizing"
	PassReconciling PassState = "reconciling"
	PassFailed      PassState = "failed"
)

// PassStatus is the observable record of one import pass.
type PassStatus struct {
	PassID     uuid.UUID  `json:"pass_id"`
	State      PassState  `json:"state"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`

	RowsRead        int `json:"rows_read"`
	RowsImported    int `json:"rows_imported"`
	RowsMissingData int `json:"rows_missing_data"`
	RowsUnparsable  int `json:"rows_unparsable"`
	RowsFiltered    int `json:"rows_filtered"`
	RoleConflicts   int `json:"role_conflicts"`

	Courses    int `json:"courses"`
	Sections   int `json:"sections"`
	Meetings   int `json:"meetings"`
	Professors int `json:"professors"`
	Links      int `json:"links"`
}

// RowFetcher retrieves one snapshot of the feed as ordered raw rows.
// feed.Client satisfies this; tests substitute their own.
type RowFetcher interface {
	Fetch(ctx context.Context) ([]feed.RawRow, error)
}

// ImportService drives import passes: fetch the feed snapshot, normalize
// and fold its rows into an entity graph, then atomically replace the
// stored catalog with it. Passes never overlap; a failed pass leaves the
// prior generation untouched and waits for the next trigger.
type ImportService interface {
	// RunPass executes one import pass. Returns apperrors.ErrImportInProgress
	// when a pass is already running. Pass-level failures are returned and
	// recorded in status; row-level defects are only counted.
	RunPass(ctx context.Context) (*PassStatus, error)

	// Status returns the most recent pass record and the time of the last
	// successful reconciliation (zero if none yet).
	Status() (PassStatus, time.Time)

	// RunScheduler runs a pass immediately, then on every interval tick
	// until the context is cancelled. Failures are logged, never returned.
	RunScheduler(ctx context.Context, interval time.Duration)
}

type importService struct {
	fetcher    RowFetcher
	normalizer *importer.Normalizer
	repo       repositories.CatalogRepository
	logger     *zap.Logger

	// passMu serializes passes; triggers during a pass are rejected, not
	// queued.
	passMu sync.Mutex

	statusMu    sync.RWMutex
	last        PassStatus
	lastSuccess time.Time
}

// NewImportService creates an ImportService. A non-empty campus restricts
// imports to that campus's rows.
func NewImportService(
	fetcher RowFetcher,
	repo repositories.CatalogRepository,
	campus string,
	logger *zap.Logger,
) ImportService {
	return &importService{
		fetcher:    fetcher,
		normalizer: importer.NewNormalizer(campus),
		repo:       repo,
		logger:     logger.Named("import-service"),
		last:       PassStatus{State: PassIdle},
	}
}

var _ ImportService = (*importService)(nil)

func (s *importService) RunPass(ctx context.Context) (*PassStatus, error) {
	if !s.passMu.TryLock() {
		return nil, apperrors.ErrImportInProgress
	}
	defer s.passMu.Unlock()

	status := PassStatus{
		PassID:    uuid.New(),
		State:     PassFetching,
		StartedAt: time.Now(),
	}
	s.record(status)
	s.logger.Info("Starting import pass", zap.String("pass_id", status.PassID.String()))

	rawRows, err := s.fetcher.Fetch(ctx)
	if err != nil {
		return s.fail(status, "fetch failed", err)
	}
	status.RowsRead = len(rawRows)

	status.State = PassNormalizing
	s.record(status)

	builder := importer.NewBuilder()
	for _, raw := range rawRows {
		row, rejection := s.normalizer.Normalize(raw)
		if rejection != nil {
			switch rejection.Reason {
			case importer.ReasonMissingField:
				status.RowsMissingData++
			case importer.ReasonParseFailure:
				status.RowsUnparsable++
			case importer.ReasonFiltered:
				status.RowsFiltered++
			}
			continue
		}
		builder.Add(row)
		status.RowsImported++
	}

	graph := builder.Graph()
	status.RoleConflicts = builder.RoleConflicts
	status.Courses = graph.CourseCount()
	status.Sections = graph.SectionCount()
	status.Meetings = graph.MeetingCount()
	status.Professors = graph.ProfessorCount()
	status.Links = graph.LinkCount()

	if builder.RoleConflicts > 0 {
		s.logger.Debug("Conflicting instructor roles kept first sighting",
			zap.Int("conflicts", builder.RoleConflicts))
	}

	status.State = PassReconciling
	s.record(status)

	if err := s.repo.ReplaceCatalog(ctx, graph.Courses, graph.Professors); err != nil {
		return s.fail(status, "reconciliation failed", err)
	}

	now := time.Now()
	status.State = PassIdle
	status.FinishedAt = &now
	s.recordSuccess(status, now)

	s.logger.Info("Import pass complete",
		zap.String("pass_id", status.PassID.String()),
		zap.Int("rows_read", status.RowsRead),
		zap.Int("rows_imported", status.RowsImported),
		zap.Int("rows_missing_data", status.RowsMissingData),
		zap.Int("rows_unparsable", status.RowsUnparsable),
		zap.Int("rows_filtered", status.RowsFiltered),
		zap.Int("courses", status.Courses),
		zap.Int("sections", status.Sections),
		zap.Int("meetings", status.Meetings),
		zap.Int("professors", status.Professors),
		zap.Duration("elapsed", now.Sub(status.StartedAt)))

	return &status, nil
}

func (s *importService) Status() (PassStatus, time.Time) {
	s.statusMu.RLock()
	defer s.statusMu.RUnlock()
	return s.last, s.lastSuccess
}

func (s *importService) RunScheduler(ctx context.Context, interval time.Duration) {
	s.logger.Info("Starting import scheduler", zap.Duration("interval", interval))

	s.runScheduled(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Import scheduler stopped")
			return
		case <-ticker.C:
			s.runScheduled(ctx)
		}
	}
}

func (s *importService) runScheduled(ctx context.Context) {
	if _, err := s.RunPass(ctx); err != nil {
		// The pass is already recorded as failed; the next tick retries.
		s.logger.Warn("Scheduled import pass failed", zap.Error(err))
	}
}

// fail marks the pass failed and records it. The prior generation stays
// queryable; nothing propagates to readers.
func (s *importService) fail(status PassStatus, stage string, err error) (*PassStatus, error) {
	now := time.Now()
	status.State = PassFailed
	status.FinishedAt = &now
	status.Error = err.Error()
	s.record(status)

	s.logger.Error("Import pass failed",
		zap.String("pass_id", status.PassID.String()),
		zap.String("stage", stage),
		zap.Error(err))

	return &status, err
}

func (s *importService) record(status PassStatus) {
	s.statusMu.Lock()
	s.last = status
	s.statusMu.Unlock()
}

func (s *importService) recordSuccess(status PassStatus, at time.Time) {
	s.statusMu.Lock()
	s.last = status
	s.lastSuccess = at
	s.statusMu.Unlock()
}
