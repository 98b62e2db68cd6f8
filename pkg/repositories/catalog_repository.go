package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/huskyplan/catalog-engine/pkg/apperrors"
	"github.com/huskyplan/catalog-engine/pkg/database"
	"github.com/huskyplan/catalog-engine/pkg/models"
)

// CatalogRepository provides data access for the course catalog. The whole
// catalog is one generation: ReplaceCatalog swaps it atomically, GetCourse
// reads from a single committed generation.
type CatalogRepository interface {
	// ReplaceCatalog replaces the previously committed generation with the
	// given graph in one transaction. On error nothing is changed and the
	// prior generation stays queryable.
	ReplaceCatalog(ctx context.Context, courses []*models.Course, professors []*models.Professor) error

	// GetCourse returns the course with its full nested graph, or
	// apperrors.ErrNotFound.
	GetCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error)
}

type catalogRepository struct {
	db *database.DB
}

// NewCatalogRepository creates a CatalogRepository over the given pool.
func NewCatalogRepository(db *database.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

var _ CatalogRepository = (*catalogRepository)(nil)

func (r *catalogRepository) ReplaceCatalog(ctx context.Context, courses []*models.Course, professors []*models.Professor) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback on defer is best-effort

	// Clear the prior generation in FK-safe order. Readers keep seeing it
	// until the commit below.
	for _, table := range []string{"section_professors", "meetings", "sections", "professors", "courses"} {
		if _, err := tx.Exec(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for _, professor := range professors {
		_, err := tx.Exec(ctx,
			"INSERT INTO professors (empl_id, name) VALUES ($1, $2)",
			professor.EmplID, professor.Name)
		if err != nil {
			return fmt.Errorf("failed to insert professor %s: %w", professor.EmplID, err)
		}
	}

	for _, course := range courses {
		if err := r.insertCourse(ctx, tx, course); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// insertCourse writes one course and its nested sections, meetings and
// professor links. Pass-local surrogate ids on the graph are replaced by
// the keys storage assigns.
func (r *catalogRepository) insertCourse(ctx context.Context, tx pgx.Tx, course *models.Course) error {
	err := tx.QueryRow(ctx, `
		INSERT INTO courses (subject_code, subject_desc, catalog_number, description, min_credits, max_credits)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`,
		course.SubjectCode, course.SubjectDesc, course.CatalogNumber,
		course.Description, course.MinCredits, course.MaxCredits,
	).Scan(&course.ID)
	if err != nil {
		return fmt.Errorf("failed to insert course %s %s: %w", course.SubjectCode, course.CatalogNumber, err)
	}

	for _, section := range course.Sections {
		section.CourseID = course.ID
		err := tx.QueryRow(ctx, `
			INSERT INTO sections (course_id, section_catalog, instruction_type,
				enrollment_cap, enrollment_total, waitlist_cap, waitlist_total)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING id`,
			section.CourseID, section.SectionCatalog, section.InstructionType,
			section.EnrollmentCap, section.EnrollmentTotal,
			section.WaitlistCap, section.WaitlistTotal,
		).Scan(&section.ID)
		if err != nil {
			return fmt.Errorf("failed to insert section %s of course %s %s: %w",
				section.SectionCatalog, course.SubjectCode, course.CatalogNumber, err)
		}

		for _, meeting := range section.Meetings {
			meeting.SectionID = section.ID
			err := tx.QueryRow(ctx, `
				INSERT INTO meetings (section_id, days, time_start, time_end, location)
				VALUES ($1, $2, $3, $4, $5)
				RETURNING id`,
				meeting.SectionID, int16(meeting.Days),
				clockToPg(meeting.TimeStart), clockToPg(meeting.TimeEnd),
				meeting.Location,
			).Scan(&meeting.ID)
			if err != nil {
				return fmt.Errorf("failed to insert meeting for section %d: %w", section.ID, err)
			}
		}

		for _, link := range section.Professors {
			link.SectionID = section.ID
			_, err := tx.Exec(ctx, `
				INSERT INTO section_professors (section_id, professor_empl_id, role)
				VALUES ($1, $2, $3)`,
				link.SectionID, link.Professor.EmplID, link.Role)
			if err != nil {
				return fmt.Errorf("failed to link professor %s to section %d: %w",
					link.Professor.EmplID, section.ID, err)
			}
		}
	}

	return nil
}

func (r *catalogRepository) GetCourse(ctx context.Context, subjectCode, catalogNumber string) (*models.Course, error) {
	// Repeatable read pins every statement below to one snapshot, so the
	// nested graph always comes from a single committed generation even if
	// an import commits mid-read.
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin read transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	course := &models.Course{}
	err = tx.QueryRow(ctx, `
		SELECT id, subject_code, subject_desc, catalog_number, description, min_credits, max_credits
		FROM courses
		WHERE subject_code = $1 AND catalog_number = $2`,
		subjectCode, catalogNumber,
	).Scan(&course.ID, &course.SubjectCode, &course.SubjectDesc, &course.CatalogNumber,
		&course.Description, &course.MinCredits, &course.MaxCredits)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query course: %w", err)
	}

	sections, err := r.loadSections(ctx, tx, course.ID)
	if err != nil {
		return nil, err
	}
	course.Sections = sections

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to close read transaction: %w", err)
	}

	return course, nil
}

func (r *catalogRepository) loadSections(ctx context.Context, tx pgx.Tx, courseID int64) ([]*models.Section, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, course_id, section_catalog, instruction_type,
		       enrollment_cap, enrollment_total, waitlist_cap, waitlist_total
		FROM sections
		WHERE course_id = $1
		ORDER BY section_catalog`,
		courseID)
	if err != nil {
		return nil, fmt.Errorf("failed to query sections: %w", err)
	}
	defer rows.Close()

	var sections []*models.Section
	byID := make(map[int64]*models.Section)
	var sectionIDs []int64
	for rows.Next() {
		section := &models.Section{}
		if err := rows.Scan(&section.ID, &section.CourseID, &section.SectionCatalog,
			&section.InstructionType, &section.EnrollmentCap, &section.EnrollmentTotal,
			&section.WaitlistCap, &section.WaitlistTotal); err != nil {
			return nil, fmt.Errorf("failed to scan section: %w", err)
		}
		sections = append(sections, section)
		byID[section.ID] = section
		sectionIDs = append(sectionIDs, section.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read sections: %w", err)
	}
	if len(sections) == 0 {
		return sections, nil
	}

	if err := r.loadMeetings(ctx, tx, sectionIDs, byID); err != nil {
		return nil, err
	}
	if err := r.loadProfessorLinks(ctx, tx, sectionIDs, byID); err != nil {
		return nil, err
	}

	return sections, nil
}

func (r *catalogRepository) loadMeetings(ctx context.Context, tx pgx.Tx, sectionIDs []int64, byID map[int64]*models.Section) error {
	rows, err := tx.Query(ctx, `
		SELECT id, section_id, days, time_start, time_end, location
		FROM meetings
		WHERE section_id = ANY($1)
		ORDER BY id`,
		sectionIDs)
	if err != nil {
		return fmt.Errorf("failed to query meetings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		meeting := &models.Meeting{}
		var days int16
		var start, end pgtype.Time
		if err := rows.Scan(&meeting.ID, &meeting.SectionID, &days, &start, &end, &meeting.Location); err != nil {
			return fmt.Errorf("failed to scan meeting: %w", err)
		}
		meeting.Days = models.Weekdays(days)
		meeting.TimeStart = models.ClockTimeFromMicroseconds(start.Microseconds)
		meeting.TimeEnd = models.ClockTimeFromMicroseconds(end.Microseconds)
		meeting.SetDaysLabel()

		section := byID[meeting.SectionID]
		section.Meetings = append(section.Meetings, meeting)
	}
	return rows.Err()
}

func (r *catalogRepository) loadProfessorLinks(ctx context.Context, tx pgx.Tx, sectionIDs []int64, byID map[int64]*models.Section) error {
	rows, err := tx.Query(ctx, `
		SELECT sp.section_id, sp.role, p.empl_id, p.name
		FROM section_professors sp
		JOIN professors p ON p.empl_id = sp.professor_empl_id
		WHERE sp.section_id = ANY($1)
		ORDER BY sp.section_id, p.empl_id`,
		sectionIDs)
	if err != nil {
		return fmt.Errorf("failed to query section professors: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		link := &models.SectionProfessorLink{Professor: &models.Professor{}}
		if err := rows.Scan(&link.SectionID, &link.Role, &link.Professor.EmplID, &link.Professor.Name); err != nil {
			return fmt.Errorf("failed to scan section professor: %w", err)
		}

		section := byID[link.SectionID]
		section.Professors = append(section.Professors, link)
	}
	return rows.Err()
}

// clockToPg converts a wall-clock time to the pgtype value for a TIME column.
func clockToPg(c models.ClockTime) pgtype.Time {
	return pgtype.Time{Microseconds: c.Microseconds(), Valid: true}
}
