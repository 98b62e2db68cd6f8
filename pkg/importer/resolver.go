package importer

import (
	"github.com/huskyplan/catalog-engine/pkg/models"
)

// Resolver maps normalized rows to entity identities within one pass:
// exact natural-key lookup, create on first sighting, reuse afterwards.
// Attributes are taken from the creating row; later sightings of the same
// key never update them. Resolution is deterministic given row order.
type Resolver struct {
	graph *Graph
}

// NewResolver creates a Resolver over the given in-progress graph.
func NewResolver(graph *Graph) *Resolver {
	return &Resolver{graph: graph}
}

// Course returns the course for the row's (subject code, catalog number),
// creating it on first sighting.
func (r *Resolver) Course(row *Row) *models.Course {
	key := models.CourseKey{SubjectCode: row.SubjectCode, CatalogNumber: row.CatalogNumber}
	if course, ok := r.graph.courses[key]; ok {
		return course
	}

	r.graph.nextCourseID++
	course := &models.Course{
		ID:            r.graph.nextCourseID,
		SubjectCode:   row.SubjectCode,
		SubjectDesc:   row.SubjectDesc,
		CatalogNumber: row.CatalogNumber,
		Description:   row.Description,
		MinCredits:    row.MinCredits,
		MaxCredits:    row.MaxCredits,
	}
	r.graph.courses[key] = course
	r.graph.Courses = append(r.graph.Courses, course)
	return course
}

// Section returns the section for (course, section label), creating it on
// first sighting.
func (r *Resolver) Section(course *models.Course, row *Row) *models.Section {
	key := sectionKey{course: course.Key(), sectionCatalog: row.SectionCatalog}
	if section, ok := r.graph.sections[key]; ok {
		return section
	}

	r.graph.nextSectionID++
	section := &models.Section{
		ID:              r.graph.nextSectionID,
		CourseID:        course.ID,
		SectionCatalog:  row.SectionCatalog,
		InstructionType: row.InstructionType,
		EnrollmentCap:   row.EnrollmentCap,
		EnrollmentTotal: row.EnrollmentTotal,
		WaitlistCap:     row.WaitlistCap,
		WaitlistTotal:   row.WaitlistTotal,
	}
	r.graph.sections[key] = section
	course.Sections = append(course.Sections, section)
	return section
}

// Professor returns the professor for the row's instructor id, creating it
// on first sighting. Professors are global to the pass.
func (r *Resolver) Professor(row *Row) *models.Professor {
	if professor, ok := r.graph.professors[row.InstructorID]; ok {
		return professor
	}

	professor := &models.Professor{
		EmplID: row.InstructorID,
		Name:   row.InstructorName,
	}
	r.graph.professors[row.InstructorID] = professor
	r.graph.Professors = append(r.graph.Professors, professor)
	return professor
}
