package importer

import (
	"github.com/huskyplan/catalog-engine/pkg/models"
)

type sectionKey struct {
	course         models.CourseKey
	sectionCatalog string
}

type meetingKey struct {
	sectionID   int64
	days        models.Weekdays
	start       models.ClockTime
	end         models.ClockTime
	location    string
	hasLocation bool
}

type linkKey struct {
	sectionID int64
	emplID    string
}

// Graph is the in-memory entity graph one import pass builds: every course
// with its nested sections, meetings and professor links, plus the global
// professor set. Slices preserve first-sighting order so a replayed row
// stream reproduces the graph exactly.
type Graph struct {
	Courses    []*models.Course
	Professors []*models.Professor

	courses    map[models.CourseKey]*models.Course
	sections   map[sectionKey]*models.Section
	professors map[string]*models.Professor
	meetings   map[meetingKey]struct{}
	links      map[linkKey]struct{}

	// Pass-local surrogate ids, assigned on creation so rows later in the
	// pass can reference entities before storage assigns real keys.
	nextCourseID  int64
	nextSectionID int64
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		courses:    make(map[models.CourseKey]*models.Course),
		sections:   make(map[sectionKey]*models.Section),
		professors: make(map[string]*models.Professor),
		meetings:   make(map[meetingKey]struct{}),
		links:      make(map[linkKey]struct{}),
	}
}

// CourseCount returns the number of distinct courses in the graph.
func (g *Graph) CourseCount() int { return len(g.Courses) }

// SectionCount returns the number of distinct sections in the graph.
func (g *Graph) SectionCount() int { return len(g.sections) }

// MeetingCount returns the number of distinct meetings in the graph.
func (g *Graph) MeetingCount() int { return len(g.meetings) }

// ProfessorCount returns the number of distinct professors in the graph.
func (g *Graph) ProfessorCount() int { return len(g.Professors) }

// LinkCount returns the number of section-professor links in the graph.
func (g *Graph) LinkCount() int { return len(g.links) }

// Builder folds a stream of normalized rows into a Graph, enforcing the
// dedup rules: one entity per natural key, one meeting per (section, days,
// start, end, location) tuple, one link per (section, professor) pair.
// Entity attributes and link roles are first-wins; rows must be fed in
// feed order.
type Builder struct {
	graph    *Graph
	resolver *Resolver

	// RoleConflicts counts rows whose (section, professor) pair was already
	// linked with a different role. The earlier role stands.
	RoleConflicts int
}

// NewBuilder creates a Builder over a fresh graph.
func NewBuilder() *Builder {
	g := NewGraph()
	return &Builder{graph: g, resolver: NewResolver(g)}
}

// Add folds one normalized row into the graph.
func (b *Builder) Add(row *Row) {
	course := b.resolver.Course(row)
	section := b.resolver.Section(course, row)
	professor := b.resolver.Professor(row)

	b.addMeeting(section, row)
	b.addLink(section, professor, row)
}

// Graph returns the graph built so far.
func (b *Builder) Graph() *Graph {
	return b.graph
}

func (b *Builder) addMeeting(section *models.Section, row *Row) {
	key := meetingKey{
		sectionID: section.ID,
		days:      row.Days,
		start:     row.TimeStart,
		end:       row.TimeEnd,
	}
	if row.Location != nil {
		key.location = *row.Location
		key.hasLocation = true
	}

	if _, seen := b.graph.meetings[key]; seen {
		return
	}
	b.graph.meetings[key] = struct{}{}

	section.Meetings = append(section.Meetings, &models.Meeting{
		SectionID: section.ID,
		Days:      row.Days,
		TimeStart: row.TimeStart,
		TimeEnd:   row.TimeEnd,
		Location:  row.Location,
	})
}

func (b *Builder) addLink(section *models.Section, professor *models.Professor, row *Row) {
	key := linkKey{sectionID: section.ID, emplID: professor.EmplID}
	if _, seen := b.graph.links[key]; seen {
		// First-wins on role. The feed's behavior for conflicting roles on
		// one pair is unspecified upstream, so the conflict is counted
		// instead of silently overwritten.
		for _, link := range section.Professors {
			if link.Professor.EmplID == professor.EmplID && link.Role != row.InstructorRole {
				b.RoleConflicts++
				break
			}
		}
		return
	}
	b.graph.links[key] = struct{}{}

	section.Professors = append(section.Professors, &models.SectionProfessorLink{
		SectionID: section.ID,
		Professor: professor,
		Role:      row.InstructorRole,
	})
}
