package models

// Course is one catalog course, identified by (subject code, catalog number).
// A course owns its sections; the nested slices carry the full generation
// graph both during an import pass and when served by the read API.
type Course struct {
	ID            int64      `json:"id"`
	SubjectCode   string     `json:"subject_code"`
	SubjectDesc   string     `json:"subject_desc"`
	CatalogNumber string     `json:"catalog_number"`
	Description   string     `json:"description"`
	MinCredits    int        `json:"min_credits"`
	MaxCredits    int        `json:"max_credits"`
	Sections      []*Section `json:"sections"`
}

// CourseKey is the natural key of a Course.
type CourseKey struct {
	SubjectCode   string
	CatalogNumber string
}

// Key returns the course's natural key.
func (c *Course) Key() CourseKey {
	return CourseKey{SubjectCode: c.SubjectCode, CatalogNumber: c.CatalogNumber}
}

// Section is one offering of a course, identified within its course by the
// section catalog label. Enrollment total may exceed the cap: the registrar
// overenrolls sections, so that is valid data.
type Section struct {
	ID              int64                   `json:"id"`
	CourseID        int64                   `json:"course_id"`
	SectionCatalog  string                  `json:"section_catalog"`
	InstructionType string                  `json:"instruction_type"`
	EnrollmentCap   int                     `json:"enrollment_cap"`
	EnrollmentTotal int                     `json:"enrollment_total"`
	WaitlistCap     int                     `json:"waitlist_cap"`
	WaitlistTotal   int                     `json:"waitlist_total"`
	Meetings        []*Meeting              `json:"meetings"`
	Professors      []*SectionProfessorLink `json:"professors"`
}

// Meeting is one recurring time/place slot of a section. Its identity within
// the section is the full (weekdays, start, end, location) tuple; two feed
// rows producing the same tuple describe the same meeting.
type Meeting struct {
	ID        int64     `json:"id"`
	SectionID int64     `json:"section_id"`
	Days      Weekdays  `json:"-"`
	DaysLabel string    `json:"days"`
	TimeStart ClockTime `json:"-"`
	TimeEnd   ClockTime `json:"-"`
	StartText string    `json:"time_start"`
	EndText   string    `json:"time_end"`
	Location  *string   `json:"location,omitempty"`
}

// Professor is an instructor, identified by the registrar's opaque employee
// id. Professors are global to a generation, not scoped to a course.
type Professor struct {
	EmplID string `json:"empl_id"`
	Name   string `json:"name"`
}

// SectionProfessorLink joins a section to a professor. The (section,
// professor) pair is the identity; the role is payload.
type SectionProfessorLink struct {
	SectionID int64      `json:"-"`
	Professor *Professor `json:"professor"`
	Role      string     `json:"role"`
}

// SetDaysLabel refreshes the serialized forms of the meeting's day set and
// times. Handlers call this before encoding a response.
func (m *Meeting) SetDaysLabel() {
	m.DaysLabel = m.Days.String()
	m.StartText = m.TimeStart.String()
	m.EndText = m.TimeEnd.String()
}
