package importer

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/huskyplan/catalog-engine/pkg/feed"
	"github.com/huskyplan/catalog-engine/pkg/models"
)

// Row is a feed row after normalization: typed, validated, with sentinel
// "missing" tokens resolved. One Row describes a single (section, meeting,
// instructor) combination.
type Row struct {
	Campus string

	SubjectCode   string
	SubjectDesc   string
	CatalogNumber string
	Description   string
	MinCredits    int
	MaxCredits    int

	SectionCatalog  string
	InstructionType string
	EnrollmentCap   int
	EnrollmentTotal int
	WaitlistCap     int
	WaitlistTotal   int

	Days      models.Weekdays
	TimeStart models.ClockTime
	TimeEnd   models.ClockTime
	Location  *string

	InstructorID   string
	InstructorName string
	InstructorRole string
}

// RejectReason classifies why the normalizer dropped a row.
type RejectReason string

const (
	// ReasonMissingField marks a row whose required field was absent after
	// sentinel substitution.
	ReasonMissingField RejectReason = "missing_field"
	// ReasonParseFailure marks a row with a present but unparsable value.
	ReasonParseFailure RejectReason = "parse_failure"
	// ReasonFiltered marks a row excluded by the campus filter. Not a data
	// defect, tracked separately from the other two.
	ReasonFiltered RejectReason = "filtered"
)

// Rejection carries why a row was dropped and which field triggered it.
// Rejections are counted by the pass, never raised as errors.
type Rejection struct {
	Reason RejectReason
	Field  string
}

func (r *Rejection) String() string {
	if r.Field == "" {
		return string(r.Reason)
	}
	return fmt.Sprintf("%s (%s)", r.Reason, r.Field)
}

// Normalizer turns raw spreadsheet rows into normalized rows, dropping
// rows it cannot make sense of.
type Normalizer struct {
	campus string
}

// NewNormalizer creates a Normalizer. A non-empty campus restricts the
// import to rows for that campus.
func NewNormalizer(campus string) *Normalizer {
	return &Normalizer{campus: campus}
}

// requiredColumns are the fields a row cannot be imported without: they
// identify the course, section, meeting and instructor the row describes.
var requiredColumns = []string{
	feed.ColSubjectCode,
	feed.ColCatalogNumber,
	feed.ColSection,
	feed.ColInstructorID,
	feed.ColTimeStart,
	feed.ColTimeEnd,
	feed.ColMonday,
	feed.ColTuesday,
	feed.ColWednesday,
	feed.ColThursday,
	feed.ColFriday,
	feed.ColSaturday,
	feed.ColSunday,
}

// Normalize converts one raw row. Exactly one of the results is non-nil.
func (n *Normalizer) Normalize(raw feed.RawRow) (*Row, *Rejection) {
	for _, column := range requiredColumns {
		if _, ok := cell(raw, column); !ok {
			return nil, &Rejection{Reason: ReasonMissingField, Field: column}
		}
	}

	campus, _ := cell(raw, feed.ColCampus)
	if n.campus != "" && campus != n.campus {
		return nil, &Rejection{Reason: ReasonFiltered, Field: feed.ColCampus}
	}

	row := &Row{Campus: campus}

	row.SubjectCode, _ = cell(raw, feed.ColSubjectCode)
	row.SubjectDesc = cellOrEmpty(raw, feed.ColSubjectDesc)
	row.CatalogNumber, _ = cell(raw, feed.ColCatalogNumber)
	row.Description = cellOrEmpty(raw, feed.ColDescription)
	row.SectionCatalog, _ = cell(raw, feed.ColSection)
	row.InstructionType = cellOrEmpty(raw, feed.ColInstructionMode)
	row.InstructorID, _ = cell(raw, feed.ColInstructorID)
	row.InstructorName = cellOrEmpty(raw, feed.ColInstructorName)
	row.InstructorRole = cellOrEmpty(raw, feed.ColInstructorRole)

	if location, ok := cell(raw, feed.ColFacility); ok {
		row.Location = &location
	}

	days, rej := parseWeekdays(raw)
	if rej != nil {
		return nil, rej
	}
	row.Days = days

	var err error
	start, _ := cell(raw, feed.ColTimeStart)
	if row.TimeStart, err = models.ParseClockTime(start); err != nil {
		return nil, &Rejection{Reason: ReasonParseFailure, Field: feed.ColTimeStart}
	}
	end, _ := cell(raw, feed.ColTimeEnd)
	if row.TimeEnd, err = models.ParseClockTime(end); err != nil {
		return nil, &Rejection{Reason: ReasonParseFailure, Field: feed.ColTimeEnd}
	}

	for _, f := range []struct {
		column string
		dst    *int
	}{
		{feed.ColMinUnits, &row.MinCredits},
		{feed.ColMaxUnits, &row.MaxCredits},
		{feed.ColEnrollmentCap, &row.EnrollmentCap},
		{feed.ColEnrollmentTotal, &row.EnrollmentTotal},
		{feed.ColWaitlistCap, &row.WaitlistCap},
		{feed.ColWaitlistTotal, &row.WaitlistTotal},
	} {
		value, rej := parseCount(raw, f.column)
		if rej != nil {
			return nil, rej
		}
		*f.dst = value
	}

	// A credit range running backwards is malformed data, and storage
	// enforces the same bound. Reject the row here so one bad row cannot
	// fail the whole pass.
	if row.MinCredits > row.MaxCredits {
		return nil, &Rejection{Reason: ReasonParseFailure, Field: feed.ColMaxUnits}
	}

	return row, nil
}

var weekdayColumns = []struct {
	column string
	day    models.Weekdays
}{
	{feed.ColMonday, models.Monday},
	{feed.ColTuesday, models.Tuesday},
	{feed.ColWednesday, models.Wednesday},
	{feed.ColThursday, models.Thursday},
	{feed.ColFriday, models.Friday},
	{feed.ColSaturday, models.Saturday},
	{feed.ColSunday, models.Sunday},
}

// parseWeekdays folds the seven Y/N flag columns into a Weekdays set.
func parseWeekdays(raw feed.RawRow) (models.Weekdays, *Rejection) {
	var days models.Weekdays
	for _, wc := range weekdayColumns {
		flag, _ := cell(raw, wc.column)
		switch flag {
		case "Y":
			days = days.With(wc.day)
		case "N":
		default:
			return 0, &Rejection{Reason: ReasonParseFailure, Field: wc.column}
		}
	}
	return days, nil
}

// parseCount reads a non-negative integer column. An absent cell counts as
// zero; a present but unparsable or negative one rejects the row.
func parseCount(raw feed.RawRow, column string) (int, *Rejection) {
	s, ok := cell(raw, column)
	if !ok {
		return 0, nil
	}
	value, err := strconv.Atoi(s)
	if err != nil || value < 0 {
		return 0, &Rejection{Reason: ReasonParseFailure, Field: column}
	}
	return value, nil
}

// cell reads a column with sentinel substitution applied: the feed marks
// missing values with a lone period or whitespace, which read as absent.
func cell(raw feed.RawRow, column string) (string, bool) {
	s := strings.TrimSpace(raw.Cell(column))
	if s == "" || s == "." {
		return "", false
	}
	return s, true
}

func cellOrEmpty(raw feed.RawRow, column string) string {
	s, _ := cell(raw, column)
	return s
}
