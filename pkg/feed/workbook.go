package feed

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Column headers of the registrar workbook. The feed is a denormalized
// table: one row per (section, meeting, instructor) combination.
const (
	ColTerm            = "Term"
	ColSession         = "Session"
	ColCampus          = "Campus"
	ColSubjectCode     = "Subject Code"
	ColSubjectDesc     = "Subject Desc"
	ColCatalogNumber   = "Catalog Nbr"
	ColSection         = "Section"
	ColComponentCode   = "Component Code"
	ColMinUnits        = "Units Minimum"
	ColMaxUnits        = "Units Maximum"
	ColDescription     = "Course Descr"
	ColMonday          = "Monday"
	ColTuesday         = "Tuesday"
	ColWednesday       = "Wednesday"
	ColThursday        = "Thursday"
	ColFriday          = "Friday"
	ColSaturday        = "Saturday"
	ColSunday          = "Sunday"
	ColTimeStart       = "Meeting Time Start"
	ColTimeEnd         = "Meeting Time End"
	ColInstructorID    = "Instructor EmplID"
	ColInstructorName  = "Instructor Name"
	ColInstructorRole  = "Instructor Role"
	ColInstructionMode = "Instruction Mode"
	ColFacility        = "Facility Desc"
	ColEnrollmentCap   = "Enrl Cap"
	ColEnrollmentTotal = "Enrl Tot"
	ColWaitlistCap     = "Wait Cap"
	ColWaitlistTotal   = "Wait Tot"
)

// expectedColumns is every header the normalizer reads. A workbook missing
// any of these has changed shape upstream and the pass must fail rather
// than import a partial view.
var expectedColumns = []string{
	ColTerm, ColSession, ColCampus,
	ColSubjectCode, ColSubjectDesc, ColCatalogNumber, ColSection,
	ColComponentCode, ColMinUnits, ColMaxUnits, ColDescription,
	ColMonday, ColTuesday, ColWednesday, ColThursday, ColFriday, ColSaturday, ColSunday,
	ColTimeStart, ColTimeEnd,
	ColInstructorID, ColInstructorName, ColInstructorRole,
	ColInstructionMode, ColFacility,
	ColEnrollmentCap, ColEnrollmentTotal, ColWaitlistCap, ColWaitlistTotal,
}

// RawRow is one spreadsheet row keyed by column header, cells as raw text.
type RawRow struct {
	cells map[string]string
}

// Cell returns the raw text of the named column, empty if the row has no
// value there (trailing cells are omitted by the xlsx format).
func (r RawRow) Cell(column string) string {
	return r.cells[column]
}

// SchemaError reports expected columns absent from the workbook header row.
// It is a pass-fatal structural defect, not a row-level one.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("workbook is missing expected columns: %s", strings.Join(e.Missing, ", "))
}

// ParseWorkbook decodes an xlsx document into raw rows, preserving the
// spreadsheet's row order. The first row of the first sheet must be the
// header row naming every expected column.
func ParseWorkbook(data []byte) ([]RawRow, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close() //nolint:errcheck

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, &SchemaError{Missing: expectedColumns}
	}

	index, err := headerIndex(rows[0])
	if err != nil {
		return nil, err
	}

	raw := make([]RawRow, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make(map[string]string, len(index))
		for column, i := range index {
			if i < len(row) {
				cells[column] = row[i]
			}
		}
		raw = append(raw, RawRow{cells: cells})
	}

	return raw, nil
}

// headerIndex maps each expected column name to its position in the header
// row, failing with a SchemaError listing everything absent.
func headerIndex(header []string) (map[string]int, error) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		positions[strings.TrimSpace(name)] = i
	}

	index := make(map[string]int, len(expectedColumns))
	var missing []string
	for _, column := range expectedColumns {
		i, ok := positions[column]
		if !ok {
			missing = append(missing, column)
			continue
		}
		index[column] = i
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return nil, &SchemaError{Missing: missing}
	}

	return index, nil
}

// NewRawRow builds a row from explicit cell values. Tests use this to feed
// the normalizer without going through an xlsx document.
func NewRawRow(cells map[string]string) RawRow {
	copied := make(map[string]string, len(cells))
	for k, v := range cells {
		copied[k] = v
	}
	return RawRow{cells: copied}
}
