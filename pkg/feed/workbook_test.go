package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// buildWorkbook renders header + data rows into xlsx bytes.
func buildWorkbook(t *testing.T, header []string, dataRows [][]string) []byte {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close() //nolint:errcheck

	sheet := f.GetSheetName(0)

	headerCells := make([]interface{}, len(header))
	for i, h := range header {
		headerCells[i] = h
	}
	require.NoError(t, f.SetSheetRow(sheet, "A1", &headerCells))

	for i, row := range dataRows {
		cells := make([]interface{}, len(row))
		for j, v := range row {
			cells[j] = v
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &cells))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestParseWorkbook(t *testing.T) {
	header := []string{ColSubjectCode, ColCatalogNumber, ColSection, ColCampus}
	fullHeader := append([]string{}, expectedColumns...)

	t.Run("reads rows in order with cells by header", func(t *testing.T) {
		data := buildWorkbook(t, fullHeader, [][]string{
			{"Fall 2025", "Regular", "Storrs", "CS", "Computer Science", "101"},
			{"Fall 2025", "Regular", "Storrs", "MATH", "Mathematics", "201"},
		})

		rows, err := ParseWorkbook(data)
		require.NoError(t, err)
		require.Len(t, rows, 2)

		assert.Equal(t, "CS", rows[0].Cell(ColSubjectCode))
		assert.Equal(t, "101", rows[0].Cell(ColCatalogNumber))
		assert.Equal(t, "MATH", rows[1].Cell(ColSubjectCode))
		// Cells past the written range read as empty.
		assert.Equal(t, "", rows[0].Cell(ColWaitlistTotal))
	})

	t.Run("missing expected columns is a schema error", func(t *testing.T) {
		data := buildWorkbook(t, header, [][]string{{"CS", "101", "001", "Storrs"}})

		_, err := ParseWorkbook(data)
		var schemaErr *SchemaError
		require.ErrorAs(t, err, &schemaErr)
		assert.Contains(t, schemaErr.Missing, ColInstructorID)
		assert.Contains(t, schemaErr.Missing, ColTimeStart)
		assert.NotContains(t, schemaErr.Missing, ColSubjectCode)
	})

	t.Run("empty workbook is a schema error", func(t *testing.T) {
		f := excelize.NewFile()
		buf, err := f.WriteToBuffer()
		require.NoError(t, err)
		require.NoError(t, f.Close())

		_, err = ParseWorkbook(buf.Bytes())
		var schemaErr *SchemaError
		assert.ErrorAs(t, err, &schemaErr)
	})

	t.Run("garbage bytes fail to open", func(t *testing.T) {
		_, err := ParseWorkbook([]byte("not a workbook"))
		assert.Error(t, err)
	})
}
