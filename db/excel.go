package db

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/models"
)

// ErrNoSheets is returned for workbooks without any worksheet
var ErrNoSheets = errors.New("excel file does not contain any sheets")

// ErrNoTables is returned when asked to write a workbook with nothing in it
var ErrNoTables = errors.New("no tables to write")

// --- Roster Import ---

// OpenRoster reads the roster workbook at path
func OpenRoster(path string) ([]models.Student, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file %s: %w", path, err)
	}
	defer closeWorkbook(f)

	return readRoster(f)
}

// ReadRoster reads a roster workbook from a stream, e.g. an uploaded file
func ReadRoster(r io.Reader) ([]models.Student, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open excel file: %w", err)
	}
	defer closeWorkbook(f)

	return readRoster(f)
}

// readRoster takes students from the active sheet: row 1 is the header, column A the
// student name and every following column one class session.
func readRoster(f *excelize.File) ([]models.Student, error) {
	sheetName := f.GetSheetName(f.GetActiveSheetIndex())
	if sheetName == "" {
		sheetName = f.GetSheetName(0)
	}
	if sheetName == "" {
		return nil, ErrNoSheets
	}

	// Raw values so a grade cell formatted as "4.00" still reads as "4"
	rows, err := f.GetRows(sheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to get rows from sheet %s: %w", sheetName, err)
	}

	// Trailing empty cells are trimmed per row; every student gets the full session range.
	width := 1
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}

	students := []models.Student{}
	for i, row := range rows {
		if i == 0 {
			continue // Skip header row
		}
		if isBlankRow(row) {
			continue
		}

		cells := make([]string, width)
		copy(cells, row)
		students = append(students, models.Student{
			Name:       cells[0],
			Attendance: analyzer.ParseRecords(cells[1:]),
		})
	}
	return students, nil
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// --- Report Export ---

// NewWorkbook lays out the tables as sheets of a new workbook, one table per sheet with
// its header in the first row. The caller closes the returned file.
func NewWorkbook(tables []models.Table) (*excelize.File, error) {
	if len(tables) == 0 {
		return nil, ErrNoTables
	}

	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	for i, table := range tables {
		var err error
		if i == 0 {
			err = f.SetSheetName(defaultSheet, table.Name)
		} else {
			_, err = f.NewSheet(table.Name)
		}
		if err == nil {
			err = writeTable(f, table)
		}
		if err != nil {
			closeWorkbook(f)
			return nil, fmt.Errorf("failed to write sheet %s: %w", table.Name, err)
		}
	}
	f.SetActiveSheet(0)
	return f, nil
}

func writeTable(f *excelize.File, table models.Table) error {
	header := make([]any, len(table.Header))
	for i, h := range table.Header {
		header[i] = h
	}
	if err := f.SetSheetRow(table.Name, "A1", &header); err != nil {
		return err
	}

	for i, row := range table.Rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := row
		if err := f.SetSheetRow(table.Name, cell, &row); err != nil {
			return err
		}
	}
	return nil
}

// WriteWorkbook streams the tables as an xlsx document to w
func WriteWorkbook(w io.Writer, tables []models.Table) error {
	f, err := NewWorkbook(tables)
	if err != nil {
		return err
	}
	defer closeWorkbook(f)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// SaveWorkbook writes the tables to path. The document goes to a temporary file next to
// path first, so a failed run never leaves a half-written report behind.
func SaveWorkbook(path string, tables []models.Table) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rollcall-*.xlsx")
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	tmpName := tmp.Name()

	err = WriteWorkbook(tmp, tables)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, path)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("failed to save workbook %s: %w", path, err)
	}
	return nil
}

func closeWorkbook(f *excelize.File) {
	if err := f.Close(); err != nil {
		slog.Warn("Error closing excel file", slog.String("error", err.Error()))
	}
}
