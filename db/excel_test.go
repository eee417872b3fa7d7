package db

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/models"
)

// writeRoster saves rows (header first) to a fresh workbook and returns its path
func writeRoster(t *testing.T, rows [][]any) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(t.TempDir(), "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func tokensOf(s models.Student) []string {
	out := make([]string, len(s.Attendance))
	for i, r := range s.Attendance {
		out[i] = r.String()
	}
	return out
}

func TestOpenRoster(t *testing.T) {
	path := writeRoster(t, [][]any{
		{"ФИО", "01.09", "08.09", "15.09", "22.09"},
		{"Иванов И.И.", "+", 3, "-", "4"},
		{"Сидоров С.С.", 5, 4, 5, 5},
		{},
		{"Петров П.П.", "+"},
	})

	students, err := OpenRoster(path)
	require.NoError(t, err)
	require.Len(t, students, 3)

	assert.Equal(t, "Иванов И.И.", students[0].Name)
	assert.Equal(t, []string{"+", "3", "-", "4"}, tokensOf(students[0]))
	assert.Equal(t, models.RecordGrade, students[0].Attendance[1].Kind)
	assert.Equal(t, 3, students[0].Attendance[1].Grade)

	assert.Equal(t, []string{"5", "4", "5", "5"}, tokensOf(students[1]))

	// Short rows are padded to the full session range
	assert.Equal(t, "Петров П.П.", students[2].Name)
	require.Len(t, students[2].Attendance, 4)
	assert.Equal(t, models.RecordPresent, students[2].Attendance[0].Kind)
	assert.Equal(t, models.RecordUnknown, students[2].Attendance[3].Kind)
}

func TestOpenRoster_HeaderOnly(t *testing.T) {
	students, err := OpenRoster(writeRoster(t, [][]any{{"ФИО", "1", "2"}}))
	require.NoError(t, err)
	assert.Empty(t, students)
}

func TestOpenRoster_MissingFile(t *testing.T) {
	_, err := OpenRoster(filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.ErrorContains(t, err, "failed to open excel file")
}

func TestReadRoster(t *testing.T) {
	data, err := os.ReadFile(writeRoster(t, [][]any{
		{"ФИО", "1"},
		{"Иванов И.И.", "-"},
	}))
	require.NoError(t, err)

	students, err := ReadRoster(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, models.RecordAbsent, students[0].Attendance[0].Kind)

	_, err = ReadRoster(bytes.NewReader([]byte("not a workbook")))
	assert.Error(t, err)
}

func sampleTables() []models.Table {
	students := []models.Student{
		{Name: "Иванов И.И.", Attendance: analyzer.ParseRecords([]string{"+", "4", "3", "-"})},
		{Name: "Сидоров С.С.", Attendance: analyzer.ParseRecords([]string{"+", "4", "5", "5"})},
	}
	report := analyzer.New(analyzer.Options{Threshold: 75, TopN: 1, MaxAbsences: 0}, nil).Analyze(students)
	return analyzer.Tables(report)
}

func TestSaveWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.xlsx")
	require.NoError(t, SaveWorkbook(path, sampleTables()))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{
		analyzer.SheetResults, analyzer.SheetStatistics, analyzer.SheetTop,
		analyzer.SheetProblems, analyzer.SheetAutoPass,
	}, f.GetSheetList())

	rows, err := f.GetRows(analyzer.SheetResults)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ФИО", "Автомат", "Средняя оценка", "Пропуски"},
		{"Иванов И.И.", "Да", "4", "1"},
		{"Сидоров С.С.", "Да", "5", "0"},
	}, rows)

	rows, err = f.GetRows(analyzer.SheetStatistics)
	require.NoError(t, err)
	assert.Equal(t, []string{"4", "87.5"}, rows[1])

	rows, err = f.GetRows(analyzer.SheetTop)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ФИО топ-студента", "Средняя оценка"}, {"Сидоров С.С.", "5"}}, rows)

	rows, err = f.GetRows(analyzer.SheetProblems)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ФИО 'проблемного' студента"}, {"Иванов И.И."}}, rows)

	rows, err = f.GetRows(analyzer.SheetAutoPass)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "0"}, rows[1])
}

func TestSaveWorkbook_NoPartialOutput(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.xlsx")

	assert.ErrorIs(t, SaveWorkbook(path, nil), ErrNoTables)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	assert.Error(t, SaveWorkbook(filepath.Join(dir, "missing", "report.xlsx"), sampleTables()))
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(&buf, sampleTables()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	assert.Len(t, f.GetSheetList(), 5)
}
