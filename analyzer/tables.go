package analyzer

import "rollcall-stats-go/models"

// Sheet names of the report workbook, in the order they are written.
const (
	SheetResults    = "Результаты"
	SheetStatistics = "Статистика"
	SheetTop        = "Топ-студенты"
	SheetProblems   = "Проблемные студенты"
	SheetAutoPass   = "Автоматы"
)

const (
	autoPassYes = "Да"
	autoPassNo  = "Нет"
)

// Tables lays out a report as the five output tables.
func Tables(report *models.Report) []models.Table {
	results := models.Table{
		Name:   SheetResults,
		Header: []string{"ФИО", "Автомат", "Средняя оценка", "Пропуски"},
	}
	for _, r := range report.Results {
		results.Rows = append(results.Rows, []any{r.Name, autoPassLabel(r.AutoPass), r.AvgGrade, r.Absences})
	}

	stats := models.Table{
		Name:   SheetStatistics,
		Header: []string{"Средняя оценка по курсу", "Процент посещаемости"},
		Rows: [][]any{
			{report.Statistics.AvgCourseGrade, report.Statistics.AttendancePercentage},
		},
	}

	top := models.Table{
		Name:   SheetTop,
		Header: []string{"ФИО топ-студента", "Средняя оценка"},
	}
	for _, s := range report.TopStudents {
		top.Rows = append(top.Rows, []any{s.Name, s.AvgGrade})
	}

	problems := models.Table{
		Name:   SheetProblems,
		Header: []string{"ФИО 'проблемного' студента"},
	}
	for _, name := range report.ProblemStudents {
		problems.Rows = append(problems.Rows, []any{name})
	}

	autoPass := models.Table{
		Name:   SheetAutoPass,
		Header: []string{"С автоматом", "Без автомата"},
		Rows: [][]any{
			{report.AutoPass.Passed, report.AutoPass.Failed},
		},
	}

	return []models.Table{results, stats, top, problems, autoPass}
}

func autoPassLabel(passed bool) string {
	if passed {
		return autoPassYes
	}
	return autoPassNo
}
