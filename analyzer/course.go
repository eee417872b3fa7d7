package analyzer

import (
	"math"
	"sort"

	"rollcall-stats-go/models"
)

// CourseStatistics pools grades and attendance across all students.
func CourseStatistics(students []models.Student) models.CourseStatistics {
	var sum, grades, attended, total int
	for _, s := range students {
		gs, gn := sumGrades(s.Attendance)
		sum += gs
		grades += gn
		attended += countAttended(s.Attendance)
		total += len(s.Attendance)
	}

	return models.CourseStatistics{
		AvgCourseGrade:       roundedMean(sum, grades),
		AttendancePercentage: math.RoundToEven(attendancePercentage(attended, total)*100) / 100,
	}
}

// TopStudents ranks students by average grade, highest first, and returns the first n.
// Students with equal grades keep their roster order.
func TopStudents(students []models.Student, n int) []models.TopStudent {
	ranked := make([]models.TopStudent, len(students))
	for i, s := range students {
		ranked[i] = models.TopStudent{Name: s.Name, AvgGrade: AverageGrade(s.Attendance)}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AvgGrade > ranked[j].AvgGrade
	})

	if n < 0 {
		n = 0
	}
	if n > len(ranked) {
		n = len(ranked)
	}
	return ranked[:n]
}

// StudentsOverAbsenceLimit returns, in roster order, the names of students whose
// absences strictly exceed maxAbsences.
func StudentsOverAbsenceLimit(students []models.Student, maxAbsences int) []string {
	names := []string{}
	for _, s := range students {
		if CountAbsences(s.Attendance) > maxAbsences {
			names = append(names, s.Name)
		}
	}
	return names
}

// CountAutoPass evaluates auto-pass for every student at threshold.
func CountAutoPass(students []models.Student, threshold float64) models.AutoPassTally {
	var tally models.AutoPassTally
	for _, s := range students {
		if AutoPass(s.Attendance, threshold) {
			tally.Passed++
		} else {
			tally.Failed++
		}
	}
	return tally
}
