package analyzer

import (
	"math"
	"strconv"

	"rollcall-stats-go/models"
)

// ValidateAttendance returns the canonical form of every record: grades carry their
// decimal text and all-digit tokens that were left unclassified become grades.
// Applying it twice gives the same result as applying it once.
func ValidateAttendance(records []models.Record) []models.Record {
	out := make([]models.Record, len(records))
	for i, r := range records {
		rec := models.ParseRecord(r.String())
		if rec.Kind == models.RecordGrade {
			rec.Raw = strconv.Itoa(rec.Grade)
		}
		out[i] = rec
	}
	return out
}

// ParseRecords builds records from raw roster tokens
func ParseRecords(tokens []string) []models.Record {
	out := make([]models.Record, len(tokens))
	for i, t := range tokens {
		out[i] = models.ParseRecord(t)
	}
	return out
}

// AverageGrade returns the rounded mean of the grade records, or 0 when there are none.
func AverageGrade(records []models.Record) int {
	sum, n := sumGrades(records)
	return roundedMean(sum, n)
}

// AutoPass reports whether the attendance percentage reaches thresholdPercent.
// Presence markers and graded sessions both count as attended.
func AutoPass(records []models.Record, thresholdPercent float64) bool {
	return attendancePercentage(countAttended(records), len(records)) >= thresholdPercent
}

// CountAbsences counts the absence markers
func CountAbsences(records []models.Record) int {
	n := 0
	for _, r := range records {
		if r.Kind == models.RecordAbsent {
			n++
		}
	}
	return n
}

func sumGrades(records []models.Record) (sum, n int) {
	for _, r := range records {
		if r.Kind == models.RecordGrade {
			sum += r.Grade
			n++
		}
	}
	return sum, n
}

func countAttended(records []models.Record) int {
	n := 0
	for _, r := range records {
		if r.Attended() {
			n++
		}
	}
	return n
}

func roundedMean(sum, n int) int {
	if n == 0 {
		return 0
	}
	return int(math.RoundToEven(float64(sum) / float64(n)))
}

func attendancePercentage(attended, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(attended) / float64(total) * 100
}
