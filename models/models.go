package models

import (
	"strconv"
	"time"
)

// RecordKind tags what a single attendance slot holds
type RecordKind int

const (
	RecordUnknown RecordKind = iota // Unrecognized token, kept but ignored by the math
	RecordGrade                     // Numeric grade; the session counts as attended
	RecordPresent                   // "+"
	RecordAbsent                    // "-"
)

const (
	PresentMarker = "+"
	AbsentMarker  = "-"
)

// Record is one session's entry in a student's attendance sequence
type Record struct {
	Kind  RecordKind `json:"kind"`
	Grade int        `json:"grade,omitempty"`
	Raw   string     `json:"raw"` // Token as it appeared in the roster
}

// ParseRecord classifies a raw roster token
func ParseRecord(raw string) Record {
	switch {
	case raw == PresentMarker:
		return Record{Kind: RecordPresent, Raw: raw}
	case raw == AbsentMarker:
		return Record{Kind: RecordAbsent, Raw: raw}
	case isDigits(raw):
		n, err := strconv.Atoi(raw)
		if err != nil {
			// All digits but does not fit an int
			return Record{Kind: RecordUnknown, Raw: raw}
		}
		return Record{Kind: RecordGrade, Grade: n, Raw: raw}
	default:
		return Record{Kind: RecordUnknown, Raw: raw}
	}
}

// GradeRecord builds a record from an integer cell value. Negative values have no
// all-digit string form and are kept as unknown tokens.
func GradeRecord(n int) Record {
	if n < 0 {
		return Record{Kind: RecordUnknown, Raw: strconv.Itoa(n)}
	}
	return Record{Kind: RecordGrade, Grade: n, Raw: strconv.Itoa(n)}
}

// String returns the canonical token for the record
func (r Record) String() string {
	switch r.Kind {
	case RecordGrade:
		return strconv.Itoa(r.Grade)
	case RecordPresent:
		return PresentMarker
	case RecordAbsent:
		return AbsentMarker
	default:
		return r.Raw
	}
}

// Attended reports whether the session counts towards attendance.
// Graded sessions count as attended just like presence markers.
func (r Record) Attended() bool {
	return r.Kind == RecordPresent || r.Kind == RecordGrade
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// Student represents a student row of the roster
type Student struct {
	Name       string   `json:"name"`
	Attendance []Record `json:"attendance"` // One slot per class session
}

// AnalysisResult holds the per-student metrics
type AnalysisResult struct {
	Name     string `json:"name"`
	AutoPass bool   `json:"autoPass"`
	AvgGrade int    `json:"avgGrade"`
	Absences int    `json:"absences"`
}

// CourseStatistics holds the course-wide aggregates
type CourseStatistics struct {
	AvgCourseGrade       int     `json:"avgCourseGrade"`
	AttendancePercentage float64 `json:"attendancePercentage"` // Rounded to 2 decimals
}

// TopStudent is one entry of the grade ranking
type TopStudent struct {
	Name     string `json:"name"`
	AvgGrade int    `json:"avgGrade"`
}

// AutoPassTally counts students with and without auto-pass
type AutoPassTally struct {
	Passed int `json:"passed"`
	Failed int `json:"failed"`
}

// Report is the complete analysis of one roster
type Report struct {
	ID              string           `json:"id,omitempty"`      // Set once stored
	ClassID         string           `json:"classId,omitempty"` // Class the roster belongs to, if known
	CreatedAt       time.Time        `json:"createdAt"`
	Threshold       float64          `json:"threshold"`
	Results         []AnalysisResult `json:"results"`
	Statistics      CourseStatistics `json:"statistics"`
	TopStudents     []TopStudent     `json:"topStudents"`
	ProblemStudents []string         `json:"problemStudents"`
	AutoPass        AutoPassTally    `json:"autoPass"`
}

// Table is one named output table of a report
type Table struct {
	Name   string   `json:"name"`
	Header []string `json:"header"`
	Rows   [][]any  `json:"rows"`
}
