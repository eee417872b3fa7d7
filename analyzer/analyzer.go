package analyzer

import (
	"io"
	"log/slog"
	"time"

	"rollcall-stats-go/models"
)

// Defaults used when the caller does not override them.
const (
	DefaultThreshold   = 75.0
	DefaultTopN        = 3
	DefaultMaxAbsences = 3
)

// Options tune a single analysis run
type Options struct {
	Threshold   float64 // Attendance percentage needed for auto-pass
	TopN        int     // Size of the grade ranking
	MaxAbsences int     // Students above this many absences are flagged
}

// DefaultOptions returns the options of a plain run
func DefaultOptions() Options {
	return Options{
		Threshold:   DefaultThreshold,
		TopN:        DefaultTopN,
		MaxAbsences: DefaultMaxAbsences,
	}
}

// Analyzer turns a roster into a report
type Analyzer struct {
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Analyzer. A nil logger discards all output.
func New(opts Options, logger *slog.Logger) *Analyzer {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Analyzer{
		opts:   opts,
		logger: logger.With(slog.String("component", "analyzer")),
		now:    time.Now,
	}
}

// Options returns the options the analyzer was built with
func (a *Analyzer) Options() Options {
	return a.opts
}

// Analyze runs the whole pipeline over the roster.
func (a *Analyzer) Analyze(students []models.Student) *models.Report {
	a.logger.Info("Analyzing roster",
		slog.Int("students", len(students)),
		slog.Float64("threshold", a.opts.Threshold))

	results := make([]models.AnalysisResult, 0, len(students))
	for _, s := range students {
		attendance := ValidateAttendance(s.Attendance)
		results = append(results, models.AnalysisResult{
			Name:     s.Name,
			AutoPass: AutoPass(attendance, a.opts.Threshold),
			AvgGrade: AverageGrade(attendance),
			Absences: CountAbsences(attendance),
		})
	}

	report := &models.Report{
		CreatedAt:       a.now().UTC(),
		Threshold:       a.opts.Threshold,
		Results:         results,
		Statistics:      CourseStatistics(students),
		TopStudents:     TopStudents(students, a.opts.TopN),
		ProblemStudents: StudentsOverAbsenceLimit(students, a.opts.MaxAbsences),
		AutoPass:        CountAutoPass(students, a.opts.Threshold),
	}

	a.logger.Info("Roster analyzed",
		slog.Int("avg_course_grade", report.Statistics.AvgCourseGrade),
		slog.Float64("attendance_percentage", report.Statistics.AttendancePercentage),
		slog.Int("auto_pass", report.AutoPass.Passed),
		slog.Int("problem_students", len(report.ProblemStudents)))
	return report
}
