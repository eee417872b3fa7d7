// Package analyzer derives attendance and grading statistics from a class roster.
//
// Everything here is a pure function over in-memory students. Reading the roster and
// writing the report workbook live in package db; this package only builds rows:
//
//	a := analyzer.New(analyzer.DefaultOptions(), logger)
//	report := a.Analyze(students)
//	tables := analyzer.Tables(report)
//
// Rounding follows half-to-even, so a mean of 2.5 becomes 2 and 3.5 becomes 4.
package analyzer
