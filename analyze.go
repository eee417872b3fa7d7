package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/db"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		threshold   float64
		topN        int
		maxAbsences int
	)

	cmd := &cobra.Command{
		Use:   "analyze <input.xlsx> <output.xlsx>",
		Short: "Analyze a roster workbook and write the report workbook",
		Example: `  rollcall-stats analyze roster.xlsx report.xlsx
  rollcall-stats analyze roster.xlsx report.xlsx --threshold 60`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if flags.Changed("threshold") {
				a.cfg.Analysis.Threshold = threshold
			}
			if flags.Changed("top") {
				a.cfg.Analysis.TopN = topN
			}
			if flags.Changed("max-absences") {
				a.cfg.Analysis.MaxAbsences = maxAbsences
			}
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return analyzeAndSave(a.logger, analysisOptions(a), args[0], args[1])
		},
	}

	cmd.Flags().Float64Var(&threshold, "threshold", analyzer.DefaultThreshold, "Attendance percentage required for auto-pass")
	cmd.Flags().IntVar(&topN, "top", analyzer.DefaultTopN, "Number of top students to list")
	cmd.Flags().IntVar(&maxAbsences, "max-absences", analyzer.DefaultMaxAbsences, "Absences allowed before a student is flagged")
	return cmd
}

func analysisOptions(a *app) analyzer.Options {
	return analyzer.Options{
		Threshold:   a.cfg.Analysis.Threshold,
		TopN:        a.cfg.Analysis.TopN,
		MaxAbsences: a.cfg.Analysis.MaxAbsences,
	}
}

// analyzeAndSave reads the roster, analyzes it and writes the report. Nothing is written
// when any step fails.
func analyzeAndSave(logger *slog.Logger, opts analyzer.Options, input, output string) error {
	logger.Info("Reading roster", slog.String("input_file", input))
	students, err := db.OpenRoster(input)
	if err != nil {
		return fmt.Errorf("failed to read roster: %w", err)
	}
	logger.Info("Roster read", slog.Int("students", len(students)))

	report := analyzer.New(opts, logger).Analyze(students)

	if err := db.SaveWorkbook(output, analyzer.Tables(report)); err != nil {
		return err
	}
	logger.Info("Results saved", slog.String("output_file", output))
	return nil
}
