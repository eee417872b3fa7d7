package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"rollcall-stats-go/config"
	"rollcall-stats-go/logging"
)

// app carries what every subcommand needs once the root command has loaded config
type app struct {
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *slog.Logger
	stderr io.Writer
}

func main() {
	if err := newRootCmd(os.Stderr).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	a := &app{stderr: stderr}

	cmd := &cobra.Command{
		Use:   "rollcall-stats",
		Short: "Attendance and grading statistics for a class roster",
		Long: `Reads a class roster workbook (.xlsx) where the first column holds the student
name and every following column one class session ("+" present, "-" absent, or a
numeric grade), and produces a report workbook with per-student results, course
statistics, top students, students over the absence limit and the auto-pass tally.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.load()
		},
	}
	cmd.SetErr(stderr)

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level: debug, info, warn or error")

	cmd.AddCommand(newAnalyzeCmd(a))
	cmd.AddCommand(newServeCmd(a))

	return cmd
}

func (a *app) load() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Logging.Level = a.logLevel
		if err := cfg.Validate(); err != nil {
			return err
		}
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Logging, a.stderr)
	return nil
}
