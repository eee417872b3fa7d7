package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"rollcall-stats-go/analyzer"
	"rollcall-stats-go/config"
	"rollcall-stats-go/db"
	"rollcall-stats-go/logging"
	"rollcall-stats-go/models"
)

func writeRosterFile(t *testing.T, dir string) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"ФИО", "1", "2", "3", "4"},
		{"Иванов И.И.", "+", 3, "-", "-"},
		{"Сидоров С.С.", "+", 4, 5, 5},
	}
	sheet := f.GetSheetName(0)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := row
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}

	path := filepath.Join(dir, "roster.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	cmd := newRootCmd(&stderr)
	cmd.SetOut(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stderr.String(), err
}

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	input := writeRosterFile(t, dir)
	output := filepath.Join(dir, "report.xlsx")

	logs, err := run(t, "analyze", input, output, "--threshold", "50", "--max-absences", "1")
	require.NoError(t, err)
	assert.Contains(t, logs, "Results saved")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(analyzer.SheetResults)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"ФИО", "Автомат", "Средняя оценка", "Пропуски"},
		{"Иванов И.И.", "Да", "3", "2"},
		{"Сидоров С.С.", "Да", "5", "0"},
	}, rows)

	rows, err = f.GetRows(analyzer.SheetProblems)
	require.NoError(t, err)
	assert.Equal(t, []string{"Иванов И.И."}, rows[1])

	rows, err = f.GetRows(analyzer.SheetAutoPass)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "0"}, rows[1])
}

func TestAnalyzeCommand_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	input := writeRosterFile(t, dir)
	output := filepath.Join(dir, "report.xlsx")
	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("analysis:\n  top_n: 1\nlogging:\n  level: error\n"), 0o644))

	logs, err := run(t, "--config", cfgPath, "analyze", input, output)
	require.NoError(t, err)
	assert.NotContains(t, logs, "Results saved")

	f, err := excelize.OpenFile(output)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(analyzer.SheetTop)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"ФИО топ-студента", "Средняя оценка"}, {"Сидоров С.С.", "5"}}, rows)
}

func TestAnalyzeCommand_Errors(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "report.xlsx")

	_, err := run(t, "analyze", filepath.Join(dir, "missing.xlsx"), output)
	assert.ErrorContains(t, err, "failed to read roster")
	assert.NoFileExists(t, output)

	_, err = run(t, "analyze", writeRosterFile(t, dir), output, "--threshold", "150")
	assert.ErrorContains(t, err, "config validation failed")
	assert.NoFileExists(t, output)

	_, err = run(t, "analyze", "only-one-arg.xlsx")
	assert.Error(t, err)

	_, err = run(t, "--log-level", "chatty", "analyze", "a.xlsx", "b.xlsx")
	assert.Error(t, err)
}

func testApp(t *testing.T) (*app, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	cfg := config.Default()
	cfg.Server.Mode = "test"
	return &app{cfg: &cfg, logger: logging.New(cfg.Logging, &logs), stderr: &logs}, &logs
}

func TestNewRouter(t *testing.T) {
	a, logs := testApp(t)
	router := newRouter(a.cfg.Server, nil, analysisOptions(a), a.logger)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ping", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, logs.String(), `"path":"/api/ping"`)
	assert.Contains(t, logs.String(), `"status":200`)
}

func TestCheckReportStore(t *testing.T) {
	a, logs := testApp(t)
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := db.NewRedisService(client, nil)

	checkReportStore(store, a.logger)
	assert.Contains(t, logs.String(), "No stored reports found in Redis")

	_, err := store.SaveReport(&models.Report{ClassID: "C_GO01"})
	require.NoError(t, err)
	checkReportStore(store, a.logger)
	assert.Contains(t, logs.String(), `"count":1`)
}

func TestServe_RedisUnavailable(t *testing.T) {
	a, _ := testApp(t)
	mr := miniredis.RunT(t)
	a.cfg.Redis.Enabled = true
	a.cfg.Redis.Addr = mr.Addr()
	mr.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	assert.ErrorContains(t, serve(ctx, a), "could not connect to Redis")
}
