package logclean

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"

	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)

func writeLog(t testing.TB, dir, name, contents string, ageDays int) {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	modified := now.Add(-time.Duration(ageDays)*24*time.Hour - time.Hour)
	require.NoError(t, os.Chtimes(path, modified, modified))
}

func names(files []RemovedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.Name)
	}
	sort.Strings(out)
	return out
}

func setupDir(t testing.TB) string {
	dir := t.TempDir()
	writeLog(t, dir, "cookie_signin.log", "recent", 3)
	writeLog(t, dir, "old_signin.log", "stale contents", 8)
	// cron.log is governed by its own 30 day rule, not the *.log one
	writeLog(t, dir, "cron.log", "cron output", 20)
	writeLog(t, dir, "cleanup.log", "ancient", 31)
	writeLog(t, dir, "empty.log", "", 0)
	writeLog(t, dir, "cookies.txt", "", 100)
	return dir
}

func TestRun(t *testing.T) {
	dir := setupDir(t)
	cleaner := NewCleaner(dir, nil, chrono.FixedTime{Time: now}, &telemetry.Recorder{})

	report, err := cleaner.Run(false)
	require.NoError(t, err)
	require.Empty(t, report.Errors)
	require.Equal(t, []string{"cleanup.log", "empty.log", "old_signin.log"}, names(report.Removed))
	require.Equal(t, int64(len("stale contents")+len("ancient")), report.BytesFreed)
	require.Equal(t, report.UsageBefore-report.BytesFreed, report.UsageAfter)

	remaining, err := os.ReadDir(dir)
	require.NoError(t, err)
	var left []string
	for _, e := range remaining {
		left = append(left, e.Name())
	}
	require.ElementsMatch(t, []string{"cookie_signin.log", "cron.log", "cookies.txt"}, left)
}

func TestRunDryRun(t *testing.T) {
	dir := setupDir(t)
	cleaner := NewCleaner(dir, nil, chrono.FixedTime{Time: now}, &telemetry.Recorder{})

	report, err := cleaner.Run(true)
	require.NoError(t, err)
	require.True(t, report.DryRun)
	require.Len(t, report.Removed, 3)

	remaining, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, remaining, 6)
	require.Contains(t, report.Summary(), "would remove 3 file(s)")
}

func TestRunCustomRules(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "cron.log", "x", 2)
	writeLog(t, dir, "app.log", "x", 2)

	cleaner := NewCleaner(dir, []Rule{{Pattern: "cron.log", MaxAgeDays: 1}}, chrono.FixedTime{Time: now}, &telemetry.Recorder{})
	report, err := cleaner.Run(false)
	require.NoError(t, err)
	require.Equal(t, []string{"cron.log"}, names(report.Removed))
}

func TestRunMissingDir(t *testing.T) {
	cleaner := NewCleaner(filepath.Join(t.TempDir(), "missing"), nil, chrono.FixedTime{Time: now}, &telemetry.Recorder{})
	_, err := cleaner.Run(false)
	require.Error(t, err)
}
