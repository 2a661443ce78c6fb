// Package logclean removes expired and empty log files from the log directory.
package logclean

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"acgfun-checkin/internal/assert"
	"acgfun-checkin/internal/components/chrono"
	"acgfun-checkin/internal/components/telemetry"

	"github.com/dustin/go-humanize"
	"github.com/shirou/gopsutil/v4/disk"
)

const (
	report_cleaner_remove = "cleaner.remove"
	report_cleaner_usage  = "cleaner.usage"
)

type Rule struct {
	// Pattern is matched against file names with filepath.Match.
	Pattern    string `json:"pattern"`
	MaxAgeDays int    `json:"max_age_days"`
}

// DefaultRules are evaluated in order, a file is governed by the first rule it matches.
var DefaultRules = []Rule{
	{Pattern: "cookie_signin.log", MaxAgeDays: 7},
	{Pattern: "cron.log", MaxAgeDays: 30},
	{Pattern: "cleanup.log", MaxAgeDays: 30},
	{Pattern: "*.log", MaxAgeDays: 7},
}

type RemovedFile struct {
	Name    string
	AgeDays int
	Size    int64
	// Empty is set for files removed because they were empty rather than old.
	Empty bool
}

type Report struct {
	DryRun      bool
	Removed     []RemovedFile
	Errors      []error
	BytesFreed  int64
	UsageBefore int64
	UsageAfter  int64
	// FreeBytes is the free space of the volume holding the directory, 0 if unknown.
	FreeBytes uint64
}

func (r Report) Summary() string {
	verb := "removed"
	if r.DryRun {
		verb = "would remove"
	}
	return fmt.Sprintf(
		"%s %d file(s), freed %s, directory %s -> %s, %s free on volume",
		verb,
		len(r.Removed),
		humanize.Bytes(uint64(r.BytesFreed)),
		humanize.Bytes(uint64(r.UsageBefore)),
		humanize.Bytes(uint64(r.UsageAfter)),
		humanize.Bytes(r.FreeBytes),
	)
}

type Cleaner struct {
	dir   string
	rules []Rule
	time  chrono.TimeAPI
	tel   telemetry.API
}

// NewCleaner creates a cleaner for dir, `rules` defaults to DefaultRules.
func NewCleaner(dir string, rules []Rule, time chrono.TimeAPI, tel telemetry.API) Cleaner {
	assert.NotEmptyStr(dir)
	assert.NotNil(time)
	assert.NotNil(tel)
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return Cleaner{
		dir:   dir,
		rules: rules,
		time:  time,
		tel:   telemetry.NewScopedAPI("logclean", tel),
	}
}

func (c Cleaner) ruleFor(name string) (Rule, bool) {
	for _, r := range c.rules {
		matched, err := filepath.Match(r.Pattern, name)
		if err == nil && matched {
			return r, true
		}
	}
	return Rule{}, false
}

// ageDays returns the amount of whole days since the file was last modified.
func (c Cleaner) ageDays(info os.FileInfo) int {
	age := c.time.Now().Sub(info.ModTime())
	if age < 0 {
		return 0
	}
	return int(age / (24 * time.Hour))
}

func (c Cleaner) usage() int64 {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return 0
	}
	var total int64
	for _, e := range entries {
		info, err := e.Info()
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		total += info.Size()
	}
	return total
}

func (c Cleaner) remove(report *Report, dryRun bool, file RemovedFile) {
	if !dryRun {
		err := os.Remove(filepath.Join(c.dir, file.Name))
		if err != nil {
			err = fmt.Errorf("remove %s: %w", file.Name, err)
			c.tel.ReportBroken(report_cleaner_remove, err)
			report.Errors = append(report.Errors, err)
			return
		}
	}
	c.tel.ReportDebug("removed log file", file.Name, file.AgeDays, file.Size, dryRun)
	report.Removed = append(report.Removed, file)
	report.BytesFreed += file.Size
}

// Run removes the files older than their rule allows and every empty *.log
// file, with dryRun nothing is deleted but the report is the same.
func (c Cleaner) Run(dryRun bool) (Report, error) {
	report := Report{DryRun: dryRun}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return Report{}, fmt.Errorf("logclean: read %s: %w", c.dir, err)
	}
	report.UsageBefore = c.usage()

	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		if !info.Mode().IsRegular() {
			continue
		}

		age := c.ageDays(info)
		rule, ok := c.ruleFor(e.Name())
		if ok && age > rule.MaxAgeDays {
			c.remove(&report, dryRun, RemovedFile{Name: e.Name(), AgeDays: age, Size: info.Size()})
			continue
		}
		if info.Size() == 0 && strings.HasSuffix(e.Name(), ".log") {
			c.remove(&report, dryRun, RemovedFile{Name: e.Name(), AgeDays: age, Empty: true})
		}
	}

	report.UsageAfter = report.UsageBefore - report.BytesFreed
	if !dryRun {
		report.UsageAfter = c.usage()
	}

	usage, err := disk.Usage(c.dir)
	if err != nil {
		c.tel.ReportWarning(report_cleaner_usage, fmt.Errorf("volume usage: %w", err))
	} else {
		report.FreeBytes = usage.Free
	}

	return report, nil
}
