package telemetry

import (
	"fmt"
	"strings"
	"sync"
)

// Report is a single call captured by Recorder.
type Report struct {
	Kind   string
	Id     string
	Params []any
}

// Recorder is an API that keeps every report in memory, it is meant to be
// injected in tests that need to assert that something was (or was not) reported.
type Recorder struct {
	mutex   sync.Mutex
	Reports []Report
}

func (r *Recorder) add(kind, id string, params []any) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.Reports = append(r.Reports, Report{Kind: kind, Id: id, Params: params})
}

func (r *Recorder) ReportBroken(id string, params ...any) {
	r.add("broken", id, params)
}

func (r *Recorder) ReportWarning(id string, params ...any) {
	r.add("warning", id, params)
}

func (r *Recorder) ReportDebug(msg string, params ...any) {
	r.add("debug", msg, params)
}

func (r *Recorder) ReportCount(id string, count int64) {
	r.add("count", id, []any{count})
}

// Count returns the amount of reports of a kind whose id contains `id`.
func (r *Recorder) Count(kind, id string) int {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	n := 0
	for _, rep := range r.Reports {
		if rep.Kind == kind && strings.Contains(rep.Id, id) {
			n++
		}
	}
	return n
}

func (r *Recorder) String() string {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var out strings.Builder
	for _, rep := range r.Reports {
		out.WriteString(fmt.Sprintf("[%s] %s %v\n", rep.Kind, rep.Id, rep.Params))
	}
	return out.String()
}
