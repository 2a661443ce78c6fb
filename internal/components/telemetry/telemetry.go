package telemetry

import (
	"fmt"
)

// API is what every component reports through instead of logging directly,
// so tests can assert on what was reported.
//
// note: fault injection point
type API interface {
	// ReportBroken reports a component that failed in a way the run can't recover from
	// on its own (a page that stayed unreachable, a notification that could not be sent).
	//
	// `id` names the component and method, ex. `client.classify`, never the step inside
	// it. Wrap the error with fmt.Errorf or add params to say which step it was.
	ReportBroken(id string, params ...any)

	// ReportWarning reports something unexpected the run continues past, like a failed
	// attempt that will be retried or a credit that could not be found.
	ReportWarning(id string, params ...any)

	// ReportDebug reports details only useful with --debug.
	ReportDebug(msg string, params ...any)

	// ReportCount reports the current value of a counter.
	ReportCount(id string, count int64)
}

// ScopedAPI prefixes every id with a namespace, ex. "transport: client.request".
type ScopedAPI struct {
	namespace string
	inner     API
}

// NewScopedAPI scopes inner to namespace, scoping a ScopedAPI again joins the
// namespaces with a dot.
func NewScopedAPI(namespace string, inner API) ScopedAPI {
	if scoped, ok := inner.(ScopedAPI); ok {
		return ScopedAPI{
			namespace: fmt.Sprintf("%s.%s", scoped.namespace, namespace),
			inner:     scoped.inner,
		}
	}
	return ScopedAPI{namespace: namespace, inner: inner}
}

func (s ScopedAPI) id(id string) string {
	return fmt.Sprintf("%s: %s", s.namespace, id)
}

func (s ScopedAPI) ReportBroken(id string, params ...any) {
	s.inner.ReportBroken(s.id(id), params...)
}

func (s ScopedAPI) ReportWarning(id string, params ...any) {
	s.inner.ReportWarning(s.id(id), params...)
}

func (s ScopedAPI) ReportDebug(msg string, params ...any) {
	s.inner.ReportDebug(s.id(msg), params...)
}

func (s ScopedAPI) ReportCount(id string, count int64) {
	s.inner.ReportCount(s.id(id), count)
}
