// Package collector implements the Collector family (spec §4.3): the
// sink every converter writes decoded/translated events into, whether
// that sink streams bytes straight to an io.Writer or accumulates an
// in-memory structure for a later leg of a multi-leg conversion.
package collector

import "github.com/openepcis/openepcis-document-converter-sub002/epcis"

// Collector is the full interface spec §4.3 names. Every method that can
// fail returns an error rather than panicking, consistent with the rest
// of the converter's error taxonomy (internal/errs).
type Collector interface {
	Start(dctx epcis.DocumentContext) error
	Collect(ev *epcis.Event) error
	End() error

	StartSingleEvent(dctx epcis.DocumentContext) error
	CollectSingleEvent(ev *epcis.Event) error
	EndSingleEvent() error

	SetIsEpcisDocument(b bool)
	SetSubscriptionID(id string)
	SetQueryName(name string)
	IsEpcisDocument() bool

	// Get returns the collector's final result, valid after End or
	// EndSingleEvent. Stream-based collectors, having already flushed
	// everything to their writer, return nil.
	Get() (any, error)

	// Close releases any held resources. Idempotent: calling it more
	// than once, or on all exit paths including error paths, is safe.
	Close() error
}

// Failer is an optional extension a Collector implements to be notified
// of a terminal conversion error before Close runs (spec §9: "collector
// failure is fatal ... the converter calls handler.Fail, calls
// handler.Close"). A Collector that has nothing useful to do on failure
// (the common case -- Close alone is enough to release its resources)
// simply doesn't implement it.
type Failer interface {
	Fail(err error)
}
