// Package nsresolver implements the namespace resolver (spec §4.1): it
// tracks which XML namespace declarations belong to the document as a
// whole versus a single event, and decides which ones are worth
// re-declaring when an event is serialised back out.
package nsresolver

import (
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
)

// Resolver accumulates namespace bindings at two scopes: document (the
// root element's xmlns declarations, alive for the whole conversion) and
// event (declarations found on one event element, cleared between
// events). Reserved URIs -- the core EPCIS/CBV namespaces every consumer
// already knows about -- are never re-emitted.
type Resolver struct {
	reserved map[string]bool
	docNs    []epcis.NsBinding
	eventNs  []epcis.NsBinding
	seenDoc  map[string]bool
	seenEvt  map[string]bool
}

// New returns a Resolver that suppresses the given reserved URIs
// (compared case-insensitively, since XML namespace URIs are opaque
// strings some producers render with inconsistent casing).
func New(reservedURIs ...string) *Resolver {
	r := &Resolver{
		reserved: make(map[string]bool, len(reservedURIs)),
		seenDoc:  map[string]bool{},
		seenEvt:  map[string]bool{},
	}
	for _, u := range reservedURIs {
		r.reserved[strings.ToLower(u)] = true
	}
	return r
}

func (r *Resolver) isReserved(uri string) bool {
	return r.reserved[strings.ToLower(uri)]
}

// AddDocumentNs records a namespace binding discovered at document scope
// (e.g. on the root EPCISDocument element). No-op for reserved URIs and
// duplicates.
func (r *Resolver) AddDocumentNs(b epcis.NsBinding) {
	if r.isReserved(b.URI) || r.seenDoc[b.URI] {
		return
	}
	r.seenDoc[b.URI] = true
	r.docNs = append(r.docNs, b)
}

// AddEventNs records a namespace binding discovered while parsing a
// single event. Cleared by ResetEventNs between events.
func (r *Resolver) AddEventNs(b epcis.NsBinding) {
	if r.isReserved(b.URI) || r.seenDoc[b.URI] || r.seenEvt[b.URI] {
		return
	}
	r.seenEvt[b.URI] = true
	r.eventNs = append(r.eventNs, b)
}

// GetAllNs returns every non-reserved binding known so far, document
// scope first, in discovery order.
func (r *Resolver) GetAllNs() []epcis.NsBinding {
	all := make([]epcis.NsBinding, 0, len(r.docNs)+len(r.eventNs))
	all = append(all, r.docNs...)
	all = append(all, r.eventNs...)
	return all
}

// ResetEventNs clears event-scope bindings, called between events so one
// event's extension namespaces don't leak prefixes into the next.
func (r *Resolver) ResetEventNs() {
	r.eventNs = nil
	r.seenEvt = map[string]bool{}
}

// ResetAll clears both scopes, used when a Resolver is reused across
// documents (it is not safe for concurrent use, so each per-document
// converter owns its own instance; see spec §5).
func (r *Resolver) ResetAll() {
	r.docNs = nil
	r.eventNs = nil
	r.seenDoc = map[string]bool{}
	r.seenEvt = map[string]bool{}
}
