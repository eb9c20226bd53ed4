// Package context implements the context handler registry (spec §4.2):
// the plug-in point that picks a JSON-LD @context builder and an XML
// namespace populator based on which namespaces a document actually
// uses. The name collides with the stdlib "context" package only at the
// import-path level; nothing here imports it, so there is no ambiguity
// at call sites.
package context

import (
	"sort"
	"sync"

	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
)

// Handler is one registered context policy (spec §4.2). IsHandler
// decides whether this handler owns a document given its discovered
// namespace map; BuildJSONContext and PopulateXMLNs are only called once
// IsHandler has matched.
type Handler interface {
	// Priority orders handlers ascending; the registry tries the lowest
	// integer first, so a specific handler should register below the
	// default's fallback priority.
	Priority() int
	IsHandler(nsMap map[string]string) bool
	BuildJSONContext(nsMap map[string]string) (map[string]any, error)
	PopulateXMLNs(resolver *nsresolver.Resolver) error
}

// DefaultPriority is the fallback handler's priority; it matches any
// input, so nothing should register at or above this value expecting to
// take precedence.
const DefaultPriority = 1 << 30

// Registry holds registered handlers sorted ascending by priority. It is
// an explicit value built by NewRegistry (and extended by Register)
// rather than reflection-based discovery, since Go has no ServiceLoader
// equivalent.
type Registry struct {
	mu       sync.RWMutex
	handlers []Handler
}

// NewRegistry returns a Registry seeded with handlers, always including
// the default handler even if callers forget to pass one, since
// resolveForJson/resolveForXml require at least one match.
func NewRegistry(handlers ...Handler) *Registry {
	r := &Registry{}
	r.Register(handlers...)
	hasDefault := false
	for _, h := range handlers {
		if h.Priority() == DefaultPriority {
			hasDefault = true
		}
	}
	if !hasDefault {
		r.Register(NewDefaultHandler())
	}
	return r
}

// Register adds handlers and re-sorts by priority. Safe to call after
// construction (e.g. a CLI plugin registering a custom handler at
// startup).
func (r *Registry) Register(handlers ...Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers = append(r.handlers, handlers...)
	sort.SliceStable(r.handlers, func(i, j int) bool {
		return r.handlers[i].Priority() < r.handlers[j].Priority()
	})
}

func (r *Registry) snapshot() []Handler {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Handler, len(r.handlers))
	copy(out, r.handlers)
	return out
}

// ResolveForJSON picks the first matching handler (ascending priority)
// and builds its JSON-LD @context object.
func (r *Registry) ResolveForJSON(nsMap map[string]string) (map[string]any, error) {
	for _, h := range r.snapshot() {
		if h.IsHandler(nsMap) {
			return h.BuildJSONContext(nsMap)
		}
	}
	return nil, errs.NewConfigError("no context handler matched namespace map", nil)
}

// ResolveForXML picks the first matching handler and has it populate the
// resolver with any namespaces it wants re-declared on the XML root.
func (r *Registry) ResolveForXML(nsMap map[string]string, resolver *nsresolver.Resolver) error {
	for _, h := range r.snapshot() {
		if h.IsHandler(nsMap) {
			return h.PopulateXMLNs(resolver)
		}
	}
	return errs.NewConfigError("no context handler matched namespace map", nil)
}
