package context

import "github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"

// defaultContextURL is the standard EPCIS 2.0 JSON-LD @context value, the
// one every document gets unless a more specific handler claims it.
const defaultContextURL = "https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld"

// defaultHandler matches any document; it is the fallback registered at
// DefaultPriority (spec §4.2: "The default handler matches any input,
// highest integer priority").
type defaultHandler struct{}

// NewDefaultHandler returns the always-matching fallback handler.
func NewDefaultHandler() Handler { return defaultHandler{} }

func (defaultHandler) Priority() int { return DefaultPriority }

func (defaultHandler) IsHandler(nsMap map[string]string) bool { return true }

func (defaultHandler) BuildJSONContext(nsMap map[string]string) (map[string]any, error) {
	ctx := []any{defaultContextURL}
	extra := map[string]any{}
	for uri, prefix := range nsMap {
		if prefix == "" {
			continue
		}
		extra[prefix] = uri
	}
	if len(extra) > 0 {
		ctx = append(ctx, extra)
	}
	return map[string]any{"@context": ctx}, nil
}

func (defaultHandler) PopulateXMLNs(resolver *nsresolver.Resolver) error {
	// The default handler relies on the resolver already carrying every
	// namespace discovered while parsing; it declares nothing extra.
	return nil
}
