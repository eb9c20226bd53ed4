package context

import (
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
)

// gs1EgyptContextURL is the @context URL a GS1-Egypt JSON document
// carries; matching on it (rather than on a namespace prefix) is what
// spec §4.2 means by "match on a URL in @context".
const gs1EgyptContextURL = "https://gs1eg.org/standards/epcis/2.0.0/epcis-context.jsonld"

// gs1EgyptNs is the healthcare-extension namespace the handler declares
// on the XML side once it has matched (scenario S4).
const gs1EgyptNs = "http://epcis.gs1eg.org/hc/ns"
const gs1EgyptPrefix = "gs1egypthc"

// gs1EgyptHandler is the worked custom-handler example spec §4.2 names.
// It registers ahead of (numerically below) the default handler so it
// gets first refusal on any document carrying its characteristic
// context URL or namespace.
type gs1EgyptHandler struct{}

// NewGS1EgyptHandler returns the GS1-Egypt context handler.
func NewGS1EgyptHandler() Handler { return gs1EgyptHandler{} }

func (gs1EgyptHandler) Priority() int { return 100 }

func (gs1EgyptHandler) IsHandler(nsMap map[string]string) bool {
	if _, ok := nsMap[gs1EgyptNs]; ok {
		return true
	}
	for uri := range nsMap {
		if strings.Contains(uri, "gs1eg.org") {
			return true
		}
	}
	return false
}

func (gs1EgyptHandler) BuildJSONContext(nsMap map[string]string) (map[string]any, error) {
	ctx := []any{gs1EgyptContextURL}
	extra := map[string]any{}
	for uri, prefix := range nsMap {
		if prefix == "" || uri == gs1EgyptNs {
			continue
		}
		extra[prefix] = uri
	}
	if len(extra) > 0 {
		ctx = append(ctx, extra)
	}
	return map[string]any{"@context": ctx}, nil
}

func (gs1EgyptHandler) PopulateXMLNs(resolver *nsresolver.Resolver) error {
	resolver.AddDocumentNs(epcis.NsBinding{URI: gs1EgyptNs, Prefix: gs1EgyptPrefix})
	return nil
}
