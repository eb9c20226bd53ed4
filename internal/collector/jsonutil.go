package collector

import "encoding/json"

// mustJSON renders v as a JSON literal for inline interpolation into a
// hand-built document preamble. v is always a context map the registry
// itself produced, so a marshal failure here would mean a bug in the
// context handler, not bad input -- falling back to "null" keeps the
// stream well-formed rather than panicking mid-write.
func mustJSON(v any) string {
	if v == nil {
		return "null"
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(raw)
}
