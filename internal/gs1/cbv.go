package gs1

import "strings"

// cbvKinds maps a CBV URN vocabulary segment to its Web URI prefix, per
// GS1's Core Business Vocabulary Web URI mapping. bizstep and disposition
// are the two CBV fields spec §3/§6 names as mapper-translatable.
var cbvKinds = []struct {
	urnPrefix string
	webPrefix string
}{
	{"urn:epcglobal:cbv:bizstep:", "https://ref.gs1.org/cbv/BizStep-"},
	{"urn:epcglobal:cbv:disp:", "https://ref.gs1.org/cbv/Disp-"},
	{"urn:epcglobal:cbv:btt:", "https://ref.gs1.org/cbv/BTT-"},
	{"urn:epcglobal:cbv:er:", "https://ref.gs1.org/cbv/ER-"},
	{"urn:epcglobal:cbv:sdt:", "https://ref.gs1.org/cbv/SDT-"},
}

// CBVToWebURI converts a CBV URN value to its Web URI form. Values that
// aren't recognised CBV URNs pass through unchanged.
func CBVToWebURI(value string) string {
	for _, k := range cbvKinds {
		if rest, ok := strings.CutPrefix(value, k.urnPrefix); ok {
			return k.webPrefix + rest
		}
	}
	return value
}

// CBVToURN is CBVToWebURI's inverse.
func CBVToURN(value string) string {
	for _, k := range cbvKinds {
		if rest, ok := strings.CutPrefix(value, k.webPrefix); ok {
			return k.urnPrefix + rest
		}
	}
	return value
}

// IsCBVURN and IsCBVWebURI classify a CBV value's current form.
func IsCBVURN(value string) bool {
	return strings.HasPrefix(value, "urn:epcglobal:cbv:")
}

func IsCBVWebURI(value string) bool {
	return strings.HasPrefix(value, "https://ref.gs1.org/cbv/") || strings.HasPrefix(value, "http://ref.gs1.org/cbv/")
}
