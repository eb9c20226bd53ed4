package gs1

import (
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
)

// epcKeys lists the event fields spec §3 treats as EPC-identifier bearing:
// single identifiers, identifier lists, and the "id" field nested inside a
// location/read-point object.
var epcKeys = map[string]bool{
	"epc":           true,
	"parentID":      true,
	"childEPCs":     true,
	"epcList":       true,
	"inputEPCList":  true,
	"outputEPCList": true,
	"childEPC":      true,
	"id":            true,
}

var cbvKeys = map[string]bool{
	"bizStep":     true,
	"disposition": true,
}

// Options configures NewMapper.
type Options struct {
	// CompanyPrefixLen splits a Digital Link's numeric key into GS1
	// Company Prefix vs. item/location/serial reference when translating
	// from Digital Link back to URN, where the delimiter the URN form
	// carries has already been lost. Defaults to 7 when unset, GS1's most
	// common allocation length.
	CompanyPrefixLen int
}

// NewMapper returns the sample identifier-translation Mapper (spec §1, §6):
// it walks one event's Fields and rewrites every recognised EPC and CBV
// value between URN and GS1 Digital Link / Web URI form per pref, leaving
// anything it doesn't recognise untouched. A nil Mapper is a no-op; callers
// that resolved a NoPreference/NeverTranslates FormatPreference should pass
// nil rather than call NewMapper (see epcis.FormatPreference.Translate).
func NewMapper(pref epcis.FormatPreference, opts Options) epcis.Mapper {
	prefixLen := opts.CompanyPrefixLen
	if prefixLen <= 0 {
		prefixLen = 7
	}

	return func(event *epcis.Event, ancestors []int) (*epcis.Event, error) {
		if event == nil {
			return event, nil
		}
		walkFields(event.Fields, pref, prefixLen)
		return event, nil
	}
}

func walkFields(fields map[string]any, pref epcis.FormatPreference, prefixLen int) {
	for k, v := range fields {
		fields[k] = walkValue(k, v, pref, prefixLen)
	}
}

func walkValue(key string, v any, pref epcis.FormatPreference, prefixLen int) any {
	switch val := v.(type) {
	case string:
		if epcKeys[key] {
			return translateEPC(val, pref.EpcFormat, prefixLen)
		}
		if cbvKeys[key] {
			return translateCBV(val, pref.CbvFormat)
		}
		return val
	case []any:
		for i, item := range val {
			val[i] = walkValue(key, item, pref, prefixLen)
		}
		return val
	case map[string]any:
		walkFields(val, pref, prefixLen)
		return val
	default:
		return v
	}
}

func translateEPC(id string, pref epcis.IdentifierFormat, prefixLen int) string {
	switch pref {
	case epcis.AlwaysDigitalLink:
		if IsURN(id) {
			return urnToDigitalLink(id)
		}
	case epcis.AlwaysUrn:
		if IsDigitalLink(id) {
			return digitalLinkToURN(id, prefixLen)
		}
	}
	return id
}

func translateCBV(value string, pref epcis.IdentifierFormat) string {
	switch pref {
	case epcis.AlwaysWebUri:
		if IsCBVURN(value) {
			return CBVToWebURI(value)
		}
	case epcis.AlwaysUrn:
		if IsCBVWebURI(value) {
			return CBVToURN(value)
		}
	}
	return value
}

func urnToDigitalLink(urn string) string {
	switch {
	case strings.HasPrefix(urn, "urn:epc:id:sgtin:"):
		if link := SGTINToDigitalLink(urn); link != "" {
			return link
		}
	case strings.HasPrefix(urn, "urn:epc:id:sgln:"):
		if link := SGLNToDigitalLink(urn); link != "" {
			return link
		}
	case strings.HasPrefix(urn, "urn:epc:id:sscc:"):
		if link := SSCCToDigitalLink(urn); link != "" {
			return link
		}
	}
	return urn
}

func digitalLinkToURN(link string, prefixLen int) string {
	switch {
	case strings.Contains(link, "/01/"):
		if urn := DigitalLinkToSGTIN(link, prefixLen); urn != "" {
			return urn
		}
	case strings.Contains(link, "/414/"):
		if urn := DigitalLinkToSGLN(link, prefixLen); urn != "" {
			return urn
		}
	case strings.Contains(link, "/00/"):
		if urn := DigitalLinkToSSCC(link, prefixLen); urn != "" {
			return urn
		}
	}
	return link
}
