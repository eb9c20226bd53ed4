// Package epcis holds the data model shared by every converter component:
// documents, the five EPCIS event kinds, namespace bindings, and the
// format/version vocabulary used to plan conversions (spec §3).
package epcis

import "time"

// Format identifies the on-wire syntax of a document.
type Format string

const (
	FormatXML  Format = "xml"
	FormatJSON Format = "json"
)

// Version identifies the EPCIS schema version. VersionUnknown means the
// caller wants C10 (prescan) to detect it.
type Version string

const (
	Version12     Version = "1.2"
	Version20     Version = "2.0"
	VersionUnknown Version = ""
)

// DocKind distinguishes a plain EPCIS document from a query-result wrapper;
// exposed on the handler boundary because query documents need extra JSON
// wrapping (spec §3).
type DocKind int

const (
	DocEPCISDocument DocKind = iota
	DocEPCISQueryDocument
)

func (k DocKind) String() string {
	if k == DocEPCISQueryDocument {
		return "EPCISQueryDocument"
	}
	return "EPCISDocument"
}

// EventType enumerates the five EPCIS event kinds (spec §3).
type EventType string

const (
	ObjectEventType         EventType = "ObjectEvent"
	AggregationEventType    EventType = "AggregationEvent"
	TransactionEventType    EventType = "TransactionEvent"
	TransformationEventType EventType = "TransformationEvent"
	AssociationEventType    EventType = "AssociationEvent"
)

// EventTypes lists the five recognised element/type names, in the order
// the XML→JSON converter checks them against a start element's local name.
var EventTypes = []EventType{
	ObjectEventType,
	AggregationEventType,
	TransactionEventType,
	TransformationEventType,
	AssociationEventType,
}

// IsEventTypeName reports whether name is one of the five event element
// names EPCIS defines.
func IsEventTypeName(name string) bool {
	for _, t := range EventTypes {
		if string(t) == name {
			return true
		}
	}
	return false
}

// NsBinding is a (uri, prefix) pair, per spec §3.
type NsBinding struct {
	URI    string
	Prefix string
}

// DocumentContext carries the header-level data the converters thread
// through start/end calls on the Collector (spec §4.3, §4.6, §4.7).
type DocumentContext struct {
	IsEpcisDocument bool
	SchemaVersion   Version
	CreationDate    string
	SubscriptionID  string
	QueryName       string
	HasResultsBody  bool
	// Attrs carries any other document-root attributes the source
	// format declared, for formats/extensions that need to round-trip
	// them (e.g. a custom EPCISHeader attribute).
	Attrs map[string]string
	// JSONLDContext is the resolved "@context" value (spec §4.2) a JSON
	// target collector writes into its preamble. It is only known once
	// the source document's namespaces have been fully discovered, so it
	// is populated by the converter right before Start is called rather
	// than at collector construction time.
	JSONLDContext any
}

// Event is the tagged record the converters pass end to end. Rather than
// modelling the five event kinds as Go interface implementations (which
// would force the streaming decoder to guess a concrete type before it has
// read enough of the element to know), Event carries the event's Type plus
// its decoded Fields, matching the "opaque extension fields keyed by
// namespace URI" requirement in spec §3: unknown keys simply pass through
// Fields untouched.
type Event struct {
	Type   EventType
	Fields map[string]any

	// EventNs holds namespace bindings discovered while parsing this
	// event specifically (scope "event" in spec §3), separate from the
	// document-scope bindings carried on DocumentContext.
	EventNs []NsBinding

	// Ordinal is the zero-based sequence index assigned as events are
	// read (spec §3); it is the last element of the ancestors slice
	// passed to the mapper (spec §6).
	Ordinal int
}

// Mapper is the external, optional identifier-translation collaborator
// (spec §1, §6): a pure function over one event plus its ancestor path.
type Mapper func(event *Event, ancestors []int) (*Event, error)

// EpcFormat and CbvFormat values, per spec §3.
type IdentifierFormat string

const (
	NoPreference      IdentifierFormat = "NoPreference"
	AlwaysDigitalLink IdentifierFormat = "AlwaysDigitalLink"
	AlwaysUrn         IdentifierFormat = "AlwaysUrn"
	AlwaysWebUri      IdentifierFormat = "AlwaysWebUri"
	NeverTranslates   IdentifierFormat = "NeverTranslates"
)

// FormatPreference is the pair described in spec §3. Translate reports
// whether either half of the pair requires the mapper to run.
type FormatPreference struct {
	EpcFormat IdentifierFormat
	CbvFormat IdentifierFormat
}

func (p FormatPreference) Translate() bool {
	return translates(p.EpcFormat) || translates(p.CbvFormat)
}

func translates(f IdentifierFormat) bool {
	switch f {
	case "", NoPreference, NeverTranslates:
		return false
	default:
		return true
	}
}

// HeaderLookup is the external format-preference source (spec §6): a
// function from header name to value, or ("", false) if absent.
type HeaderLookup func(name string) (string, bool)

const (
	HeaderEpcFormat    = "GS1-EPC-Format"
	HeaderCbvFormat    = "GS1-CBV-XML-Format"
	HeaderStrict12     = "GS1-EPCIS-1.2-Compliant"
)

// ResolveFormatPreference derives a FormatPreference and strict12 flag from
// an external header-lookup function (spec §6).
func ResolveFormatPreference(lookup HeaderLookup) (FormatPreference, bool) {
	strict12 := true
	if v, ok := lookup(HeaderStrict12); ok {
		strict12 = v != "false"
	}
	pref := FormatPreference{EpcFormat: NoPreference, CbvFormat: NoPreference}
	if v, ok := lookup(HeaderEpcFormat); ok {
		pref.EpcFormat = IdentifierFormat(v)
	}
	if v, ok := lookup(HeaderCbvFormat); ok {
		pref.CbvFormat = IdentifierFormat(v)
	}
	return pref, strict12
}

// nowUTC is split out so tests can override deterministic timestamps where
// needed without touching call sites.
var nowUTC = func() time.Time { return time.Now().UTC() }
