package epcis

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strings"
)

// This file is the schema-aware marshalling facility spec §6 treats as an
// external collaborator. A concrete implementation lives here (rather than
// only an interface) because the converters need something real to drive
// end to end; internal/xmlcodec and internal/jsoncodec depend on the
// Marshaller interface below, not on this implementation directly, so a
// different domain-object library can be substituted without touching the
// streaming state machines.

// Marshaller is the interface C6/C7 consume (spec §6).
type Marshaller interface {
	UnmarshalXMLEvent(dec *xml.Decoder, start xml.StartElement) (*Event, error)
	MarshalXMLEvent(w io.Writer, ev *Event, nsByURI map[string]string) error
	WriteJSON(ev *Event) ([]byte, error)
	ReadJSONEvent(raw map[string]any) (*Event, error)
}

// listWrapperItem maps a GS1 list wrapper tag (e.g. epcList) to the item
// tag it repeats (e.g. epc). The wrapper collapses to a JSON array: items
// holding only text become strings, items with child elements or
// attributes (e.g. quantityElement) stay maps.
var listWrapperItem = map[string]string{
	"epcList":           "epc",
	"childEPCs":         "epc",
	"parentEPCs":        "epc", // TransactionEvent sibling list, if present
	"childQuantityList": "quantityElement",
	"inputQuantityList": "quantityElement",
	"outputQuantityList": "quantityElement",
	"inputEPCList":      "epc",
	"outputEPCList":     "epc",
	"bizTransactionList": "bizTransaction",
	"sensorElementList":  "sensorElement",
}

// partyListWrapper describes source/destination lists, whose items carry a
// "type" attribute and a text value; EPCIS JSON renders each item as
// {"type": ..., "source": ...} / {"type": ..., "destination": ...}.
var partyListWrapper = map[string]string{
	"sourceList":      "source",
	"destinationList": "destination",
}

type defaultMarshaller struct{}

// NewMarshaller returns the default schema-aware event codec, grounded in
// the teacher's encoding/xml struct style (tasks/epcis_extractor.go) but
// generalised to a map[string]any representation so arbitrary extension
// fields pass through untouched instead of being dropped by a fixed
// struct shape.
func NewMarshaller() Marshaller {
	return defaultMarshaller{}
}

func (defaultMarshaller) UnmarshalXMLEvent(dec *xml.Decoder, start xml.StartElement) (*Event, error) {
	fields, ns, err := decodeElementBody(dec, start)
	if err != nil {
		return nil, err
	}
	evNs := make([]NsBinding, 0, len(ns))
	for uri, prefix := range ns {
		evNs = append(evNs, NsBinding{URI: uri, Prefix: prefix})
	}
	return &Event{Type: EventType(start.Name.Local), Fields: fields, EventNs: evNs}, nil
}

// decodeElementBody walks the children of start until its matching end
// element, building a generic map representation. It also returns the
// xmlns declarations found on start and on any of its descendant
// elements (event-scope namespace bindings, spec §3).
func decodeElementBody(dec *xml.Decoder, start xml.StartElement) (map[string]any, map[string]string, error) {
	ns := map[string]string{}
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" {
			ns[a.Value] = a.Name.Local
		} else if a.Name.Local == "xmlns" {
			ns[a.Value] = ""
		}
	}

	fields := map[string]any{}
	var text strings.Builder

	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, childNs, err := decodeElementBody(dec, t)
			if err != nil {
				return nil, nil, err
			}
			for k, v := range childNs {
				ns[k] = v
			}
			value := collapseChild(t.Name.Local, child, t.Attr)
			appendField(fields, t.Name.Local, value)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				if s := strings.TrimSpace(text.String()); s != "" && len(fields) == 0 {
					fields["#text"] = s
				}
				for _, a := range start.Attr {
					if a.Name.Space == "xmlns" || a.Name.Local == "xmlns" {
						continue
					}
					fields["@"+attrName(a.Name)] = a.Value
				}
				return fields, ns, nil
			}
		}
	}
}

func attrName(n xml.Name) string {
	if n.Space != "" {
		return n.Space + ":" + n.Local
	}
	return n.Local
}

// collapseChild turns a decoded child element into the value stored under
// its tag: GS1 list wrappers collapse to []any of scalars/maps, a leaf
// with only "#text" collapses to that string, everything else stays a map.
func collapseChild(tag string, child map[string]any, attrs []xml.Attr) any {
	if itemTag, ok := listWrapperItem[tag]; ok {
		return collapseListWrapper(child, itemTag)
	}
	if itemTag, ok := partyListWrapper[tag]; ok {
		return collapsePartyWrapper(child, itemTag, itemTag)
	}
	if len(child) == 1 {
		if s, ok := child["#text"]; ok {
			return s
		}
	}
	if len(child) == 0 {
		return ""
	}
	return child
}

func collapseListWrapper(child map[string]any, itemTag string) []any {
	raw, ok := child[itemTag]
	if !ok {
		return []any{}
	}
	switch v := raw.(type) {
	case []any:
		return v
	default:
		return []any{v}
	}
}

func collapsePartyWrapper(child map[string]any, itemTag, valueKey string) []any {
	raw, ok := child[itemTag]
	if !ok {
		return []any{}
	}
	items, ok := raw.([]any)
	if !ok {
		items = []any{raw}
	}
	out := make([]any, 0, len(items))
	for _, it := range items {
		m, ok := it.(map[string]any)
		if !ok {
			out = append(out, map[string]any{valueKey: it})
			continue
		}
		entry := map[string]any{}
		if t, ok := m["@type"]; ok {
			entry["type"] = t
		}
		if s, ok := m["#text"]; ok {
			entry[valueKey] = s
		}
		out = append(out, entry)
	}
	return out
}

func appendField(fields map[string]any, key string, value any) {
	if existing, ok := fields[key]; ok {
		switch e := existing.(type) {
		case []any:
			fields[key] = append(e, value)
		default:
			fields[key] = []any{e, value}
		}
		return
	}
	fields[key] = value
}

// MarshalXMLEvent serialises an Event back to XML, inverting the
// collapsing rules above. nsByURI is ignored: the event element is written
// without namespace declarations, and its top-level attribute ("@"-prefixed)
// and "#text" fields are skipped.
func (defaultMarshaller) MarshalXMLEvent(w io.Writer, ev *Event, nsByURI map[string]string) error {
	fmt.Fprintf(w, "<%s>", ev.Type)
	keys := sortedKeys(ev.Fields)
	for _, k := range keys {
		if strings.HasPrefix(k, "@") || k == "#text" {
			continue
		}
		if err := encodeField(w, k, ev.Fields[k]); err != nil {
			return err
		}
	}
	fmt.Fprintf(w, "</%s>", ev.Type)
	return nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func encodeField(w io.Writer, key string, value any) error {
	if itemTag, ok := listWrapperItem[key]; ok {
		items, _ := value.([]any)
		fmt.Fprintf(w, "<%s>", key)
		for _, it := range items {
			if err := encodeListItem(w, itemTag, it); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "</%s>", key)
		return nil
	}
	if itemTag, ok := partyListWrapper[key]; ok {
		return encodePartyWrapper(w, key, itemTag, value)
	}
	switch v := value.(type) {
	case string:
		fmt.Fprintf(w, "<%s>%s</%s>", key, escape(v), key)
	case map[string]any:
		fmt.Fprintf(w, "<%s>", key)
		for _, k := range sortedKeys(v) {
			if err := encodeField(w, k, v[k]); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "</%s>", key)
	case []any:
		for _, it := range v {
			if err := encodeField(w, key, it); err != nil {
				return err
			}
		}
	default:
		fmt.Fprintf(w, "<%s>%v</%s>", key, v, key)
	}
	return nil
}

// encodeListItem writes a single item of a GS1 list wrapper (e.g. one
// <epc> inside <epcList>). Items are almost always plain text; a map item
// (e.g. a quantityElement with epcClass/quantity/uom children) recurses.
func encodeListItem(w io.Writer, itemTag string, item any) error {
	switch v := item.(type) {
	case string:
		fmt.Fprintf(w, "<%s>%s</%s>", itemTag, escape(v), itemTag)
		return nil
	case map[string]any:
		fmt.Fprintf(w, "<%s>", itemTag)
		for _, k := range sortedKeys(v) {
			if err := encodeField(w, k, v[k]); err != nil {
				return err
			}
		}
		fmt.Fprintf(w, "</%s>", itemTag)
		return nil
	default:
		fmt.Fprintf(w, "<%s>%v</%s>", itemTag, v, itemTag)
		return nil
	}
}

func encodePartyWrapper(w io.Writer, wrapperTag, itemTag string, value any) error {
	items, _ := value.([]any)
	fmt.Fprintf(w, "<%s>", wrapperTag)
	for _, it := range items {
		m, _ := it.(map[string]any)
		typ, _ := m["type"].(string)
		val, _ := m[itemTag].(string)
		fmt.Fprintf(w, "<%s type=%q>%s</%s>", itemTag, typ, escape(val), itemTag)
	}
	fmt.Fprintf(w, "</%s>", wrapperTag)
	return nil
}

func escape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

// marshalJSONOrdered wraps encoding/json.Marshal; map keys already come
// out alphabetically sorted, which is enough determinism for golden-file
// tests without hand-rolling an ordered encoder.
func marshalJSONOrdered(v any) ([]byte, error) {
	return json.Marshal(v)
}

// WriteJSON serialises the event to the JSON shape EPCIS 2.0 JSON-LD
// expects: {"type": "...", <fields...>}, with list-wrapper fields already
// in their collapsed array-of-scalar/array-of-object shape from decode.
func (defaultMarshaller) WriteJSON(ev *Event) ([]byte, error) {
	out := map[string]any{"type": string(ev.Type)}
	for k, v := range ev.Fields {
		if strings.HasPrefix(k, "@") || k == "#text" {
			continue
		}
		out[k] = v
	}
	return marshalJSONOrdered(out)
}

// ReadJSONEvent converts a decoded JSON object (as produced by
// encoding/json into map[string]any) into an Event, extracting "type" and
// carrying every other key through as an opaque field.
func (defaultMarshaller) ReadJSONEvent(raw map[string]any) (*Event, error) {
	typ, _ := raw["type"].(string)
	if typ == "" {
		return nil, fmt.Errorf("event object missing \"type\"")
	}
	fields := map[string]any{}
	for k, v := range raw {
		if k == "type" {
			continue
		}
		fields[k] = v
	}
	return &Event{Type: EventType(typ), Fields: fields}, nil
}
