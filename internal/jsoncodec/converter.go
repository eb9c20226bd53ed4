// Package jsoncodec implements the JSON→XML converter (C7, spec §4.7): a
// pull-based encoding/json state machine, symmetric to internal/xmlcodec,
// that never materialises more than one event in memory at a time.
package jsoncodec

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
)

// reservedNamespaces is a one-entry subset of internal/xmlcodec's list:
// document-scope bindings recovered from "@context" never re-declare the
// core EPCIS 2.0 namespace, which every XML target already carries on its
// root element.
var reservedNamespaces = []string{
	"urn:epcglobal:epcis:xsd:2",
}

// Converter is a one-shot, non-shared JSON→XML converter (spec §5).
type Converter struct {
	registry *context.Registry
	mapper   epcis.Mapper
	marshal  epcis.Marshaller
	resolver *nsresolver.Resolver
}

// Options configures a Converter.
type Options struct {
	Registry *context.Registry
	Mapper   epcis.Mapper
	Marshal  epcis.Marshaller
}

// New returns a ready Converter.
func New(opts Options) *Converter {
	m := opts.Marshal
	if m == nil {
		m = epcis.NewMarshaller()
	}
	return &Converter{
		registry: opts.Registry,
		mapper:   opts.Mapper,
		marshal:  m,
		resolver: nsresolver.New(reservedNamespaces...),
	}
}

// Convert reads EPCIS JSON from r and pushes converted events into h, which
// must already be writing XML (spec §4.7).
func (c *Converter) Convert(r io.Reader, h *handler.Handler) error {
	c.resolver.ResetAll()

	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if err == io.EOF {
			return errs.NewFormatError("json input is empty", nil)
		}
		return errs.NewFormatError("read json input", err)
	}

	dec := json.NewDecoder(br)
	return c.run(dec, h)
}

func (c *Converter) run(dec *json.Decoder, h *handler.Handler) error {
	tok, err := dec.Token()
	if err != nil {
		return errs.NewConversionError("read json root token", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errs.NewFormatError("json input does not start with an object", nil)
	}

	dctx := epcis.DocumentContext{SchemaVersion: epcis.Version20, Attrs: map[string]string{}}
	var typ string
	single := map[string]any{}

	for dec.More() {
		key, err := decodeKey(dec)
		if err != nil {
			return errs.NewConversionError("read json object key", err)
		}
		switch key {
		case "@context":
			var ctxVal any
			if err := dec.Decode(&ctxVal); err != nil {
				return errs.NewConversionError("decode @context", err)
			}
			c.applyContext(ctxVal)
		case "type":
			if err := dec.Decode(&typ); err != nil {
				return errs.NewConversionError("decode type", err)
			}
		case "schemaVersion":
			var s string
			if err := dec.Decode(&s); err != nil {
				return errs.NewConversionError("decode schemaVersion", err)
			}
		case "creationDate":
			if err := dec.Decode(&dctx.CreationDate); err != nil {
				return errs.NewConversionError("decode creationDate", err)
			}
		case "epcisBody":
			dctx.IsEpcisDocument = typ != "EPCISQueryDocument"
			return c.runDocument(dec, dctx, h)
		default:
			var v any
			if err := dec.Decode(&v); err != nil {
				return errs.NewConversionError("decode event field", err)
			}
			single[key] = v
		}
	}

	// No "epcisBody" key was seen: this is a bare single event object.
	if _, err := dec.Token(); err != nil { // consume closing '}'
		return errs.NewConversionError("read json closing brace", err)
	}
	return c.runSingleEvent(typ, single, h)
}

func (c *Converter) runSingleEvent(typ string, fields map[string]any, h *handler.Handler) error {
	if typ == "" {
		return errs.NewFormatError("single event json object missing \"type\"", nil)
	}
	fields["type"] = typ
	ev, err := c.marshal.ReadJSONEvent(fields)
	if err != nil {
		return errs.NewConversionError("read single event", err)
	}

	if err := h.StartSingleEvent(epcis.DocumentContext{SchemaVersion: epcis.Version20}); err != nil {
		return errs.NewConversionError("start single event", err)
	}
	if c.mapper != nil {
		mapped, err := c.mapper(ev, []int{0})
		if err != nil {
			return errs.NewConversionError("apply mapper to single event", err)
		}
		ev = mapped
	}
	raw, err := c.marshalXML(ev)
	if err != nil {
		return err
	}
	if err := h.HandleSingle(raw, ev); err != nil {
		return errs.NewConversionError("handle single event", err)
	}
	return h.EndSingleEvent()
}

// runDocument handles the object value of "epcisBody": either a plain
// "eventList" or a query document's "queryResults" wrapper (spec §4.7).
func (c *Converter) runDocument(dec *json.Decoder, dctx epcis.DocumentContext, h *handler.Handler) error {
	if err := expectDelim(dec, '{'); err != nil {
		return errs.NewConversionError("read epcisBody", err)
	}
	for dec.More() {
		key, err := decodeKey(dec)
		if err != nil {
			return errs.NewConversionError("read epcisBody key", err)
		}
		switch key {
		case "eventList":
			return c.streamEvents(dec, dctx, h)
		case "queryResults":
			return c.runQueryResults(dec, dctx, h)
		default:
			var v any
			if err := dec.Decode(&v); err != nil {
				return errs.NewConversionError("decode epcisBody field", err)
			}
		}
	}
	return errs.NewFormatError("epcisBody has no eventList or queryResults", nil)
}

func (c *Converter) runQueryResults(dec *json.Decoder, dctx epcis.DocumentContext, h *handler.Handler) error {
	if err := expectDelim(dec, '{'); err != nil {
		return errs.NewConversionError("read queryResults", err)
	}
	for dec.More() {
		key, err := decodeKey(dec)
		if err != nil {
			return errs.NewConversionError("read queryResults key", err)
		}
		switch key {
		case "subscriptionID":
			if err := dec.Decode(&dctx.SubscriptionID); err != nil {
				return errs.NewConversionError("decode subscriptionID", err)
			}
		case "queryName":
			if err := dec.Decode(&dctx.QueryName); err != nil {
				return errs.NewConversionError("decode queryName", err)
			}
		case "resultsBody":
			dctx.HasResultsBody = true
			if err := expectDelim(dec, '{'); err != nil {
				return errs.NewConversionError("read resultsBody", err)
			}
			for dec.More() {
				key2, err := decodeKey(dec)
				if err != nil {
					return errs.NewConversionError("read resultsBody key", err)
				}
				if key2 == "eventList" {
					return c.streamEvents(dec, dctx, h)
				}
				var v any
				if err := dec.Decode(&v); err != nil {
					return errs.NewConversionError("decode resultsBody field", err)
				}
			}
			return errs.NewFormatError("resultsBody has no eventList", nil)
		default:
			var v any
			if err := dec.Decode(&v); err != nil {
				return errs.NewConversionError("decode queryResults field", err)
			}
		}
	}
	return errs.NewFormatError("queryResults has no resultsBody", nil)
}

// streamEvents implements EVENT_LIST (spec §4.7): on entering the array it
// emits the document preamble via h.Start, then deserialises, maps, and
// serialises one event at a time.
func (c *Converter) streamEvents(dec *json.Decoder, dctx epcis.DocumentContext, h *handler.Handler) error {
	if err := c.populateXMLNamespaces(); err != nil {
		return err
	}
	if err := h.Start(dctx); err != nil {
		return errs.NewConversionError("start document", err)
	}

	if err := expectDelim(dec, '['); err != nil {
		return errs.NewConversionError("read eventList", err)
	}

	ordinal := 0
	for dec.More() {
		var raw map[string]any
		if err := dec.Decode(&raw); err != nil {
			return errs.NewConversionError("decode event object", err)
		}
		ev, err := c.marshal.ReadJSONEvent(raw)
		if err != nil {
			return errs.NewConversionError("read event", err)
		}
		ev.Ordinal = ordinal

		if c.mapper != nil {
			mapped, err := c.mapper(ev, []int{ordinal})
			if err != nil {
				return errs.NewConversionError("apply mapper", err)
			}
			ev = mapped
		}

		xmlRaw, err := c.marshalXML(ev)
		if err != nil {
			return err
		}
		if err := h.Handle(xmlRaw, ev); err != nil {
			return errs.NewConversionError("handle event", err)
		}
		ordinal++
	}
	if _, err := dec.Token(); err != nil { // consume ']'
		return errs.NewConversionError("read eventList closing bracket", err)
	}

	// Skip any keys that follow "eventList" in the object that contains
	// it. The closing braces, and any keys of the enclosing objects
	// (queryResults/epcisBody/root), are never read.
	for dec.More() {
		if _, err := decodeKey(dec); err != nil {
			return errs.NewConversionError("drain trailing json", err)
		}
		var v any
		if err := dec.Decode(&v); err != nil {
			return errs.NewConversionError("drain trailing json value", err)
		}
	}

	return h.End()
}

func (c *Converter) marshalXML(ev *epcis.Event) (string, error) {
	var buf bytes.Buffer
	nsByURI := map[string]string{}
	for _, b := range c.resolver.GetAllNs() {
		nsByURI[b.URI] = b.Prefix
	}
	if err := c.marshal.MarshalXMLEvent(&buf, ev, nsByURI); err != nil {
		return "", errs.NewConversionError("serialise event to xml", err)
	}
	return buf.String(), nil
}

// applyContext folds a decoded "@context" value into document-scope
// namespace bindings (spec §4.7): object entries are prefix→URI
// bindings; string entries carry no prefix but are still recorded
// (Prefix: "") so a context-handler can match on the URL itself (spec
// §4.2's "match on a URL in @context", e.g. the GS1-Egypt handler).
func (c *Converter) applyContext(ctxVal any) {
	arr, ok := ctxVal.([]any)
	if !ok {
		arr = []any{ctxVal}
	}
	for _, entry := range arr {
		switch v := entry.(type) {
		case string:
			c.resolver.AddDocumentNs(epcis.NsBinding{URI: v, Prefix: ""})
		case map[string]any:
			for prefix, uriVal := range v {
				if prefix == "@vocab" {
					continue
				}
				uri, ok := uriVal.(string)
				if !ok {
					continue
				}
				c.resolver.AddDocumentNs(epcis.NsBinding{URI: uri, Prefix: prefix})
			}
		}
	}
}

func (c *Converter) populateXMLNamespaces() error {
	if c.registry == nil {
		return nil
	}
	nsMap := map[string]string{}
	for _, b := range c.resolver.GetAllNs() {
		nsMap[b.URI] = b.Prefix
	}
	if err := c.registry.ResolveForXML(nsMap, c.resolver); err != nil {
		return err
	}
	return nil
}

func decodeKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", err
	}
	s, ok := tok.(string)
	if !ok {
		return "", errs.NewFormatError("expected json object key", nil)
	}
	return s, nil
}

func expectDelim(dec *json.Decoder, want json.Delim) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := tok.(json.Delim)
	if !ok || d != want {
		return errs.NewFormatError("unexpected json token shape", nil)
	}
	return nil
}
