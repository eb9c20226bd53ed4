// Package xmlcodec implements the XML→JSON converter (C6, spec §4.6): a
// pull-based encoding/xml state machine that never materialises more
// than one event in memory at a time, so a multi-million-event document
// streams through in bounded space.
package xmlcodec

import (
	"bufio"
	"encoding/xml"
	"io"
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
)

// reservedNamespaces are never re-emitted by the namespace resolver
// (spec §4.1): they are implicit in the default JSON-LD context.
var reservedNamespaces = []string{
	"urn:epcglobal:epcis:xsd:1",
	"urn:epcglobal:epcis:xsd:2",
	"urn:epcglobal:epcis-masterdata:xsd:1",
	"urn:epcglobal:cbv:mda",
	"http://www.w3.org/2001/XMLSchema-instance",
}

// documentRootNames are the two XML document wrapper elements. Anything
// else at the top level that matches an event type name triggers
// single-event mode.
var documentRootNames = map[string]bool{
	"EPCISDocument":      true,
	"EPCISQueryDocument": true,
}

// Converter is a one-shot, non-shared XML→JSON converter: construct one
// per document, run Convert once, discard it (spec §5's per-document
// converter statelessness requirement).
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

// Convert reads EPCIS XML from r and pushes converted events into h,
// which must already be writing JSON (spec §4.6). The per-document event
// ordinal counter starts at 0 on every call.
func (c *Converter) Convert(r io.Reader, h *handler.Handler) error {
	c.resolver.ResetAll()

	br := bufio.NewReader(r)
	if _, err := br.Peek(1); err != nil {
		if err == io.EOF {
			return errs.NewFormatError("xml input is empty", nil)
		}
		return errs.NewFormatError("read xml input", err)
	}

	dec := xml.NewDecoder(br)
	return c.run(dec, h)
}

// ConvertDecoder is Convert's variant for callers that already hold an
// *xml.Decoder positioned at the start of the document. The orchestrator
// does not use it; its legs call Convert on a pipe reader.
func (c *Converter) ConvertDecoder(dec *xml.Decoder, h *handler.Handler) error {
	c.resolver.ResetAll()
	return c.run(dec, h)
}

func (c *Converter) run(dec *xml.Decoder, h *handler.Handler) error {
	root, err := nextStart(dec)
	if err != nil {
		return errs.NewConversionError("read document root element", err)
	}
	if root == nil {
		return errs.NewFormatError("xml input contains no elements", nil)
	}

	if !documentRootNames[root.Name.Local] && epcis.IsEventTypeName(root.Name.Local) {
		return c.runSingleEvent(dec, *root, h)
	}

	dctx, firstEventStart, err := c.headerScan(dec, *root)
	if err != nil {
		return err
	}

	jsonCtxValue, err := c.resolveJSONContext()
	if err != nil {
		return err
	}
	dctx.JSONLDContext = jsonCtxValue

	if err := h.Start(dctx); err != nil {
		return errs.NewConversionError("start document", err)
	}

	ordinal := 0
	start := firstEventStart
	for start != nil {
		ev, err := c.marshal.UnmarshalXMLEvent(dec, *start)
		if err != nil {
			return errs.NewConversionError("unmarshal event", err)
		}
		ev.Ordinal = ordinal
		for _, b := range ev.EventNs {
			c.resolver.AddEventNs(b)
		}

		if c.mapper != nil {
			mapped, err := c.mapper(ev, []int{ordinal})
			if err != nil {
				return errs.NewConversionError("apply mapper", err)
			}
			ev = mapped
		}

		raw, err := c.marshal.WriteJSON(ev)
		if err != nil {
			return errs.NewConversionError("serialise event to json", err)
		}
		if err := h.Handle(string(raw), ev); err != nil {
			return errs.NewConversionError("handle event", err)
		}
		c.resolver.ResetEventNs()
		ordinal++

		start, err = nextEventStart(dec)
		if err != nil {
			return errs.NewConversionError("advance to next event", err)
		}
	}

	if err := h.End(); err != nil {
		return errs.NewConversionError("end document", err)
	}
	return nil
}

func (c *Converter) runSingleEvent(dec *xml.Decoder, start xml.StartElement, h *handler.Handler) error {
	for _, a := range start.Attr {
		if a.Name.Space == "xmlns" {
			c.resolver.AddDocumentNs(epcis.NsBinding{URI: a.Value, Prefix: a.Name.Local})
		} else if a.Name.Local == "xmlns" {
			c.resolver.AddDocumentNs(epcis.NsBinding{URI: a.Value})
		}
	}

	jsonCtxValue, err := c.resolveJSONContext()
	if err != nil {
		return err
	}

	dctx := epcis.DocumentContext{SchemaVersion: epcis.Version20, JSONLDContext: jsonCtxValue}
	if err := h.StartSingleEvent(dctx); err != nil {
		return errs.NewConversionError("start single event", err)
	}

	ev, err := c.marshal.UnmarshalXMLEvent(dec, start)
	if err != nil {
		return errs.NewConversionError("unmarshal single event", err)
	}
	if c.mapper != nil {
		mapped, err := c.mapper(ev, []int{0})
		if err != nil {
			return errs.NewConversionError("apply mapper to single event", err)
		}
		ev = mapped
	}
	raw, err := c.marshal.WriteJSON(ev)
	if err != nil {
		return errs.NewConversionError("serialise single event to json", err)
	}
	if err := h.HandleSingle(string(raw), ev); err != nil {
		return errs.NewConversionError("handle single event", err)
	}
	return h.EndSingleEvent()
}

// headerScan implements the HEADER_SCAN state (spec §4.6): it captures
// namespace declarations and document attributes off the root start
// element, then advances token by token until either the first event
// start element or the document's end element, capturing
// subscriptionID/queryName/resultsBody along the way for query
// documents.
func (c *Converter) headerScan(dec *xml.Decoder, root xml.StartElement) (epcis.DocumentContext, *xml.StartElement, error) {
	dctx := epcis.DocumentContext{
		IsEpcisDocument: root.Name.Local != "EPCISQueryDocument",
		SchemaVersion:   epcis.Version20,
		Attrs:           map[string]string{},
	}

	for _, a := range root.Attr {
		if a.Name.Space == "xmlns" {
			c.resolver.AddDocumentNs(epcis.NsBinding{URI: a.Value, Prefix: a.Name.Local})
			continue
		}
		if a.Name.Local == "xmlns" {
			c.resolver.AddDocumentNs(epcis.NsBinding{URI: a.Value})
			continue
		}
		switch a.Name.Local {
		case "schemaVersion":
			// Rewritten to 2.0 unconditionally on output (spec §4.6).
		case "creationDate":
			dctx.CreationDate = a.Value
		default:
			dctx.Attrs[a.Name.Local] = a.Value
		}
	}

	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return dctx, nil, nil
			}
			return dctx, nil, errs.NewConversionError("scan document header", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if epcis.IsEventTypeName(t.Name.Local) {
				return dctx, &t, nil
			}
			switch t.Name.Local {
			case "subscriptionID":
				dctx.SubscriptionID, err = readCharData(dec, t)
			case "queryName":
				dctx.QueryName, err = readCharData(dec, t)
			case "resultsBody":
				dctx.HasResultsBody = true
			}
			if err != nil {
				return dctx, nil, errs.NewConversionError("scan document header", err)
			}
		case xml.EndElement:
			if t.Name.Local == root.Name.Local {
				return dctx, nil, nil
			}
		}
	}
}

func (c *Converter) resolveJSONContext() (any, error) {
	if c.registry == nil {
		return nil, nil
	}
	nsMap := map[string]string{}
	for _, b := range c.resolver.GetAllNs() {
		nsMap[b.URI] = b.Prefix
	}
	ctxObj, err := c.registry.ResolveForJSON(nsMap)
	if err != nil {
		return nil, err
	}
	return ctxObj["@context"], nil
}

// nextEventStart scans forward (skipping between-event whitespace/
// document-closing tags) for the next event start element, returning nil
// once the document's events are exhausted.
func nextEventStart(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if epcis.IsEventTypeName(t.Name.Local) {
				return &t, nil
			}
		case xml.EndElement:
			if documentRootNames[t.Name.Local] {
				return nil, nil
			}
		}
	}
}

func nextStart(dec *xml.Decoder) (*xml.StartElement, error) {
	for {
		tok, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return nil, nil
			}
			return nil, err
		}
		if se, ok := tok.(xml.StartElement); ok {
			return &se, nil
		}
	}
}

func readCharData(dec *xml.Decoder, start xml.StartElement) (string, error) {
	var b strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.EndElement:
			if t.Name.Local == start.Name.Local {
				return b.String(), nil
			}
		}
	}
}
