package collector

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
)

// XMLStreamCollector is the symmetric counterpart of JSONStreamCollector
// (spec §4.3): it writes EPCIS XML progressively, one event element at a
// time, with the root element's namespace declarations supplied by the
// resolver the context handler populated.
type XMLStreamCollector struct {
	w        io.Writer
	marshal  epcis.Marshaller
	resolver *nsresolver.Resolver

	isDoc          bool
	subscriptionID string
	queryName      string
	closed         bool
}

// NewXMLStreamCollector returns a Collector writing XML to w.
func NewXMLStreamCollector(w io.Writer, m epcis.Marshaller, resolver *nsresolver.Resolver) *XMLStreamCollector {
	return &XMLStreamCollector{w: w, marshal: m, resolver: resolver, isDoc: true}
}

func (c *XMLStreamCollector) SetIsEpcisDocument(b bool)   { c.isDoc = b }
func (c *XMLStreamCollector) SetSubscriptionID(id string) { c.subscriptionID = id }
func (c *XMLStreamCollector) SetQueryName(name string)    { c.queryName = name }
func (c *XMLStreamCollector) IsEpcisDocument() bool       { return c.isDoc }

func (c *XMLStreamCollector) Start(dctx epcis.DocumentContext) error {
	c.isDoc = dctx.IsEpcisDocument
	c.subscriptionID = dctx.SubscriptionID
	c.queryName = dctx.QueryName

	root := "epcis:EPCISDocument"
	if !c.isDoc {
		root = "epcis:EPCISQueryDocument"
	}

	nsAttrs := `xmlns:epcis="urn:epcglobal:epcis:xsd:2"`
	for _, b := range c.resolver.GetAllNs() {
		nsAttrs += fmt.Sprintf(` xmlns:%s=%q`, b.Prefix, b.URI)
	}

	if _, err := fmt.Fprintf(c.w, `<?xml version="1.0" encoding="UTF-8"?><%s %s schemaVersion=%q creationDate=%q>`,
		root, nsAttrs, string(dctx.SchemaVersion), dctx.CreationDate); err != nil {
		return errs.NewIoError("write xml document preamble", err)
	}

	if c.isDoc {
		_, err := io.WriteString(c.w, `<EPCISBody><EventList>`)
		return wrapIo(err)
	}
	if _, err := fmt.Fprintf(c.w, `<EPCISBody><QueryResults><subscriptionID>%s</subscriptionID><queryName>%s</queryName><resultsBody><EventList>`,
		escapeXMLText(c.subscriptionID), escapeXMLText(c.queryName)); err != nil {
		return errs.NewIoError("write xml query preamble", err)
	}
	return nil
}

func (c *XMLStreamCollector) Collect(ev *epcis.Event) error {
	if err := c.marshal.MarshalXMLEvent(c.w, ev, nil); err != nil {
		return errs.NewConversionError("marshal event to xml", err)
	}
	return nil
}

func (c *XMLStreamCollector) End() error {
	if c.isDoc {
		_, err := io.WriteString(c.w, `</EventList></EPCISBody></epcis:EPCISDocument>`)
		return wrapIo(err)
	}
	_, err := io.WriteString(c.w, `</EventList></resultsBody></QueryResults></EPCISBody></epcis:EPCISQueryDocument>`)
	return wrapIo(err)
}

func (c *XMLStreamCollector) StartSingleEvent(dctx epcis.DocumentContext) error {
	if _, err := io.WriteString(c.w, `<?xml version="1.0" encoding="UTF-8"?>`); err != nil {
		return errs.NewIoError("write xml single-event prolog", err)
	}
	return nil
}

func (c *XMLStreamCollector) CollectSingleEvent(ev *epcis.Event) error {
	if err := c.marshal.MarshalXMLEvent(c.w, ev, nil); err != nil {
		return errs.NewConversionError("marshal single event to xml", err)
	}
	return nil
}

func (c *XMLStreamCollector) EndSingleEvent() error { return nil }

func (c *XMLStreamCollector) Get() (any, error) { return nil, nil }

func (c *XMLStreamCollector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if cl, ok := c.w.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func escapeXMLText(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}
