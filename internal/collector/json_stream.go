package collector

import (
	"fmt"
	"io"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
)

// JSONStreamCollector writes JSON bytes progressively to an io.Writer,
// emitting a comma before every event after the first (spec §4.3: "writes
// JSON bytes progressively with a comma between events"). It never
// buffers a whole document -- the largest thing held in memory at once
// is a single marshalled event.
type JSONStreamCollector struct {
	w       io.Writer
	marshal epcis.Marshaller

	isDoc          bool
	subscriptionID string
	queryName      string

	wroteAny  bool
	single    bool
	singleCtx any
	closed    bool
}

// NewJSONStreamCollector returns a Collector that writes to w using m to
// serialise each event. The "@context" value itself is supplied per call
// via DocumentContext.JSONLDContext, since it is only known once the
// source document's namespaces have been discovered.
func NewJSONStreamCollector(w io.Writer, m epcis.Marshaller) *JSONStreamCollector {
	return &JSONStreamCollector{w: w, marshal: m, isDoc: true}
}

func (c *JSONStreamCollector) SetIsEpcisDocument(b bool)    { c.isDoc = b }
func (c *JSONStreamCollector) SetSubscriptionID(id string)  { c.subscriptionID = id }
func (c *JSONStreamCollector) SetQueryName(name string)     { c.queryName = name }
func (c *JSONStreamCollector) IsEpcisDocument() bool        { return c.isDoc }

func (c *JSONStreamCollector) Start(dctx epcis.DocumentContext) error {
	c.isDoc = dctx.IsEpcisDocument
	c.subscriptionID = dctx.SubscriptionID
	c.queryName = dctx.QueryName

	kind := epcis.DocEPCISDocument
	if !c.isDoc {
		kind = epcis.DocEPCISQueryDocument
	}

	if _, err := fmt.Fprintf(c.w, `{"type":%q,"schemaVersion":%q,"creationDate":%q,"@context":%s`,
		kind.String(), string(dctx.SchemaVersion), dctx.CreationDate, mustJSON(dctx.JSONLDContext)); err != nil {
		return errs.NewIoError("write json document preamble", err)
	}

	if c.isDoc {
		_, err := io.WriteString(c.w, `,"epcisBody":{"eventList":[`)
		return wrapIo(err)
	}
	if _, err := fmt.Fprintf(c.w, `,"epcisBody":{"queryResults":{"subscriptionID":%q,"queryName":%q,"resultsBody":{"eventList":[`,
		c.subscriptionID, c.queryName); err != nil {
		return errs.NewIoError("write query document preamble", err)
	}
	return nil
}

func (c *JSONStreamCollector) Collect(ev *epcis.Event) error {
	raw, err := c.marshal.WriteJSON(ev)
	if err != nil {
		return errs.NewConversionError("marshal event to json", err)
	}
	if c.wroteAny {
		if _, err := io.WriteString(c.w, ","); err != nil {
			return errs.NewIoError("write event separator", err)
		}
	}
	c.wroteAny = true
	if _, err := c.w.Write(raw); err != nil {
		return errs.NewIoError("write event", err)
	}
	return nil
}

func (c *JSONStreamCollector) End() error {
	if c.isDoc {
		_, err := io.WriteString(c.w, `]}}`)
		return wrapIo(err)
	}
	_, err := io.WriteString(c.w, `]}}}}`)
	return wrapIo(err)
}

func (c *JSONStreamCollector) StartSingleEvent(dctx epcis.DocumentContext) error {
	c.single = true
	c.singleCtx = dctx.JSONLDContext
	return nil
}

// CollectSingleEvent writes the event wrapped with "@context" (spec
// glossary: "single-event mode ... emitted inside a minimal wrapper with
// only @context"), splicing it in ahead of the event's own fields rather
// than building a second map, since marshal.WriteJSON already guarantees
// a well-formed "{...}" object.
func (c *JSONStreamCollector) CollectSingleEvent(ev *epcis.Event) error {
	raw, err := c.marshal.WriteJSON(ev)
	if err != nil {
		return errs.NewConversionError("marshal single event to json", err)
	}
	if c.singleCtx != nil {
		if _, err := fmt.Fprintf(c.w, `{"@context":%s,`, mustJSON(c.singleCtx)); err != nil {
			return errs.NewIoError("write single event context", err)
		}
		raw = raw[1:] // drop the opening '{' already written above
	}
	if _, err := c.w.Write(raw); err != nil {
		return errs.NewIoError("write single event", err)
	}
	return nil
}

func (c *JSONStreamCollector) EndSingleEvent() error { return nil }

// Get returns nil: everything has already been flushed to the writer.
func (c *JSONStreamCollector) Get() (any, error) { return nil, nil }

func (c *JSONStreamCollector) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if cl, ok := c.w.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}

func wrapIo(err error) error {
	if err == nil {
		return nil
	}
	return errs.NewIoError("write", err)
}
