package collector

import "github.com/openepcis/openepcis-document-converter-sub002/epcis"

// ListCollector accumulates events in memory in arrival order instead of
// streaming them out; Get returns the collected *epcis.Event values, not
// serialised bytes. The legs of a multi-leg conversion plan are joined by
// byte pipes, not by a ListCollector.
type ListCollector struct {
	dctx     epcis.DocumentContext
	events   []*epcis.Event
	single   *epcis.Event
	isSingle bool
}

// NewListCollector returns an empty ListCollector.
func NewListCollector() *ListCollector { return &ListCollector{} }

func (c *ListCollector) SetIsEpcisDocument(b bool)   { c.dctx.IsEpcisDocument = b }
func (c *ListCollector) SetSubscriptionID(id string) { c.dctx.SubscriptionID = id }
func (c *ListCollector) SetQueryName(name string)    { c.dctx.QueryName = name }
func (c *ListCollector) IsEpcisDocument() bool       { return c.dctx.IsEpcisDocument }

func (c *ListCollector) Start(dctx epcis.DocumentContext) error {
	c.dctx = dctx
	c.events = c.events[:0]
	return nil
}

func (c *ListCollector) Collect(ev *epcis.Event) error {
	c.events = append(c.events, ev)
	return nil
}

func (c *ListCollector) End() error { return nil }

func (c *ListCollector) StartSingleEvent(dctx epcis.DocumentContext) error {
	c.dctx = dctx
	c.isSingle = true
	return nil
}

func (c *ListCollector) CollectSingleEvent(ev *epcis.Event) error {
	c.single = ev
	return nil
}

func (c *ListCollector) EndSingleEvent() error { return nil }

// Result is the structure Get returns: the document context plus either
// the full event list or the single collected event.
type Result struct {
	DocumentContext epcis.DocumentContext
	Events          []*epcis.Event
	SingleEvent     *epcis.Event
}

func (c *ListCollector) Get() (any, error) {
	if c.isSingle {
		return Result{DocumentContext: c.dctx, SingleEvent: c.single}, nil
	}
	return Result{DocumentContext: c.dctx, Events: c.events}, nil
}

func (c *ListCollector) Close() error { return nil }
