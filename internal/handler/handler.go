// Package handler implements the Event Handler (spec §4.5): the single
// object C6/C7 push converted events into. It composes an optional
// Validator and an optional Collector. Its own Handle/HandleSingle methods
// run the validator first and then call the collector's Collect/
// CollectSingleEvent; every other Collector method is forwarded as is.
// Handler does not itself implement collector.Collector.
package handler

import (
	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/validate"
)

// Handler composes one Validator and one Collector; either may be nil,
// but not both (spec §4.5).
type Handler struct {
	validator *validate.Validator
	collector collector.Collector
}

// New returns a Handler. At least one of v or c must be non-nil.
func New(v *validate.Validator, c collector.Collector) (*Handler, error) {
	if v == nil && c == nil {
		return nil, errs.NewConfigError("event handler requires a validator or a collector", nil)
	}
	return &Handler{validator: v, collector: c}, nil
}

// Handle is the converter's push point for a decoded document event: it
// validates the raw serialised form (if a validator is configured) and
// then forwards the parsed event to the collector (if configured).
func (h *Handler) Handle(raw string, ev *epcis.Event) error {
	if h.validator != nil {
		h.validator.Validate(raw)
	}
	if h.collector != nil {
		return h.collector.Collect(ev)
	}
	return nil
}

// HandleSingle is Handle's single-event-mode counterpart.
func (h *Handler) HandleSingle(raw string, ev *epcis.Event) error {
	if h.validator != nil {
		h.validator.Validate(raw)
	}
	if h.collector != nil {
		return h.collector.CollectSingleEvent(ev)
	}
	return nil
}

// The remaining methods forward directly to the inner collector, acting
// as no-ops when it is absent (the validator-only degenerate case).

func (h *Handler) Start(dctx epcis.DocumentContext) error {
	if h.collector == nil {
		return nil
	}
	return h.collector.Start(dctx)
}

func (h *Handler) End() error {
	if h.collector == nil {
		return nil
	}
	return h.collector.End()
}

func (h *Handler) StartSingleEvent(dctx epcis.DocumentContext) error {
	if h.collector == nil {
		return nil
	}
	return h.collector.StartSingleEvent(dctx)
}

func (h *Handler) EndSingleEvent() error {
	if h.collector == nil {
		return nil
	}
	return h.collector.EndSingleEvent()
}

func (h *Handler) SetIsEpcisDocument(b bool) {
	if h.collector != nil {
		h.collector.SetIsEpcisDocument(b)
	}
}

func (h *Handler) SetSubscriptionID(id string) {
	if h.collector != nil {
		h.collector.SetSubscriptionID(id)
	}
}

func (h *Handler) SetQueryName(name string) {
	if h.collector != nil {
		h.collector.SetQueryName(name)
	}
}

func (h *Handler) IsEpcisDocument() bool {
	if h.collector == nil {
		return false
	}
	return h.collector.IsEpcisDocument()
}

func (h *Handler) Get() (any, error) {
	if h.collector == nil {
		return nil, nil
	}
	return h.collector.Get()
}

func (h *Handler) Close() error {
	if h.collector == nil {
		return nil
	}
	return h.collector.Close()
}

// Fail notifies the collector of a terminal conversion error, if it
// implements collector.Failer, before the caller calls Close. A no-op
// for collectors (the common case) that have nothing to do on failure
// beyond releasing resources in Close itself.
func (h *Handler) Fail(err error) {
	if f, ok := h.collector.(collector.Failer); ok {
		f.Fail(err)
	}
}
