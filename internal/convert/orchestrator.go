package convert

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	ctxhandler "github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/jsoncodec"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/xmlcodec"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/xmlversion"
)

// Orchestrator is C9 (spec §4.9): it computes nothing itself (see Plan in
// plan.go) but runs a computed Plan, piping each leg's output into the
// next leg's input so the whole chain streams (spec §5). Immutable after
// construction and safe for concurrent use across documents, each call to
// Run builds its own per-document converters.
type Orchestrator struct {
	xform    *xmlversion.Transformer
	registry *ctxhandler.Registry
	marshal  epcis.Marshaller
	limit    int
}

// Options configures an Orchestrator.
type Options struct {
	Transformer *xmlversion.Transformer
	Registry    *ctxhandler.Registry
	Marshal     epcis.Marshaller
	// Concurrency bounds the shared worker pool legs run on (spec §5);
	// 0 defaults to 4.
	Concurrency int
}

// New returns an Orchestrator.
func New(opts Options) (*Orchestrator, error) {
	if opts.Transformer == nil {
		return nil, errs.NewConfigError("orchestrator requires an xml version transformer", nil)
	}
	marshal := opts.Marshal
	if marshal == nil {
		marshal = epcis.NewMarshaller()
	}
	limit := opts.Concurrency
	if limit <= 0 {
		limit = 4
	}
	return &Orchestrator{xform: opts.Transformer, registry: opts.Registry, marshal: marshal, limit: limit}, nil
}

// Run executes plan: r is the source stream, w receives the output bytes
// when the plan's last step is a pure XML version rewrite (spec §4.9's
// XML-1.2↔XML-2.0 grid cells carry no C6/C7 and so never touch h), and h
// receives individual converted events whenever the plan's last step is
// C6 or C7. mapper is applied by whichever step actually touches domain
// events. If source equals target, Run copies r to w unchanged.
func (o *Orchestrator) Run(ctx context.Context, r io.Reader, w io.Writer, plan Plan, mapper epcis.Mapper, h *handler.Handler) error {
	if len(plan.Steps) == 0 {
		if _, err := io.Copy(w, r); err != nil {
			return errs.NewIoError("copy unchanged input to output", err)
		}
		return nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(o.limit)

	readers := make([]io.Reader, len(plan.Steps))
	readers[0] = r
	writers := make([]*io.PipeWriter, len(plan.Steps)-1)
	for i := 0; i < len(plan.Steps)-1; i++ {
		pr, pw := io.Pipe()
		readers[i+1] = pr
		writers[i] = pw
	}

	terminal := plan.Terminal()
	for i, step := range plan.Steps {
		i, step := i, step
		isLast := i == len(plan.Steps)-1
		in := readers[i]

		g.Go(func() error {
			var out io.Writer
			var pw *io.PipeWriter
			if !isLast {
				pw = writers[i]
				out = pw
			} else if !terminal {
				out = w
			}

			var err error
			switch step {
			case stepUpconvert:
				err = runByteTransform(in, out, o.xform.Upconvert)
			case stepDownconvert:
				err = runByteTransform(in, out, o.xform.Downconvert)
			case stepJSONToXML:
				if isLast && terminal {
					err = jsoncodec.New(jsoncodec.Options{Registry: o.registry, Mapper: mapper, Marshal: o.marshal}).Convert(in, h)
				} else {
					err = o.runJSONToXMLBytes(in, out, mapper)
				}
			case stepXMLToJSON:
				err = xmlcodec.New(xmlcodec.Options{Registry: o.registry, Mapper: mapper, Marshal: o.marshal}).Convert(in, h)
			}

			if pw != nil {
				if err != nil {
					_ = pw.CloseWithError(err)
				} else {
					_ = pw.Close()
				}
			}
			if i > 0 {
				if rc, ok := in.(io.Closer); ok {
					_ = rc.Close()
				}
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return nil
}

// runByteTransform buffers the whole leg's input for transform -- the
// only place this orchestrator violates the "never materialise more than
// one event" rule, a direct consequence of C8 being DOM-based etree
// rewriting rather than a real streaming XSLT engine (see
// internal/xmlversion's package doc).
func runByteTransform(r io.Reader, w io.Writer, transform func([]byte) ([]byte, error)) error {
	in, err := io.ReadAll(r)
	if err != nil {
		return errs.NewIoError("read xml version transform input", err)
	}
	out, err := transform(in)
	if err != nil {
		return err
	}
	if _, err := w.Write(out); err != nil {
		return errs.NewIoError("write xml version transform output", err)
	}
	return nil
}

// runJSONToXMLBytes drives C7 with a throwaway Handler wrapping only an
// XMLStreamCollector, used when C7's output feeds C8 rather than a
// caller-supplied handler (spec §4.9's "C7 · C8↓" cell).
func (o *Orchestrator) runJSONToXMLBytes(r io.Reader, w io.Writer, mapper epcis.Mapper) error {
	xmlCollector := collector.NewXMLStreamCollector(w, o.marshal, nsresolver.New())
	midHandler, err := handler.New(nil, xmlCollector)
	if err != nil {
		return err
	}
	conv := jsoncodec.New(jsoncodec.Options{Registry: o.registry, Mapper: mapper, Marshal: o.marshal})
	if err := conv.Convert(r, midHandler); err != nil {
		midHandler.Fail(err)
		_ = midHandler.Close()
		return err
	}
	return midHandler.Close()
}
