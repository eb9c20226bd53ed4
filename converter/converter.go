// Package converter is the EPCIS document converter's public API: a
// single Convert entry point that strings together prescan, the
// (format, version) conversion plan, and the streaming XML/JSON codecs,
// matching the "one-call conversion" surface spec.md §1 describes for
// callers that don't need C1-C10 individually.
package converter

import (
	"context"
	"io"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	ctxhandler "github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/convert"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/gs1"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/validate"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/xmlversion"
)

// Target selects the output (format, version) a conversion produces.
// VersionUnknown is not a valid Target field (only a valid Options.From
// value, meaning "detect via prescan").
type Target struct {
	Format  epcis.Format
	Version epcis.Version
}

// Options configures one Convert call.
type Options struct {
	// From overrides prescan detection. Leave Version as
	// epcis.VersionUnknown (the zero value) to let Convert run C10
	// itself; Format is ignored when Version is unknown.
	From Target
	// To is the required conversion target.
	To Target

	// IdentifierFormat drives the optional internal/gs1 sample mapper
	// (spec §6). The zero value (NoPreference/NoPreference) disables
	// translation and Convert runs with a nil Mapper.
	IdentifierFormat epcis.FormatPreference
	// CompanyPrefixLen configures the sample mapper's Digital-Link ->
	// URN split point; 0 defaults to 7 (see internal/gs1.Options).
	CompanyPrefixLen int

	// Strict12 controls C8's downconvert behavior when targeting
	// XML-1.2: true strips 2.0-only elements, false demotes them into an
	// extension wrapper. Convert passes the value as given, so the zero
	// value (false) demotes; cmd/epcisconvert's -strict12 flag defaults
	// to true.
	Strict12 bool
	// Concurrency bounds C9's worker pool; 0 defaults to 4.
	Concurrency int

	// Validate runs the advisory JSON-Schema/XSD-shape validator
	// (spec §4.4) alongside collection. Construction cost (compiling
	// embedded schemas) is paid once per Convert call when enabled.
	Validate bool
	// Registry overrides the default context-handler registry (spec
	// §4.2); nil uses the built-in default-only registry.
	Registry *ctxhandler.Registry
}

// Convert reads one EPCIS document from r, converts it to opts.To, and
// writes the result to w. It is the streaming, one-shot entry point and
// builds every component afresh on each call (cmd/epcisconvert's --watch
// mode calls it once per file); a caller that wants to reuse a compiled
// Validator across calls builds the C1-C10 components directly.
func Convert(ctx context.Context, r io.Reader, w io.Writer, opts Options) error {
	source := opts.From.Version
	var in io.Reader = r
	var err error

	if source == epcis.VersionUnknown {
		var pt convert.Point
		pt, in, err = convert.Prescan(r)
		if err != nil {
			return err
		}
		opts.From = Target{Format: pt.Format, Version: pt.Version}
	}

	plan, err := convert.ComputePlan(
		convert.Point{Format: opts.From.Format, Version: opts.From.Version},
		convert.Point{Format: opts.To.Format, Version: opts.To.Version},
	)
	if err != nil {
		return err
	}

	xform, err := xmlversion.New(xmlversion.Options{Strict12: opts.Strict12})
	if err != nil {
		return err
	}

	registry := opts.Registry
	if registry == nil {
		registry = ctxhandler.NewRegistry()
	}

	o, err := convert.New(convert.Options{
		Transformer: xform,
		Registry:    registry,
		Concurrency: opts.Concurrency,
	})
	if err != nil {
		return err
	}

	var mapper epcis.Mapper
	if opts.IdentifierFormat.Translate() {
		mapper = gs1.NewMapper(opts.IdentifierFormat, gs1.Options{CompanyPrefixLen: opts.CompanyPrefixLen})
	}

	var h *handler.Handler
	if plan.Terminal() {
		h, err = newTerminalHandler(opts, w)
		if err != nil {
			return err
		}
	}

	if err := o.Run(ctx, in, w, plan, mapper, h); err != nil {
		if h != nil {
			h.Fail(err)
			_ = h.Close()
		}
		return err
	}
	if h != nil {
		return h.Close()
	}
	return nil
}

// newTerminalHandler builds the Handler a terminal (C6/C7-ending) plan
// drives: a validator (if requested) plus the stream collector matching
// opts.To's format, so C6/C7 write the converted document straight to w
// rather than buffering it (spec §5).
func newTerminalHandler(opts Options, w io.Writer) (*handler.Handler, error) {
	var v *validate.Validator
	if opts.Validate {
		var err error
		v, err = validate.New()
		if err != nil {
			return nil, err
		}
	}

	c, err := streamCollectorFor(opts.To.Format, w)
	if err != nil {
		return nil, err
	}

	h, err := handler.New(v, c)
	if err != nil {
		return nil, errs.NewConfigError("build converter handler", err)
	}
	return h, nil
}

// streamCollectorFor returns the stream collector matching format,
// writing to w.
func streamCollectorFor(format epcis.Format, w io.Writer) (collector.Collector, error) {
	marshal := epcis.NewMarshaller()
	switch format {
	case epcis.FormatJSON:
		return collector.NewJSONStreamCollector(w, marshal), nil
	case epcis.FormatXML:
		return collector.NewXMLStreamCollector(w, marshal, nsresolver.New()), nil
	default:
		return nil, errs.NewConfigError("unsupported conversion target format "+string(format), nil)
	}
}
