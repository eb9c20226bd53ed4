package convert

import (
	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
)

// stepKind is one leg of a conversion plan (spec §4.9's grid cells).
type stepKind int

const (
	stepUpconvert   stepKind = iota // C8 1.2 -> 2.0, byte-to-byte
	stepDownconvert                 // C8 2.0 -> 1.2, byte-to-byte
	stepXMLToJSON                   // C6, terminal: drives the event handler
	stepJSONToXML                   // C7, byte-to-byte or terminal depending on position
)

// Plan is an ordered list of steps; the source and target stay around for
// diagnostics (spec §4.9 wants plan introspection for logging/testing).
type Plan struct {
	Source Point
	Target Point
	Steps  []stepKind
}

// Terminal reports whether the plan's last step drives the event handler
// (C6 or C7 ran last) as opposed to being a pure byte-to-byte XML version
// rewrite with no event-level access (spec §4.9's XML-1.2↔XML-2.0 cells,
// which name only "C8↑"/"C8↓" with no C6/C7).
func (p Plan) Terminal() bool {
	if len(p.Steps) == 0 {
		return false
	}
	last := p.Steps[len(p.Steps)-1]
	return last == stepXMLToJSON || last == stepJSONToXML
}

// ComputePlan implements spec §4.9's grid. Source and target must each be
// a real grid point (Version12/Version20 for XML, Version20 for JSON);
// VersionUnknown means the caller should have run Prescan first.
func ComputePlan(source, target Point) (Plan, error) {
	if source.Version == epcis.VersionUnknown {
		return Plan{}, errs.NewConfigError("conversion source version is unknown; run Prescan first", nil)
	}
	if target.Version == epcis.VersionUnknown {
		return Plan{}, errs.NewConfigError("conversion target version is unspecified", nil)
	}
	if source.Format == epcis.FormatJSON && source.Version != epcis.Version20 {
		return Plan{}, errs.NewConfigError("json-1.2 is not a point on the conversion grid", nil)
	}
	if target.Format == epcis.FormatJSON && target.Version != epcis.Version20 {
		return Plan{}, errs.NewConfigError("json-1.2 is not a point on the conversion grid", nil)
	}

	if source == target {
		return Plan{Source: source, Target: target, Steps: nil}, nil
	}

	switch {
	case source == XML12 && target == XML20:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepUpconvert}}, nil
	case source == XML20 && target == XML12:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepDownconvert}}, nil
	case source == XML12 && target == JSON20:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepUpconvert, stepXMLToJSON}}, nil
	case source == XML20 && target == JSON20:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepXMLToJSON}}, nil
	case source == JSON20 && target == XML12:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepJSONToXML, stepDownconvert}}, nil
	case source == JSON20 && target == XML20:
		return Plan{Source: source, Target: target, Steps: []stepKind{stepJSONToXML}}, nil
	default:
		return Plan{}, errs.NewConfigError("unreachable point on the conversion grid", nil)
	}
}
