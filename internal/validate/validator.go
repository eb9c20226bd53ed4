// Package validate implements the Validator (spec §4.4): a construction-
// time schema loader plus an advisory, never-failing check run against
// each serialised event. Violations are logged, never raised -- the
// pipeline always continues, matching the teacher's tolerant-by-default
// ingestion posture (tasks/epcis_extractor.go logs and skips malformed
// vocabulary entries rather than aborting the whole document).
package validate

import (
	"bytes"
	"embed"
	"encoding/json"
	"encoding/xml"
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/logging"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"go.uber.org/zap"
)

//go:embed schemas/*.json
var embeddedSchemas embed.FS

//go:embed xsd/*.xsd
var embeddedXSD embed.FS

// Validator holds the compiled per-event-type JSON schemas and the
// recognised XML root element names. Construction fails if any embedded
// resource is missing or fails to compile (spec §4.4: "construction
// failures are fatal").
type Validator struct {
	jsonSchemas map[epcis.EventType]*jsonschema.Schema
	xmlRoots    map[string]bool
}

// New compiles the embedded schemas and returns a ready Validator.
func New() (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	schemas := map[epcis.EventType]struct {
		file string
	}{
		epcis.ObjectEventType:         {"ObjectEventSchema.json"},
		epcis.AggregationEventType:    {"AggregationEventSchema.json"},
		epcis.TransactionEventType:    {"TransactionEventSchema.json"},
		epcis.TransformationEventType: {"TransformationEventSchema.json"},
		epcis.AssociationEventType:    {"AssociationEventSchema.json"},
	}

	for _, s := range schemas {
		raw, err := embeddedSchemas.ReadFile("schemas/" + s.file)
		if err != nil {
			return nil, errs.NewConfigError("read embedded json schema "+s.file, err)
		}
		if err := compiler.AddResource(s.file, bytes.NewReader(raw)); err != nil {
			return nil, errs.NewConfigError("add json schema resource "+s.file, err)
		}
	}

	v := &Validator{jsonSchemas: map[epcis.EventType]*jsonschema.Schema{}}
	for typ, s := range schemas {
		compiled, err := compiler.Compile(s.file)
		if err != nil {
			return nil, errs.NewConfigError("compile json schema "+s.file, err)
		}
		v.jsonSchemas[typ] = compiled
	}

	xsdRaw, err := embeddedXSD.ReadFile("xsd/EPCISEventXSD.xsd")
	if err != nil {
		return nil, errs.NewConfigError("read embedded xsd", err)
	}
	var doc struct {
		Elements []struct {
			Name string `xml:"name,attr"`
		} `xml:"element"`
	}
	if err := xml.Unmarshal(xsdRaw, &doc); err != nil {
		return nil, errs.NewConfigError("parse embedded xsd", err)
	}
	v.xmlRoots = make(map[string]bool, len(doc.Elements))
	for _, e := range doc.Elements {
		v.xmlRoots[e.Name] = true
	}
	if len(v.xmlRoots) == 0 {
		return nil, errs.NewConfigError("embedded xsd declared no recognised root elements", nil)
	}
	return v, nil
}

// Validate dispatches on the raw blob's leading character, per spec
// §4.4. It never returns an error: every problem it finds is logged as a
// warning and the caller is expected to proceed regardless.
func (v *Validator) Validate(raw string) {
	trimmed := strings.TrimSpace(raw)
	switch {
	case strings.HasPrefix(trimmed, "<"):
		v.validateXML(trimmed)
	case strings.HasPrefix(trimmed, "{"):
		v.validateJSON(trimmed)
	default:
		logging.Warn("validator: unrecognised blob shape, skipping", zap.Int("len", len(trimmed)))
	}
}

func (v *Validator) validateXML(raw string) {
	dec := xml.NewDecoder(strings.NewReader(raw))
	tok, err := dec.Token()
	for err == nil {
		if start, ok := tok.(xml.StartElement); ok {
			if !v.xmlRoots[start.Name.Local] {
				logging.Warn("validator: unrecognised xml root element",
					zap.String("element", start.Name.Local))
			}
			return
		}
		tok, err = dec.Token()
	}
	if err != nil {
		logging.Warn("validator: xml blob is not well-formed", zap.Error(err))
	}
}

func (v *Validator) validateJSON(raw string) {
	var decoded any
	if err := json.Unmarshal([]byte(raw), &decoded); err != nil {
		logging.Warn("validator: json blob does not parse", zap.Error(err))
		return
	}
	obj, ok := decoded.(map[string]any)
	if !ok {
		logging.Warn("validator: json blob is not an object")
		return
	}
	typ, _ := obj["type"].(string)
	schema, ok := v.jsonSchemas[epcis.EventType(typ)]
	if !ok {
		logging.Warn("validator: no schema registered for event type", zap.String("type", typ))
		return
	}
	if err := schema.Validate(decoded); err != nil {
		logging.Warn("validator: schema violation", zap.String("type", typ), zap.Error(err))
	}
}
