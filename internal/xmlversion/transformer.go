// Package xmlversion implements the XML Version Transformer (C8, spec
// §4.8): upconvert/downconvert between EPCIS XML 1.2 and XML 2.0 shapes.
//
// spec.md describes this component as driving embedded XSLT stylesheets.
// No maintained pure-Go XSLT engine exists anywhere in the retrieved
// corpus, so the same transform is expressed directly as beevik/etree
// tree-rewrite rules instead -- the library the teacher already uses for
// DOM-level XML surgery (tasks/epcis_enhancer.go). New "loads" its rule
// set once at construction, mirroring "stylesheet-loading failures are
// fatal" even though there is no resource file to fail to load.
package xmlversion

import (
	"github.com/beevik/etree"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
)

const (
	nsXSD1 = "urn:epcglobal:epcis:xsd:1"
	nsXSD2 = "urn:epcglobal:epcis:xsd:2"
)

// twoOnlyElements are the element local names spec §4.8 calls 2.0-only:
// stripped (or demoted to an extension wrapper) on downconvert.
var twoOnlyElements = map[string]bool{
	"AssociationEvent":      true,
	"sensorElementList":     true,
	"persistentDisposition": true,
}

// Transformer holds the immutable 1.2<->2.0 rewrite rule set; safe for
// concurrent use across many documents once constructed.
type Transformer struct {
	strict12 bool
}

// Options configures a Transformer.
type Options struct {
	// Strict12 controls downconvert's handling of 2.0-only elements
	// (spec §4.8). New uses it as given whenever an Options value is
	// passed, so the zero value means false; only New() called with no
	// Options defaults to true.
	Strict12 bool
}

// New returns a Transformer. strict12 defaults to true (spec §4.8);
// pass Options{Strict12: false} to permit 2.0-only elements as
// extensions on downconvert.
func New(opts ...Options) (*Transformer, error) {
	t := &Transformer{strict12: true}
	if len(opts) > 0 {
		t.strict12 = opts[0].Strict12
	}
	return t, nil
}

// Upconvert rewrites an XML 1.2 document to its 2.0 shape: the schema
// namespace and schemaVersion attribute change value; no 1.2 element has
// a different shape in 2.0, so no element-level rewrite is needed (spec
// §4.8, "1.2 is a strict subset of 2.0").
func (t *Transformer) Upconvert(input []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(input); err != nil {
		return nil, errs.NewConversionError("parse xml 1.2 input", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errs.NewConversionError("upconvert: document has no root element", nil)
	}

	renameNamespace(root, nsXSD1, nsXSD2)
	setAttr(root, "schemaVersion", "2.0")

	return writeDoc(doc)
}

// Downconvert rewrites an XML 2.0 document to its 1.2 shape. With
// strict12 (the default), 2.0-only elements are removed outright; with
// strict12 false they are kept but moved under an "extension" wrapper
// element, matching 1.2's convention for carrying content a 1.2 consumer
// doesn't recognise (spec §4.8, scenario S5).
func (t *Transformer) Downconvert(input []byte) ([]byte, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(input); err != nil {
		return nil, errs.NewConversionError("parse xml 2.0 input", err)
	}
	root := doc.Root()
	if root == nil {
		return nil, errs.NewConversionError("downconvert: document has no root element", nil)
	}

	renameNamespace(root, nsXSD2, nsXSD1)
	setAttr(root, "schemaVersion", "1.2")

	if t.strict12 {
		stripTwoOnlyElements(root)
	} else {
		demoteTwoOnlyElements(root)
	}

	return writeDoc(doc)
}

func writeDoc(doc *etree.Document) ([]byte, error) {
	doc.Indent(2)
	out, err := doc.WriteToBytes()
	if err != nil {
		return nil, errs.NewConversionError("serialise transformed document", err)
	}
	return out, nil
}

// renameNamespace rewrites every xmlns declaration on root whose value
// is from, to to.
func renameNamespace(root *etree.Element, from, to string) {
	for _, a := range root.Attr {
		if a.Value == from {
			root.CreateAttr(a.FullKey(), to)
		}
	}
}

// setAttr upserts an attribute; CreateAttr already replaces an existing
// value for the same key rather than adding a duplicate.
func setAttr(el *etree.Element, key, value string) {
	el.CreateAttr(key, value)
}

// stripTwoOnlyElements removes every element (at any depth) whose tag is
// in twoOnlyElements, in place.
func stripTwoOnlyElements(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if twoOnlyElements[child.Tag] {
			el.RemoveChild(child)
			continue
		}
		stripTwoOnlyElements(child)
	}
}

// demoteTwoOnlyElements moves every 2.0-only element (at any depth) into
// an "extension" child of its own parent (creating it if absent) instead
// of removing it; an AssociationEvent directly under EventList thus lands
// in an extension element inside EventList.
func demoteTwoOnlyElements(el *etree.Element) {
	for _, child := range el.ChildElements() {
		if twoOnlyElements[child.Tag] {
			parent := child.Parent()
			ext := parent.SelectElement("extension")
			if ext == nil {
				ext = parent.CreateElement("extension")
			}
			parent.RemoveChild(child)
			ext.AddChild(child)
			continue
		}
		demoteTwoOnlyElements(child)
	}
}

// IsTwoOnlyElement reports whether name is one of the 2.0-only element
// names spec §4.8 names; exposed for callers that need the same
// classification outside a full document transform. Nothing else in
// this module calls it.
func IsTwoOnlyElement(name string) bool { return twoOnlyElements[name] }
