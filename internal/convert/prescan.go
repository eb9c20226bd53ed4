// Package convert implements the Version Transformer orchestrator (C9,
// spec §4.9) and Prescan (C10, spec §4.10): computing and running a chain
// of C6/C7/C8 legs between any two points on the (format, version) grid,
// and auto-detecting an input's format/version when the caller doesn't
// already know it.
package convert

import (
	"bytes"
	"io"
	"regexp"
	"strings"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
)

const prescanLimit = 4096

var (
	xmlSchemaVersionRe  = regexp.MustCompile(`schemaVersion\s*=\s*["']([^"']*)["']`)
	jsonSchemaVersionRe = regexp.MustCompile(`"schemaVersion"\s*:\s*"([^"]*)"`)
)

// Point identifies a position on the (format, version) conversion grid
// (spec §4.9's table header).
type Point struct {
	Format  epcis.Format
	Version epcis.Version
}

var (
	XML12  = Point{Format: epcis.FormatXML, Version: epcis.Version12}
	XML20  = Point{Format: epcis.FormatXML, Version: epcis.Version20}
	JSON20 = Point{Format: epcis.FormatJSON, Version: epcis.Version20}
)

func (p Point) String() string { return string(p.Format) + "-" + string(p.Version) }

// Prescan reads a bounded prefix of r (spec §4.10: "up to 4096 bytes"),
// detects format and schema version, and returns a Point plus a reader
// that replays the peeked bytes ahead of the rest of r -- the streaming
// equivalent of "resets the stream to byte 0 on exit", since an
// arbitrary io.Reader may not support Seek.
func Prescan(r io.Reader) (Point, io.Reader, error) {
	buf := make([]byte, prescanLimit)
	n, readErr := io.ReadFull(r, buf)
	if readErr == io.ErrUnexpectedEOF || readErr == io.EOF {
		readErr = nil
	} else if readErr != nil {
		return Point{}, r, errs.NewIoError("prescan read", readErr)
	}
	peeked := buf[:n]
	replay := io.MultiReader(bytes.NewReader(peeked), r)

	trimmed := strings.TrimLeft(string(peeked), " \t\r\n")
	if trimmed == "" {
		return Point{}, replay, errs.NewFormatError("prescan: input is empty or all whitespace", nil)
	}

	var format epcis.Format
	var versionRe *regexp.Regexp
	switch trimmed[0] {
	case '<':
		format = epcis.FormatXML
		versionRe = xmlSchemaVersionRe
	case '{':
		format = epcis.FormatJSON
		versionRe = jsonSchemaVersionRe
	default:
		return Point{}, replay, errs.NewFormatError("prescan: input starts with neither '<' nor '{'", nil)
	}

	version := epcis.VersionUnknown
	if m := versionRe.FindStringSubmatch(trimmed); m != nil {
		version = epcis.Version(m[1])
	}

	return Point{Format: format, Version: version}, replay, nil
}
