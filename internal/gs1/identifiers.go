// Package gs1 implements the sample identifier-translation mapper spec
// §1/§6 treats as an external, optional collaborator: a pure function
// over one event that rewrites EPC/CBV identifiers between URN and GS1
// Digital Link (Web URI) form according to a FormatPreference.
package gs1

import (
	"fmt"
	"strconv"
	"strings"
)

// CheckDigit computes the GS1 mod-10 check digit for a numeric string,
// adapted from the teacher's alternating-weight algorithm
// (tasks/gs1_utils.go's CalculateGS1CheckDigit) to operate on any
// GS1 key length rather than being copy-pasted per identifier type.
func CheckDigit(base string) string {
	if base == "" {
		return ""
	}
	sum := 0
	for i := len(base) - 1; i >= 0; i-- {
		d := int(base[i] - '0')
		if d < 0 || d > 9 {
			continue
		}
		posFromRight := len(base) - 1 - i
		if posFromRight%2 == 0 {
			sum += d * 3
		} else {
			sum += d
		}
	}
	return strconv.Itoa((10 - (sum % 10)) % 10)
}

func normalizeToLength(s string, length int) string {
	if len(s) < length {
		return strings.Repeat("0", length-len(s)) + s
	}
	if len(s) > length {
		return s[:length]
	}
	return s
}

// SGTINToDigitalLink converts an SGTIN URN
// ("urn:epc:id:sgtin:CompanyPrefix.IndicatorItemRef.Serial") to a GS1
// Digital Link ("https://id.gs1.org/01/<gtin14>/21/<serial>"). Returns
// "" if urn isn't a recognised SGTIN URN.
func SGTINToDigitalLink(urn string) string {
	parts, ok := strings.CutPrefix(urn, "urn:epc:id:sgtin:")
	if !ok {
		return ""
	}
	segs := strings.SplitN(parts, ".", 3)
	if len(segs) < 3 {
		return ""
	}
	companyPrefix, indicatorAndItemRef, serial := segs[0], segs[1], segs[2]

	indicator := "0"
	itemRef := indicatorAndItemRef
	if len(indicatorAndItemRef) > 0 {
		indicator = indicatorAndItemRef[0:1]
		itemRef = indicatorAndItemRef[1:]
	}
	gtin13 := normalizeToLength(indicator+companyPrefix+itemRef, 13)
	gtin14 := gtin13 + CheckDigit(gtin13)

	return fmt.Sprintf("https://id.gs1.org/01/%s/21/%s", gtin14, serial)
}

// DigitalLinkToSGTIN is SGTINToDigitalLink's inverse. companyPrefixLen
// tells it where to split the GTIN's middle digits into company prefix
// vs. item reference, since a Digital Link GTIN carries no delimiter
// (spec §6's mapper is explicitly allowed external configuration for
// this kind of ambiguity; a fixed default keeps the sample usable
// without extra wiring).
func DigitalLinkToSGTIN(link string, companyPrefixLen int) string {
	idx := strings.Index(link, "/01/")
	if idx < 0 {
		return ""
	}
	rest := link[idx+len("/01/"):]
	gtin := rest
	serial := ""
	if si := strings.Index(rest, "/21/"); si >= 0 {
		gtin = rest[:si]
		serial = rest[si+len("/21/"):]
		if ei := strings.IndexByte(serial, '/'); ei >= 0 {
			serial = serial[:ei]
		}
	}
	if ei := strings.IndexByte(gtin, '/'); ei >= 0 {
		gtin = gtin[:ei]
	}
	if len(gtin) != 14 || companyPrefixLen <= 0 || companyPrefixLen >= 13 {
		return ""
	}

	indicator := gtin[0:1]
	companyPrefix := gtin[1 : 1+companyPrefixLen]
	itemRef := gtin[1+companyPrefixLen : 13]
	if serial == "" {
		serial = "0"
	}
	return fmt.Sprintf("urn:epc:id:sgtin:%s.%s%s.%s", companyPrefix, indicator, itemRef, serial)
}

// SGLNToDigitalLink converts an SGLN URN
// ("urn:epc:id:sgln:CompanyPrefix.LocationRef.Extension") to a GS1
// Digital Link ("https://id.gs1.org/414/<gln13>/254/<extension>"),
// omitting the "/254/" segment when the extension is "0" (GS1's
// convention for "no extension").
func SGLNToDigitalLink(urn string) string {
	parts, ok := strings.CutPrefix(urn, "urn:epc:id:sgln:")
	if !ok {
		return ""
	}
	segs := strings.SplitN(parts, ".", 3)
	if len(segs) < 2 {
		return ""
	}
	companyPrefix, locationRef := segs[0], segs[1]
	extension := "0"
	if len(segs) == 3 {
		extension = segs[2]
	}

	gln12 := normalizeToLength(companyPrefix+locationRef, 12)
	gln13 := gln12 + CheckDigit(gln12)

	if extension == "0" || extension == "" {
		return fmt.Sprintf("https://id.gs1.org/414/%s", gln13)
	}
	return fmt.Sprintf("https://id.gs1.org/414/%s/254/%s", gln13, extension)
}

// DigitalLinkToSGLN is SGLNToDigitalLink's inverse.
func DigitalLinkToSGLN(link string, companyPrefixLen int) string {
	idx := strings.Index(link, "/414/")
	if idx < 0 {
		return ""
	}
	rest := link[idx+len("/414/"):]
	gln := rest
	extension := "0"
	if si := strings.Index(rest, "/254/"); si >= 0 {
		gln = rest[:si]
		extension = rest[si+len("/254/"):]
		if ei := strings.IndexByte(extension, '/'); ei >= 0 {
			extension = extension[:ei]
		}
	}
	if ei := strings.IndexByte(gln, '/'); ei >= 0 {
		gln = gln[:ei]
	}
	if len(gln) != 13 || companyPrefixLen <= 0 || companyPrefixLen >= 12 {
		return ""
	}

	companyPrefix := gln[0:companyPrefixLen]
	locationRef := gln[companyPrefixLen:12]
	return fmt.Sprintf("urn:epc:id:sgln:%s.%s.%s", companyPrefix, locationRef, extension)
}

// SSCCToDigitalLink converts an SSCC URN
// ("urn:epc:id:sscc:CompanyPrefix.SerialRef") to a GS1 Digital Link
// ("https://id.gs1.org/00/<sscc18>").
func SSCCToDigitalLink(urn string) string {
	parts, ok := strings.CutPrefix(urn, "urn:epc:id:sscc:")
	if !ok {
		return ""
	}
	segs := strings.SplitN(parts, ".", 2)
	if len(segs) < 2 {
		return ""
	}
	sscc17 := normalizeToLength(segs[0]+segs[1], 17)
	return fmt.Sprintf("https://id.gs1.org/00/%s", sscc17+CheckDigit(sscc17))
}

// DigitalLinkToSSCC is SSCCToDigitalLink's inverse.
func DigitalLinkToSSCC(link string, companyPrefixLen int) string {
	idx := strings.Index(link, "/00/")
	if idx < 0 {
		return ""
	}
	sscc := link[idx+len("/00/"):]
	if ei := strings.IndexByte(sscc, '/'); ei >= 0 {
		sscc = sscc[:ei]
	}
	if len(sscc) != 18 || companyPrefixLen <= 0 || companyPrefixLen >= 17 {
		return ""
	}
	companyPrefix := sscc[0:companyPrefixLen]
	serialRef := sscc[companyPrefixLen:17]
	return fmt.Sprintf("urn:epc:id:sscc:%s.%s", companyPrefix, serialRef)
}

// IsURN and IsDigitalLink classify an identifier string's current form.
func IsURN(id string) bool { return strings.HasPrefix(id, "urn:epc:") }

func IsDigitalLink(id string) bool {
	return strings.HasPrefix(id, "https://id.gs1.org/") || strings.HasPrefix(id, "http://id.gs1.org/")
}
