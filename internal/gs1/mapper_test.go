package gs1

import (
	"testing"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMapperTranslatesEpcListToDigitalLink(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{EpcFormat: epcis.AlwaysDigitalLink, CbvFormat: epcis.NoPreference}, Options{})
	ev := &epcis.Event{
		Type: epcis.ObjectEventType,
		Fields: map[string]any{
			"epcList": []any{"urn:epc:id:sgtin:0614141.812345.6789"},
			"action":  "ADD",
		},
	}

	out, err := m(ev, []int{0})
	require.NoError(t, err)

	epcs := out.Fields["epcList"].([]any)
	require.Len(t, epcs, 1)
	assert.Contains(t, epcs[0].(string), "https://id.gs1.org/01/")
	assert.Equal(t, "ADD", out.Fields["action"])
}

func TestNewMapperTranslatesDigitalLinkBackToURN(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{EpcFormat: epcis.AlwaysUrn}, Options{CompanyPrefixLen: 7})
	link := SGTINToDigitalLink("urn:epc:id:sgtin:0614141.812345.6789")
	ev := &epcis.Event{Fields: map[string]any{"epcList": []any{link}}}

	out, err := m(ev, nil)
	require.NoError(t, err)
	assert.Equal(t, "urn:epc:id:sgtin:0614141.812345.6789", out.Fields["epcList"].([]any)[0])
}

func TestNewMapperTranslatesBizStepToWebURI(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{CbvFormat: epcis.AlwaysWebUri}, Options{})
	ev := &epcis.Event{Fields: map[string]any{"bizStep": "urn:epcglobal:cbv:bizstep:shipping"}}

	out, err := m(ev, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://ref.gs1.org/cbv/BizStep-shipping", out.Fields["bizStep"])
}

func TestNewMapperWalksNestedLocationID(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{EpcFormat: epcis.AlwaysDigitalLink}, Options{})
	ev := &epcis.Event{
		Fields: map[string]any{
			"readPoint": map[string]any{"id": "urn:epc:id:sgln:0614141.00001.0"},
		},
	}

	out, err := m(ev, nil)
	require.NoError(t, err)
	nested := out.Fields["readPoint"].(map[string]any)
	assert.Contains(t, nested["id"].(string), "https://id.gs1.org/414/")
}

func TestNewMapperLeavesUnrecognisedValuesUntouched(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{EpcFormat: epcis.AlwaysDigitalLink, CbvFormat: epcis.AlwaysWebUri}, Options{})
	ev := &epcis.Event{Fields: map[string]any{
		"epcList":     []any{"not-an-epc"},
		"bizStep":     "custom-biz-step",
		"eventTime":   "2024-01-01T00:00:00Z",
	}}

	out, err := m(ev, nil)
	require.NoError(t, err)
	assert.Equal(t, "not-an-epc", out.Fields["epcList"].([]any)[0])
	assert.Equal(t, "custom-biz-step", out.Fields["bizStep"])
	assert.Equal(t, "2024-01-01T00:00:00Z", out.Fields["eventTime"])
}

func TestNewMapperNilEventIsNoOp(t *testing.T) {
	m := NewMapper(epcis.FormatPreference{EpcFormat: epcis.AlwaysDigitalLink}, Options{})
	out, err := m(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, out)
}
