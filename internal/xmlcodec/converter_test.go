package xmlcodec

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(t *testing.T) (*handler.Handler, *collector.ListCollector) {
	t.Helper()
	c := collector.NewListCollector()
	h, err := handler.New(nil, c)
	require.NoError(t, err)
	return h, c
}

func TestConvertEmptyInputIsFormatError(t *testing.T) {
	h, _ := newTestHandler(t)
	err := New(Options{}).Convert(strings.NewReader(""), h)
	require.Error(t, err)
	var fe *errs.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestConvertDocumentRewritesSchemaVersionTo20(t *testing.T) {
	h, _ := newTestHandler(t)
	xmlIn := `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="1.2" creationDate="2026-01-01T00:00:00Z">
<EPCISBody><EventList>
<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>ADD</action><epcList><epc>urn:epc:id:sgtin:0614141.107346.2017</epc></epcList></ObjectEvent>
</EventList></EPCISBody></epcis:EPCISDocument>`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(xmlIn), h))
	require.NoError(t, h.Close())

	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.Equal(t, epcis.Version20, res.DocumentContext.SchemaVersion)
	require.Len(t, res.Events, 1)
	assert.Equal(t, epcis.ObjectEventType, res.Events[0].Type)
	epcList, _ := res.Events[0].Fields["epcList"].([]any)
	require.Len(t, epcList, 1)
	assert.Equal(t, "urn:epc:id:sgtin:0614141.107346.2017", epcList[0])
}

func TestConvertQueryDocumentCapturesSubscriptionAndQueryName(t *testing.T) {
	h, c := newTestHandler(t)
	xmlIn := `<epcis:EPCISQueryDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0" creationDate="2026-01-01T00:00:00Z">
<EPCISBody><QueryResults><subscriptionID>sub-42</subscriptionID><queryName>SimpleEventQuery</queryName>
<resultsBody><EventList>
<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>OBSERVE</action></ObjectEvent>
</EventList></resultsBody></QueryResults></EPCISBody></epcis:EPCISQueryDocument>`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(xmlIn), h))
	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	assert.False(t, res.DocumentContext.IsEpcisDocument)
	assert.Equal(t, "sub-42", res.DocumentContext.SubscriptionID)
	assert.Equal(t, "SimpleEventQuery", res.DocumentContext.QueryName)
	assert.True(t, res.DocumentContext.HasResultsBody)
	require.Len(t, res.Events, 1)

	_ = c
}

func TestConvertBareSingleEventTakesSingleEventPath(t *testing.T) {
	h, c := newTestHandler(t)
	xmlIn := `<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>ADD</action></ObjectEvent>`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(xmlIn), h))
	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.NotNil(t, res.SingleEvent)
	assert.Equal(t, epcis.ObjectEventType, res.SingleEvent.Type)
	assert.Empty(t, res.Events)

	_ = c
}

func TestConvertAppliesMapper(t *testing.T) {
	h, _ := newTestHandler(t)
	mapper := func(ev *epcis.Event, ancestors []int) (*epcis.Event, error) {
		ev.Fields["mapped"] = true
		return ev, nil
	}
	xmlIn := `<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>ADD</action></ObjectEvent>`

	require.NoError(t, New(Options{Mapper: mapper}).Convert(strings.NewReader(xmlIn), h))
	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	assert.Equal(t, true, res.SingleEvent.Fields["mapped"])
}

func TestConvertEventSerialisesToValidJSON(t *testing.T) {
	var buf strings.Builder
	c := collector.NewJSONStreamCollector(&buf, epcis.NewMarshaller())
	h, err := handler.New(nil, c)
	require.NoError(t, err)

	xmlIn := `<epcis:EPCISDocument xmlns:epcis="urn:epcglobal:epcis:xsd:2" schemaVersion="2.0" creationDate="2026-01-01T00:00:00Z">
<EPCISBody><EventList>
<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>ADD</action></ObjectEvent>
</EventList></EPCISBody></epcis:EPCISDocument>`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(xmlIn), h))
	require.NoError(t, h.Close())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &parsed))
	assert.Equal(t, "EPCISDocument", parsed["type"])
	assert.Equal(t, "2.0", parsed["schemaVersion"])
}

func TestConvertSingleEventToJSONIncludesContext(t *testing.T) {
	var buf strings.Builder
	c := collector.NewJSONStreamCollector(&buf, epcis.NewMarshaller())
	h, err := handler.New(nil, c)
	require.NoError(t, err)

	reg := context.NewRegistry(context.NewDefaultHandler())
	xmlIn := `<ObjectEvent><eventTime>2026-01-01T00:00:00Z</eventTime><action>ADD</action></ObjectEvent>`

	require.NoError(t, New(Options{Registry: reg}).Convert(strings.NewReader(xmlIn), h))
	require.NoError(t, h.Close())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal([]byte(buf.String()), &parsed))
	assert.Equal(t, "ObjectEvent", parsed["type"])
	require.Contains(t, parsed, "@context")
}
