package jsoncodec

import (
	"strings"
	"testing"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/context"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/errs"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/handler"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
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

func TestConvertDocumentStreamsEvents(t *testing.T) {
	h, c := newTestHandler(t)
	jsonIn := `{"@context":["https://ref.gs1.org/standards/epcis/2.0.0/epcis-context.jsonld"],` +
		`"type":"EPCISDocument","schemaVersion":"2.0","creationDate":"2026-01-01T00:00:00Z",` +
		`"epcisBody":{"eventList":[` +
		`{"type":"ObjectEvent","action":"ADD","eventTime":"2026-01-01T00:00:00Z"},` +
		`{"type":"ObjectEvent","action":"OBSERVE","eventTime":"2026-01-01T00:00:00Z"}` +
		`]}}`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(jsonIn), h))

	got, err := c.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.True(t, res.DocumentContext.IsEpcisDocument)
	require.Len(t, res.Events, 2)
	assert.Equal(t, epcis.ObjectEventType, res.Events[0].Type)
	assert.Equal(t, "ADD", res.Events[0].Fields["action"])
	assert.Equal(t, "OBSERVE", res.Events[1].Fields["action"])
}

func TestConvertQueryDocumentCapturesSubscriptionAndQueryName(t *testing.T) {
	h, c := newTestHandler(t)
	jsonIn := `{"type":"EPCISQueryDocument","schemaVersion":"2.0",` +
		`"epcisBody":{"queryResults":{"subscriptionID":"sub-42","queryName":"SimpleEventQuery",` +
		`"resultsBody":{"eventList":[{"type":"ObjectEvent","action":"OBSERVE"}]}}}}`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(jsonIn), h))

	got, err := c.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	assert.False(t, res.DocumentContext.IsEpcisDocument)
	assert.Equal(t, "sub-42", res.DocumentContext.SubscriptionID)
	assert.Equal(t, "SimpleEventQuery", res.DocumentContext.QueryName)
	assert.True(t, res.DocumentContext.HasResultsBody)
	require.Len(t, res.Events, 1)
}

func TestConvertBareSingleEventTakesSingleEventPath(t *testing.T) {
	h, c := newTestHandler(t)
	jsonIn := `{"type":"ObjectEvent","action":"ADD","eventTime":"2026-01-01T00:00:00Z"}`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(jsonIn), h))

	got, err := c.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.NotNil(t, res.SingleEvent)
	assert.Equal(t, epcis.ObjectEventType, res.SingleEvent.Type)
	assert.Equal(t, "ADD", res.SingleEvent.Fields["action"])
	assert.Empty(t, res.Events)
}

func TestConvertSingleEventMissingTypeIsFormatError(t *testing.T) {
	h, _ := newTestHandler(t)
	err := New(Options{}).Convert(strings.NewReader(`{"action":"ADD"}`), h)
	require.Error(t, err)
	var fe *errs.FormatError
	assert.ErrorAs(t, err, &fe)
}

func TestConvertAppliesMapper(t *testing.T) {
	h, c := newTestHandler(t)
	mapper := func(ev *epcis.Event, ancestors []int) (*epcis.Event, error) {
		ev.Fields["mapped"] = true
		return ev, nil
	}
	jsonIn := `{"type":"EPCISDocument","epcisBody":{"eventList":[{"type":"ObjectEvent","action":"ADD"}]}}`

	require.NoError(t, New(Options{Mapper: mapper}).Convert(strings.NewReader(jsonIn), h))

	got, err := c.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.Len(t, res.Events, 1)
	assert.Equal(t, true, res.Events[0].Fields["mapped"])
}

func TestConvertEventSerialisesToValidXML(t *testing.T) {
	var buf strings.Builder
	c := collector.NewXMLStreamCollector(&buf, epcis.NewMarshaller(), nsresolver.New())
	h, err := handler.New(nil, c)
	require.NoError(t, err)

	jsonIn := `{"type":"EPCISDocument","schemaVersion":"2.0","creationDate":"2026-01-01T00:00:00Z",` +
		`"epcisBody":{"eventList":[{"type":"ObjectEvent","action":"ADD"}]}}`

	require.NoError(t, New(Options{}).Convert(strings.NewReader(jsonIn), h))

	out := buf.String()
	assert.Contains(t, out, "<ObjectEvent>")
	assert.True(t, strings.HasSuffix(out, "</epcis:EPCISDocument>"))
}

func TestConvertMatchesGS1EgyptFromContextURLAlone(t *testing.T) {
	var buf strings.Builder
	resolver := nsresolver.New()
	c := collector.NewXMLStreamCollector(&buf, epcis.NewMarshaller(), resolver)
	h, err := handler.New(nil, c)
	require.NoError(t, err)

	reg := context.NewRegistry(context.NewGS1EgyptHandler())
	jsonIn := `{"@context":["https://gs1eg.org/standards/epcis/2.0.0/epcis-context.jsonld"],` +
		`"type":"EPCISDocument","schemaVersion":"2.0","creationDate":"2026-01-01T00:00:00Z",` +
		`"epcisBody":{"eventList":[{"type":"ObjectEvent","action":"ADD"}]}}`

	require.NoError(t, New(Options{Registry: reg}).Convert(strings.NewReader(jsonIn), h))

	out := buf.String()
	assert.Contains(t, out, `xmlns:gs1egypthc="http://epcis.gs1eg.org/hc/ns"`)
}
