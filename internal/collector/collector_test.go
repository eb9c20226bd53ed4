package collector

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/nsresolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONStreamCollectorWritesCommaSeparatedEvents(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONStreamCollector(&buf, epcis.NewMarshaller())

	require.NoError(t, c.Start(epcis.DocumentContext{IsEpcisDocument: true, SchemaVersion: epcis.Version20, CreationDate: "2026-01-01T00:00:00Z", JSONLDContext: []any{"https://example.com/ctx"}}))
	require.NoError(t, c.Collect(&epcis.Event{Type: epcis.ObjectEventType, Fields: map[string]any{"action": "ADD"}}))
	require.NoError(t, c.Collect(&epcis.Event{Type: epcis.ObjectEventType, Fields: map[string]any{"action": "OBSERVE"}}))
	require.NoError(t, c.End())

	out := buf.String()
	assert.True(t, strings.Contains(out, `"ADD"`))
	assert.True(t, strings.Contains(out, `},{`), "expected a comma between two collected events")
	assert.True(t, strings.HasSuffix(out, `]}}`))

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "EPCISDocument", parsed["type"])
}

func TestJSONStreamCollectorQueryDocument(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONStreamCollector(&buf, epcis.NewMarshaller())
	c.SetIsEpcisDocument(false)
	c.SetSubscriptionID("sub-1")
	c.SetQueryName("SimpleEventQuery")

	require.NoError(t, c.Start(epcis.DocumentContext{IsEpcisDocument: false, SubscriptionID: "sub-1", QueryName: "SimpleEventQuery"}))
	require.NoError(t, c.End())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "EPCISQueryDocument", parsed["type"])
}

func TestJSONStreamCollectorSingleEvent(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONStreamCollector(&buf, epcis.NewMarshaller())

	require.NoError(t, c.StartSingleEvent(epcis.DocumentContext{}))
	require.NoError(t, c.CollectSingleEvent(&epcis.Event{Type: epcis.ObjectEventType, Fields: map[string]any{"action": "ADD"}}))
	require.NoError(t, c.EndSingleEvent())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "ObjectEvent", parsed["type"])
	assert.NotContains(t, parsed, "@context", "no context was resolved, so none should be written")
}

func TestJSONStreamCollectorSingleEventIncludesContext(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONStreamCollector(&buf, epcis.NewMarshaller())

	require.NoError(t, c.StartSingleEvent(epcis.DocumentContext{JSONLDContext: []any{"https://example.com/ctx"}}))
	require.NoError(t, c.CollectSingleEvent(&epcis.Event{Type: epcis.ObjectEventType, Fields: map[string]any{"action": "ADD"}}))
	require.NoError(t, c.EndSingleEvent())

	var parsed map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &parsed))
	assert.Equal(t, "ObjectEvent", parsed["type"])
	assert.Equal(t, []any{"https://example.com/ctx"}, parsed["@context"])
}

func TestListCollectorAccumulatesInOrder(t *testing.T) {
	c := NewListCollector()
	require.NoError(t, c.Start(epcis.DocumentContext{IsEpcisDocument: true}))
	require.NoError(t, c.Collect(&epcis.Event{Type: epcis.ObjectEventType, Ordinal: 0}))
	require.NoError(t, c.Collect(&epcis.Event{Type: epcis.AggregationEventType, Ordinal: 1}))
	require.NoError(t, c.End())

	got, err := c.Get()
	require.NoError(t, err)
	res := got.(Result)
	require.Len(t, res.Events, 2)
	assert.Equal(t, epcis.ObjectEventType, res.Events[0].Type)
	assert.Equal(t, epcis.AggregationEventType, res.Events[1].Type)
}

func TestXMLStreamCollectorDeclaresResolverNamespaces(t *testing.T) {
	var buf bytes.Buffer
	r := nsresolver.New()
	r.AddDocumentNs(epcis.NsBinding{URI: "http://epcis.gs1eg.org/hc/ns", Prefix: "gs1egypthc"})
	c := NewXMLStreamCollector(&buf, epcis.NewMarshaller(), r)

	require.NoError(t, c.Start(epcis.DocumentContext{IsEpcisDocument: true, SchemaVersion: epcis.Version20, CreationDate: "2026-01-01T00:00:00Z"}))
	require.NoError(t, c.Collect(&epcis.Event{Type: epcis.ObjectEventType, Fields: map[string]any{"action": "ADD"}}))
	require.NoError(t, c.End())

	out := buf.String()
	assert.Contains(t, out, `xmlns:gs1egypthc="http://epcis.gs1eg.org/hc/ns"`)
	assert.Contains(t, out, "<ObjectEvent>")
	assert.True(t, strings.HasSuffix(out, "</epcis:EPCISDocument>"))
}

func TestCloseIsIdempotent(t *testing.T) {
	var buf bytes.Buffer
	c := NewJSONStreamCollector(&buf, epcis.NewMarshaller())
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
}
