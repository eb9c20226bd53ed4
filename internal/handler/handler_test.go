package handler

import (
	"testing"

	"github.com/openepcis/openepcis-document-converter-sub002/epcis"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/collector"
	"github.com/openepcis/openepcis-document-converter-sub002/internal/validate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFailsWhenBothAbsent(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

func TestHandleForwardsToCollector(t *testing.T) {
	c := collector.NewListCollector()
	h, err := New(nil, c)
	require.NoError(t, err)

	require.NoError(t, h.Start(epcis.DocumentContext{IsEpcisDocument: true}))
	require.NoError(t, h.Handle(`{"type":"ObjectEvent","action":"ADD"}`, &epcis.Event{Type: epcis.ObjectEventType}))
	require.NoError(t, h.End())

	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	assert.Len(t, res.Events, 1)
}

func TestValidatorOnlyHandlerIsDegenerateCase(t *testing.T) {
	v, err := validate.New()
	require.NoError(t, err)
	h, err := New(v, nil)
	require.NoError(t, err)

	assert.NoError(t, h.Start(epcis.DocumentContext{}))
	assert.NoError(t, h.Handle(`{"type":"ObjectEvent","action":"ADD"}`, &epcis.Event{Type: epcis.ObjectEventType}))
	got, err := h.Get()
	require.NoError(t, err)
	assert.Nil(t, got)
}

// failingCollector wraps a ListCollector with a collector.Failer
// implementation so Handler.Fail has something to assert against.
type failingCollector struct {
	*collector.ListCollector
	failedWith error
}

func (c *failingCollector) Fail(err error) { c.failedWith = err }

func TestFailNotifiesCollectorFailer(t *testing.T) {
	c := &failingCollector{ListCollector: collector.NewListCollector()}
	h, err := New(nil, c)
	require.NoError(t, err)

	boom := assert.AnError
	h.Fail(boom)
	assert.Equal(t, boom, c.failedWith)
}

func TestFailIsNoOpWhenCollectorIsNotAFailer(t *testing.T) {
	c := collector.NewListCollector()
	h, err := New(nil, c)
	require.NoError(t, err)

	assert.NotPanics(t, func() { h.Fail(assert.AnError) })
}

func TestHandleSingleForwardsToCollector(t *testing.T) {
	c := collector.NewListCollector()
	h, err := New(nil, c)
	require.NoError(t, err)

	require.NoError(t, h.StartSingleEvent(epcis.DocumentContext{}))
	require.NoError(t, h.HandleSingle(`{"type":"ObjectEvent"}`, &epcis.Event{Type: epcis.ObjectEventType}))
	require.NoError(t, h.EndSingleEvent())

	got, err := h.Get()
	require.NoError(t, err)
	res := got.(collector.Result)
	require.NotNil(t, res.SingleEvent)
	assert.Equal(t, epcis.ObjectEventType, res.SingleEvent.Type)
}
