package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCompilesEmbeddedSchemas(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.Len(t, v.jsonSchemas, 5)
	assert.True(t, v.xmlRoots["ObjectEvent"])
	assert.True(t, v.xmlRoots["EPCISDocument"])
}

func TestValidateNeverPanicsOnMalformedXML(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		v.Validate("<ObjectEvent><action>ADD</ObjectEvent>")
	})
}

func TestValidateAcceptsWellFormedObjectEventJSON(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		v.Validate(`{"type":"ObjectEvent","eventTime":"2026-01-01T00:00:00Z","action":"ADD"}`)
	})
}

func TestValidateLogsButDoesNotFailOnUnknownType(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		v.Validate(`{"type":"SomeFutureEvent","foo":"bar"}`)
	})
}

func TestValidateIgnoresBlankInput(t *testing.T) {
	v, err := New()
	require.NoError(t, err)
	assert.NotPanics(t, func() {
		v.Validate("   ")
	})
}
