package adapters

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpanRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "_span")
	spans := []Span{{0, 3}, {4, 7}, {8, 8}}
	require.NoError(t, WriteSpans(path, spans))

	got, err := ReadSpans(path)
	require.NoError(t, err)
	assert.Equal(t, spans, got)
}

func TestAttrRoundTripWithEscapes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "word")
	values := []string{"ord", "ord\\ord", "line\nbreak", ""}
	require.NoError(t, WriteAttrs(path, values))

	got, err := ReadAttrs(path)
	require.NoError(t, err)
	assert.Equal(t, values, got)
}

func TestCorpusDataRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.data")
	payload := []byte{0x00, 0x01, 0xFF, 'h', 'i'}
	require.NoError(t, WriteCorpusData(path, payload))

	got, err := ReadCorpusData(path)
	require.NoError(t, err)
	assert.Equal(t, payload, got)
}

func TestMarkerLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "installed.marker")
	assert.False(t, HasMarker(path))
	require.NoError(t, Marker(path))
	assert.True(t, HasMarker(path))
	require.NoError(t, RemoveMarker(path))
	assert.False(t, HasMarker(path))
	require.NoError(t, RemoveMarker(path)) // idempotent
}
