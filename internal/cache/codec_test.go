package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringCodecRoundTrip(t *testing.T) {
	codec := StringCodec{}

	payload, err := codec.Encode("https://example.com/page")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", payload)

	value, err := codec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/page", value)
}

func TestStringCodecRejectsStructuredPayloads(t *testing.T) {
	codec := StringCodec{}

	_, err := codec.Decode(`{"destination":"https://example.com"}`)
	assert.Error(t, err)

	_, err = codec.Decode(`  ["a","b"]`)
	assert.Error(t, err)
}

func TestJSONCodecRoundTrip(t *testing.T) {
	codec := JSONCodec[testRecord]{}

	payload, err := codec.Encode(testRecord{Code: "promo", Destination: "https://example.com"})
	require.NoError(t, err)

	value, err := codec.Decode(payload)
	require.NoError(t, err)
	assert.Equal(t, "promo", value.Code)
	assert.Equal(t, "https://example.com", value.Destination)
}

func TestJSONCodecRejectsGarbage(t *testing.T) {
	codec := JSONCodec[testRecord]{}

	_, err := codec.Decode("definitely not json")
	assert.Error(t, err)
}
