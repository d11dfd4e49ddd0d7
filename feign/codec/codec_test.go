package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	Name string `json:"name"`
}

func TestJSONCodec_RoundTrip(t *testing.T) {
	c := JSONCodec{}
	body, err := c.Encode(widget{Name: "bolt"})
	require.NoError(t, err)

	var out widget
	require.NoError(t, c.Decode(body, &out))
	assert.Equal(t, "bolt", out.Name)
	assert.Equal(t, "application/json", c.ContentType())
}

func TestJSONCodec_EmptyBodyDecodesToZeroValue(t *testing.T) {
	c := JSONCodec{}
	var out widget
	require.NoError(t, c.Decode(nil, &out))
	assert.Equal(t, widget{}, out)
}

func TestGzipEncoder_RoundTripThroughGzipDecoder(t *testing.T) {
	enc := NewGzipEncoder(JSONCodec{}, 0)
	body, err := enc.Encode(widget{Name: "nut"})
	require.NoError(t, err)

	dec := GzipDecoder{Inner: JSONCodec{}}
	var out widget
	require.NoError(t, dec.Decode(body, &out))
	assert.Equal(t, "nut", out.Name)
	assert.Equal(t, "application/json", enc.ContentType())
}
