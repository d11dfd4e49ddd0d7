// Package codec provides the "external encoder/decoder" collaborators
// spec.md §1 marks out of scope for the core — a JSON default so a built
// client works with no further configuration, plus an optional gzip
// wrapper for request/response body compression.
package codec

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Encoder serializes a Go value into a request body.
type Encoder interface {
	Encode(v interface{}) ([]byte, error)
	ContentType() string
}

// Decoder deserializes a response body into a Go value.
type Decoder interface {
	Decode(body []byte, v interface{}) error
}

// JSONCodec is the default Encoder and Decoder, backed by encoding/json.
// Standard library is the deliberate choice here: spec.md §1 places
// concrete encoders/decoders out of scope for the core, so a library
// needs a dependency-free default rather than imposing a choice of JSON
// library on every caller.
type JSONCodec struct{}

func (JSONCodec) Encode(v interface{}) ([]byte, error) { return json.Marshal(v) }
func (JSONCodec) Decode(body []byte, v interface{}) error {
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
func (JSONCodec) ContentType() string { return "application/json" }

// GzipEncoder wraps another Encoder and gzip-compresses its output. It
// sets no Content-Encoding header itself (see ContentEncoding).
type GzipEncoder struct {
	Inner Encoder
	Level int
}

// NewGzipEncoder wraps inner with gzip compression at the given level
// (use gzip.DefaultCompression for 0).
func NewGzipEncoder(inner Encoder, level int) *GzipEncoder {
	if level == 0 {
		level = gzip.DefaultCompression
	}
	return &GzipEncoder{Inner: inner, Level: level}
}

func (g *GzipEncoder) Encode(v interface{}) ([]byte, error) {
	raw, err := g.Inner.Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, g.Level)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(raw); err != nil {
		_ = zw.Close()
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *GzipEncoder) ContentType() string { return g.Inner.ContentType() }

// ContentEncoding is the header value callers should set alongside a
// GzipEncoder-produced body.
const ContentEncoding = "gzip"

// GzipDecoder wraps another Decoder and gzip-decompresses the body first,
// for use when a response arrives with Content-Encoding: gzip and the
// transport didn't already transparently decompress it.
type GzipDecoder struct {
	Inner Decoder
}

func (g GzipDecoder) Decode(body []byte, v interface{}) error {
	if len(body) == 0 {
		return g.Inner.Decode(body, v)
	}
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return err
	}
	defer zr.Close()
	raw, err := io.ReadAll(zr)
	if err != nil {
		return err
	}
	return g.Inner.Decode(raw, v)
}
