// Package observe implements the wire encoding for the ObserveOptions
// envelope crossing the host/core boundary (spec.md §6): a tagged union
// of {source_desc, parser_desc, options_blob}, length-prefixed so a
// host can frame it off a byte stream the same way it frames DLT or
// SOME/IP records.
package observe

import (
	"encoding/binary"
	"fmt"

	"github.com/buger/jsonparser"
)

// Options is the decoded envelope. SourceDetail and ParserDetail are
// kept as raw JSON (not further unmarshaled here) so registry.Registry
// factories can interpret kind-specific fields themselves.
type Options struct {
	SourceKind   string
	SourceDetail []byte // raw JSON object

	ParserKind   string
	ParserDetail []byte // raw JSON object
}

// Encode serializes opts as a 4-byte big-endian length prefix followed
// by a JSON body, matching spec.md §6's "length-prefixed binary
// serialization compatible with the host language's ABI".
func Encode(opts Options) []byte {
	body := make([]byte, 0, 128)
	body = append(body, '{')
	body = appendJSONString(body, "source_kind", opts.SourceKind)
	body = append(body, ',')
	body = appendJSONRaw(body, "source_desc", opts.SourceDetail)
	body = append(body, ',')
	body = appendJSONString(body, "parser_kind", opts.ParserKind)
	body = append(body, ',')
	body = appendJSONRaw(body, "parser_desc", opts.ParserDetail)
	body = append(body, '}')

	out := make([]byte, 4+len(body))
	binary.BigEndian.PutUint32(out[:4], uint32(len(body)))
	copy(out[4:], body)
	return out
}

func appendJSONString(dst []byte, key, value string) []byte {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, `":`...)
	dst = append(dst, '"')
	dst = append(dst, value...)
	dst = append(dst, '"')
	return dst
}

func appendJSONRaw(dst []byte, key string, raw []byte) []byte {
	dst = append(dst, '"')
	dst = append(dst, key...)
	dst = append(dst, `":`...)
	if len(raw) == 0 {
		return append(dst, "{}"...)
	}
	return append(dst, raw...)
}

// Decode reads a length-prefixed envelope from the front of buf,
// returning the decoded Options and the number of bytes consumed.
// Field extraction uses jsonparser.Get rather than a full
// encoding/json.Unmarshal: the envelope's two *_desc blobs are
// deliberately opaque to this package and jsonparser hands back their
// raw bytes without allocating a map for them.
func Decode(buf []byte) (Options, int, error) {
	if len(buf) < 4 {
		return Options{}, 0, fmt.Errorf("observe: buffer too short for length prefix")
	}
	n := int(binary.BigEndian.Uint32(buf[:4]))
	if len(buf) < 4+n {
		return Options{}, 0, fmt.Errorf("observe: buffer too short for declared body length %d", n)
	}
	body := buf[4 : 4+n]

	sourceKind, err := jsonparser.GetString(body, "source_kind")
	if err != nil {
		return Options{}, 0, fmt.Errorf("observe: missing source_kind: %w", err)
	}
	parserKind, err := jsonparser.GetString(body, "parser_kind")
	if err != nil {
		return Options{}, 0, fmt.Errorf("observe: missing parser_kind: %w", err)
	}

	sourceDesc, _, _, err := jsonparser.Get(body, "source_desc")
	if err != nil {
		return Options{}, 0, fmt.Errorf("observe: missing source_desc: %w", err)
	}
	parserDesc, _, _, err := jsonparser.Get(body, "parser_desc")
	if err != nil {
		return Options{}, 0, fmt.Errorf("observe: missing parser_desc: %w", err)
	}

	return Options{
		SourceKind:   sourceKind,
		SourceDetail: sourceDesc,
		ParserKind:   parserKind,
		ParserDetail: parserDesc,
	}, 4 + n, nil
}
