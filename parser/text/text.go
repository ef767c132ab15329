// Package text implements the plain-text Parser: line-break framed
// records whose rendered form is the line itself (spec.md §4.4).
package text

import (
	"bytes"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
)

// Parser splits buf on '\n', yielding one Message per line. It strips a
// trailing '\r' so CRLF-framed sources work too.
type Parser struct{}

func New() *Parser { return &Parser{} }

func (p *Parser) Parse(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
	idx := bytes.IndexByte(buf, '\n')
	if idx < 0 {
		if len(buf) == 0 {
			return buf, parser.Yield{}, parser.ErrEOF
		}
		return buf, parser.Yield{}, parser.ErrIncomplete
	}

	line := buf[:idx]
	line = bytes.TrimSuffix(line, []byte("\r"))

	ts := time.Now().UTC()
	if tsHint != nil {
		ts = *tsHint
	}

	m := &msgrec.Message{
		StorageTimestamp: ts,
		Type:             msgrec.Type{Category: msgrec.CategoryLog, SubType: byte(msgrec.LogInfo)},
		Payload: msgrec.Payload{
			Kind: msgrec.PayloadVerbose,
			Args: []msgrec.Argument{{Kind: msgrec.ArgString, String: string(line), Coding: msgrec.CodingUTF8}},
		},
	}

	return buf[idx+1:], parser.Yield{Message: m}, nil
}
