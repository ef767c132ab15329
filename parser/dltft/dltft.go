// Package dltft reconstructs DLT File-Transfer attachments (FLST/FLDA/FLFI
// verbose-message sequences) out of an underlying DLT byte stream
// (spec.md §3, §4.4). It wraps a dlt.Parser rather than duplicating its
// wire decode, mirroring FtScanner in original_source's
// parsers/src/dlt/attachment.rs: a pure, stateful post-processor run on
// every decoded Message regardless of whether it turns out to carry a
// DLT-FT fragment.
package dltft

import (
	"strings"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/esrlabs/chipmunk-core/parser/dlt"
)

const (
	tagStart = "FLST"
	tagData  = "FLDA"
	tagEnd   = "FLFI"
)

// Parser decodes DLT messages and, alongside each one, runs them through
// an FtScanner so a completed attachment rides out on the same Parse call
// that decoded its closing FLFI message.
type Parser struct {
	inner   *dlt.Parser
	scanner *FtScanner
}

func New(opts dlt.Options) *Parser {
	return &Parser{inner: dlt.New(opts), scanner: NewFtScanner()}
}

func (p *Parser) Parse(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
	rest, yield, err := p.inner.Parse(buf, tsHint)
	if err != nil || yield.Message == nil {
		return rest, yield, err
	}
	if att := p.scanner.Process(yield.Message); att != nil {
		yield.Attachment = att
	}
	return rest, yield, nil
}

// FtScanner accumulates DLT-FT fragments across a sequence of decoded
// messages. It is not safe for concurrent use; a producer owns exactly
// one per source.
type FtScanner struct {
	files map[uint32]*msgrec.Attachment
	index int
}

func NewFtScanner() *FtScanner {
	return &FtScanner{files: make(map[uint32]*msgrec.Attachment)}
}

// Process inspects one decoded message for a DLT-FT fragment, updating
// scanner state accordingly, and returns the finished Attachment if this
// message was the FLFI that closed one. index always advances, matched
// or not, so Attachment.Messages records absolute positions in the
// stream the scanner was fed.
func (s *FtScanner) Process(m *msgrec.Message) *msgrec.Attachment {
	idx := s.index
	s.index++

	args := ftArgs(m)
	if args == nil {
		return nil
	}

	switch {
	case matchesTag(tagStart, args):
		start, ok := parseStart(args)
		if !ok {
			return nil
		}
		s.files[start.id] = &msgrec.Attachment{
			Name:        start.name,
			Size:        int(start.size),
			CreatedDate: start.created,
			Messages:    []int{idx},
		}
		return nil

	case matchesTag(tagData, args):
		id, packetBytes, ok := parseData(args)
		if !ok {
			return nil
		}
		file, ok := s.files[id]
		if !ok {
			return nil
		}
		file.Messages = append(file.Messages, idx)
		file.AddData(packetBytes)
		return nil

	case matchesTag(tagEnd, args):
		id, ok := parseEnd(args)
		if !ok {
			return nil
		}
		file, ok := s.files[id]
		if !ok {
			return nil
		}
		delete(s.files, id)
		file.Messages = append(file.Messages, idx)
		return file
	}
	return nil
}

// ftArgs returns m's verbose argument list when m is eligible to be a
// DLT-FT fragment: Log/Info, verbose, more than two arguments.
func ftArgs(m *msgrec.Message) []msgrec.Argument {
	if m.Type.Category != msgrec.CategoryLog || msgrec.LogLevel(m.Type.SubType) != msgrec.LogInfo {
		return nil
	}
	if m.Payload.Kind != msgrec.PayloadVerbose {
		return nil
	}
	if len(m.Payload.Args) <= 2 {
		return nil
	}
	return m.Payload.Args
}

func matchesTag(tag string, args []msgrec.Argument) bool {
	first, ok := argString(args[0])
	if !ok || first != tag {
		return false
	}
	last, ok := argString(args[len(args)-1])
	return ok && last == tag
}

func argString(a msgrec.Argument) (string, bool) {
	if a.Kind != msgrec.ArgString {
		return "", false
	}
	return strings.TrimSpace(a.String), true
}

func argNumber(a msgrec.Argument) (uint32, bool) {
	if a.Kind != msgrec.ArgUnsigned {
		return 0, false
	}
	return uint32(a.Unsigned), true
}

type ftStart struct {
	id      uint32
	name    string
	size    uint32
	created string
}

// parseStart reads FLST's fixed argument layout (spec.md §4.4 / original
// attachment.rs doc comment):
//
//	0 string "FLST", 1 uint file-id, 2 string file-name, 3 uint file-size,
//	4 string date-created, 5 uint packet-count, 6 uint buffer-size,
//	7 string "FLST"
func parseStart(args []msgrec.Argument) (ftStart, bool) {
	if len(args) < 6 {
		return ftStart{}, false
	}
	id, ok := argNumber(args[1])
	if !ok {
		return ftStart{}, false
	}
	name, ok := argString(args[2])
	if !ok {
		return ftStart{}, false
	}
	size, ok := argNumber(args[3])
	if !ok {
		return ftStart{}, false
	}
	created, ok := argString(args[4])
	if !ok {
		return ftStart{}, false
	}
	return ftStart{id: id, name: name, size: size, created: created}, true
}

// parseData reads FLDA's layout: 0 string "FLDA", 1 uint file-id,
// 2 uint packet-num, 3 raw bytes, 4 string "FLDA".
func parseData(args []msgrec.Argument) (id uint32, data []byte, ok bool) {
	if len(args) < 4 {
		return 0, nil, false
	}
	id, ok = argNumber(args[1])
	if !ok {
		return 0, nil, false
	}
	if _, ok = argNumber(args[2]); !ok {
		return 0, nil, false
	}
	if args[3].Kind != msgrec.ArgRaw {
		return 0, nil, false
	}
	return id, args[3].Raw, true
}

// parseEnd reads FLFI's layout: 0 string "FLFI", 1 uint file-id,
// 2 string "FLFI".
func parseEnd(args []msgrec.Argument) (uint32, bool) {
	if len(args) < 2 {
		return 0, false
	}
	return argNumber(args[1])
}
