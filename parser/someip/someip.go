// Package someip implements a Parser for the AUTOSAR SOME/IP
// service-oriented RPC framing (spec.md §1, §4.4): "the concrete
// DLT/SOME/IP wire-format byte layouts beyond what the parser trait
// needs" are explicitly out of scope, so this decodes exactly the fixed
// 16-byte SOME/IP header (message id, length, request id, versions,
// message type, return code) and carries the rest of the frame as an
// opaque payload, the same depth bgpfix's bmp package treats BMP's inner
// route-monitoring messages: decode the envelope, not every nested wire
// format.
package someip

import (
	"encoding/binary"
	"errors"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
)

const headerLen = 16

// MessageType is the SOME/IP message-type byte.
type MessageType byte

const (
	TypeRequest            MessageType = 0x00
	TypeRequestNoReturn    MessageType = 0x01
	TypeNotification       MessageType = 0x02
	TypeResponse           MessageType = 0x80
	TypeError              MessageType = 0x81
	TypeTPRequest          MessageType = 0x20
	TypeTPRequestNoReturn  MessageType = 0x21
	TypeTPNotification     MessageType = 0x22
	TypeTPResponse         MessageType = 0xa0
	TypeTPError            MessageType = 0xa1
)

var errShortHeader = errors.New("someip: short header")

// Parser decodes the SOME/IP header; Options is presently empty but kept
// for symmetry with dlt.Options as filtering is added.
type Options struct{}

type Parser struct{}

func New(Options) *Parser { return &Parser{} }

// Parse implements parser.Parser. The Length field (spec: payload length
// plus the 8 trailing header bytes) drives framing; everything after the
// fixed header rides along as Payload.Raw for now, since reconstructing
// individual SOME/IP payload fields needs a service interface
// description chipmunk does not ship (spec.md §1).
func (p *Parser) Parse(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
	if len(buf) < headerLen {
		return buf, parser.Yield{}, parser.ErrIncomplete
	}
	messageID := binary.BigEndian.Uint32(buf[0:4])
	length := binary.BigEndian.Uint32(buf[4:8])
	requestID := binary.BigEndian.Uint32(buf[8:12])
	protocolVersion := buf[12]
	interfaceVersion := buf[13]
	msgType := buf[14]
	returnCode := buf[15]

	if length < 8 {
		return buf[headerLen:], parser.Yield{}, parser.NewParseError(errShortHeader, headerLen)
	}
	frameLen := 8 + int(length) // message-id(4) + length-field(4) + length
	if len(buf) < frameLen {
		return buf, parser.Yield{}, parser.ErrIncomplete
	}
	payload := append([]byte(nil), buf[headerLen:frameLen]...)
	tail := buf[frameLen:]

	m := &msgrec.Message{
		Type:    msgrec.Type{Category: msgrec.CategoryNetwork, SubType: msgType},
		Payload: msgrec.Payload{Kind: msgrec.PayloadNonVerbose, MessageID: messageID, Raw: payload},
	}
	if tsHint != nil {
		m.StorageTimestamp = *tsHint
	} else {
		m.StorageTimestamp = time.Now().UTC()
	}
	m.AppID = serviceIDOf(messageID)
	m.ContextID = methodIDOf(messageID)
	m.SessionID = requestID
	m.Counter = protocolVersion
	m.Timestamp = uint32(interfaceVersion)<<8 | uint32(returnCode)

	return tail, parser.Yield{Message: m}, nil
}

func serviceIDOf(messageID uint32) string {
	return hex16(uint16(messageID >> 16))
}

func methodIDOf(messageID uint32) string {
	return hex16(uint16(messageID))
}

func hex16(v uint16) string {
	const digits = "0123456789abcdef"
	b := [4]byte{digits[(v>>12)&0xf], digits[(v>>8)&0xf], digits[(v>>4)&0xf], digits[v&0xf]}
	return string(b[:])
}
