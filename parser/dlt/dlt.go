package dlt

import (
	"encoding/binary"
	"time"

	"github.com/esrlabs/chipmunk-core/fibex"
	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
)

// Options configures a Parser.
type Options struct {
	Filter *Filter
	Dict   *fibex.Dictionary // shared, read-only (spec.md §9); nil is fine
}

// Parser implements parser.Parser for the DLT wire format.
type Parser struct {
	opts Options
}

func New(opts Options) *Parser {
	if opts.Dict == nil {
		opts.Dict = fibex.Empty()
	}
	return &Parser{opts: opts}
}

// Parse implements parser.Parser. See header.go for the on-wire layout
// and the package doc for why TypeInfo encoding is our own, documented
// convention rather than a vendor-exact reproduction.
func (p *Parser) Parse(buf []byte, tsHint *time.Time) ([]byte, parser.Yield, error) {
	orig := buf
	var storage StorageHeader
	haveStorage := false

	if len(buf) >= 4 && [4]byte{buf[0], buf[1], buf[2], buf[3]} == StoragePattern {
		if len(buf) < 4+storageHeaderLen {
			return orig, parser.Yield{}, parser.ErrIncomplete
		}
		var err error
		storage, buf, err = decodeStorageHeader(buf[4:])
		if err != nil {
			return orig, parser.Yield{}, parser.ErrIncomplete
		}
		haveStorage = true
	}

	stdStart := buf
	std, totalLen, _, _, rest, err := decodeStandardHeader(buf)
	if err != nil {
		return orig, parser.Yield{}, parser.ErrIncomplete
	}
	if totalLen < standardHeaderMinLen {
		return dropOne(orig)
	}

	headerConsumed := len(stdStart) - len(rest)

	var ext ExtendedHeader
	haveExt := std.UseExtended
	if haveExt {
		if len(rest) < extendedHeaderLen {
			return orig, parser.Yield{}, parser.ErrIncomplete
		}
		ext, rest, err = decodeExtendedHeader(rest)
		if err != nil {
			return dropOne(orig)
		}
		headerConsumed = len(stdStart) - len(rest)
	}

	payloadLen := int(totalLen) - headerConsumed
	if payloadLen < 0 {
		return dropOne(orig)
	}
	if len(rest) < payloadLen {
		return orig, parser.Yield{}, parser.ErrIncomplete
	}
	payload := rest[:payloadLen]
	tail := rest[payloadLen:]

	bo := binary.ByteOrder(binary.LittleEndian)
	if std.BigEndian {
		bo = binary.BigEndian
	}

	category := msgrec.Category(ext.Category)
	subType := ext.SubType
	if !haveExt {
		category = msgrec.CategoryLog
	}

	if p.opts.Filter != nil && !p.opts.Filter.Allows(std.ECUID, ext.AppID, ext.ContextID, category, subType) {
		return tail, parser.Yield{Skipped: true}, nil
	}

	m := &msgrec.Message{
		ECUID:     std.ECUID,
		SessionID: std.SessionID,
		Counter:   std.Counter,
		Timestamp: std.Timestamp,
		AppID:     ext.AppID,
		ContextID: ext.ContextID,
		Type:      msgrec.Type{Category: category, SubType: subType},
	}
	if haveStorage {
		m.StorageTimestamp = time.Unix(int64(storage.Seconds), int64(storage.Microseconds)*1000).UTC()
	} else if tsHint != nil {
		m.StorageTimestamp = *tsHint
	} else {
		m.StorageTimestamp = time.Now().UTC()
	}

	switch {
	case category == msgrec.CategoryControl:
		if len(payload) < 4 {
			return dropOne(orig)
		}
		m.Payload = msgrec.Payload{
			Kind:      msgrec.PayloadControl,
			ServiceID: bo.Uint32(payload[:4]),
			Raw:       append([]byte(nil), payload[4:]...),
		}
	case haveExt && ext.Verbose:
		args := make([]msgrec.Argument, 0, ext.ArgCount)
		cur := payload
		for i := uint8(0); i < ext.ArgCount; i++ {
			var a msgrec.Argument
			var derr error
			a, cur, derr = decodeArgument(cur, bo)
			if derr != nil {
				return dropOne(orig)
			}
			args = append(args, a)
		}
		m.Payload = msgrec.Payload{Kind: msgrec.PayloadVerbose, Args: args}
	default:
		if len(payload) < 4 {
			return dropOne(orig)
		}
		msgID := bo.Uint32(payload[:4])
		m.Payload = msgrec.Payload{Kind: msgrec.PayloadNonVerbose, MessageID: msgID, Raw: append([]byte(nil), payload[4:]...)}
		if frame, ok := p.opts.Dict.Lookup(ext.ContextID, ext.AppID, msgID); ok {
			m.Payload.Args = reconstructFromFrame(frame, payload[4:], bo)
		}
	}

	return tail, parser.Yield{Message: m}, nil
}

func dropOne(buf []byte) ([]byte, parser.Yield, error) {
	if len(buf) == 0 {
		return buf, parser.Yield{}, parser.ErrEOF
	}
	return buf[1:], parser.Yield{}, parser.NewParseError(ErrBadLength, 1)
}

// reconstructFromFrame decodes raw non-verbose payload bytes using the
// FIBEX-provided PDU signal list (spec.md §4.4), one primitive field per
// signal in order; a signal wider than the remaining bytes stops early.
func reconstructFromFrame(frame fibex.Frame, raw []byte, bo binary.ByteOrder) []msgrec.Argument {
	var args []msgrec.Argument
	for _, pdu := range frame.PDUs {
		for _, sig := range pdu.Signals {
			switch sig.Kind {
			case msgrec.ArgUnsigned:
				if len(raw) < 4 {
					return args
				}
				args = append(args, msgrec.Argument{Kind: msgrec.ArgUnsigned, Name: sig.Name, Unit: sig.Unit, Unsigned: uint64(bo.Uint32(raw[:4]))})
				raw = raw[4:]
			case msgrec.ArgSigned:
				if len(raw) < 4 {
					return args
				}
				args = append(args, msgrec.Argument{Kind: msgrec.ArgSigned, Name: sig.Name, Unit: sig.Unit, Signed: int64(int32(bo.Uint32(raw[:4])))})
				raw = raw[4:]
			case msgrec.ArgString:
				args = append(args, msgrec.Argument{Kind: msgrec.ArgString, Name: sig.Name, String: string(raw)})
				raw = nil
			default:
				args = append(args, msgrec.Argument{Kind: msgrec.ArgRaw, Name: sig.Name, Raw: append([]byte(nil), raw...)})
				raw = nil
			}
		}
	}
	return args
}

// AsStoredBytes encodes m into the binary form from spec.md §6: the
// original DLT framing pattern, a synthesized storage header, the
// verbatim standard header, optional extended header, and payload bytes.
func AsStoredBytes(m msgrec.Message) []byte {
	bo := binary.ByteOrder(binary.BigEndian)

	var payload []byte
	switch m.Payload.Kind {
	case msgrec.PayloadControl:
		payload = appendUint32(payload, m.Payload.ServiceID, bo)
		payload = append(payload, m.Payload.Raw...)
	case msgrec.PayloadVerbose:
		for _, a := range m.Payload.Args {
			payload = encodeArgument(payload, a, bo)
		}
	default: // NonVerbose
		payload = appendUint32(payload, m.Payload.MessageID, bo)
		payload = append(payload, m.Payload.Raw...)
	}

	ext := ExtendedHeader{
		Verbose:   m.Payload.Kind == msgrec.PayloadVerbose,
		Category:  byte(m.Type.Category),
		SubType:   m.Type.SubType,
		ArgCount:  uint8(len(m.Payload.Args)),
		AppID:     m.AppID,
		ContextID: m.ContextID,
	}

	std := StandardHeader{
		UseExtended: true,
		BigEndian:   true,
		ECUID:       m.ECUID,
		SessionID:   m.SessionID,
		Timestamp:   m.Timestamp,
		Counter:     m.Counter,
	}

	headerLen := standardHeaderMinLen + extendedHeaderLen
	if std.ECUID != "" {
		headerLen += 4
	}
	headerLen += 4 // session id always encoded
	headerLen += 4 // timestamp always encoded
	totalLen := uint16(headerLen + len(payload))

	out := make([]byte, 0, 4+storageHeaderLen+int(totalLen))
	out = append(out, StoragePattern[:]...)
	out = encodeStorageHeader(out, StorageHeader{
		Seconds:      uint32(m.StorageTimestamp.Unix()),
		Microseconds: uint32(m.StorageTimestamp.Nanosecond() / 1000),
		ECUID:        ecuArray(m.ECUID),
	})
	out = encodeStandardHeader(out, std, true, true, totalLen)
	out = encodeExtendedHeader(out, ext)
	out = append(out, payload...)
	return out
}

func ecuArray(s string) [4]byte {
	var a [4]byte
	copy(a[:], s)
	return a
}

// Decode is a convenience one-shot wrapper over Parser.Parse for callers
// (e.g. the DLT-FT attachment round-trip, or tests) that already hold a
// complete as_stored_bytes buffer.
func Decode(buf []byte, opts Options) (msgrec.Message, error) {
	p := New(opts)
	rest, yield, err := p.Parse(buf, nil)
	_ = rest
	if err != nil {
		return msgrec.Message{}, err
	}
	if yield.Message == nil {
		return msgrec.Message{}, ErrBadLength
	}
	return *yield.Message, nil
}
