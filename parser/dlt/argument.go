package dlt

import (
	"encoding/binary"
	"math"

	"github.com/esrlabs/chipmunk-core/msgrec"
)

// argument wire tags (our own compact TypeInfo encoding, see header.go doc).
const (
	tagBool byte = iota
	tagSigned
	tagUnsigned
	tagFloat
	tagSignedFixed
	tagUnsignedFixed
	tagString
	tagRaw
)

func kindToTag(k msgrec.ArgKind) byte {
	switch k {
	case msgrec.ArgBool:
		return tagBool
	case msgrec.ArgSigned:
		return tagSigned
	case msgrec.ArgUnsigned:
		return tagUnsigned
	case msgrec.ArgFloat:
		return tagFloat
	case msgrec.ArgSignedFixedPoint:
		return tagSignedFixed
	case msgrec.ArgUnsignedFixedPoint:
		return tagUnsignedFixed
	case msgrec.ArgString:
		return tagString
	default:
		return tagRaw
	}
}

func encodeArgument(dst []byte, a msgrec.Argument, bo binary.ByteOrder) []byte {
	tag := kindToTag(a.Kind)
	dst = append(dst, tag)
	switch tag {
	case tagBool:
		if a.Bool {
			dst = append(dst, 1)
		} else {
			dst = append(dst, 0)
		}
	case tagSigned:
		dst = appendUint64(dst, uint64(a.Signed), bo)
	case tagUnsigned:
		dst = appendUint64(dst, a.Unsigned, bo)
	case tagFloat:
		dst = appendUint64(dst, math.Float64bits(a.Float), bo)
	case tagSignedFixed:
		dst = appendUint64(dst, uint64(a.Signed), bo)
		dst = appendUint32(dst, math.Float32bits(a.Fixed.Quantization), bo)
		dst = appendUint64(dst, uint64(a.Fixed.Offset), bo)
	case tagUnsignedFixed:
		dst = appendUint64(dst, a.Unsigned, bo)
		dst = appendUint32(dst, math.Float32bits(a.Fixed.Quantization), bo)
		dst = appendUint64(dst, uint64(a.Fixed.Offset), bo)
	case tagString:
		dst = append(dst, byte(a.Coding))
		strBytes := []byte(a.String)
		dst = appendUint16(dst, uint16(len(strBytes)), bo)
		dst = append(dst, strBytes...)
	case tagRaw:
		dst = appendUint32(dst, uint32(len(a.Raw)), bo)
		dst = append(dst, a.Raw...)
	}
	return dst
}

func decodeArgument(buf []byte, bo binary.ByteOrder) (msgrec.Argument, []byte, error) {
	if len(buf) < 1 {
		return msgrec.Argument{}, buf, errShort
	}
	tag := buf[0]
	buf = buf[1:]

	var a msgrec.Argument
	switch tag {
	case tagBool:
		if len(buf) < 1 {
			return a, buf, errShort
		}
		a.Kind = msgrec.ArgBool
		a.Bool = buf[0] != 0
		buf = buf[1:]
	case tagSigned:
		v, rest, err := readUint64(buf, bo)
		if err != nil {
			return a, buf, err
		}
		a.Kind = msgrec.ArgSigned
		a.Signed = int64(v)
		buf = rest
	case tagUnsigned:
		v, rest, err := readUint64(buf, bo)
		if err != nil {
			return a, buf, err
		}
		a.Kind = msgrec.ArgUnsigned
		a.Unsigned = v
		buf = rest
	case tagFloat:
		v, rest, err := readUint64(buf, bo)
		if err != nil {
			return a, buf, err
		}
		a.Kind = msgrec.ArgFloat
		a.Float = math.Float64frombits(v)
		buf = rest
	case tagSignedFixed, tagUnsignedFixed:
		v, rest, err := readUint64(buf, bo)
		if err != nil {
			return a, buf, err
		}
		buf = rest
		q, rest2, err := readUint32(buf, bo)
		if err != nil {
			return a, buf, err
		}
		buf = rest2
		off, rest3, err := readUint64(buf, bo)
		if err != nil {
			return a, buf, err
		}
		buf = rest3
		if tag == tagSignedFixed {
			a.Kind = msgrec.ArgSignedFixedPoint
			a.Signed = int64(v)
		} else {
			a.Kind = msgrec.ArgUnsignedFixedPoint
			a.Unsigned = v
		}
		a.Fixed = msgrec.FixedPoint{
			Quantization: math.Float32frombits(q),
			Offset:       int64(off),
		}
	case tagString:
		if len(buf) < 3 {
			return a, buf, errShort
		}
		coding := buf[0]
		n, rest, err := readUint16(buf[1:], bo)
		if err != nil {
			return a, buf, err
		}
		if len(rest) < int(n) {
			return a, buf, errShort
		}
		a.Kind = msgrec.ArgString
		a.Coding = msgrec.StringCoding(coding)
		a.String = string(rest[:n])
		buf = rest[n:]
	case tagRaw:
		n, rest, err := readUint32(buf, bo)
		if err != nil {
			return a, buf, err
		}
		if uint32(len(rest)) < n {
			return a, buf, errShort
		}
		a.Kind = msgrec.ArgRaw
		a.Raw = append([]byte(nil), rest[:n]...)
		buf = rest[n:]
	default:
		return a, buf, errUnknownArgTag
	}
	return a, buf, nil
}

func appendUint16(dst []byte, v uint16, bo binary.ByteOrder) []byte {
	var b [2]byte
	bo.PutUint16(b[:], v)
	return append(dst, b[:]...)
}

func appendUint32(dst []byte, v uint32, bo binary.ByteOrder) []byte {
	var b [4]byte
	bo.PutUint32(b[:], v)
	return append(dst, b[:]...)
}

func appendUint64(dst []byte, v uint64, bo binary.ByteOrder) []byte {
	var b [8]byte
	bo.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

func readUint16(buf []byte, bo binary.ByteOrder) (uint16, []byte, error) {
	if len(buf) < 2 {
		return 0, buf, errShort
	}
	return bo.Uint16(buf[:2]), buf[2:], nil
}

func readUint32(buf []byte, bo binary.ByteOrder) (uint32, []byte, error) {
	if len(buf) < 4 {
		return 0, buf, errShort
	}
	return bo.Uint32(buf[:4]), buf[4:], nil
}

func readUint64(buf []byte, bo binary.ByteOrder) (uint64, []byte, error) {
	if len(buf) < 8 {
		return 0, buf, errShort
	}
	return bo.Uint64(buf[:8]), buf[8:], nil
}
