// Package dlt implements the DLT (AUTOSAR Diagnostic Log and Trace)
// Parser: storage header, standard header, optional extended header and
// Verbose/NonVerbose/Control payloads (spec.md §4.4).
//
// The on-wire layout follows the shape of the real DLT standard described
// in dlt_fmt.rs/dlt_file.rs (see original_source/), but the exact bit
// packing of TypeInfo is our own compact encoding: spec.md explicitly
// scopes "the concrete DLT/SOME/IP wire-format byte layouts beyond what
// the parser trait needs" out, so this package documents and tests its
// own self-consistent codec rather than guessing at vendor byte-exact
// compatibility.
package dlt

import (
	"encoding/binary"
	"errors"
)

// StoragePattern is the magic 4 bytes every as_stored_bytes blob starts
// with (spec.md §6).
var StoragePattern = [4]byte{0x44, 0x4C, 0x54, 0x01} // "DLT\x01"

// Standard header HTYP bit flags.
const (
	htypUEH  = 1 << 0 // use extended header
	htypMSBF = 1 << 1 // big endian payload
	htypWEID = 1 << 2 // with ECU id
	htypWSID = 1 << 3 // with session id
	htypWTMS = 1 << 4 // with timestamp
)

// StorageHeader precedes the standard header in the as_stored_bytes form
// and in storage-backed sources (spec.md §6).
type StorageHeader struct {
	Seconds      uint32
	Microseconds uint32
	ECUID        [4]byte
}

const storageHeaderLen = 4 + 4 + 4

func encodeStorageHeader(dst []byte, h StorageHeader) []byte {
	var b [storageHeaderLen]byte
	binary.BigEndian.PutUint32(b[0:4], h.Seconds)
	binary.BigEndian.PutUint32(b[4:8], h.Microseconds)
	copy(b[8:12], h.ECUID[:])
	return append(dst, b[:]...)
}

func decodeStorageHeader(buf []byte) (StorageHeader, []byte, error) {
	if len(buf) < storageHeaderLen {
		return StorageHeader{}, buf, errShort
	}
	var h StorageHeader
	h.Seconds = binary.BigEndian.Uint32(buf[0:4])
	h.Microseconds = binary.BigEndian.Uint32(buf[4:8])
	copy(h.ECUID[:], buf[8:12])
	return h, buf[storageHeaderLen:], nil
}

// StandardHeader is present in every DLT message.
type StandardHeader struct {
	UseExtended bool
	BigEndian   bool
	ECUID       string // 4 bytes, present iff WEID
	SessionID   uint32 // present iff WSID
	Timestamp   uint32 // present iff WTMS, 0.1ms ticks
	Counter     uint8
}

const standardHeaderMinLen = 4 // HTYP, MCNT, LEN(2)

func (h StandardHeader) wireLen() int {
	n := standardHeaderMinLen
	if h.ECUID != "" {
		n += 4
	}
	if h.SessionID != 0 {
		n += 4
	}
	// timestamp presence is tracked separately from zero-value since 0 is valid
	return n
}

func encodeStandardHeader(dst []byte, h StandardHeader, withSession, withTimestamp bool, totalLen uint16) []byte {
	htyp := byte(0)
	if h.UseExtended {
		htyp |= htypUEH
	}
	if h.BigEndian {
		htyp |= htypMSBF
	}
	if h.ECUID != "" {
		htyp |= htypWEID
	}
	if withSession {
		htyp |= htypWSID
	}
	if withTimestamp {
		htyp |= htypWTMS
	}

	dst = append(dst, htyp, h.Counter, byte(totalLen>>8), byte(totalLen))
	if h.ECUID != "" {
		var ecu [4]byte
		copy(ecu[:], h.ECUID)
		dst = append(dst, ecu[:]...)
	}
	if withSession {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], h.SessionID)
		dst = append(dst, b[:]...)
	}
	if withTimestamp {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], h.Timestamp)
		dst = append(dst, b[:]...)
	}
	return dst
}

// decodeStandardHeader returns the header, the total message length field
// (LEN, spanning from the start of the standard header), and the rest of
// buf after the standard header fields.
func decodeStandardHeader(buf []byte) (StandardHeader, uint16, bool, bool, []byte, error) {
	if len(buf) < standardHeaderMinLen {
		return StandardHeader{}, 0, false, false, buf, errShort
	}
	htyp := buf[0]
	var h StandardHeader
	h.UseExtended = htyp&htypUEH != 0
	h.BigEndian = htyp&htypMSBF != 0
	h.Counter = buf[1]
	length := binary.BigEndian.Uint16(buf[2:4])
	rest := buf[4:]

	hasECU := htyp&htypWEID != 0
	hasSession := htyp&htypWSID != 0
	hasTimestamp := htyp&htypWTMS != 0

	if hasECU {
		if len(rest) < 4 {
			return StandardHeader{}, 0, false, false, buf, errShort
		}
		h.ECUID = trimASCII(rest[:4])
		rest = rest[4:]
	}
	if hasSession {
		if len(rest) < 4 {
			return StandardHeader{}, 0, false, false, buf, errShort
		}
		h.SessionID = binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
	}
	if hasTimestamp {
		if len(rest) < 4 {
			return StandardHeader{}, 0, false, false, buf, errShort
		}
		h.Timestamp = binary.BigEndian.Uint32(rest[:4])
		rest = rest[4:]
	}

	return h, length, hasSession, hasTimestamp, rest, nil
}

// ExtendedHeader carries application/context ids and the message type
// (spec.md §3, §4.4).
type ExtendedHeader struct {
	Verbose     bool
	Category    byte // msgrec.Category
	SubType     byte
	ArgCount    uint8
	AppID       string
	ContextID   string
}

const extendedHeaderLen = 1 + 1 + 4 + 4

func encodeExtendedHeader(dst []byte, h ExtendedHeader) []byte {
	msin := byte(0)
	if h.Verbose {
		msin |= 1
	}
	msin |= (h.Category & 0x7) << 1
	msin |= (h.SubType & 0xf) << 4

	var appid, ctxid [4]byte
	copy(appid[:], h.AppID)
	copy(ctxid[:], h.ContextID)

	dst = append(dst, msin, h.ArgCount)
	dst = append(dst, appid[:]...)
	dst = append(dst, ctxid[:]...)
	return dst
}

func decodeExtendedHeader(buf []byte) (ExtendedHeader, []byte, error) {
	if len(buf) < extendedHeaderLen {
		return ExtendedHeader{}, buf, errShort
	}
	msin := buf[0]
	h := ExtendedHeader{
		Verbose:   msin&1 != 0,
		Category:  (msin >> 1) & 0x7,
		SubType:   (msin >> 4) & 0xf,
		ArgCount:  buf[1],
		AppID:     trimASCII(buf[2:6]),
		ContextID: trimASCII(buf[6:10]),
	}
	return h, buf[extendedHeaderLen:], nil
}

func trimASCII(b []byte) string {
	n := len(b)
	for n > 0 && (b[n-1] == 0 || b[n-1] == ' ') {
		n--
	}
	return string(b[:n])
}

var errShort = errors.New("dlt: short buffer")
